package providers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Raw records carry the provider's own string-encoded numbers. The position
// normalizer is the single place they are parsed into decimals; providers
// never interpret them.

type MarketReserveRecord struct {
	Asset    string `json:"asset"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`

	PriceUSD string `json:"price_usd"`

	SupplyAPY         string `json:"supply_apy"`
	VariableBorrowAPY string `json:"variable_borrow_apy"`
	StableBorrowAPY   string `json:"stable_borrow_apy"`

	SupplyIncentiveAPR string `json:"supply_incentive_apr"`
	BorrowIncentiveAPR string `json:"borrow_incentive_apr"`

	LTV                  string `json:"ltv"`
	LiquidationThreshold string `json:"liquidation_threshold"`

	TotalSupplied string `json:"total_supplied"`
	TotalBorrowed string `json:"total_borrowed"`

	Active                 bool `json:"active"`
	Frozen                 bool `json:"frozen"`
	Paused                 bool `json:"paused"`
	CollateralEnabled      bool `json:"collateral_enabled"`
	BorrowingEnabled       bool `json:"borrowing_enabled"`
	StableBorrowingEnabled bool `json:"stable_borrowing_enabled"`
}

type UserReserveRecord struct {
	Asset             string `json:"asset"`
	Supplied          string `json:"supplied"`
	VariableDebt      string `json:"variable_debt"`
	StableDebt        string `json:"stable_debt"`
	UsageAsCollateral bool   `json:"usage_as_collateral"`
}

type UserReservesRecord struct {
	User          string              `json:"user"`
	EModeCategory uint8               `json:"emode_category"`
	Reserves      []UserReserveRecord `json:"reserves"`
}

// IncentiveRecord is the reward layer for one reserve, keyed by lowercased
// asset address.
type IncentiveRecord struct {
	SupplyAPR string `json:"supply_apr"`
	BorrowAPR string `json:"borrow_apr"`
}

// MarketDataSource supplies the market-wide reserve list for a chain.
type MarketDataSource interface {
	MarketReserves(ctx context.Context, chainID int64) ([]MarketReserveRecord, error)
}

// UserDataSource supplies a user's per-reserve balances and eMode category.
type UserDataSource interface {
	UserReserves(ctx context.Context, chainID int64, user common.Address) (*UserReservesRecord, error)
}

// IncentiveSource is optional; a nil source means zero incentives, not an
// error.
type IncentiveSource interface {
	ReserveIncentives(ctx context.Context, chainID int64) (map[string]IncentiveRecord, error)
}
