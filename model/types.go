package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RateMode is the interest mode of a borrow. There is no implicit default:
// operations that need one must set it explicitly.
type RateMode string

const (
	RateModeVariable RateMode = "variable"
	RateModeStable   RateMode = "stable"
)

func (m RateMode) Valid() bool {
	return m == RateModeVariable || m == RateModeStable
}

// HealthStatus buckets a health factor for display and gating.
type HealthStatus string

const (
	StatusLiquidatable HealthStatus = "LIQUIDATABLE"
	StatusCritical     HealthStatus = "CRITICAL"
	StatusRisky        HealthStatus = "RISKY"
	StatusModerate     HealthStatus = "MODERATE"
	StatusSafe         HealthStatus = "SAFE"
	StatusVerySafe     HealthStatus = "VERY_SAFE"
	StatusNoDebt       HealthStatus = "NO_DEBT"
)

// ReserveSnapshot is one reserve of the market joined with the user's
// balances in it. All rates are percent values (3.5 means 3.5%), all *USD
// fields are reference-currency values. Snapshots are immutable once built.
type ReserveSnapshot struct {
	Asset    common.Address `json:"asset"`
	Symbol   string         `json:"symbol"`
	Decimals int            `json:"decimals"`

	Supplied     decimal.Decimal `json:"supplied"`
	VariableDebt decimal.Decimal `json:"variable_debt"`
	StableDebt   decimal.Decimal `json:"stable_debt"`

	SupplyAPY          decimal.Decimal `json:"supply_apy"`
	VariableBorrowAPY  decimal.Decimal `json:"variable_borrow_apy"`
	StableBorrowAPY    decimal.Decimal `json:"stable_borrow_apy"`
	SupplyIncentiveAPR decimal.Decimal `json:"supply_incentive_apr"`
	BorrowIncentiveAPR decimal.Decimal `json:"borrow_incentive_apr"`

	PriceUSD decimal.Decimal `json:"price_usd"`

	UsageAsCollateral    bool            `json:"usage_as_collateral"`
	LTV                  decimal.Decimal `json:"ltv"`
	LiquidationThreshold decimal.Decimal `json:"liquidation_threshold"`

	Active bool `json:"active"`
	Frozen bool `json:"frozen"`
	Paused bool `json:"paused"`

	BorrowingEnabled       bool `json:"borrowing_enabled"`
	StableBorrowingEnabled bool `json:"stable_borrowing_enabled"`

	// Market-wide totals, in token units.
	TotalSupplied decimal.Decimal `json:"total_supplied"`
	TotalBorrowed decimal.Decimal `json:"total_borrowed"`
}

// SuppliedValueUSD is the user's supplied balance priced in USD.
func (r ReserveSnapshot) SuppliedValueUSD() decimal.Decimal {
	return r.Supplied.Mul(r.PriceUSD)
}

// DebtValueUSD is the user's variable plus stable debt priced in USD.
func (r ReserveSnapshot) DebtValueUSD() decimal.Decimal {
	return r.VariableDebt.Add(r.StableDebt).Mul(r.PriceUSD)
}

// Usable reports whether the reserve accepts new interactions.
func (r ReserveSnapshot) Usable() bool {
	return r.Active && !r.Frozen && !r.Paused
}

// AssetPosition is one non-zero entry of a user's position.
type AssetPosition struct {
	Asset            common.Address  `json:"asset"`
	Symbol           string          `json:"symbol"`
	SuppliedValueUSD decimal.Decimal `json:"supplied_value_usd"`
	DebtValueUSD     decimal.Decimal `json:"debt_value_usd"`
	Collateral       bool            `json:"collateral"`
}

// UserPositionSummary is the normalized view of a user's whole position.
type UserPositionSummary struct {
	User                 common.Address  `json:"user"`
	TotalCollateralUSD   decimal.Decimal `json:"total_collateral_usd"`
	TotalSuppliedUSD     decimal.Decimal `json:"total_supplied_usd"`
	TotalDebtUSD         decimal.Decimal `json:"total_debt_usd"`
	AvailableBorrowUSD   decimal.Decimal `json:"available_borrow_usd"`
	HealthFactor         Factor          `json:"health_factor"`
	CurrentLTV           decimal.Decimal `json:"current_ltv"`
	LiquidationThreshold decimal.Decimal `json:"liquidation_threshold"`
	EModeCategory        uint8           `json:"emode_category"`
	Positions            []AssetPosition `json:"positions"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// RiskAssessment is the composite risk view of a position.
type RiskAssessment struct {
	Score             int             `json:"score"`
	Factors           []string        `json:"factors"`
	Recommendations   []string        `json:"recommendations"`
	LiquidationBuffer Factor          `json:"liquidation_buffer_days"`
	Diversification   decimal.Decimal `json:"diversification"`
}

// UserAnalytics bundles the per-user outputs of one engine query.
type UserAnalytics struct {
	Summary            UserPositionSummary `json:"summary"`
	HealthStatus       HealthStatus        `json:"health_status"`
	LiquidationRiskPct decimal.Decimal     `json:"liquidation_risk_pct"`
	NetAPY             decimal.Decimal     `json:"net_apy"`
	TotalIncentivesAPR decimal.Decimal     `json:"total_incentives_apr"`
	BorrowCapacityUSD  decimal.Decimal     `json:"borrow_capacity_usd"`
	LeverageRatio      decimal.Decimal     `json:"leverage_ratio"`
}

// ReserveAnalytics is the market-level view of a single reserve.
type ReserveAnalytics struct {
	Asset                 common.Address  `json:"asset"`
	Symbol                string          `json:"symbol"`
	UtilizationPct        decimal.Decimal `json:"utilization_pct"`
	TotalLiquidityUSD     decimal.Decimal `json:"total_liquidity_usd"`
	TotalBorrowedUSD      decimal.Decimal `json:"total_borrowed_usd"`
	AvailableLiquidityUSD decimal.Decimal `json:"available_liquidity_usd"`
	SupplyIncentiveAPR    decimal.Decimal `json:"supply_incentive_apr"`
	BorrowIncentiveAPR    decimal.Decimal `json:"borrow_incentive_apr"`
	SupplyAPY             decimal.Decimal `json:"supply_apy"`
	VariableBorrowAPY     decimal.Decimal `json:"variable_borrow_apy"`
}

// LeverageOpportunity is a positive supply/borrow spread worth looping.
type LeverageOpportunity struct {
	Asset          common.Address  `json:"asset"`
	Symbol         string          `json:"symbol"`
	SupplyAPY      decimal.Decimal `json:"supply_apy"`
	BorrowAPY      decimal.Decimal `json:"borrow_apy"`
	SpreadPct      decimal.Decimal `json:"spread_pct"`
	ExpectedNetAPY decimal.Decimal `json:"expected_net_apy"`
	Risk           string          `json:"risk"`
}

// YieldOptimization suggests moving a supplied balance to a better reserve.
type YieldOptimization struct {
	FromAsset  common.Address  `json:"from_asset"`
	FromSymbol string          `json:"from_symbol"`
	ToAsset    common.Address  `json:"to_asset"`
	ToSymbol   string          `json:"to_symbol"`
	CurrentAPY decimal.Decimal `json:"current_apy"`
	TargetAPY  decimal.Decimal `json:"target_apy"`
	GainPct    decimal.Decimal `json:"gain_pct"`
}

// RiskReduction is a prioritized defensive action.
type RiskReduction struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

// Recommendations bundles the three strategy families.
type Recommendations struct {
	LeverageOpportunities []LeverageOpportunity `json:"leverage_opportunities"`
	YieldOptimizations    []YieldOptimization   `json:"yield_optimizations"`
	RiskReductions        []RiskReduction       `json:"risk_reductions"`
}
