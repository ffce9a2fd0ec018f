package engine

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
	"github.com/ggonzalez94/lend-risk/providers"
)

var hundred = decimal.NewFromInt(100)

func reserveAnalytics(r providers.MarketReserveRecord, asset common.Address) model.ReserveAnalytics {
	price := parseGuarded(r.PriceUSD)
	supplied := parseGuarded(r.TotalSupplied)
	borrowed := parseGuarded(r.TotalBorrowed)

	totalLiquidity := supplied.Mul(price)
	totalBorrowed := borrowed.Mul(price)
	available := totalLiquidity.Sub(totalBorrowed)
	if available.IsNegative() {
		available = decimal.Zero
	}

	utilization := decimal.Zero
	if supplied.Sign() > 0 {
		utilization = borrowed.Div(supplied).Mul(hundred)
	}

	return model.ReserveAnalytics{
		Asset:                 asset,
		Symbol:                r.Symbol,
		UtilizationPct:        utilization,
		TotalLiquidityUSD:     totalLiquidity,
		TotalBorrowedUSD:      totalBorrowed,
		AvailableLiquidityUSD: available,
		SupplyIncentiveAPR:    parseGuarded(r.SupplyIncentiveAPR),
		BorrowIncentiveAPR:    parseGuarded(r.BorrowIncentiveAPR),
		SupplyAPY:             parseGuarded(r.SupplyAPY),
		VariableBorrowAPY:     parseGuarded(r.VariableBorrowAPY),
	}
}

func parseGuarded(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
