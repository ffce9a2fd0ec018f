package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	hfCritical = decimal.RequireFromString("1.1")
	hfRisky    = decimal.RequireFromString("1.5")
	hfModerate = decimal.NewFromInt(2)
	hfSafe     = decimal.NewFromInt(3)
	hfStable   = decimal.NewFromInt(10)

	daysPerYear = decimal.NewFromInt(365)
)

// HealthFactor is risk-adjusted collateral over debt. Thresholds are percent
// values. Zero debt means the position cannot be liquidated: infinite.
func HealthFactor(totalCollateralUSD, avgLiquidationThresholdPct, totalDebtUSD decimal.Decimal) model.Factor {
	if totalDebtUSD.Sign() <= 0 {
		return model.InfiniteFactor()
	}
	adjusted := totalCollateralUSD.Mul(avgLiquidationThresholdPct).Div(hundred)
	return model.NewFactor(adjusted.Div(totalDebtUSD))
}

// Status buckets a health factor. Bounds are exclusive upper bounds checked
// in order, so 1.05 is CRITICAL, not RISKY.
func Status(hf model.Factor) model.HealthStatus {
	switch {
	case hf.IsInfinite():
		return model.StatusNoDebt
	case hf.LessThan(one):
		return model.StatusLiquidatable
	case hf.LessThan(hfCritical):
		return model.StatusCritical
	case hf.LessThan(hfRisky):
		return model.StatusRisky
	case hf.LessThan(hfModerate):
		return model.StatusModerate
	case hf.LessThan(hfSafe):
		return model.StatusSafe
	default:
		return model.StatusVerySafe
	}
}

// LiquidationBuffer estimates days until liquidation if the health factor
// keeps declining at the current net-APY trend. It is a trend extrapolation,
// not a price-path simulation: a negative net APY bleeds the health factor by
// |netAPY|/365/100 per day. Comfortable or non-declining positions report an
// infinite buffer.
func LiquidationBuffer(hf model.Factor, netAPYPct decimal.Decimal) model.Factor {
	if hf.IsInfinite() || hf.AtLeast(hfStable) {
		return model.InfiniteFactor()
	}
	if !one.LessThan(hf.Decimal()) {
		return model.NewFactor(decimal.Zero)
	}
	dailyDecline := netAPYPct.Abs().Div(daysPerYear).Div(hundred)
	if dailyDecline.IsZero() {
		return model.InfiniteFactor()
	}
	return model.NewFactor(hf.Decimal().Sub(one).Div(dailyDecline))
}

// LiquidationRisk expresses proximity to liquidation as a 0-100 percentage:
// 100/hf capped at 100, zero for debt-free positions. Display-oriented
// companion to Status.
func LiquidationRisk(hf model.Factor) decimal.Decimal {
	if hf.IsInfinite() {
		return decimal.Zero
	}
	if !one.LessThan(hf.Decimal()) {
		return hundred
	}
	return decimal.Min(hundred, hundred.Div(hf.Decimal()))
}

// CurrentLTV is debt over collateral as a percent. Zero collateral reports
// zero rather than dividing.
func CurrentLTV(totalDebtUSD, totalCollateralUSD decimal.Decimal) decimal.Decimal {
	if totalCollateralUSD.Sign() <= 0 {
		return decimal.Zero
	}
	return totalDebtUSD.Div(totalCollateralUSD).Mul(hundred)
}
