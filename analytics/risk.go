package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

var (
	levElevated = decimal.NewFromInt(2)
	levHigh     = decimal.NewFromInt(3)
	levVeryHigh = decimal.NewFromInt(5)

	divConcentrated = decimal.RequireFromString("0.3")
	divLimited      = decimal.RequireFromString("0.6")

	apyBleeding = decimal.NewFromInt(-10)
	apyNegative = decimal.NewFromInt(-5)
)

const maxScore = 100

// RiskInputs are the four signals the composite score is built from.
type RiskInputs struct {
	HealthFactor    model.Factor
	Leverage        decimal.Decimal
	Diversification decimal.Decimal
	NetAPY          decimal.Decimal
}

// Score combines the four signals with fixed weights into a 0-100 risk
// score. Each signal contributes at most one band; the sum is capped at 100.
// Triggered bands also explain themselves through the factor and
// recommendation lists.
func Score(in RiskInputs) model.RiskAssessment {
	score := 0
	var factors []string
	var recommendations []string

	switch {
	case in.HealthFactor.LessThan(hfCritical):
		score += 40
		factors = append(factors, "health factor critically low")
		recommendations = append(recommendations, "add collateral immediately")
	case in.HealthFactor.LessThan(hfRisky):
		score += 30
		factors = append(factors, "health factor below safe range")
		recommendations = append(recommendations, "add collateral or repay part of the debt")
	case in.HealthFactor.LessThan(hfModerate):
		score += 15
		factors = append(factors, "moderate liquidation risk")
	}

	switch {
	case in.Leverage.GreaterThan(levVeryHigh):
		score += 25
		factors = append(factors, "very high leverage")
		recommendations = append(recommendations, "unwind part of the loop to reduce leverage")
	case in.Leverage.GreaterThan(levHigh):
		score += 15
		factors = append(factors, "high leverage")
	case in.Leverage.GreaterThan(levElevated):
		score += 8
		factors = append(factors, "elevated leverage")
	}

	switch {
	case in.Diversification.LessThan(divConcentrated):
		score += 20
		factors = append(factors, "position concentrated in very few assets")
		recommendations = append(recommendations, "spread the position across more assets")
	case in.Diversification.LessThan(divLimited):
		score += 10
		factors = append(factors, "limited diversification")
	}

	switch {
	case in.NetAPY.LessThan(apyBleeding):
		score += 15
		factors = append(factors, "strongly negative net yield")
		recommendations = append(recommendations, "rebalance toward cheaper debt or higher-yield collateral")
	case in.NetAPY.LessThan(apyNegative):
		score += 8
		factors = append(factors, "negative net yield")
	}

	if score > maxScore {
		score = maxScore
	}

	return model.RiskAssessment{
		Score:             score,
		Factors:           factors,
		Recommendations:   recommendations,
		LiquidationBuffer: LiquidationBuffer(in.HealthFactor, in.NetAPY),
		Diversification:   in.Diversification,
	}
}
