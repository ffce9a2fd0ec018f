// Package strategy derives actionable suggestions from market-wide
// snapshots and a user's risk assessment.
package strategy

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/analytics"
	"github.com/ggonzalez94/lend-risk/model"
)

var (
	minLeverageSpread = decimal.NewFromInt(2)
	minYieldGain      = decimal.NewFromInt(1)
	leverageRiskBound = decimal.NewFromInt(2)
	divReductionBound = decimal.RequireFromString("0.5")
	highRiskScore     = 70
)

const maxYieldSwitchesPerAsset = 3

// Recommend produces the three strategy families. Output ordering is
// deterministic: opportunities by spread descending, yield switches by
// target APY descending, reductions by priority.
func Recommend(
	snapshots []model.ReserveSnapshot,
	summary model.UserPositionSummary,
	assessment model.RiskAssessment,
) model.Recommendations {
	status := analytics.Status(summary.HealthFactor)
	leverage := analytics.Leverage(summary.TotalSuppliedUSD, summary.TotalDebtUSD)

	return model.Recommendations{
		LeverageOpportunities: leverageOpportunities(snapshots, status, leverage),
		YieldOptimizations:    yieldOptimizations(snapshots),
		RiskReductions:        riskReductions(status, assessment),
	}
}

// leverageOpportunities surfaces reserves whose supply yield beats their
// variable borrow cost by more than two percentage points. Only comfortable
// positions see them; a debt-free position is the most comfortable of all.
func leverageOpportunities(snapshots []model.ReserveSnapshot, status model.HealthStatus, leverage decimal.Decimal) []model.LeverageOpportunity {
	switch status {
	case model.StatusSafe, model.StatusVerySafe, model.StatusNoDebt:
	default:
		return []model.LeverageOpportunity{}
	}

	risk := "medium"
	if leverage.GreaterThan(leverageRiskBound) {
		risk = "high"
	}

	out := make([]model.LeverageOpportunity, 0)
	for _, s := range snapshots {
		if !s.Usable() || !s.BorrowingEnabled {
			continue
		}
		spread := s.SupplyAPY.Sub(s.VariableBorrowAPY)
		if !spread.GreaterThan(minLeverageSpread) {
			continue
		}
		out = append(out, model.LeverageOpportunity{
			Asset:          s.Asset,
			Symbol:         s.Symbol,
			SupplyAPY:      s.SupplyAPY,
			BorrowAPY:      s.VariableBorrowAPY,
			SpreadPct:      spread,
			ExpectedNetAPY: spread.Add(s.SupplyIncentiveAPR),
			Risk:           risk,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SpreadPct.Equal(out[j].SpreadPct) {
			return out[i].SpreadPct.GreaterThan(out[j].SpreadPct)
		}
		return out[i].Asset.Hex() < out[j].Asset.Hex()
	})
	return out
}

// yieldOptimizations looks for better homes for each supplied balance: other
// usable reserves whose total supply yield beats the current one by at least
// one percentage point, best three per held asset.
func yieldOptimizations(snapshots []model.ReserveSnapshot) []model.YieldOptimization {
	out := make([]model.YieldOptimization, 0)

	for _, held := range snapshots {
		if held.SuppliedValueUSD().Sign() <= 0 {
			continue
		}
		currentYield := held.SupplyAPY.Add(held.SupplyIncentiveAPR)

		candidates := make([]model.YieldOptimization, 0)
		for _, target := range snapshots {
			if target.Asset == held.Asset || !target.Usable() {
				continue
			}
			targetYield := target.SupplyAPY.Add(target.SupplyIncentiveAPR)
			gain := targetYield.Sub(currentYield)
			if gain.LessThan(minYieldGain) {
				continue
			}
			candidates = append(candidates, model.YieldOptimization{
				FromAsset:  held.Asset,
				FromSymbol: held.Symbol,
				ToAsset:    target.Asset,
				ToSymbol:   target.Symbol,
				CurrentAPY: currentYield,
				TargetAPY:  targetYield,
				GainPct:    gain,
			})
		}

		sort.Slice(candidates, func(i, j int) bool {
			if !candidates[i].TargetAPY.Equal(candidates[j].TargetAPY) {
				return candidates[i].TargetAPY.GreaterThan(candidates[j].TargetAPY)
			}
			return candidates[i].ToAsset.Hex() < candidates[j].ToAsset.Hex()
		})
		if len(candidates) > maxYieldSwitchesPerAsset {
			candidates = candidates[:maxYieldSwitchesPerAsset]
		}
		out = append(out, candidates...)
	}

	return out
}

// riskReductions emits defensive actions ordered high priority first.
func riskReductions(status model.HealthStatus, assessment model.RiskAssessment) []model.RiskReduction {
	out := make([]model.RiskReduction, 0)

	if assessment.Score > highRiskScore {
		out = append(out, model.RiskReduction{
			Priority: "high",
			Action:   "reduce position size",
			Reason:   fmt.Sprintf("composite risk score %d is above %d", assessment.Score, highRiskScore),
		})
	}
	switch status {
	case model.StatusLiquidatable, model.StatusCritical, model.StatusRisky:
		out = append(out, model.RiskReduction{
			Priority: "high",
			Action:   "add collateral",
			Reason:   fmt.Sprintf("health factor status is %s", status),
		})
	}
	if assessment.Diversification.LessThan(divReductionBound) {
		out = append(out, model.RiskReduction{
			Priority: "medium",
			Action:   "diversify holdings",
			Reason:   "position value is concentrated in few reserves",
		})
	}

	return out
}
