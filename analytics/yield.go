package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

// NetAPY is the position's carry, as a percent: the value-weighted average
// supply yield (base APY plus incentive APR) across supplied reserves minus
// the value-weighted average borrow cost (base APY minus incentive APR)
// across borrowed reserves. Each side is normalized by its own total value;
// reserves with zero balance contribute nothing.
func NetAPY(snapshots []model.ReserveSnapshot) decimal.Decimal {
	supplyWeighted := decimal.Zero
	supplyTotal := decimal.Zero
	borrowWeighted := decimal.Zero
	borrowTotal := decimal.Zero

	for _, s := range snapshots {
		if sv := s.SuppliedValueUSD(); sv.Sign() > 0 {
			yield := s.SupplyAPY.Add(s.SupplyIncentiveAPR)
			supplyWeighted = supplyWeighted.Add(yield.Mul(sv))
			supplyTotal = supplyTotal.Add(sv)
		}
		if dv := s.DebtValueUSD(); dv.Sign() > 0 {
			cost := borrowCost(s).Sub(s.BorrowIncentiveAPR)
			borrowWeighted = borrowWeighted.Add(cost.Mul(dv))
			borrowTotal = borrowTotal.Add(dv)
		}
	}

	out := decimal.Zero
	if supplyTotal.Sign() > 0 {
		out = supplyWeighted.Div(supplyTotal)
	}
	if borrowTotal.Sign() > 0 {
		out = out.Sub(borrowWeighted.Div(borrowTotal))
	}
	return out
}

// borrowCost blends the variable and stable legs of a reserve's debt by
// their relative size.
func borrowCost(s model.ReserveSnapshot) decimal.Decimal {
	total := s.VariableDebt.Add(s.StableDebt)
	if total.Sign() <= 0 {
		return decimal.Zero
	}
	variable := s.VariableBorrowAPY.Mul(s.VariableDebt)
	stable := s.StableBorrowAPY.Mul(s.StableDebt)
	return variable.Add(stable).Div(total)
}

// Leverage is total supplied value over equity. Non-positive equity is
// reported as 1: the ratio is undefined there and 1 is the safe
// "unleveraged" answer for downstream scoring.
func Leverage(totalSupplyUSD, totalBorrowUSD decimal.Decimal) decimal.Decimal {
	equity := totalSupplyUSD.Sub(totalBorrowUSD)
	if equity.Sign() <= 0 {
		return one
	}
	return totalSupplyUSD.Div(equity)
}

// TotalIncentivesAPR is the value-weighted incentive layer alone: what the
// reward programs add on top of base rates across the position.
func TotalIncentivesAPR(snapshots []model.ReserveSnapshot) decimal.Decimal {
	weighted := decimal.Zero
	total := decimal.Zero
	for _, s := range snapshots {
		if sv := s.SuppliedValueUSD(); sv.Sign() > 0 {
			weighted = weighted.Add(s.SupplyIncentiveAPR.Mul(sv))
			total = total.Add(sv)
		}
		if dv := s.DebtValueUSD(); dv.Sign() > 0 {
			weighted = weighted.Add(s.BorrowIncentiveAPR.Mul(dv))
			total = total.Add(dv)
		}
	}
	if total.IsZero() {
		return decimal.Zero
	}
	return weighted.Div(total)
}
