package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

// Diversification scores how spread out a position is across reserves using
// the Herfindahl-Hirschman Index over each reserve's share of total value
// (supplied plus borrowed). 1 - HHI, floored at zero: a single reserve
// holding everything scores 0, an even split across many reserves approaches
// 1. An empty or zero-value position scores 0.
func Diversification(snapshots []model.ReserveSnapshot) decimal.Decimal {
	total := decimal.Zero
	values := make([]decimal.Decimal, 0, len(snapshots))
	for _, s := range snapshots {
		v := s.SuppliedValueUSD().Add(s.DebtValueUSD())
		if v.Sign() <= 0 {
			continue
		}
		values = append(values, v)
		total = total.Add(v)
	}
	if total.IsZero() {
		return decimal.Zero
	}

	hhi := decimal.Zero
	for _, v := range values {
		share := v.Div(total)
		hhi = hhi.Add(share.Mul(share))
	}

	score := one.Sub(hhi)
	if score.IsNegative() {
		return decimal.Zero
	}
	return score
}
