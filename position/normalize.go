// Package position turns raw provider records into the typed, immutable
// snapshot the calculators run on. It is the only place raw string numbers
// are parsed.
package position

import (
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/analytics"
	lenderr "github.com/ggonzalez94/lend-risk/errors"
	"github.com/ggonzalez94/lend-risk/model"
	"github.com/ggonzalez94/lend-risk/providers"
)

var hundred = decimal.NewFromInt(100)

// Normalize joins the market reserve list with the user's balances and
// builds the position summary plus the full snapshot list. Market reserves
// with no user balance still appear in the snapshot list (the strategy layer
// needs the whole market); the summary's position list is filtered to
// reserves the user actually holds or owes.
//
// A missing market or user list fails with DataFetchFailed: the caller's
// fetch fan-out is supposed to deliver both or abort.
func Normalize(
	market []providers.MarketReserveRecord,
	user *providers.UserReservesRecord,
	now time.Time,
	opCtx lenderr.Context,
) (model.UserPositionSummary, []model.ReserveSnapshot, error) {
	if market == nil {
		return model.UserPositionSummary{}, nil, lenderr.New(lenderr.CodeDataFetchFailed, "market reserve data is missing", opCtx)
	}
	if user == nil {
		return model.UserPositionSummary{}, nil, lenderr.New(lenderr.CodeDataFetchFailed, "user reserve data is missing", opCtx)
	}

	balances := make(map[string]providers.UserReserveRecord, len(user.Reserves))
	for _, r := range user.Reserves {
		balances[strings.ToLower(r.Asset)] = r
	}

	snapshots := make([]model.ReserveSnapshot, 0, len(market))
	for _, raw := range market {
		snap := model.ReserveSnapshot{
			Asset:    common.HexToAddress(raw.Asset),
			Symbol:   raw.Symbol,
			Decimals: raw.Decimals,

			PriceUSD: parseDecimal(raw.PriceUSD),

			SupplyAPY:          parseDecimal(raw.SupplyAPY),
			VariableBorrowAPY:  parseDecimal(raw.VariableBorrowAPY),
			StableBorrowAPY:    parseDecimal(raw.StableBorrowAPY),
			SupplyIncentiveAPR: parseDecimal(raw.SupplyIncentiveAPR),
			BorrowIncentiveAPR: parseDecimal(raw.BorrowIncentiveAPR),

			LTV:                  parseDecimal(raw.LTV),
			LiquidationThreshold: parseDecimal(raw.LiquidationThreshold),

			Active: raw.Active,
			Frozen: raw.Frozen,
			Paused: raw.Paused,

			BorrowingEnabled:       raw.BorrowingEnabled,
			StableBorrowingEnabled: raw.StableBorrowingEnabled,

			TotalSupplied: parseAmount(raw.TotalSupplied),
			TotalBorrowed: parseAmount(raw.TotalBorrowed),
		}

		if held, ok := balances[strings.ToLower(raw.Asset)]; ok {
			snap.Supplied = parseAmount(held.Supplied)
			snap.VariableDebt = parseAmount(held.VariableDebt)
			snap.StableDebt = parseAmount(held.StableDebt)
			snap.UsageAsCollateral = held.UsageAsCollateral && raw.CollateralEnabled
		}

		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Asset.Hex() < snapshots[j].Asset.Hex()
	})

	summary := buildSummary(snapshots, user, now)
	return summary, snapshots, nil
}

func buildSummary(snapshots []model.ReserveSnapshot, user *providers.UserReservesRecord, now time.Time) model.UserPositionSummary {
	totalSupplied := decimal.Zero
	totalCollateral := decimal.Zero
	totalDebt := decimal.Zero
	availableBorrow := decimal.Zero
	thresholdWeighted := decimal.Zero

	positions := make([]model.AssetPosition, 0)
	for _, s := range snapshots {
		sv := s.SuppliedValueUSD()
		dv := s.DebtValueUSD()
		if sv.Sign() <= 0 && dv.Sign() <= 0 {
			continue
		}

		totalSupplied = totalSupplied.Add(sv)
		totalDebt = totalDebt.Add(dv)
		if s.UsageAsCollateral {
			totalCollateral = totalCollateral.Add(sv)
			thresholdWeighted = thresholdWeighted.Add(s.LiquidationThreshold.Mul(sv))
			availableBorrow = availableBorrow.Add(sv.Mul(s.LTV).Div(hundred))
		}

		positions = append(positions, model.AssetPosition{
			Asset:            s.Asset,
			Symbol:           s.Symbol,
			SuppliedValueUSD: sv,
			DebtValueUSD:     dv,
			Collateral:       s.UsageAsCollateral,
		})
	}

	avgThreshold := decimal.Zero
	if totalCollateral.Sign() > 0 {
		avgThreshold = thresholdWeighted.Div(totalCollateral)
	}

	availableBorrow = availableBorrow.Sub(totalDebt)
	if availableBorrow.IsNegative() {
		availableBorrow = decimal.Zero
	}

	return model.UserPositionSummary{
		User:                 common.HexToAddress(user.User),
		TotalCollateralUSD:   totalCollateral,
		TotalSuppliedUSD:     totalSupplied,
		TotalDebtUSD:         totalDebt,
		AvailableBorrowUSD:   availableBorrow,
		HealthFactor:         analytics.HealthFactor(totalCollateral, avgThreshold, totalDebt),
		CurrentLTV:           analytics.CurrentLTV(totalDebt, totalCollateral),
		LiquidationThreshold: avgThreshold,
		EModeCategory:        user.EModeCategory,
		Positions:            positions,
		UpdatedAt:            now,
	}
}

// parseDecimal parses a rate or price. Malformed provider values degrade to
// zero, matching how the upstream feeds behave on missing fields.
func parseDecimal(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseAmount is parseDecimal with the non-negative invariant applied:
// monetary amounts are never negative.
func parseAmount(v string) decimal.Decimal {
	d := parseDecimal(v)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
