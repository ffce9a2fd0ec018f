package analytics

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

func snap(addr string, supplied, debt string) model.ReserveSnapshot {
	return model.ReserveSnapshot{
		Asset:        common.HexToAddress(addr),
		Supplied:     decimal.RequireFromString(supplied),
		VariableDebt: decimal.RequireFromString(debt),
		PriceUSD:     decimal.NewFromInt(1),
	}
}

func TestDiversificationEmptyIsZero(t *testing.T) {
	if !Diversification(nil).IsZero() {
		t.Fatalf("expected zero score for empty reserve set")
	}
}

func TestDiversificationSingleAssetIsZero(t *testing.T) {
	score := Diversification([]model.ReserveSnapshot{snap("0x01", "500", "0")})
	if !score.IsZero() {
		t.Fatalf("expected zero score for fully concentrated position, got %s", score)
	}
}

func TestDiversificationEqualSplit(t *testing.T) {
	score := Diversification([]model.ReserveSnapshot{
		snap("0x01", "500", "0"),
		snap("0x02", "500", "0"),
	})
	if !score.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected 0.5 for an even two-way split, got %s", score)
	}
}

func TestDiversificationZeroValueReservesIgnored(t *testing.T) {
	score := Diversification([]model.ReserveSnapshot{
		snap("0x01", "500", "0"),
		snap("0x02", "0", "0"),
	})
	if !score.IsZero() {
		t.Fatalf("zero-balance reserves must not count toward diversification, got %s", score)
	}
}

func TestDiversificationBounds(t *testing.T) {
	snaps := []model.ReserveSnapshot{
		snap("0x01", "1", "0"),
		snap("0x02", "100000", "50000"),
		snap("0x03", "3", "7"),
		snap("0x04", "0.0001", "0"),
	}
	score := Diversification(snaps)
	if score.IsNegative() || score.GreaterThan(decimal.NewFromInt(1)) {
		t.Fatalf("score out of [0,1]: %s", score)
	}
}

func TestDiversificationCountsDebtValue(t *testing.T) {
	// Supply in one reserve, equal debt in another: still an even split.
	score := Diversification([]model.ReserveSnapshot{
		snap("0x01", "300", "0"),
		snap("0x02", "0", "300"),
	})
	if !score.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected 0.5, got %s", score)
	}
}
