package analytics

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestHealthFactorInfiniteWithoutDebt(t *testing.T) {
	hf := HealthFactor(d("1000"), d("80"), decimal.Zero)
	if !hf.IsInfinite() {
		t.Fatalf("expected infinite health factor with zero debt, got %s", hf)
	}
}

func TestHealthFactorRatio(t *testing.T) {
	// 1000 collateral at 80% threshold against 400 debt -> 2.
	hf := HealthFactor(d("1000"), d("80"), d("400"))
	if hf.IsInfinite() || !hf.Decimal().Equal(d("2")) {
		t.Fatalf("expected health factor 2, got %s", hf)
	}
}

func TestStatusBuckets(t *testing.T) {
	cases := []struct {
		hf   string
		want model.HealthStatus
	}{
		{"0.9", model.StatusLiquidatable},
		{"1.05", model.StatusCritical},
		{"1.3", model.StatusRisky},
		{"1.8", model.StatusModerate},
		{"2.5", model.StatusSafe},
		{"3", model.StatusVerySafe},
		{"12", model.StatusVerySafe},
	}
	for _, tc := range cases {
		got := Status(model.NewFactor(d(tc.hf)))
		if got != tc.want {
			t.Fatalf("hf %s: expected %s, got %s", tc.hf, tc.want, got)
		}
	}
	if Status(model.InfiniteFactor()) != model.StatusNoDebt {
		t.Fatalf("expected NO_DEBT status for infinite health factor")
	}
}

func TestLiquidationBufferComfortableIsInfinite(t *testing.T) {
	for _, hf := range []model.Factor{model.InfiniteFactor(), model.NewFactor(d("10")), model.NewFactor(d("25"))} {
		buf := LiquidationBuffer(hf, d("-12"))
		if !buf.IsInfinite() {
			t.Fatalf("hf %s: expected infinite buffer, got %s", hf, buf)
		}
	}
}

func TestLiquidationBufferAtOrBelowOneIsZero(t *testing.T) {
	for _, hf := range []string{"1", "0.8", "0"} {
		buf := LiquidationBuffer(model.NewFactor(d(hf)), d("-12"))
		if buf.IsInfinite() || !buf.Decimal().IsZero() {
			t.Fatalf("hf %s: expected zero buffer, got %s", hf, buf)
		}
	}
}

func TestLiquidationBufferNoDeclineIsInfinite(t *testing.T) {
	buf := LiquidationBuffer(model.NewFactor(d("1.5")), decimal.Zero)
	if !buf.IsInfinite() {
		t.Fatalf("expected infinite buffer with zero decline rate, got %s", buf)
	}
}

func TestLiquidationBufferTrend(t *testing.T) {
	// hf 2, net APY -3.65% -> daily decline 0.0001 -> 10000 days.
	buf := LiquidationBuffer(model.NewFactor(d("2")), d("-3.65"))
	if buf.IsInfinite() || !buf.Decimal().Equal(d("10000")) {
		t.Fatalf("expected 10000 day buffer, got %s", buf)
	}
}

func TestLiquidationRisk(t *testing.T) {
	if !LiquidationRisk(model.InfiniteFactor()).IsZero() {
		t.Fatalf("expected zero risk without debt")
	}
	if !LiquidationRisk(model.NewFactor(d("0.9"))).Equal(d("100")) {
		t.Fatalf("expected 100%% risk at or below liquidation")
	}
	if !LiquidationRisk(model.NewFactor(d("2"))).Equal(d("50")) {
		t.Fatalf("expected 50%% risk at health factor 2")
	}
}

func TestCurrentLTV(t *testing.T) {
	if !CurrentLTV(d("400"), d("1000")).Equal(d("40")) {
		t.Fatalf("expected 40%% ltv")
	}
	if !CurrentLTV(d("400"), decimal.Zero).IsZero() {
		t.Fatalf("expected zero ltv with no collateral")
	}
}
