package analytics

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

func TestLeverageRatio(t *testing.T) {
	// 300 supplied against 200 borrowed: equity 100, leverage 3.
	lev := Leverage(d("300"), d("200"))
	if !lev.Equal(d("3")) {
		t.Fatalf("expected leverage 3, got %s", lev)
	}
}

func TestLeverageNonPositiveEquityIsOne(t *testing.T) {
	for _, tc := range [][2]string{{"200", "200"}, {"100", "250"}, {"0", "0"}} {
		lev := Leverage(d(tc[0]), d(tc[1]))
		if !lev.Equal(decimal.NewFromInt(1)) {
			t.Fatalf("supply %s borrow %s: expected leverage 1, got %s", tc[0], tc[1], lev)
		}
	}
}

func TestNetAPYSupplyOnly(t *testing.T) {
	snaps := []model.ReserveSnapshot{
		{
			Asset:              common.HexToAddress("0x01"),
			Supplied:           d("100"),
			PriceUSD:           d("1"),
			SupplyAPY:          d("4"),
			SupplyIncentiveAPR: d("1"),
		},
	}
	if got := NetAPY(snaps); !got.Equal(d("5")) {
		t.Fatalf("expected net apy 5, got %s", got)
	}
}

func TestNetAPYWeightedAcrossSides(t *testing.T) {
	snaps := []model.ReserveSnapshot{
		{
			Asset:     common.HexToAddress("0x01"),
			Supplied:  d("100"),
			PriceUSD:  d("1"),
			SupplyAPY: d("4"),
		},
		{
			Asset:     common.HexToAddress("0x02"),
			Supplied:  d("300"),
			PriceUSD:  d("1"),
			SupplyAPY: d("8"),
		},
		{
			Asset:              common.HexToAddress("0x03"),
			VariableDebt:       d("200"),
			PriceUSD:           d("1"),
			VariableBorrowAPY:  d("6"),
			BorrowIncentiveAPR: d("1"),
		},
	}
	// Supply side: (4*100 + 8*300)/400 = 7. Borrow side: 6-1 = 5. Net 2.
	if got := NetAPY(snaps); !got.Equal(d("2")) {
		t.Fatalf("expected net apy 2, got %s", got)
	}
}

func TestNetAPYBlendsStableDebt(t *testing.T) {
	snaps := []model.ReserveSnapshot{
		{
			Asset:     common.HexToAddress("0x01"),
			Supplied:  d("100"),
			PriceUSD:  d("1"),
			SupplyAPY: d("10"),
		},
		{
			Asset:             common.HexToAddress("0x02"),
			VariableDebt:      d("50"),
			StableDebt:        d("50"),
			PriceUSD:          d("1"),
			VariableBorrowAPY: d("4"),
			StableBorrowAPY:   d("8"),
		},
	}
	// Borrow cost blends to 6. Net 10 - 6 = 4.
	if got := NetAPY(snaps); !got.Equal(d("4")) {
		t.Fatalf("expected net apy 4, got %s", got)
	}
}

func TestNetAPYEmptyPosition(t *testing.T) {
	if got := NetAPY(nil); !got.IsZero() {
		t.Fatalf("expected zero net apy for empty position, got %s", got)
	}
}

func TestTotalIncentivesAPR(t *testing.T) {
	snaps := []model.ReserveSnapshot{
		{
			Asset:              common.HexToAddress("0x01"),
			Supplied:           d("100"),
			PriceUSD:           d("1"),
			SupplyIncentiveAPR: d("2"),
		},
		{
			Asset:              common.HexToAddress("0x02"),
			VariableDebt:       d("100"),
			PriceUSD:           d("1"),
			BorrowIncentiveAPR: d("4"),
		},
	}
	if got := TotalIncentivesAPR(snaps); !got.Equal(d("3")) {
		t.Fatalf("expected weighted incentives 3, got %s", got)
	}
}
