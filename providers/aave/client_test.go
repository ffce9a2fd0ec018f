package aave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	lenderr "github.com/ggonzalez94/lend-risk/errors"
	"github.com/ggonzalez94/lend-risk/httpx"
)

const reservesPayload = `{
	"data": {
		"markets": [
			{
				"reserves": [
					{
						"underlyingToken": {"address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "decimals": 6},
						"usdExchangeRate": "1",
						"supplyInfo": {"apy": {"value": "0.03"}, "total": {"value": "1000000"}, "canBeCollateral": true, "maxLTV": {"value": "0.75"}, "liquidationThreshold": {"value": "0.8"}},
						"borrowInfo": {"apy": {"value": "0.05"}, "total": {"value": "400000"}, "availableLiquidity": {"value": "600000"}},
						"stableBorrowInfo": {"apy": {"value": "0.07"}, "enabled": true},
						"incentives": {"supplyAPR": {"value": "0.005"}, "borrowAPR": {"value": "0.001"}},
						"flags": {"active": true, "frozen": false, "paused": false, "borrowingEnabled": true}
					}
				]
			}
		]
	}
}`

func TestMarketReserves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reservesPayload))
	}))
	defer srv.Close()

	client := New(httpx.New(2*time.Second, 0)).WithEndpoint(srv.URL)
	records, err := client.MarketReserves(context.Background(), 1)
	if err != nil {
		t.Fatalf("MarketReserves failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Asset != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" {
		t.Fatalf("addresses must be lowercased, got %s", r.Asset)
	}
	if r.SupplyAPY != "3" || r.VariableBorrowAPY != "5" || r.StableBorrowAPY != "7" {
		t.Fatalf("fractional rates must convert to percent strings: %+v", r)
	}
	if r.LTV != "75" || r.LiquidationThreshold != "80" {
		t.Fatalf("collateral parameters must convert to percent: %+v", r)
	}
	if r.SupplyIncentiveAPR != "0.5" || r.BorrowIncentiveAPR != "0.1" {
		t.Fatalf("incentive rates wrong: %+v", r)
	}
	if !r.Active || !r.CollateralEnabled || !r.BorrowingEnabled || !r.StableBorrowingEnabled {
		t.Fatalf("flags not carried through: %+v", r)
	}
}

func TestMarketReservesGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "internal"}]}`))
	}))
	defer srv.Close()

	client := New(httpx.New(2*time.Second, 0)).WithEndpoint(srv.URL)
	_, err := client.MarketReserves(context.Background(), 1)
	rec, ok := lenderr.As(err)
	if !ok || rec.Code != lenderr.CodeDataFetchFailed {
		t.Fatalf("graphql errors must classify as DATA_FETCH_FAILED, got %v", err)
	}
}

func TestMarketReservesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"markets": []}}`))
	}))
	defer srv.Close()

	client := New(httpx.New(2*time.Second, 0)).WithEndpoint(srv.URL)
	if _, err := client.MarketReserves(context.Background(), 1); err == nil {
		t.Fatalf("expected error for empty market list")
	}
}

func TestUserReserves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {
				"userReserves": {
					"eModeCategoryId": 1,
					"reserves": [
						{
							"underlyingToken": {"address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
							"supplied": {"amount": {"value": "1500.25"}},
							"variableDebt": {"amount": {"value": "0"}},
							"stableDebt": {"amount": {"value": "0"}},
							"usageAsCollateral": true
						}
					]
				}
			}
		}`))
	}))
	defer srv.Close()

	client := New(httpx.New(2*time.Second, 0)).WithEndpoint(srv.URL)
	user := common.HexToAddress("0x0000000000000000000000000000000000000001")
	rec, err := client.UserReserves(context.Background(), 1, user)
	if err != nil {
		t.Fatalf("UserReserves failed: %v", err)
	}
	if rec.EModeCategory != 1 || len(rec.Reserves) != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Reserves[0].Supplied != "1500.25" || !rec.Reserves[0].UsageAsCollateral {
		t.Fatalf("balances not carried through: %+v", rec.Reserves[0])
	}
}

func TestReserveIncentives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(reservesPayload))
	}))
	defer srv.Close()

	client := New(httpx.New(2*time.Second, 0)).WithEndpoint(srv.URL)
	incentives, err := client.ReserveIncentives(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReserveIncentives failed: %v", err)
	}
	inc, ok := incentives["0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"]
	if !ok || inc.SupplyAPR != "0.5" {
		t.Fatalf("unexpected incentives: %+v", incentives)
	}
}

func TestPercentConversion(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0.03", "3"},
		{"0.005", "0.5"},
		{"1", "100"},
		{"12.5", "1250"},
		{"0", "0"},
		{"-0.02", "-2"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := percent(tc.in); got != tc.want {
			t.Fatalf("percent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
