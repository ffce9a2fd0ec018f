// Package aave is the reference data source: the Aave v3 GraphQL API. It
// returns raw records only; all number parsing happens in the position
// normalizer.
package aave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	lenderr "github.com/ggonzalez94/lend-risk/errors"
	"github.com/ggonzalez94/lend-risk/httpx"
	"github.com/ggonzalez94/lend-risk/providers"
)

const defaultEndpoint = "https://api.v3.aave.com/graphql"

type Client struct {
	http     *httpx.Client
	endpoint string
	apiKey   string
}

func New(httpClient *httpx.Client) *Client {
	return &Client{http: httpClient, endpoint: defaultEndpoint}
}

// WithEndpoint overrides the GraphQL endpoint, mainly for tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

func (c *Client) WithAPIKey(key string) *Client {
	c.apiKey = key
	return c
}

const reservesQuery = `query Reserves($request: MarketsRequest!) {
  markets(request: $request) {
    reserves {
      underlyingToken { address symbol decimals }
      usdExchangeRate
      supplyInfo { apy { value } total { value } canBeCollateral maxLTV { value } liquidationThreshold { value } }
      borrowInfo { apy { value } total { value } availableLiquidity { value } }
      stableBorrowInfo { apy { value } enabled }
      incentives { supplyAPR { value } borrowAPR { value } }
      flags { active frozen paused borrowingEnabled }
    }
  }
}`

const userReservesQuery = `query UserReserves($request: UserReservesRequest!) {
  userReserves(request: $request) {
    eModeCategoryId
    reserves {
      underlyingToken { address }
      supplied { amount { value } }
      variableDebt { amount { value } }
      stableDebt { amount { value } }
      usageAsCollateral
    }
  }
}`

type valueField struct {
	Value string `json:"value"`
}

type reservesResponse struct {
	Data struct {
		Markets []struct {
			Reserves []aaveReserve `json:"reserves"`
		} `json:"markets"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type aaveReserve struct {
	UnderlyingToken struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"underlyingToken"`
	USDExchangeRate string `json:"usdExchangeRate"`
	SupplyInfo      struct {
		APY                  valueField `json:"apy"`
		Total                valueField `json:"total"`
		CanBeCollateral      bool       `json:"canBeCollateral"`
		MaxLTV               valueField `json:"maxLTV"`
		LiquidationThreshold valueField `json:"liquidationThreshold"`
	} `json:"supplyInfo"`
	BorrowInfo *struct {
		APY                valueField `json:"apy"`
		Total              valueField `json:"total"`
		AvailableLiquidity valueField `json:"availableLiquidity"`
	} `json:"borrowInfo"`
	StableBorrowInfo *struct {
		APY     valueField `json:"apy"`
		Enabled bool       `json:"enabled"`
	} `json:"stableBorrowInfo"`
	Incentives *struct {
		SupplyAPR valueField `json:"supplyAPR"`
		BorrowAPR valueField `json:"borrowAPR"`
	} `json:"incentives"`
	Flags struct {
		Active           bool `json:"active"`
		Frozen           bool `json:"frozen"`
		Paused           bool `json:"paused"`
		BorrowingEnabled bool `json:"borrowingEnabled"`
	} `json:"flags"`
}

type userReservesResponse struct {
	Data struct {
		UserReserves struct {
			EModeCategoryID uint8 `json:"eModeCategoryId"`
			Reserves        []struct {
				UnderlyingToken struct {
					Address string `json:"address"`
				} `json:"underlyingToken"`
				Supplied struct {
					Amount valueField `json:"amount"`
				} `json:"supplied"`
				VariableDebt struct {
					Amount valueField `json:"amount"`
				} `json:"variableDebt"`
				StableDebt struct {
					Amount valueField `json:"amount"`
				} `json:"stableDebt"`
				UsageAsCollateral bool `json:"usageAsCollateral"`
			} `json:"reserves"`
		} `json:"userReserves"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) MarketReserves(ctx context.Context, chainID int64) ([]providers.MarketReserveRecord, error) {
	reserves, err := c.fetchReserves(ctx, chainID)
	if err != nil {
		return nil, err
	}

	out := make([]providers.MarketReserveRecord, 0, len(reserves))
	for _, r := range reserves {
		rec := providers.MarketReserveRecord{
			Asset:    strings.ToLower(strings.TrimSpace(r.UnderlyingToken.Address)),
			Symbol:   r.UnderlyingToken.Symbol,
			Decimals: r.UnderlyingToken.Decimals,

			PriceUSD: r.USDExchangeRate,

			SupplyAPY: percent(r.SupplyInfo.APY.Value),

			LTV:                  percent(r.SupplyInfo.MaxLTV.Value),
			LiquidationThreshold: percent(r.SupplyInfo.LiquidationThreshold.Value),

			TotalSupplied: r.SupplyInfo.Total.Value,

			Active:            r.Flags.Active,
			Frozen:            r.Flags.Frozen,
			Paused:            r.Flags.Paused,
			CollateralEnabled: r.SupplyInfo.CanBeCollateral,
			BorrowingEnabled:  r.Flags.BorrowingEnabled,
		}
		if r.BorrowInfo != nil {
			rec.VariableBorrowAPY = percent(r.BorrowInfo.APY.Value)
			rec.TotalBorrowed = r.BorrowInfo.Total.Value
		}
		if r.StableBorrowInfo != nil {
			rec.StableBorrowAPY = percent(r.StableBorrowInfo.APY.Value)
			rec.StableBorrowingEnabled = r.StableBorrowInfo.Enabled
		}
		if r.Incentives != nil {
			rec.SupplyIncentiveAPR = percent(r.Incentives.SupplyAPR.Value)
			rec.BorrowIncentiveAPR = percent(r.Incentives.BorrowAPR.Value)
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

func (c *Client) UserReserves(ctx context.Context, chainID int64, user common.Address) (*providers.UserReservesRecord, error) {
	body, err := json.Marshal(map[string]any{
		"query": userReservesQuery,
		"variables": map[string]any{
			"request": map[string]any{
				"chainId": chainID,
				"user":    strings.ToLower(user.Hex()),
			},
		},
	})
	if err != nil {
		return nil, lenderr.Wrap(lenderr.CodeDataFetchFailed, "marshal user reserves query", err, lenderr.NewContext("fetchUserReserves").WithUser(user))
	}

	var resp userReservesResponse
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, c.endpoint, body, c.headers(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, lenderr.New(lenderr.CodeDataFetchFailed,
			fmt.Sprintf("aave graphql error: %s", resp.Errors[0].Message),
			lenderr.NewContext("fetchUserReserves").WithUser(user))
	}

	out := &providers.UserReservesRecord{
		User:          strings.ToLower(user.Hex()),
		EModeCategory: resp.Data.UserReserves.EModeCategoryID,
	}
	for _, r := range resp.Data.UserReserves.Reserves {
		out.Reserves = append(out.Reserves, providers.UserReserveRecord{
			Asset:             strings.ToLower(strings.TrimSpace(r.UnderlyingToken.Address)),
			Supplied:          r.Supplied.Amount.Value,
			VariableDebt:      r.VariableDebt.Amount.Value,
			StableDebt:        r.StableDebt.Amount.Value,
			UsageAsCollateral: r.UsageAsCollateral,
		})
	}
	sort.Slice(out.Reserves, func(i, j int) bool { return out.Reserves[i].Asset < out.Reserves[j].Asset })
	return out, nil
}

func (c *Client) ReserveIncentives(ctx context.Context, chainID int64) (map[string]providers.IncentiveRecord, error) {
	reserves, err := c.fetchReserves(ctx, chainID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]providers.IncentiveRecord, len(reserves))
	for _, r := range reserves {
		if r.Incentives == nil {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(r.UnderlyingToken.Address))] = providers.IncentiveRecord{
			SupplyAPR: percent(r.Incentives.SupplyAPR.Value),
			BorrowAPR: percent(r.Incentives.BorrowAPR.Value),
		}
	}
	return out, nil
}

func (c *Client) fetchReserves(ctx context.Context, chainID int64) ([]aaveReserve, error) {
	body, err := json.Marshal(map[string]any{
		"query": reservesQuery,
		"variables": map[string]any{
			"request": map[string]any{
				"chainIds": []int64{chainID},
			},
		},
	})
	if err != nil {
		return nil, lenderr.Wrap(lenderr.CodeDataFetchFailed, "marshal reserves query", err, lenderr.NewContext("fetchMarketReserves"))
	}

	var resp reservesResponse
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, c.endpoint, body, c.headers(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, lenderr.New(lenderr.CodeDataFetchFailed,
			fmt.Sprintf("aave graphql error: %s", resp.Errors[0].Message),
			lenderr.NewContext("fetchMarketReserves"))
	}

	reserves := make([]aaveReserve, 0)
	for _, m := range resp.Data.Markets {
		reserves = append(reserves, m.Reserves...)
	}
	if len(reserves) == 0 {
		return nil, lenderr.New(lenderr.CodeDataFetchFailed, "aave returned no reserves for requested chain", lenderr.NewContext("fetchMarketReserves"))
	}
	return reserves, nil
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

// percent converts the API's fractional rates ("0.03") into percent strings
// ("3") without going through floats.
func percent(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	neg := strings.HasPrefix(v, "-")
	if neg {
		v = v[1:]
	}
	parts := strings.SplitN(v, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	out := strings.TrimLeft(intPart+fracPart[:2], "0")
	if out == "" {
		out = "0"
	}
	if rest := strings.TrimRight(fracPart[2:], "0"); rest != "" {
		out += "." + rest
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}
