// Package engine is the library facade: it owns the fetch fan-out, the
// snapshot cache, and the classification of every failure that crosses the
// boundary. The calculators it drives are pure and safe to share across
// requests.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ggonzalez94/lend-risk/analytics"
	"github.com/ggonzalez94/lend-risk/cache"
	"github.com/ggonzalez94/lend-risk/config"
	lenderr "github.com/ggonzalez94/lend-risk/errors"
	"github.com/ggonzalez94/lend-risk/model"
	"github.com/ggonzalez94/lend-risk/position"
	"github.com/ggonzalez94/lend-risk/providers"
	"github.com/ggonzalez94/lend-risk/strategy"
)

type Engine struct {
	cfg config.Settings

	market     providers.MarketDataSource
	user       providers.UserDataSource
	incentives providers.IncentiveSource

	cache *cache.SnapshotCache
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

func WithCache(c *cache.SnapshotCache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithIncentives(src providers.IncentiveSource) Option {
	return func(e *Engine) { e.incentives = src }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(cfg config.Settings, market providers.MarketDataSource, user providers.UserDataSource, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		market: market,
		user:   user,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify maps a raw failure onto the canonical error set, logging it at
// the severity-derived level.
func (e *Engine) Classify(raw error, opCtx lenderr.Context) *lenderr.Record {
	rec := lenderr.Classify(raw, opCtx)
	if rec != nil {
		rec.LogTo(e.log)
	}
	return rec
}

// UserAnalytics is the headline per-user query: summary, health status,
// liquidation risk, net APY, incentives, borrow capacity and leverage.
func (e *Engine) UserAnalytics(ctx context.Context, user common.Address) (model.UserAnalytics, error) {
	opCtx := lenderr.NewContext("getUserAnalytics").WithUser(user)
	summary, snapshots, err := e.snapshot(ctx, user, opCtx)
	if err != nil {
		return model.UserAnalytics{}, e.Classify(err, opCtx)
	}

	netAPY := analytics.NetAPY(snapshots)
	return model.UserAnalytics{
		Summary:            summary,
		HealthStatus:       analytics.Status(summary.HealthFactor),
		LiquidationRiskPct: analytics.LiquidationRisk(summary.HealthFactor),
		NetAPY:             netAPY,
		TotalIncentivesAPR: analytics.TotalIncentivesAPR(snapshots),
		BorrowCapacityUSD:  summary.AvailableBorrowUSD,
		LeverageRatio:      analytics.Leverage(summary.TotalSuppliedUSD, summary.TotalDebtUSD),
	}, nil
}

// PositionRisk runs the composite risk scorer over a fresh snapshot.
func (e *Engine) PositionRisk(ctx context.Context, user common.Address) (model.RiskAssessment, error) {
	opCtx := lenderr.NewContext("analyzePositionRisk").WithUser(user)
	summary, snapshots, err := e.snapshot(ctx, user, opCtx)
	if err != nil {
		return model.RiskAssessment{}, e.Classify(err, opCtx)
	}
	return assess(summary, snapshots), nil
}

// StrategyRecommendations derives leverage, yield-switch and risk-reduction
// suggestions from the whole market plus the user's risk assessment.
func (e *Engine) StrategyRecommendations(ctx context.Context, user common.Address) (model.Recommendations, error) {
	opCtx := lenderr.NewContext("getStrategyRecommendations").WithUser(user)
	summary, snapshots, err := e.snapshot(ctx, user, opCtx)
	if err != nil {
		return model.Recommendations{}, e.Classify(err, opCtx)
	}
	return strategy.Recommend(snapshots, summary, assess(summary, snapshots)), nil
}

// ReserveAnalytics reports market-level numbers for one reserve.
func (e *Engine) ReserveAnalytics(ctx context.Context, asset common.Address) (model.ReserveAnalytics, error) {
	opCtx := lenderr.NewContext("getReserveAnalytics").WithAsset(asset, "")

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	records, err := e.market.MarketReserves(fetchCtx, e.cfg.ChainID)
	if err != nil {
		return model.ReserveAnalytics{}, e.Classify(err, opCtx)
	}

	want := strings.ToLower(asset.Hex())
	for _, r := range records {
		if strings.ToLower(r.Asset) != want {
			continue
		}
		return reserveAnalytics(r, asset), nil
	}
	return model.ReserveAnalytics{}, e.Classify(
		lenderr.New(lenderr.CodeAssetNotSupported, "asset is not listed on the configured market", opCtx), opCtx)
}

// snapshot serves from cache inside the TTL and otherwise refreshes with a
// concurrent fan-out: market reserves, user reserves and incentives are
// fetched together and the first failure aborts the rest. The refreshed
// entry replaces the cached one in a single write.
func (e *Engine) snapshot(ctx context.Context, user common.Address, opCtx lenderr.Context) (model.UserPositionSummary, []model.ReserveSnapshot, error) {
	if e.cfg.CacheEnabled && e.cache != nil {
		if res := e.cache.Get(e.cfg.ChainID, user); res.Hit && !res.Stale {
			return res.Entry.Summary, res.Entry.Snapshots, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	var (
		market     []providers.MarketReserveRecord
		userData   *providers.UserReservesRecord
		incentives map[string]providers.IncentiveRecord
	)

	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		market, err = e.market.MarketReserves(gctx, e.cfg.ChainID)
		return err
	})
	g.Go(func() error {
		var err error
		userData, err = e.user.UserReserves(gctx, e.cfg.ChainID, user)
		return err
	})
	if e.incentives != nil {
		g.Go(func() error {
			var err error
			incentives, err = e.incentives.ReserveIncentives(gctx, e.cfg.ChainID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return model.UserPositionSummary{}, nil, err
	}

	market = mergeIncentives(market, incentives)

	summary, snapshots, err := position.Normalize(market, userData, e.now().UTC(), opCtx)
	if err != nil {
		return model.UserPositionSummary{}, nil, err
	}

	if e.cfg.CacheEnabled && e.cache != nil {
		e.cache.Put(e.cfg.ChainID, user, summary, snapshots)
	}
	return summary, snapshots, nil
}

// mergeIncentives overlays a dedicated incentive feed onto the market
// records. Records that already carry incentive rates keep them.
func mergeIncentives(market []providers.MarketReserveRecord, incentives map[string]providers.IncentiveRecord) []providers.MarketReserveRecord {
	if len(incentives) == 0 {
		return market
	}
	for i, r := range market {
		inc, ok := incentives[strings.ToLower(r.Asset)]
		if !ok {
			continue
		}
		if r.SupplyIncentiveAPR == "" {
			market[i].SupplyIncentiveAPR = inc.SupplyAPR
		}
		if r.BorrowIncentiveAPR == "" {
			market[i].BorrowIncentiveAPR = inc.BorrowAPR
		}
	}
	return market
}

func assess(summary model.UserPositionSummary, snapshots []model.ReserveSnapshot) model.RiskAssessment {
	return analytics.Score(analytics.RiskInputs{
		HealthFactor:    summary.HealthFactor,
		Leverage:        analytics.Leverage(summary.TotalSuppliedUSD, summary.TotalDebtUSD),
		Diversification: analytics.Diversification(snapshots),
		NetAPY:          analytics.NetAPY(snapshots),
	})
}
