package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantship/crossarb/internal/arbitrage"
	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/match"
	"github.com/quantship/crossarb/internal/platform/polymarket"
	"github.com/quantship/crossarb/internal/server"
	"github.com/quantship/crossarb/internal/server/handler"
	"github.com/quantship/crossarb/internal/service"
)

// ScanMode runs the discovery-and-match loop, the snapshot archiver when
// enabled, and the HTTP server when enabled.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	g, ctx := errgroup.WithContext(ctx)

	scanSvc := a.buildScanService(deps)
	g.Go(func() error {
		return scanSvc.Run(ctx)
	})

	a.startArchiveLoop(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, scanSvc.Scan)
	}

	return g.Wait()
}

// MonitorMode runs the pricing-and-detection loop over already-persisted
// matches, plus the HTTP server when enabled. No new matches are discovered.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	priceSvc := a.buildPriceService(deps)
	g.Go(func() error {
		return priceSvc.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, nil)
	}

	return g.Wait()
}

// ServerMode runs only the HTTP API. Scans can still be triggered on demand
// through POST /api/scan/trigger.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	scanSvc := a.buildScanService(deps)
	a.startHTTPServer(ctx, g, deps, scanSvc.Scan)

	return g.Wait()
}

// FullMode runs everything: the scan loop, the price loop, the snapshot
// archiver when enabled, and the HTTP server when enabled.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	scanSvc := a.buildScanService(deps)
	g.Go(func() error {
		return scanSvc.Run(ctx)
	})

	priceSvc := a.buildPriceService(deps)
	g.Go(func() error {
		return priceSvc.Run(ctx)
	})

	a.startArchiveLoop(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, scanSvc.Scan)
	}

	return g.Wait()
}

// buildScanService assembles the discovery-and-match pipeline from the wired
// dependencies.
func (a *App) buildScanService(deps *Dependencies) *service.ScanService {
	matcher := match.New(match.Config{
		MinSharedTerms: a.cfg.Matcher.MinSharedTerms,
		MinScore:       a.cfg.Matcher.MinScore,
	}, a.logger)

	return service.NewScanService(
		service.ScanConfig{
			Interval:       a.cfg.Scanner.ScanInterval.Duration,
			PolyPageSize:   a.cfg.Polymarket.PageSize,
			PolyMaxMarkets: a.cfg.Polymarket.MaxMarkets,
			KalshiPageSize: a.cfg.Kalshi.PageSize,
			KalshiMaxMkts:  a.cfg.Kalshi.MaxMarkets,
		},
		deps.Gamma,
		deps.KalshiAPI,
		matcher,
		deps.MatchStore,
		deps.MarketCache,
		deps.LockManager,
		deps.SignalBus,
		deps.Notifier,
		deps.AuditStore,
		a.logger,
	)
}

// buildPriceService assembles the pricing-and-detection loop from the wired
// dependencies. The WebSocket feed is only attached when a ws host is
// configured; the service falls back to REST polling otherwise.
func (a *App) buildPriceService(deps *Dependencies) *service.PriceService {
	var feed service.PriceStream
	if a.cfg.Polymarket.WsHost != "" {
		feed = polymarket.NewPriceFeed(a.cfg.Polymarket.WsHost)
	}

	return service.NewPriceService(
		service.PriceConfig{
			Interval: a.cfg.Scanner.PriceInterval.Duration,
			Guardrails: domain.GuardrailSettings{
				FreshnessWindowSeconds: a.cfg.Arbitrage.FreshnessWindowSec,
				MinEdgePercent:         a.cfg.Arbitrage.MinEdgePercent,
				MinLiquidityDollars:    a.cfg.Arbitrage.MinLiquidityDollars,
				SlippageBufferPercent:  a.cfg.Arbitrage.SlippageBufferPct,
				FeesPercent:            a.cfg.Arbitrage.FeesPercent,
			},
		},
		feed,
		deps.Clob,
		deps.KalshiAPI,
		deps.MatchStore,
		deps.PriceCache,
		deps.OpportunityStore,
		arbitrage.NewCalculator(a.logger),
		deps.SignalBus,
		deps.Notifier,
		a.logger,
	)
}

// startArchiveLoop adds a snapshot-archive goroutine to the errgroup when
// archiving is enabled and blob storage is wired.
func (a *App) startArchiveLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Scanner.ArchiveEnabled {
		return
	}
	if deps.Archiver == nil {
		a.logger.WarnContext(ctx, "archiving enabled but s3 is not configured, skipping")
		return
	}

	interval := a.cfg.Scanner.ArchiveInterval.Duration
	if interval <= 0 {
		interval = time.Hour
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}

			at := time.Now().UTC()
			if n, err := deps.Archiver.ArchiveMatches(ctx, at); err != nil {
				a.logger.ErrorContext(ctx, "match archive failed",
					slog.String("error", err.Error()),
				)
			} else if n > 0 {
				a.logger.InfoContext(ctx, "matches archived", slog.Int64("count", n))
			}

			if n, err := deps.Archiver.ArchiveOpportunities(ctx, at); err != nil {
				a.logger.ErrorContext(ctx, "opportunity archive failed",
					slog.String("error", err.Error()),
				)
			} else if n > 0 {
				a.logger.InfoContext(ctx, "opportunities archived", slog.Int64("count", n))
			}
		}
	})
}

// startHTTPServer adds the HTTP API server and its graceful-shutdown watcher
// to the given errgroup. scanFn is optional; when non-nil, POST
// /api/scan/trigger runs one scan on demand.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	scanFn handler.ScanFunc,
) {
	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.logger),
		Matches:       handler.NewMatchHandler(deps.MatchStore, a.logger),
		Opportunities: handler.NewOpportunityHandler(deps.OpportunityStore, a.logger),
		Status:        handler.NewStatusHandler(a.cfg.Mode),
	}
	if scanFn != nil {
		handlers.Scan = handler.NewScanHandler(scanFn, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.ApiKey,
		Limiter:     deps.RateLimiter,
	}, handlers, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
