// Package service contains the orchestration loops that tie venue clients,
// the matcher, the detector, and the persistence layer together.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/index"
	"github.com/quantship/crossarb/internal/match"
	"github.com/quantship/crossarb/internal/notify"
)

// scanLockKey is the distributed lock key guarding full scans. Only one
// instance may run a scan at a time.
const scanLockKey = "scan:full"

// scanLockTTL bounds how long a crashed instance can hold the scan lock.
const scanLockTTL = 10 * time.Minute

// MarketLister fetches open markets from one venue.
type MarketLister interface {
	ListOpenMarkets(ctx context.Context, pageSize, maxMarkets int) ([]domain.Market, error)
}

// Notifier is the alert surface the services need.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// ScanConfig holds the tunable parameters for the scan loop.
type ScanConfig struct {
	Interval       time.Duration
	PolyPageSize   int
	PolyMaxMarkets int
	KalshiPageSize int
	KalshiMaxMkts  int
}

// ScanService runs the discovery-and-match pipeline: fetch open markets from
// both venues, pair them, and persist the accepted matches. The Kalshi index
// is held across passes; an unchanged Kalshi id set pairs only Polymarket
// markets not evaluated before, respecting earlier claims.
type ScanService struct {
	cfg      ScanConfig
	poly     MarketLister
	kalshi   MarketLister
	matcher  *match.Matcher
	matches  domain.MatchStore
	cache    domain.MarketCache
	lock     domain.LockManager
	bus      domain.SignalBus
	notifier Notifier
	audit    domain.AuditStore
	logger   *slog.Logger

	mu      sync.Mutex
	ix      *index.MarketIndex
	seen    map[string]bool
	claimed []domain.CrossPlatformMatch
}

// NewScanService creates a ScanService with all required dependencies.
// cache, lock, bus, notifier, and audit may be nil; the corresponding steps
// are skipped.
func NewScanService(
	cfg ScanConfig,
	poly, kalshi MarketLister,
	matcher *match.Matcher,
	matches domain.MatchStore,
	cache domain.MarketCache,
	lock domain.LockManager,
	bus domain.SignalBus,
	notifier Notifier,
	audit domain.AuditStore,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		cfg:      cfg,
		poly:     poly,
		kalshi:   kalshi,
		matcher:  matcher,
		matches:  matches,
		cache:    cache,
		lock:     lock,
		bus:      bus,
		notifier: notifier,
		audit:    audit,
		logger:   logger.With(slog.String("component", "scan_service")),
	}
}

// Run executes scans at the configured interval until the context is
// cancelled. The first scan runs immediately.
func (s *ScanService) Run(ctx context.Context) error {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Scan(ctx); err != nil && !errors.Is(err, domain.ErrLockHeld) {
			s.logger.ErrorContext(ctx, "scan failed",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Scan runs one full discovery-and-match pass and returns the number of
// matches persisted. It returns domain.ErrLockHeld when another instance is
// already scanning.
func (s *ScanService) Scan(ctx context.Context) (int, error) {
	if s.lock != nil {
		unlock, err := s.lock.Acquire(ctx, scanLockKey, scanLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				s.logger.InfoContext(ctx, "scan skipped, lock held elsewhere")
				return 0, err
			}
			return 0, fmt.Errorf("scan_service: acquire lock: %w", err)
		}
		defer unlock()
	}

	start := time.Now()

	polys, kalshis, err := s.fetchMarkets(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "markets fetched",
		slog.Int("polymarket", len(polys)),
		slog.Int("kalshi", len(kalshis)),
	)

	matches := s.pairMarkets(polys, kalshis)
	if len(matches) > 0 {
		if err := s.matches.UpsertBatch(ctx, matches); err != nil {
			return 0, fmt.Errorf("scan_service: persist matches: %w", err)
		}
	}

	s.cacheMatchedMarkets(ctx, matches)
	s.publishMatches(ctx, matches)
	s.auditScan(ctx, len(polys), len(kalshis), len(matches), time.Since(start))

	s.logger.InfoContext(ctx, "scan complete",
		slog.Int("matches", len(matches)),
		slog.Duration("duration", time.Since(start)),
	)

	return len(matches), nil
}

// pairMarkets runs the matcher over the fetched snapshots and returns the
// matches this pass produced. A changed Kalshi id set forces a full index
// rebuild and re-pairs everything; otherwise only Polymarket markets new to
// the held index are paired, and earlier claims stay claimed.
func (s *ScanService) pairMarkets(polys, kalshis []domain.Market) []domain.CrossPlatformMatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	rebuilt := false
	if s.ix == nil {
		s.ix = index.Build(kalshis)
		rebuilt = true
	} else {
		rebuilt = s.ix.RebuildIfStale(kalshis)
	}
	if rebuilt {
		s.seen = make(map[string]bool, len(polys))
		s.claimed = nil
	}

	fresh := make([]domain.Market, 0, len(polys))
	for _, p := range polys {
		if s.seen[p.Key()] {
			continue
		}
		s.seen[p.Key()] = true
		fresh = append(fresh, p)
	}

	added := s.matcher.MatchIncremental(fresh, s.ix, s.claimed)
	s.claimed = append(s.claimed, added...)
	return added
}

// fetchMarkets pulls open markets from both venues concurrently.
func (s *ScanService) fetchMarkets(ctx context.Context) (polys, kalshis []domain.Market, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		polys, err = s.poly.ListOpenMarkets(gctx, s.cfg.PolyPageSize, s.cfg.PolyMaxMarkets)
		if err != nil {
			return fmt.Errorf("scan_service: fetch polymarket: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		kalshis, err = s.kalshi.ListOpenMarkets(gctx, s.cfg.KalshiPageSize, s.cfg.KalshiMaxMkts)
		if err != nil {
			return fmt.Errorf("scan_service: fetch kalshi: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return polys, kalshis, nil
}

// cacheMatchedMarkets warms the market cache with both legs of every match so
// the price loop can resolve instruments without hitting the database.
func (s *ScanService) cacheMatchedMarkets(ctx context.Context, matches []domain.CrossPlatformMatch) {
	if s.cache == nil {
		return
	}
	for _, m := range matches {
		for _, mk := range []domain.Market{m.Poly, m.Kalshi} {
			if err := s.cache.Set(ctx, mk); err != nil {
				s.logger.WarnContext(ctx, "market cache set failed",
					slog.String("market", mk.Key()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// publishMatches emits one bus event per match and a filtered notification.
func (s *ScanService) publishMatches(ctx context.Context, matches []domain.CrossPlatformMatch) {
	for _, m := range matches {
		if s.bus != nil {
			evt, _ := json.Marshal(map[string]any{
				"event":    notify.EventMatchFound,
				"match_id": m.ID,
				"score":    m.Score,
				"poly":     m.Poly.Key(),
				"kalshi":   m.Kalshi.Key(),
			})
			if err := s.bus.Publish(ctx, "matches", evt); err != nil {
				s.logger.WarnContext(ctx, "publish match failed",
					slog.String("match_id", m.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		if s.notifier != nil {
			title, msg := notify.FormatMatch(m)
			if err := s.notifier.Notify(ctx, notify.EventMatchFound, title, msg); err != nil {
				s.logger.WarnContext(ctx, "notify match failed",
					slog.String("match_id", m.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (s *ScanService) auditScan(ctx context.Context, polys, kalshis, matched int, took time.Duration) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, "scan.completed", map[string]any{
		"polymarket_markets": polys,
		"kalshi_markets":     kalshis,
		"matches":            matched,
		"duration_ms":        took.Milliseconds(),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("error", err.Error()),
		)
	}
}
