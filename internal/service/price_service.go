package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantship/crossarb/internal/arbitrage"
	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/notify"
	"github.com/quantship/crossarb/internal/platform/polymarket"
)

// alertDedupeWindow suppresses repeat alerts for the same match+direction.
const alertDedupeWindow = 5 * time.Minute

// matchLoadLimit bounds how many matches one price pass evaluates.
const matchLoadLimit = 500

// QuoteFetcher pulls one executable quote for a Polymarket CLOB token.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, tokenID string) (*domain.PriceQuote, error)
}

// QuoteRefresher re-fetches fresh Kalshi markets by ticker.
type QuoteRefresher interface {
	RefreshQuotes(ctx context.Context, tickers []string) (map[string]domain.Market, error)
}

// PriceStream is the streaming side of the Polymarket market-data feed.
type PriceStream interface {
	OnQuote(handler polymarket.QuoteHandler)
	Connect(ctx context.Context) error
	Subscribe(assetIDs []string) error
	Close() error
}

// PriceConfig holds the tunable parameters for the price loop.
type PriceConfig struct {
	Interval   time.Duration
	Guardrails domain.GuardrailSettings
}

// PriceService keeps quotes fresh for every matched market and runs arbitrage
// detection over the updated pairs. Polymarket quotes stream in over
// WebSocket with a REST fallback; Kalshi quotes are polled.
type PriceService struct {
	cfg      PriceConfig
	feed     PriceStream
	clob     QuoteFetcher
	kalshi   QuoteRefresher
	matches  domain.MatchStore
	prices   domain.PriceCache
	opps     domain.OpportunityStore
	calc     *arbitrage.Calculator
	bus      domain.SignalBus
	notifier Notifier
	logger   *slog.Logger

	subscribed map[string]bool
	lastAlert  map[string]time.Time
}

// NewPriceService creates a PriceService with all required dependencies.
// feed, prices, opps, bus, and notifier may be nil; the corresponding steps
// are skipped.
func NewPriceService(
	cfg PriceConfig,
	feed PriceStream,
	clob QuoteFetcher,
	kalshi QuoteRefresher,
	matches domain.MatchStore,
	prices domain.PriceCache,
	opps domain.OpportunityStore,
	calc *arbitrage.Calculator,
	bus domain.SignalBus,
	notifier Notifier,
	logger *slog.Logger,
) *PriceService {
	return &PriceService{
		cfg:        cfg,
		feed:       feed,
		clob:       clob,
		kalshi:     kalshi,
		matches:    matches,
		prices:     prices,
		opps:       opps,
		calc:       calc,
		bus:        bus,
		notifier:   notifier,
		logger:     logger.With(slog.String("component", "price_service")),
		subscribed: make(map[string]bool),
		lastAlert:  make(map[string]time.Time),
	}
}

// Run connects the price feed and evaluates matches at the configured
// interval until the context is cancelled.
func (s *PriceService) Run(ctx context.Context) error {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	if s.feed != nil {
		s.feed.OnQuote(s.onStreamQuote(ctx))
		if err := s.feed.Connect(ctx); err != nil {
			// REST polling still works without the stream.
			s.logger.WarnContext(ctx, "price feed connect failed, falling back to polling",
				slog.String("error", err.Error()),
			)
		}
		defer s.feed.Close()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Evaluate(ctx); err != nil {
			s.logger.ErrorContext(ctx, "price pass failed",
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

// onStreamQuote returns the handler that stores streamed quotes in the price
// cache.
func (s *PriceService) onStreamQuote(ctx context.Context) polymarket.QuoteHandler {
	return func(instrumentID string, quote domain.PriceQuote) {
		if s.prices == nil {
			return
		}
		if err := s.prices.SetQuote(ctx, instrumentID, quote); err != nil {
			s.logger.WarnContext(ctx, "cache stream quote failed",
				slog.String("instrument", instrumentID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Evaluate runs one pricing-and-detection pass: load matches, refresh quotes
// on both legs, then detect and record opportunities.
func (s *PriceService) Evaluate(ctx context.Context) error {
	loaded, err := s.matches.ListRecent(ctx, domain.ListOpts{Limit: matchLoadLimit})
	if err != nil {
		return fmt.Errorf("price_service: load matches: %w", err)
	}
	if len(loaded) == 0 {
		return nil
	}

	s.subscribeNewTokens(loaded)

	fresh, err := s.refreshQuotes(ctx, loaded)
	if err != nil {
		return err
	}

	s.detect(ctx, fresh)
	return nil
}

// subscribeNewTokens adds not-yet-subscribed Polymarket tokens to the stream.
func (s *PriceService) subscribeNewTokens(matches []domain.CrossPlatformMatch) {
	if s.feed == nil {
		return
	}

	var fresh []string
	for _, m := range matches {
		for _, tok := range []string{m.Poly.Yes.InstrumentID, m.Poly.No.InstrumentID} {
			if tok == "" || s.subscribed[tok] {
				continue
			}
			s.subscribed[tok] = true
			fresh = append(fresh, tok)
		}
	}
	if len(fresh) == 0 {
		return
	}

	if err := s.feed.Subscribe(fresh); err != nil {
		s.logger.Warn("stream subscribe failed",
			slog.Int("tokens", len(fresh)),
			slog.String("error", err.Error()),
		)
		for _, tok := range fresh {
			delete(s.subscribed, tok)
		}
	}
}

// refreshQuotes attaches the freshest available quote to every leg of every
// match. Polymarket sides prefer the streamed cache and fall back to the CLOB
// REST book; Kalshi sides are re-fetched in one pass.
func (s *PriceService) refreshQuotes(ctx context.Context, matches []domain.CrossPlatformMatch) ([]domain.CrossPlatformMatch, error) {
	kalshiByTicker, polyQuotes, err := s.fetchLegQuotes(ctx, matches)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CrossPlatformMatch, 0, len(matches))
	for _, m := range matches {
		if q, ok := polyQuotes[m.Poly.Yes.InstrumentID]; ok {
			m.Poly.Yes.Quote = q
		}
		if q, ok := polyQuotes[m.Poly.No.InstrumentID]; ok {
			m.Poly.No.Quote = q
		}
		if fresh, ok := kalshiByTicker[m.Kalshi.ID]; ok {
			m.Kalshi.Yes.Quote = fresh.Yes.Quote
			m.Kalshi.No.Quote = fresh.No.Quote
		}
		out = append(out, m)
	}
	return out, nil
}

// fetchLegQuotes gathers quotes for all legs concurrently: one Kalshi refresh
// batch and one Polymarket lookup per token.
func (s *PriceService) fetchLegQuotes(ctx context.Context, matches []domain.CrossPlatformMatch) (map[string]domain.Market, map[string]*domain.PriceQuote, error) {
	tickerSet := make(map[string]bool)
	tokenSet := make(map[string]bool)
	for _, m := range matches {
		tickerSet[m.Kalshi.ID] = true
		for _, tok := range []string{m.Poly.Yes.InstrumentID, m.Poly.No.InstrumentID} {
			if tok != "" {
				tokenSet[tok] = true
			}
		}
	}

	tickers := make([]string, 0, len(tickerSet))
	for t := range tickerSet {
		tickers = append(tickers, t)
	}
	tokens := make([]string, 0, len(tokenSet))
	for t := range tokenSet {
		tokens = append(tokens, t)
	}

	var kalshiByTicker map[string]domain.Market
	polyQuotes := make(map[string]*domain.PriceQuote, len(tokens))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		kalshiByTicker, err = s.kalshi.RefreshQuotes(gctx, tickers)
		if err != nil {
			return fmt.Errorf("price_service: refresh kalshi quotes: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Streamed quotes first; REST only for tokens the stream has not
		// covered yet.
		missing := tokens
		if s.prices != nil {
			cached, err := s.prices.GetQuotes(gctx, tokens)
			if err == nil {
				missing = missing[:0]
				for _, tok := range tokens {
					if q, ok := cached[tok]; ok {
						quote := q
						polyQuotes[tok] = &quote
					} else {
						missing = append(missing, tok)
					}
				}
			}
		}

		for _, tok := range missing {
			q, err := s.clob.FetchQuote(gctx, tok)
			if err != nil {
				s.logger.WarnContext(gctx, "clob quote fetch failed",
					slog.String("token", tok),
					slog.String("error", err.Error()),
				)
				continue
			}
			polyQuotes[tok] = q
			if s.prices != nil {
				_ = s.prices.SetQuote(gctx, tok, *q)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return kalshiByTicker, polyQuotes, nil
}

// detect runs raw detection plus guardrails over the freshly priced matches
// and records what it finds.
func (s *PriceService) detect(ctx context.Context, matches []domain.CrossPlatformMatch) {
	opps := s.calc.Detect(matches)
	for _, opp := range opps {
		s.recordOpportunity(ctx, opp)
	}

	plans := s.calc.DetectWithGuardrails(matches, s.cfg.Guardrails)
	for _, plan := range plans {
		s.announcePlan(ctx, plan)
	}

	if len(opps) > 0 || len(plans) > 0 {
		s.logger.InfoContext(ctx, "detection pass",
			slog.Int("matches", len(matches)),
			slog.Int("opportunities", len(opps)),
			slog.Int("plans", len(plans)),
		)
	}
}

// recordOpportunity persists and publishes every detection; only the outbound
// notification is deduped, so the store and the bus keep the full history.
func (s *PriceService) recordOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) {
	if s.opps != nil {
		if err := s.opps.Insert(ctx, opp); err != nil {
			s.logger.ErrorContext(ctx, "insert opportunity failed",
				slog.String("opp_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus != nil {
		evt, _ := json.Marshal(map[string]any{
			"event":          notify.EventOpportunity,
			"opp_id":         opp.ID,
			"match_id":       opp.MatchID,
			"direction":      string(opp.Direction),
			"profit_percent": opp.ProfitPercent,
		})
		if err := s.bus.Publish(ctx, "opportunities", evt); err != nil {
			s.logger.WarnContext(ctx, "publish opportunity failed",
				slog.String("opp_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.notifier != nil && s.shouldAlert("opp:"+opp.MatchID+":"+string(opp.Direction)) {
		title, msg := notify.FormatOpportunity(opp)
		if err := s.notifier.Notify(ctx, notify.EventOpportunity, title, msg); err != nil {
			s.logger.WarnContext(ctx, "notify opportunity failed",
				slog.String("opp_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *PriceService) announcePlan(ctx context.Context, plan domain.TradePlan) {
	if !s.shouldAlert("plan:" + plan.Opportunity.MatchID + ":" + string(plan.Opportunity.Direction)) {
		return
	}

	if s.notifier != nil {
		title, msg := notify.FormatTradePlan(plan)
		if err := s.notifier.Notify(ctx, notify.EventTradePlan, title, msg); err != nil {
			s.logger.WarnContext(ctx, "notify plan failed",
				slog.String("match_id", plan.Opportunity.MatchID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// shouldAlert rate-limits repeat alerts for the same key.
func (s *PriceService) shouldAlert(key string) bool {
	now := time.Now()
	if last, ok := s.lastAlert[key]; ok && now.Sub(last) < alertDedupeWindow {
		return false
	}
	s.lastAlert[key] = now
	return true
}
