package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantship/crossarb/internal/arbitrage"
	"github.com/quantship/crossarb/internal/domain"
)

type stubMatchSource struct {
	recordingMatchStore
	matches []domain.CrossPlatformMatch
}

func (s *stubMatchSource) ListRecent(context.Context, domain.ListOpts) ([]domain.CrossPlatformMatch, error) {
	return s.matches, nil
}

type countingOppStore struct {
	inserts []domain.ArbitrageOpportunity
}

func (c *countingOppStore) Insert(_ context.Context, opp domain.ArbitrageOpportunity) error {
	c.inserts = append(c.inserts, opp)
	return nil
}

func (c *countingOppStore) ListRecent(context.Context, int) ([]domain.ArbitrageOpportunity, error) {
	return nil, nil
}

func (c *countingOppStore) ListOpen(context.Context, time.Time) ([]domain.ArbitrageOpportunity, error) {
	return nil, nil
}

type countingBus struct {
	channels []string
}

func (c *countingBus) Publish(_ context.Context, channel string, _ []byte) error {
	c.channels = append(c.channels, channel)
	return nil
}

func (c *countingBus) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }

type stubClob struct {
	quote domain.PriceQuote
}

func (s *stubClob) FetchQuote(context.Context, string) (*domain.PriceQuote, error) {
	q := s.quote
	return &q, nil
}

type stubKalshiQuotes struct {
	markets map[string]domain.Market
}

func (s *stubKalshiQuotes) RefreshQuotes(context.Context, []string) (map[string]domain.Market, error) {
	return s.markets, nil
}

// pricedMatchFixture yields one match whose refreshed legs cost 0.95 combined,
// a standing five-point edge in the poly-yes/kalshi-no direction.
func pricedMatchFixture(now time.Time) (*stubMatchSource, *stubClob, *stubKalshiQuotes) {
	source := &stubMatchSource{matches: []domain.CrossPlatformMatch{{
		ID: "polymarket:p1|kalshi:k1",
		Poly: domain.Market{
			Venue: domain.VenuePolymarket, ID: "p1",
			Title:   "Will Bitcoin reach $100k in 2025?",
			EndTime: testEnd,
			Yes:     domain.OutcomeSide{Label: "Yes", InstrumentID: "tok-yes"},
		},
		Kalshi: domain.Market{
			Venue: domain.VenueKalshi, ID: "k1",
			Title:   "Bitcoin price above $100k in 2025?",
			EndTime: testEnd,
		},
	}}}

	clob := &stubClob{quote: domain.PriceQuote{
		Probability: 0.40,
		Source:      domain.QuoteSourceOrderbook,
		Timestamp:   now,
	}}

	kalshi := &stubKalshiQuotes{markets: map[string]domain.Market{
		"k1": {
			Venue: domain.VenueKalshi, ID: "k1",
			No: domain.OutcomeSide{Label: "No", Quote: &domain.PriceQuote{
				Probability: 0.55,
				Source:      domain.QuoteSourceOrderbook,
				Timestamp:   now,
			}},
		},
	}}

	return source, clob, kalshi
}

func TestEvaluateAlwaysPersistsAndPublishesOpportunities(t *testing.T) {
	source, clob, kalshi := pricedMatchFixture(time.Now().UTC())
	opps := &countingOppStore{}
	bus := &countingBus{}
	notifier := &recordingNotifier{}

	// the edge is ~5%, so a high min-edge guardrail keeps trade plans out of
	// the notifier stream
	svc := NewPriceService(
		PriceConfig{Guardrails: domain.GuardrailSettings{MinEdgePercent: 50}},
		nil, // feed
		clob,
		kalshi,
		source,
		nil, // prices
		opps,
		arbitrage.NewCalculator(slog.Default()),
		bus,
		notifier,
		slog.Default(),
	)

	require.NoError(t, svc.Evaluate(context.Background()))
	require.NoError(t, svc.Evaluate(context.Background()))

	// every detection reaches the store and the bus, even back to back
	require.Len(t, opps.inserts, 2)
	assert.Equal(t, "polymarket:p1|kalshi:k1", opps.inserts[0].MatchID)
	assert.Equal(t, []string{"opportunities", "opportunities"}, bus.channels)

	// the alert channel stays deduped inside the window
	assert.Equal(t, []string{"opportunity"}, notifier.events)
}
