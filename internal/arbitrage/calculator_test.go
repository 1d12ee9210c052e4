package arbitrage

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantship/crossarb/internal/domain"
)

var (
	polyEnd   = time.Date(2026, 3, 30, 12, 0, 0, 0, time.UTC)
	kalshiEnd = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func quote(prob float64) *domain.PriceQuote {
	return &domain.PriceQuote{
		Probability:  prob,
		Source:       domain.QuoteSourceOrderbook,
		DepthDollars: 5_000,
		Timestamp:    time.Now().UTC(),
	}
}

// testMatch builds one matched pair with the four leg prices. A nil entry
// leaves that side unquoted.
func testMatch(polyYes, polyNo, kalshiYes, kalshiNo *domain.PriceQuote) domain.CrossPlatformMatch {
	return domain.CrossPlatformMatch{
		ID: "polymarket:p1|kalshi:k1",
		Poly: domain.Market{
			Venue: domain.VenuePolymarket, ID: "p1", Title: "Fed cuts rates in March?", EndTime: polyEnd,
			Yes: domain.OutcomeSide{Label: "Yes", InstrumentID: "tok-yes", Quote: polyYes},
			No:  domain.OutcomeSide{Label: "No", InstrumentID: "tok-no", Quote: polyNo},
		},
		Kalshi: domain.Market{
			Venue: domain.VenueKalshi, ID: "k1", Title: "Fed rate cut in March?", EndTime: kalshiEnd,
			Yes: domain.OutcomeSide{Label: "Yes", InstrumentID: "FED-MAR", Quote: kalshiYes},
			No:  domain.OutcomeSide{Label: "No", InstrumentID: "FED-MAR", Quote: kalshiNo},
		},
		Score:     0.8,
		MatchedAt: time.Now().UTC(),
	}
}

func testCalculator() *Calculator {
	return NewCalculator(slog.Default())
}

func TestDetectProfitableDirection(t *testing.T) {
	m := testMatch(quote(0.40), nil, nil, quote(0.55))

	opps := testCalculator().Detect([]domain.CrossPlatformMatch{m})
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, domain.DirectionPolyYesKalshiNo, opp.Direction)
	assert.Equal(t, m.ID, opp.MatchID)
	assert.InDelta(t, 0.95, opp.CombinedCost, 1e-9)
	assert.InDelta(t, 0.05, opp.Profit, 1e-9)
	assert.InDelta(t, 5.2631578947, opp.ProfitPercent, 1e-6)
	assert.Equal(t, polyEnd, opp.ExpiresAt) // earlier of the two end times
	assert.NotEmpty(t, opp.ID)
}

func TestDetectNoEdge(t *testing.T) {
	m := testMatch(quote(0.60), nil, nil, quote(0.55))
	assert.Empty(t, testCalculator().Detect([]domain.CrossPlatformMatch{m}))
}

func TestDetectBothDirections(t *testing.T) {
	m := testMatch(quote(0.40), quote(0.50), quote(0.45), quote(0.50))

	opps := testCalculator().Detect([]domain.CrossPlatformMatch{m})
	require.Len(t, opps, 2)
	assert.Equal(t, domain.DirectionPolyYesKalshiNo, opps[0].Direction)
	assert.InDelta(t, 0.90, opps[0].CombinedCost, 1e-9)
	assert.Equal(t, domain.DirectionKalshiYesPolyNo, opps[1].Direction)
	assert.InDelta(t, 0.95, opps[1].CombinedCost, 1e-9)
}

func TestDetectSkipsUnpricedLegs(t *testing.T) {
	// nil quote on one leg
	m := testMatch(quote(0.40), nil, nil, nil)
	assert.Empty(t, testCalculator().Detect([]domain.CrossPlatformMatch{m}))

	// zero probability is a no-liquidity sentinel, not a free contract
	m = testMatch(quote(0.40), nil, nil, quote(0))
	assert.Empty(t, testCalculator().Detect([]domain.CrossPlatformMatch{m}))
}

func TestDetectWithGuardrailsKeepsCheaperDirection(t *testing.T) {
	m := testMatch(quote(0.40), quote(0.50), quote(0.45), quote(0.50))
	settings := domain.GuardrailSettings{
		FreshnessWindowSeconds: 60,
		MinEdgePercent:         2,
		MinLiquidityDollars:    1_000,
		SlippageBufferPercent:  0.5,
		FeesPercent:            1,
	}

	plans := testCalculator().DetectWithGuardrails([]domain.CrossPlatformMatch{m}, settings)
	require.Len(t, plans, 1)

	plan := plans[0]
	assert.Equal(t, domain.DirectionPolyYesKalshiNo, plan.Opportunity.Direction)
	assert.InDelta(t, 0.90*1.015, plan.AdjustedCost, 1e-9)
	assert.InDelta(t, 1-0.90*1.015, plan.NetProfit, 1e-9)

	assert.Equal(t, domain.VenuePolymarket, plan.Legs[0].Venue)
	assert.Equal(t, "yes", plan.Legs[0].Outcome)
	assert.Equal(t, domain.VenueKalshi, plan.Legs[1].Venue)
	assert.Equal(t, "no", plan.Legs[1].Outcome)
}

func TestDetectWithGuardrailsRejectsStaleQuotes(t *testing.T) {
	stale := quote(0.40)
	stale.Timestamp = time.Now().UTC().Add(-2 * time.Minute)
	m := testMatch(stale, nil, nil, quote(0.55))

	settings := domain.GuardrailSettings{FreshnessWindowSeconds: 30, MinEdgePercent: 1}
	assert.Empty(t, testCalculator().DetectWithGuardrails([]domain.CrossPlatformMatch{m}, settings))
}

func TestDetectWithGuardrailsRejectsThinBooks(t *testing.T) {
	thin := quote(0.40)
	thin.DepthDollars = 50
	m := testMatch(thin, nil, nil, quote(0.55))

	settings := domain.GuardrailSettings{MinLiquidityDollars: 1_000}
	assert.Empty(t, testCalculator().DetectWithGuardrails([]domain.CrossPlatformMatch{m}, settings))
}

func TestDetectWithGuardrailsMinEdge(t *testing.T) {
	// raw edge exists but costs eat it
	m := testMatch(quote(0.48), nil, nil, quote(0.50))
	settings := domain.GuardrailSettings{MinEdgePercent: 2, FeesPercent: 1, SlippageBufferPercent: 0.5}
	assert.Empty(t, testCalculator().DetectWithGuardrails([]domain.CrossPlatformMatch{m}, settings))
}
