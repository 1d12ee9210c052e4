package match

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/index"
)

func testMatcher() *Matcher {
	return New(Config{}, slog.Default())
}

func slugged(m domain.Market, slug string) domain.Market {
	m.Slug = slug
	return m
}

func marketPool() (polys, kalshis []domain.Market) {
	polys = []domain.Market{
		slugged(domain.Market{
			Venue: domain.VenuePolymarket, ID: "p1",
			Title:   "Will Bitcoin reach $100k in 2025?",
			EndTime: baseEnd,
		}, "bitcoin-100k-2025"),
		{
			Venue: domain.VenuePolymarket, ID: "p2",
			Title:   "Chiefs vs Bills Winner?",
			EndTime: baseEnd,
		},
	}
	kalshis = []domain.Market{
		slugged(domain.Market{
			Venue: domain.VenueKalshi, ID: "k1",
			Title:   "Bitcoin price above $100k in 2025?",
			EndTime: baseEnd,
		}, "bitcoin-100k-2025"),
		{
			Venue: domain.VenueKalshi, ID: "k2",
			Title:   "Kansas City Chiefs @ Buffalo Bills Moneyline",
			EndTime: baseEnd,
		},
	}
	return polys, kalshis
}

func TestMatchPairsEachVenueOnce(t *testing.T) {
	polys, kalshis := marketPool()
	matches := testMatcher().Match(polys, kalshis)
	require.Len(t, matches, 2)

	// sorted by score descending; the slug-anchored crypto pair scores higher
	assert.Equal(t, "p1", matches[0].Poly.ID)
	assert.Equal(t, "k1", matches[0].Kalshi.ID)
	assert.Equal(t, "p2", matches[1].Poly.ID)
	assert.Equal(t, "k2", matches[1].Kalshi.ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)

	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, MinScore)
		assert.LessOrEqual(t, m.Score, 1.0)
		assert.NotEmpty(t, m.Reason)
	}
}

func TestMatchDeterministicIDs(t *testing.T) {
	polys, kalshis := marketPool()
	matches := testMatcher().Match(polys, kalshis)
	require.Len(t, matches, 2)
	assert.Equal(t, "polymarket:p1|kalshi:k1", matches[0].ID)
	assert.Equal(t, "polymarket:p2|kalshi:k2", matches[1].ID)
}

func TestMatchIdempotent(t *testing.T) {
	polys, kalshis := marketPool()
	m := testMatcher()

	first := m.Match(polys, kalshis)
	second := m.Match(polys, kalshis)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Score, second[i].Score)
		assert.Equal(t, first[i].Scores, second[i].Scores)
	}
}

func TestMatchBijective(t *testing.T) {
	// two near-identical queries compete for one counterpart; the earlier
	// query claims it and the later one goes unmatched
	polys := []domain.Market{
		{Venue: domain.VenuePolymarket, ID: "p1", Title: "Will Bitcoin reach $100k in 2025?", EndTime: baseEnd, Slug: "bitcoin-100k-2025"},
		{Venue: domain.VenuePolymarket, ID: "p2", Title: "Bitcoin to reach $100k in 2025?", EndTime: baseEnd, Slug: "bitcoin-100k-2025"},
	}
	kalshis := []domain.Market{
		{Venue: domain.VenueKalshi, ID: "k1", Title: "Bitcoin price above $100k in 2025?", EndTime: baseEnd, Slug: "bitcoin-100k-2025"},
	}

	matches := testMatcher().Match(polys, kalshis)
	require.Len(t, matches, 1)
	assert.Equal(t, "p1", matches[0].Poly.ID)
}

func TestMatchSkipsUnmatchable(t *testing.T) {
	polys := []domain.Market{{Venue: domain.VenuePolymarket, ID: "p1", Title: "No end time set"}}
	kalshis := []domain.Market{{Venue: domain.VenueKalshi, ID: "k1", Title: "Bitcoin above $100k in 2025", EndTime: baseEnd}}
	assert.Empty(t, testMatcher().Match(polys, kalshis))
}

func TestMatchIncrementalRespectsExistingClaims(t *testing.T) {
	polys, kalshis := marketPool()
	m := testMatcher()
	ix := index.Build(kalshis)

	existing := m.MatchIncremental(polys[:1], ix, nil)
	require.Len(t, existing, 1)
	require.Equal(t, "k1", existing[0].Kalshi.ID)

	// a new market competing for the claimed counterpart finds nothing
	newcomer := []domain.Market{{
		Venue: domain.VenuePolymarket, ID: "p3",
		Title:   "Bitcoin to reach $100k in 2025?",
		EndTime: baseEnd,
		Slug:    "bitcoin-100k-2025",
	}}
	assert.Empty(t, m.MatchIncremental(newcomer, ix, existing))

	// while an unclaimed counterpart is still matchable
	added := m.MatchIncremental(polys[1:], ix, existing)
	require.Len(t, added, 1)
	assert.Equal(t, "k2", added[0].Kalshi.ID)
}

func TestMatchedAtIsUTC(t *testing.T) {
	polys, kalshis := marketPool()
	matches := testMatcher().Match(polys, kalshis)
	require.NotEmpty(t, matches)
	assert.Equal(t, time.UTC, matches[0].MatchedAt.Location())
	assert.WithinDuration(t, time.Now(), matches[0].MatchedAt, time.Minute)
}
