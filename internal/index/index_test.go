package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantship/crossarb/internal/domain"
)

func kalshiMarket(id, title string) domain.Market {
	return domain.Market{
		Venue:   domain.VenueKalshi,
		ID:      id,
		Title:   title,
		EndTime: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestFindCandidatesSharedTerms(t *testing.T) {
	ix := Build([]domain.Market{
		kalshiMarket("k1", "Bitcoin price above $100k in 2025?"),
		kalshiMarket("k2", "Chiefs vs Bills Winner"),
		kalshiMarket("k3", "US GDP growth of 2.1 to 2.5 percent?"),
	})

	query := kalshiMarket("p1", "Will Bitcoin reach $100k in 2025?")
	cands := ix.FindCandidates(query, DefaultMinSharedTerms)
	require.Len(t, cands, 1)
	assert.Equal(t, "k1", cands[0].Market.ID)
	assert.GreaterOrEqual(t, cands[0].SharedTerms, DefaultMinSharedTerms)
}

func TestFindCandidatesYearBoost(t *testing.T) {
	// One shared term is below the floor, but the matching year keeps the
	// candidate anyway.
	ix := Build([]domain.Market{
		kalshiMarket("k1", "Presidential election outcome 2028"),
	})
	cands := ix.FindCandidates(kalshiMarket("p1", "Balanced budget passed in 2028?"), DefaultMinSharedTerms)
	require.Len(t, cands, 1)
	assert.True(t, cands[0].YearBoost)
}

func TestFindCandidatesBaseTermRecall(t *testing.T) {
	// Bracket substrings differ but the stripped base event overlaps, so the
	// sibling bracket market is still retrieved.
	ix := Build([]domain.Market{
		kalshiMarket("k1", "US GDP growth of 2.3 to 2.6 percent?"),
	})
	cands := ix.FindCandidates(kalshiMarket("p1", "US GDP growth of 2.1 to 2.5 percent?"), DefaultMinSharedTerms)
	require.Len(t, cands, 1)
	assert.GreaterOrEqual(t, cands[0].SharedBaseTerms, DefaultMinSharedTerms)
}

func TestFindCandidatesNoOverlap(t *testing.T) {
	ix := Build([]domain.Market{
		kalshiMarket("k1", "Chiefs vs Bills Winner"),
	})
	assert.Empty(t, ix.FindCandidates(kalshiMarket("p1", "Ethereum staking yield below 3?"), DefaultMinSharedTerms))
}

func TestFindCandidatesDeterministicOrder(t *testing.T) {
	ix := Build([]domain.Market{
		kalshiMarket("k2", "Bitcoin above $100k in 2025"),
		kalshiMarket("k1", "Bitcoin price target $100k for 2025"),
	})
	query := kalshiMarket("p1", "Will Bitcoin reach $100k in 2025?")
	for range 5 {
		cands := ix.FindCandidates(query, DefaultMinSharedTerms)
		require.Len(t, cands, 2)
		assert.Equal(t, "k1", cands[0].Market.ID)
		assert.Equal(t, "k2", cands[1].Market.ID)
	}
}

func TestAddRemove(t *testing.T) {
	ix := Build(nil)
	ix.Add(kalshiMarket("k1", "Bitcoin above $100k in 2025"))
	assert.Equal(t, 1, ix.Len())

	_, ok := ix.Get("k1")
	assert.True(t, ok)
	_, ok = ix.TermSet("k1")
	assert.True(t, ok)

	ix.Remove("k1")
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.FindCandidates(kalshiMarket("p1", "Bitcoin above $100k in 2025"), DefaultMinSharedTerms))
}

func TestAddSkipsUnmatchable(t *testing.T) {
	ix := Build([]domain.Market{{Venue: domain.VenueKalshi, ID: "k1", Title: "No end time"}})
	assert.Equal(t, 0, ix.Len())
}

func TestRebuildIfStale(t *testing.T) {
	snapshot := []domain.Market{
		kalshiMarket("k1", "Bitcoin above $100k in 2025"),
		kalshiMarket("k2", "Chiefs vs Bills Winner"),
	}
	ix := Build(snapshot)
	assert.False(t, ix.Stale(snapshot))
	assert.False(t, ix.RebuildIfStale(snapshot))

	grown := append(snapshot, kalshiMarket("k3", "US GDP growth of 2.1 to 2.5 percent?"))
	assert.True(t, ix.Stale(grown))
	assert.True(t, ix.RebuildIfStale(grown))
	assert.Equal(t, 3, ix.Len())

	shrunk := grown[:1]
	assert.True(t, ix.RebuildIfStale(shrunk))
	assert.Equal(t, 1, ix.Len())
}
