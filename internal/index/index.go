// Package index provides an inverted index over one venue's market snapshot
// so candidate pairs can be generated in roughly O(terms) instead of
// comparing every cross-venue pair.
package index

import (
	"sort"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/normalize"
)

// DefaultMinSharedTerms is the shared-term floor below which a candidate is
// only retained when its year or ticker exactly matches the query.
const DefaultMinSharedTerms = 2

// Candidate is one market pulled from the index for a query, with the
// counts that justified its retrieval.
type Candidate struct {
	Market          domain.Market
	SharedTerms     int
	SharedBaseTerms int
	YearBoost       bool
	TickerBoost     bool
}

type idSet map[string]struct{}

// MarketIndex is an inverted index over an immutable snapshot of one venue's
// markets. It is rebuilt in full whenever the snapshot's id set changes and
// is never mutated incrementally outside the explicit Add/Remove operations.
type MarketIndex struct {
	terms     map[string]idSet
	baseTerms map[string]idSet
	years     map[int]idSet
	tickers   map[string]idSet
	byID      map[string]domain.Market
	termSets  map[string]normalize.TermSet
}

// Build constructs a MarketIndex from a snapshot. Markets missing required
// fields are skipped, not indexed.
func Build(markets []domain.Market) *MarketIndex {
	ix := &MarketIndex{
		terms:     make(map[string]idSet),
		baseTerms: make(map[string]idSet),
		years:     make(map[int]idSet),
		tickers:   make(map[string]idSet),
		byID:      make(map[string]domain.Market, len(markets)),
		termSets:  make(map[string]normalize.TermSet, len(markets)),
	}
	for _, m := range markets {
		ix.Add(m)
	}
	return ix
}

// Add indexes a single market.
func (ix *MarketIndex) Add(m domain.Market) {
	if !m.Matchable() {
		return
	}
	ts := normalize.Normalize(m.Title)
	ix.byID[m.ID] = m
	ix.termSets[m.ID] = ts
	for _, t := range ts.Terms {
		post(ix.terms, t, m.ID)
	}
	for _, t := range ts.BaseTerms {
		post(ix.baseTerms, t, m.ID)
	}
	if ts.Year != 0 {
		if ix.years[ts.Year] == nil {
			ix.years[ts.Year] = idSet{}
		}
		ix.years[ts.Year][m.ID] = struct{}{}
	}
	if ts.Ticker != "" {
		post(ix.tickers, ts.Ticker, m.ID)
	}
}

// Remove drops a market and all of its postings from the index.
func (ix *MarketIndex) Remove(id string) {
	ts, ok := ix.termSets[id]
	if !ok {
		return
	}
	for _, t := range ts.Terms {
		unpost(ix.terms, t, id)
	}
	for _, t := range ts.BaseTerms {
		unpost(ix.baseTerms, t, id)
	}
	if ts.Year != 0 {
		if s := ix.years[ts.Year]; s != nil {
			delete(s, id)
			if len(s) == 0 {
				delete(ix.years, ts.Year)
			}
		}
	}
	if ts.Ticker != "" {
		unpost(ix.tickers, ts.Ticker, id)
	}
	delete(ix.byID, id)
	delete(ix.termSets, id)
}

func post(m map[string]idSet, key, id string) {
	if m[key] == nil {
		m[key] = idSet{}
	}
	m[key][id] = struct{}{}
}

func unpost(m map[string]idSet, key, id string) {
	if s := m[key]; s != nil {
		delete(s, id)
		if len(s) == 0 {
			delete(m, key)
		}
	}
}

// Get returns the indexed market by id.
func (ix *MarketIndex) Get(id string) (domain.Market, bool) {
	m, ok := ix.byID[id]
	return m, ok
}

// TermSet returns the precomputed term set for an indexed market.
func (ix *MarketIndex) TermSet(id string) (normalize.TermSet, bool) {
	ts, ok := ix.termSets[id]
	return ts, ok
}

// Len returns the number of indexed markets.
func (ix *MarketIndex) Len() int { return len(ix.byID) }

// Stale reports whether the index no longer reflects the given snapshot's id
// set. The check is a cheap cardinality + membership comparison.
func (ix *MarketIndex) Stale(snapshot []domain.Market) bool {
	n := 0
	for _, m := range snapshot {
		if !m.Matchable() {
			continue
		}
		if _, ok := ix.byID[m.ID]; !ok {
			return true
		}
		n++
	}
	return n != len(ix.byID)
}

// RebuildIfStale replaces the index contents with a full rebuild when the
// snapshot's id set differs from the indexed set. It returns true when a
// rebuild happened. The rebuild is wholesale; staleness never triggers
// in-place mutation.
func (ix *MarketIndex) RebuildIfStale(snapshot []domain.Market) bool {
	if !ix.Stale(snapshot) {
		return false
	}
	*ix = *Build(snapshot)
	return true
}

// FindCandidates returns markets from the index sharing at least
// minSharedTerms terms (or base-event terms) with the query, plus any market
// whose year or ticker exactly matches the query regardless of term overlap.
// True positives sharing neither enough terms nor a year/ticker are not
// retrieved; that is the cost of the O(terms) query.
//
// Results are ordered by market id so candidate generation is deterministic.
func (ix *MarketIndex) FindCandidates(query domain.Market, minSharedTerms int) []Candidate {
	if minSharedTerms <= 0 {
		minSharedTerms = DefaultMinSharedTerms
	}
	qts := normalize.Normalize(query.Title)

	shared := map[string]int{}
	for _, t := range qts.Terms {
		for id := range ix.terms[t] {
			shared[id]++
		}
	}
	sharedBase := map[string]int{}
	for _, t := range qts.BaseTerms {
		for id := range ix.baseTerms[t] {
			sharedBase[id]++
		}
	}
	boostYear := idSet{}
	if qts.Year != 0 {
		for id := range ix.years[qts.Year] {
			boostYear[id] = struct{}{}
		}
	}
	boostTicker := idSet{}
	if qts.Ticker != "" {
		for id := range ix.tickers[qts.Ticker] {
			boostTicker[id] = struct{}{}
		}
	}

	keep := map[string]bool{}
	for id, n := range shared {
		if n >= minSharedTerms {
			keep[id] = true
		}
	}
	for id, n := range sharedBase {
		if n >= minSharedTerms {
			keep[id] = true
		}
	}
	for id := range boostYear {
		keep[id] = true
	}
	for id := range boostTicker {
		keep[id] = true
	}

	ids := make([]string, 0, len(keep))
	for id := range keep {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		_, yb := boostYear[id]
		_, tb := boostTicker[id]
		out = append(out, Candidate{
			Market:          ix.byID[id],
			SharedTerms:     shared[id],
			SharedBaseTerms: sharedBase[id],
			YearBoost:       yb,
			TickerBoost:     tb,
		})
	}
	return out
}
