package match

import (
	"log/slog"
	"sort"
	"time"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/index"
	"github.com/quantship/crossarb/internal/normalize"
)

// Config holds matcher tunables.
type Config struct {
	MinSharedTerms int     // index candidate floor, default 2
	MinScore       float64 // overall acceptance threshold, default MinScore
}

// Stats counts gate and threshold rejections for observability. Rejected
// candidates keep no record beyond these counters.
type Stats struct {
	Queried      int
	Candidates   int
	GateRejects  map[RejectReason]int
	ScoreRejects int
	Accepted     int
}

// Matcher pairs Polymarket markets with their Kalshi counterparts. It owns
// no shared state between passes; every pass runs over immutable snapshots.
type Matcher struct {
	cfg    Config
	gate   *Gate
	logger *slog.Logger
}

// New creates a Matcher.
func New(cfg Config, logger *slog.Logger) *Matcher {
	if cfg.MinSharedTerms <= 0 {
		cfg.MinSharedTerms = index.DefaultMinSharedTerms
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = MinScore
	}
	return &Matcher{
		cfg:    cfg,
		gate:   NewGate(),
		logger: logger.With(slog.String("component", "matcher")),
	}
}

// Match runs a full pass: builds an index over the Kalshi snapshot, pairs
// every Polymarket market with its best surviving candidate, and returns the
// accepted matches sorted by score descending. Each Kalshi market appears in
// at most one match.
func (m *Matcher) Match(polys, kalshis []domain.Market) []domain.CrossPlatformMatch {
	ix := index.Build(kalshis)
	return m.run(polys, ix, map[string]bool{})
}

// MatchIncremental pairs only newly discovered Polymarket markets against an
// already-built Kalshi index, skipping Kalshi markets claimed by existing
// matches. Prior matches are never rescored.
func (m *Matcher) MatchIncremental(newPolys []domain.Market, ix *index.MarketIndex, existing []domain.CrossPlatformMatch) []domain.CrossPlatformMatch {
	used := make(map[string]bool, len(existing))
	for _, prev := range existing {
		used[prev.Kalshi.ID] = true
	}
	return m.run(newPolys, ix, used)
}

func (m *Matcher) run(polys []domain.Market, ix *index.MarketIndex, used map[string]bool) []domain.CrossPlatformMatch {
	stats := Stats{GateRejects: map[RejectReason]int{}}
	now := time.Now().UTC()

	var matches []domain.CrossPlatformMatch
	for _, poly := range polys {
		if !poly.Matchable() {
			continue
		}
		stats.Queried++
		pts := normalize.Normalize(poly.Title)

		var best *domain.MatchCandidate
		for _, cand := range ix.FindCandidates(poly, m.cfg.MinSharedTerms) {
			if used[cand.Market.ID] {
				continue
			}
			stats.Candidates++
			kts, ok := ix.TermSet(cand.Market.ID)
			if !ok {
				continue
			}
			if reason := m.gate.Check(poly, cand.Market, pts, kts); reason != ReasonNone {
				stats.GateRejects[reason]++
				continue
			}
			bd, score, ok := Score(poly, cand.Market, pts, kts)
			if !ok || score < m.cfg.MinScore {
				stats.ScoreRejects++
				continue
			}
			if best == nil || score > best.Score ||
				(score == best.Score && cand.Market.ID < best.Market.ID) {
				best = &domain.MatchCandidate{
					Market: cand.Market,
					Score:  score,
					Scores: bd,
					Reason: Reason(bd, score),
				}
			}
		}
		if best == nil {
			continue
		}
		used[best.Market.ID] = true
		stats.Accepted++
		matches = append(matches, domain.CrossPlatformMatch{
			ID:        poly.Key() + "|" + best.Market.Key(),
			Poly:      poly,
			Kalshi:    best.Market,
			Score:     best.Score,
			Scores:    best.Scores,
			Reason:    best.Reason,
			MatchedAt: now,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	m.logger.Debug("matching pass complete",
		slog.Int("queried", stats.Queried),
		slog.Int("candidates", stats.Candidates),
		slog.Int("accepted", stats.Accepted),
		slog.Int("score_rejects", stats.ScoreRejects),
		slog.Int("gate_rejects", gateRejectTotal(stats.GateRejects)),
	)
	return matches
}

func gateRejectTotal(m map[RejectReason]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
