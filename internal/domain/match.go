package domain

import "time"

// ScoreBreakdown records every similarity component that contributed to a
// match decision. Stored alongside the match so scoring can be audited later.
type ScoreBreakdown struct {
	Title          float64 `json:"title"`
	BaseEvent      float64 `json:"base_event"`
	Bracket        float64 `json:"bracket"`
	Entity         float64 `json:"entity"`
	Ticker         float64 `json:"ticker"`
	Time           float64 `json:"time"`
	Category       float64 `json:"category"`
	Sports         float64 `json:"sports"`
	EffectiveTitle float64 `json:"effective_title"`
}

// MatchCandidate is one scored counterpart for a query market, before the
// one-to-one assignment picks a winner.
type MatchCandidate struct {
	Market Market
	Score  float64
	Scores ScoreBreakdown
	Reason string
}

// CrossPlatformMatch pairs a Polymarket market with its Kalshi counterpart.
// ID is deterministic over the two market keys so re-running a pass over the
// same snapshots yields the same identities.
type CrossPlatformMatch struct {
	ID        string         `json:"id"`
	Poly      Market         `json:"poly"`
	Kalshi    Market         `json:"kalshi"`
	Score     float64        `json:"score"`
	Scores    ScoreBreakdown `json:"scores"`
	Reason    string         `json:"reason"`
	MatchedAt time.Time      `json:"matched_at"`
}

// Expiry returns the earlier of the two markets' end times. An opportunity on
// this match is only actionable until the first leg settles.
func (m CrossPlatformMatch) Expiry() time.Time {
	if m.Poly.EndTime.Before(m.Kalshi.EndTime) {
		return m.Poly.EndTime
	}
	return m.Kalshi.EndTime
}
