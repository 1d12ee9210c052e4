// Package match implements the cross-venue market matching pipeline:
// compatibility vetoes, multi-signal scoring, and greedy one-to-one
// assignment between Polymarket and Kalshi markets.
package match

import (
	"math"
	"time"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/normalize"
)

// RejectReason is attached to gate vetoes for observability. Rejections are
// not errors; a vetoed candidate is simply skipped.
type RejectReason string

const (
	ReasonNone             RejectReason = ""
	ReasonTimeWindow       RejectReason = "time_window"
	ReasonSemanticConflict RejectReason = "semantic_conflict"
	ReasonPeriodConflict   RejectReason = "period_conflict"
	ReasonEntityConflict   RejectReason = "entity_conflict"
	ReasonNumericConflict  RejectReason = "numeric_conflict"
	ReasonYearConflict     RejectReason = "year_conflict"
	ReasonMutuallyExcl     RejectReason = "mutually_exclusive"
	ReasonSportsConflict   RejectReason = "sports_conflict"
)

// Hand-tuned compatibility constants. Preserved as configuration rather than
// re-derived; see DESIGN.md.
const (
	// MaxEndTimeGap is the widest spread between two markets' end times for
	// them to plausibly resolve on the same event.
	MaxEndTimeGap = 72 * time.Hour

	// PriceTargetTolerance is the max relative difference between two price
	// targets (e.g. "$100k" vs "$105k") of the same kind.
	PriceTargetTolerance = 0.20

	// PercentTargetTolerance is the max absolute difference in points
	// between two percentage targets.
	PercentTargetTolerance = 0.5

	// BracketAdjacencyGap is the minimum shared range two brackets need to
	// count as the same outcome; anything thinner is adjacent rungs of one
	// ladder.
	BracketAdjacencyGap = 0.1

	// SpreadLineTolerance treats two spread lines as the same number.
	SpreadLineTolerance = 0.01
)

// Gate is the ordered chain of veto filters a candidate must clear before
// scoring. Any failure skips the candidate with a reason code.
type Gate struct {
	MaxEndTimeGap time.Duration
}

// NewGate returns a Gate with the default time window.
func NewGate() *Gate {
	return &Gate{MaxEndTimeGap: MaxEndTimeGap}
}

// Check runs the veto chain over a Polymarket/Kalshi candidate pair. It
// returns ReasonNone when the pair is compatible.
func (g *Gate) Check(a, b domain.Market, ta, tb normalize.TermSet) RejectReason {
	if gap := a.EndTime.Sub(b.EndTime); gap > g.MaxEndTimeGap || gap < -g.MaxEndTimeGap {
		return ReasonTimeWindow
	}
	if semanticConflict(a.Title, b.Title) {
		return ReasonSemanticConflict
	}
	if periodConflict(a.Title, b.Title) {
		return ReasonPeriodConflict
	}
	if r := entityConflict(a.Title, b.Title, ta, tb); r != ReasonNone {
		return r
	}
	sa, sb := normalize.Sports(a.Title), normalize.Sports(b.Title)
	if sa.IsSports && sb.IsSports {
		if r := sportsConflict(sa, sb); r != ReasonNone {
			return r
		}
	}
	return ReasonNone
}

// entityConflict rejects pairs whose primary named entities, numeric
// targets, years, or brackets contradict each other.
func entityConflict(titleA, titleB string, ta, tb normalize.TermSet) RejectReason {
	if fa, fb := normalize.PrimaryFigure(titleA), normalize.PrimaryFigure(titleB); fa != "" && fb != "" && fa != fb {
		return ReasonEntityConflict
	}
	if ca, cb := normalize.PrimaryCrypto(titleA), normalize.PrimaryCrypto(titleB); ca != "" && cb != "" && ca != cb {
		return ReasonEntityConflict
	}
	if ia, ib := normalize.PrimaryIndicator(titleA), normalize.PrimaryIndicator(titleB); ia != "" && ib != "" && ia != ib {
		return ReasonEntityConflict
	}
	if ta.Target != nil && tb.Target != nil && ta.Target.Kind == tb.Target.Kind {
		if !targetsAgree(*ta.Target, *tb.Target) {
			return ReasonNumericConflict
		}
	}
	if ta.Year != 0 && tb.Year != 0 && ta.Year != tb.Year {
		return ReasonYearConflict
	}
	if ta.Bracket != nil && tb.Bracket != nil {
		if mutuallyExclusive(*ta.Bracket, *tb.Bracket) {
			return ReasonMutuallyExcl
		}
	}
	return ReasonNone
}

func targetsAgree(a, b normalize.NumericTarget) bool {
	switch a.Kind {
	case normalize.TargetPercent:
		return math.Abs(a.Value-b.Value) <= PercentTargetTolerance
	default:
		ref := math.Max(math.Abs(a.Value), math.Abs(b.Value))
		if ref == 0 {
			return true
		}
		return math.Abs(a.Value-b.Value)/ref <= PriceTargetTolerance
	}
}

// mutuallyExclusive: two brackets price the same outcome only when they
// genuinely share range. Disjoint brackets are different rungs of one ladder,
// and an overlap thinner than BracketAdjacencyGap (2.1-2.5 against 2.5-3.0)
// is a shared boundary, not a shared outcome.
func mutuallyExclusive(a, b normalize.Bracket) bool {
	overlap := math.Min(a.High, b.High) - math.Max(a.Low, b.Low)
	return overlap < BracketAdjacencyGap
}

// sportsConflict applies the sports-specific compatibility rules when both
// titles classify as sports markets.
func sportsConflict(a, b normalize.SportsSignals) RejectReason {
	if a.Sport != normalize.SportUnknown && b.Sport != normalize.SportUnknown && a.Sport != b.Sport {
		return ReasonSportsConflict
	}
	if a.MajorEvent != "" && b.MajorEvent != "" && a.MajorEvent != b.MajorEvent {
		return ReasonSportsConflict
	}
	if a.BetType != normalize.BetUnknown && b.BetType != normalize.BetUnknown {
		compatible := a.BetType == b.BetType ||
			(normalize.CompatibleBetTypes[a.BetType] && normalize.CompatibleBetTypes[b.BetType])
		if !compatible {
			return ReasonSportsConflict
		}
	}
	// Near-exact opposite spread lines are the same game's two sides; buying
	// both is not a locked pair.
	if a.BetType == normalize.BetSpread && b.BetType == normalize.BetSpread &&
		a.Line != nil && b.Line != nil &&
		math.Abs(*a.Line+*b.Line) <= SpreadLineTolerance {
		return ReasonSportsConflict
	}
	if len(a.Teams) > 0 && len(b.Teams) > 0 && sharedTeams(a.Teams, b.Teams) == 0 {
		return ReasonSportsConflict
	}
	if a.Marker != nil && b.Marker != nil && a.Marker.Kind == b.Marker.Kind && a.Marker.Value != b.Marker.Value {
		return ReasonSportsConflict
	}
	return ReasonNone
}

func sharedTeams(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	n := 0
	for _, t := range b {
		if set[t] {
			n++
		}
	}
	return n
}
