package match

import (
	"math"

	"github.com/quantship/crossarb/internal/normalize"
)

// Sports component weights. Team overlap dominates because two titles naming
// the same two teams almost always describe the same game.
const (
	sportsWeightTeams   = 0.40
	sportsWeightSport   = 0.15
	sportsWeightBetType = 0.20
	sportsWeightEvent   = 0.15
	sportsWeightDate    = 0.10
)

// sportsScore scores a pair of sports-classified titles. Mismatched sports
// or mismatched major events zero the whole component; the gate normally
// rejects those first, so the hard zeroes here only matter for callers that
// score without gating.
func sportsScore(a, b normalize.SportsSignals) float64 {
	if a.Sport != normalize.SportUnknown && b.Sport != normalize.SportUnknown && a.Sport != b.Sport {
		return 0
	}
	if a.MajorEvent != "" && b.MajorEvent != "" && a.MajorEvent != b.MajorEvent {
		return 0
	}

	score := 0.0

	if len(a.Teams) > 0 && len(b.Teams) > 0 {
		shared := sharedTeams(a.Teams, b.Teams)
		smaller := len(a.Teams)
		if len(b.Teams) < smaller {
			smaller = len(b.Teams)
		}
		score += sportsWeightTeams * float64(shared) / float64(smaller)
	}

	if a.Sport != normalize.SportUnknown && a.Sport == b.Sport {
		score += sportsWeightSport
	}

	score += sportsWeightBetType * betTypeScore(a, b)

	if a.MajorEvent != "" && a.MajorEvent == b.MajorEvent {
		score += sportsWeightEvent
	}

	if a.Marker != nil && b.Marker != nil && a.Marker.Kind == b.Marker.Kind {
		if a.Marker.Value == b.Marker.Value {
			score += sportsWeightDate
		}
		// same kind, different value contributes nothing
	}

	return score
}

// betTypeScore: exact match is full credit, the compatible moneyline/winner/
// futures set earns most of it, and line/total proximity refines spread and
// total pairs.
func betTypeScore(a, b normalize.SportsSignals) float64 {
	if a.BetType == normalize.BetUnknown || b.BetType == normalize.BetUnknown {
		return 0.5
	}
	if a.BetType == b.BetType {
		switch a.BetType {
		case normalize.BetSpread:
			return lineProximity(a.Line, b.Line)
		case normalize.BetTotal:
			return lineProximity(a.Total, b.Total)
		default:
			return 1.0
		}
	}
	if normalize.CompatibleBetTypes[a.BetType] && normalize.CompatibleBetTypes[b.BetType] {
		return 0.75
	}
	return 0
}

// lineProximity maps the gap between two lines onto [0,1]; a missing line on
// either side is treated as neutral agreement.
func lineProximity(a, b *float64) float64 {
	if a == nil || b == nil {
		return 1.0
	}
	gap := math.Abs(*a - *b)
	s := 1 - gap/5.0
	if s < 0 {
		return 0
	}
	return s
}
