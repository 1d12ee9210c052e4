package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/normalize"
)

// Score weights. The title family dominates; entity agreement is the second
// strongest signal.
const (
	weightTitle    = 0.35
	weightEntity   = 0.25
	weightTicker   = 0.15
	weightTime     = 0.10
	weightCategory = 0.10
	weightBracket  = 0.05

	sportsBonus    = 0.15
	baseEventBonus = 0.0625
	bracketBonus   = 0.0375

	sportsBonusFloor    = 0.6
	baseEventBonusFloor = 0.75
	bracketBonusFloor   = 0.7

	// Floor rejection: a candidate with weak title similarity survives only
	// on a strong ticker or sports signal.
	minEffectiveTitle = 0.45
	minTickerRescue   = 0.7
	minSportsRescue   = 0.5

	// MinScore is the overall acceptance threshold.
	MinScore = 0.55
)

// Entity-overlap weights for the entity component.
const (
	entityWeightNames   = 3.0
	entityWeightTickers = 2.0
	entityWeightYears   = 2.0
	entityWeightNumbers = 1.0
)

// strategyKind selects the scoring variant for a candidate pair.
type strategyKind int

const (
	strategyGeneric strategyKind = iota
	strategySports
)

func classify(a, b domain.Market) strategyKind {
	if normalize.IsSports(a.Title) && normalize.IsSports(b.Title) {
		return strategySports
	}
	return strategyGeneric
}

// Score computes the weighted multi-factor similarity for a gate-surviving
// pair. ok is false when the pair falls below the floor or the overall
// threshold.
func Score(a, b domain.Market, ta, tb normalize.TermSet) (domain.ScoreBreakdown, float64, bool) {
	kind := classify(a, b)

	bd := domain.ScoreBreakdown{
		Title:     normalize.Jaccard(ta.Terms, tb.Terms),
		BaseEvent: normalize.Jaccard(ta.BaseTerms, tb.BaseTerms),
		Bracket:   bracketScore(ta.Bracket, tb.Bracket),
		Entity:    entityScore(ta, tb),
		Ticker:    tickerScore(a, b, ta, tb),
		Time:      timeScore(a, b),
		Category:  categoryScore(a.Title, b.Title),
	}
	if kind == strategySports {
		bd.Sports = sportsScore(normalize.Sports(a.Title), normalize.Sports(b.Title))
	}

	bd.EffectiveTitle = math.Max(bd.Title, bd.BaseEvent)
	if kind == strategySports {
		bd.EffectiveTitle = math.Max(bd.EffectiveTitle, bd.Sports)
	}

	if bd.EffectiveTitle < minEffectiveTitle && bd.Ticker < minTickerRescue && bd.Sports < minSportsRescue {
		return bd, 0, false
	}

	overall := weightTitle*bd.EffectiveTitle +
		weightEntity*bd.Entity +
		weightTicker*bd.Ticker +
		weightTime*bd.Time +
		weightCategory*bd.Category +
		weightBracket*bd.Bracket
	if bd.Sports >= sportsBonusFloor {
		overall += sportsBonus
	}
	if bd.BaseEvent >= baseEventBonusFloor {
		overall += baseEventBonus
	}
	if bd.Bracket >= bracketBonusFloor {
		overall += bracketBonus
	}
	if overall > 1.0 {
		overall = 1.0
	}

	return bd, overall, overall >= MinScore
}

// Reason renders a short human-readable explanation for an accepted pair.
func Reason(bd domain.ScoreBreakdown, score float64) string {
	parts := []string{fmt.Sprintf("score=%.2f", score)}
	if bd.BaseEvent > bd.Title {
		parts = append(parts, fmt.Sprintf("base_event=%.2f", bd.BaseEvent))
	} else {
		parts = append(parts, fmt.Sprintf("title=%.2f", bd.Title))
	}
	if bd.Sports > 0 {
		parts = append(parts, fmt.Sprintf("sports=%.2f", bd.Sports))
	}
	if bd.Ticker >= minTickerRescue {
		parts = append(parts, fmt.Sprintf("ticker=%.2f", bd.Ticker))
	}
	if bd.Bracket > 0 {
		parts = append(parts, fmt.Sprintf("bracket=%.2f", bd.Bracket))
	}
	return strings.Join(parts, " ")
}

// bracketScore compares numeric brackets. Two ranges score by overlap
// fraction; two thresholds of the same kind score by normalized value gap;
// everything else scores 0.
func bracketScore(a, b *normalize.Bracket) float64 {
	if a == nil || b == nil || a.Kind != b.Kind {
		return 0
	}
	if a.Kind == normalize.BracketRange {
		overlap := math.Min(a.High, b.High) - math.Max(a.Low, b.Low)
		if overlap <= 0 {
			return 0
		}
		minSize := math.Min(a.High-a.Low, b.High-b.Low)
		if minSize <= 0 {
			return 1
		}
		return math.Min(1, overlap/minSize)
	}
	// above/above or below/below: compare the finite edge
	va, vb := a.Low, b.Low
	if a.Kind == normalize.BracketBelow {
		va, vb = a.High, b.High
	}
	ref := math.Max(math.Abs(va), math.Abs(vb))
	if ref == 0 {
		return 1
	}
	s := 1 - math.Abs(va-vb)/ref
	if s < 0 {
		return 0
	}
	return s
}

// entityScore is a weighted overlap across named entities, tickers, years,
// and bare numbers, normalized by the weight of the signal classes present
// on both sides.
func entityScore(a, b normalize.TermSet) float64 {
	var got, total float64
	if len(a.Entities) > 0 && len(b.Entities) > 0 {
		total += entityWeightNames
		got += entityWeightNames * normalize.Jaccard(a.Entities, b.Entities)
	}
	if a.Ticker != "" && b.Ticker != "" {
		total += entityWeightTickers
		if a.Ticker == b.Ticker {
			got += entityWeightTickers
		}
	}
	if a.Year != 0 && b.Year != 0 {
		total += entityWeightYears
		if a.Year == b.Year {
			got += entityWeightYears
		}
	}
	if len(a.Numbers) > 0 && len(b.Numbers) > 0 {
		total += entityWeightNumbers
		got += entityWeightNumbers * numberOverlap(a.Numbers, b.Numbers)
	}
	if total == 0 {
		return 0
	}
	return got / total
}

func numberOverlap(a, b []float64) float64 {
	set := make(map[float64]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	shared := 0
	for _, v := range b {
		if set[v] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// tickerScore compares venue slugs/tickers as a strong disambiguating
// signal: exact match, containment, then longest-common-substring when it
// covers at least 60% of the shorter identifier.
func tickerScore(a, b domain.Market, ta, tb normalize.TermSet) float64 {
	sa := slugOf(a, ta)
	sb := slugOf(b, tb)
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 1.0
	}
	if strings.Contains(sa, sb) || strings.Contains(sb, sa) {
		return 0.8
	}
	lcs := longestCommonSubstring(sa, sb)
	shorter := len(sa)
	if len(sb) < shorter {
		shorter = len(sb)
	}
	frac := float64(lcs) / float64(shorter)
	if frac >= 0.6 {
		return 0.8 * frac
	}
	return 0
}

// slugOf normalizes the market's slug or ticker to lowercase alphanumerics.
func slugOf(m domain.Market, ts normalize.TermSet) string {
	raw := m.Slug
	if raw == "" {
		raw = ts.Ticker
	}
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func longestCommonSubstring(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}

// timeScore decays linearly over the 3-day window and floors at 0 beyond it.
func timeScore(a, b domain.Market) float64 {
	gap := a.EndTime.Sub(b.EndTime)
	if gap < 0 {
		gap = -gap
	}
	days := gap.Hours() / 24
	s := 1 - days/3
	if s < 0 {
		return 0
	}
	return s
}

func categoryScore(titleA, titleB string) float64 {
	ca := normalize.Categorize(titleA)
	cb := normalize.Categorize(titleB)
	if ca != normalize.CategoryUnknown && ca == cb {
		return 1.0
	}
	return 0
}
