package normalize

import (
	"math"
	"regexp"
	"strconv"
)

// BracketKind classifies a numeric threshold or interval in a title.
type BracketKind string

const (
	BracketRange BracketKind = "range"
	BracketAbove BracketKind = "above"
	BracketBelow BracketKind = "below"
)

// Bracket is a parsed numeric outcome range. For BracketAbove, High
// is +Inf; for BracketBelow, Low is -Inf.
type Bracket struct {
	Low  float64
	High float64
	Kind BracketKind
}

// Overlaps reports whether the two brackets' intervals intersect.
func (b Bracket) Overlaps(o Bracket) bool {
	return b.Low <= o.High && o.Low <= b.High
}

// Gap returns the distance between two disjoint brackets, 0 when they
// overlap.
func (b Bracket) Gap(o Bracket) float64 {
	if b.Overlaps(o) {
		return 0
	}
	if b.High < o.Low {
		return o.Low - b.High
	}
	return b.Low - o.High
}

type bracketPattern struct {
	re    *regexp.Regexp
	build func(m []string) *Bracket
}

// bracketPatterns is an ordered rule table; the first matching pattern wins.
// Ranges come before thresholds so "2.1 to 2.5" never parses as "2.5-".
var bracketPatterns = []bracketPattern{
	{
		// "2.1 to 2.5"
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s+to\s+(\d+(?:\.\d+)?)\s*%?`),
		build: func(m []string) *Bracket {
			return rangeBracket(m[1], m[2])
		},
	},
	{
		// "2.1-2.5%"
		re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[-–]\s*(\d+(?:\.\d+)?)\s*%`),
		build: func(m []string) *Bracket {
			return rangeBracket(m[1], m[2])
		},
	},
	{
		// "3 or above", "3 or more", "3 or higher", "3+"
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s*(?:or\s+(?:above|more|higher)|\+)`),
		build: func(m []string) *Bracket {
			return openBracket(m[1], BracketAbove)
		},
	},
	{
		// ">3", "over 3"
		re: regexp.MustCompile(`(?i)(?:>|\bover\s+)(\d+(?:\.\d+)?)`),
		build: func(m []string) *Bracket {
			return openBracket(m[1], BracketAbove)
		},
	},
	{
		// "3 or below", "3 or less", "3 or lower", "3-"
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s*(?:or\s+(?:below|less|lower)|-(?:\s|$))`),
		build: func(m []string) *Bracket {
			return openBracket(m[1], BracketBelow)
		},
	},
	{
		// "<3", "under 3"
		re: regexp.MustCompile(`(?i)(?:<|\bunder\s+)(\d+(?:\.\d+)?)`),
		build: func(m []string) *Bracket {
			return openBracket(m[1], BracketBelow)
		},
	},
}

func rangeBracket(lo, hi string) *Bracket {
	l, err1 := strconv.ParseFloat(lo, 64)
	h, err2 := strconv.ParseFloat(hi, 64)
	if err1 != nil || err2 != nil || l > h {
		return nil
	}
	return &Bracket{Low: l, High: h, Kind: BracketRange}
}

func openBracket(v string, kind BracketKind) *Bracket {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	if kind == BracketAbove {
		return &Bracket{Low: f, High: math.Inf(1), Kind: BracketAbove}
	}
	return &Bracket{Low: math.Inf(-1), High: f, Kind: BracketBelow}
}

// ParseBracket scans the title against the ordered pattern table and returns
// the first parsed bracket, or nil when the title carries none.
func ParseBracket(title string) *Bracket {
	for _, p := range bracketPatterns {
		if m := p.re.FindStringSubmatch(title); m != nil {
			if b := p.build(m); b != nil {
				return b
			}
		}
	}
	return nil
}

// StripBracket removes bracket/threshold substrings from the title so that
// different brackets of the same underlying question normalize to the same
// base-event term set.
func StripBracket(title string) string {
	out := title
	for _, p := range bracketPatterns {
		out = p.re.ReplaceAllString(out, " ")
	}
	return out
}
