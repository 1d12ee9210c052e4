// Package normalize turns free-text market titles into canonical term sets
// and auxiliary matching signals (years, tickers, entities, numeric targets,
// bracket ranges). All functions are pure and deterministic.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// stopWords are filtered from term sets. Short function words carry no
// matching signal and inflate shared-term counts.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "will": true, "with": true,
	"this": true, "that": true, "are": true, "was": true, "what": true,
	"who": true, "when": true, "how": true, "than": true, "does": true,
	"did": true, "has": true, "have": true, "get": true, "its": true,
	"any": true, "all": true, "not": true, "but": true, "out": true,
	"into": true, "about": true, "before": true, "after": true, "there": true,
}

var (
	yearRE    = regexp.MustCompile(`\b(20[2-3][0-9])\b`)
	tickerRE  = regexp.MustCompile(`\b([A-Z]{2,5})\b`)
	entityRE  = regexp.MustCompile(`\b([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)\b`)
	numberRE  = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`)
	percentRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	priceRE   = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)\s*([kKmM]?)|(\d+(?:\.\d+)?)\s*[kK]\b`)
)

// TargetKind distinguishes numeric targets extracted from a title.
type TargetKind string

const (
	TargetPrice   TargetKind = "price"
	TargetPercent TargetKind = "percent"
)

// NumericTarget is a price or percentage threshold named in a title.
type NumericTarget struct {
	Value float64
	Kind  TargetKind
}

// TermSet is the full normalized representation of a market title.
type TermSet struct {
	Terms     []string // lower-cased, stop-word-filtered tokens, len > 2
	BaseTerms []string // same extraction with bracket/threshold substrings stripped
	Year      int      // 4-digit year in [2024,2039], 0 when absent
	Ticker    string   // 2-5 letter all-caps token, "" when absent
	Entities  []string // lower-cased capitalized runs
	Numbers   []float64
	Target    *NumericTarget
	Bracket   *Bracket
}

// Normalize extracts every matching signal from a raw market title.
func Normalize(title string) TermSet {
	ts := TermSet{
		Terms:   Tokenize(title),
		Year:    extractYear(title),
		Ticker:  extractTicker(title),
		Bracket: ParseBracket(title),
		Target:  extractTarget(title),
	}
	ts.BaseTerms = Tokenize(StripBracket(title))
	ts.Entities = extractEntities(title)
	ts.Numbers = extractNumbers(title)
	return ts
}

// Tokenize lower-cases the title, strips surrounding punctuation from each
// token, and drops stop words and tokens of length <= 2.
func Tokenize(title string) []string {
	fields := strings.Fields(strings.ToLower(title))
	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, w := range fields {
		w = strings.Trim(w, ".,!?;:\"'()[]{}«»—–-$#@")
		if len(w) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// TermSetOf returns the terms as a set for overlap computations.
func TermSetOf(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[t] = true
	}
	return set
}

// Jaccard computes |a ∩ b| / |a ∪ b| over two term lists. Empty inputs
// score 0.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	as := TermSetOf(a)
	bs := TermSetOf(b)
	shared := 0
	for t := range as {
		if bs[t] {
			shared++
		}
	}
	union := len(as) + len(bs) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func extractYear(title string) int {
	m := yearRE.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	y, err := strconv.Atoi(m[1])
	if err != nil || y < 2024 || y > 2039 {
		return 0
	}
	return y
}

// tickerStop filters all-caps tokens that are English words rather than
// venue tickers or index symbols.
var tickerStop = map[string]bool{
	"THE": true, "AND": true, "FOR": true, "WILL": true, "YES": true,
	"NOT": true, "VS": true, "USA": true, "NEW": true, "TOP": true,
}

func extractTicker(title string) string {
	for _, m := range tickerRE.FindAllStringSubmatch(title, -1) {
		if !tickerStop[m[1]] {
			return m[1]
		}
	}
	return ""
}

func extractEntities(title string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range entityRE.FindAllStringSubmatch(title, -1) {
		e := strings.ToLower(strings.TrimSpace(m[1]))
		if len(e) <= 2 || stopWords[e] || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func extractNumbers(title string) []float64 {
	var out []float64
	seen := map[float64]bool{}
	for _, m := range numberRE.FindAllStringSubmatch(title, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// extractTarget pulls a single price or percentage threshold out of the
// title. Percentages win over prices when both are present since bracketed
// macro markets quote percents.
func extractTarget(title string) *NumericTarget {
	if m := percentRE.FindStringSubmatch(title); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &NumericTarget{Value: v, Kind: TargetPercent}
		}
	}
	if m := priceRE.FindStringSubmatch(title); m != nil {
		raw, suffix := m[1], m[2]
		if raw == "" {
			raw, suffix = m[3], "k"
		}
		raw = strings.ReplaceAll(raw, ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		switch strings.ToLower(suffix) {
		case "k":
			v *= 1_000
		case "m":
			v *= 1_000_000
		}
		return &NumericTarget{Value: v, Kind: TargetPrice}
	}
	return nil
}
