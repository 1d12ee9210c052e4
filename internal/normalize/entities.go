package normalize

import (
	"sort"
	"strings"
)

// Alias tables map surface forms to canonical names. Longer aliases are
// checked first so "donald trump" wins over a bare "don".

var politicalAliases = map[string]string{
	"trump":          "trump",
	"donald trump":   "trump",
	"djt":            "trump",
	"biden":          "biden",
	"joe biden":      "biden",
	"harris":         "harris",
	"kamala":         "harris",
	"kamala harris":  "harris",
	"vance":          "vance",
	"jd vance":       "vance",
	"newsom":         "newsom",
	"gavin newsom":   "newsom",
	"desantis":       "desantis",
	"ron desantis":   "desantis",
	"putin":          "putin",
	"vladimir putin": "putin",
	"zelensky":       "zelensky",
	"zelenskyy":      "zelensky",
	"xi jinping":     "xi",
	"musk":           "musk",
	"elon musk":      "musk",
	"powell":         "powell",
	"jerome powell":  "powell",
}

var cryptoAliases = map[string]string{
	"bitcoin":  "btc",
	"btc":      "btc",
	"ethereum": "eth",
	"eth":      "eth",
	"solana":   "sol",
	"dogecoin": "doge",
	"doge":     "doge",
	"xrp":      "xrp",
	"ripple":   "xrp",
	"cardano":  "ada",
}

var indicatorAliases = map[string]string{
	"gdp":                    "gdp",
	"gross domestic product": "gdp",
	"cpi":                    "cpi",
	"consumer price index":   "cpi",
	"inflation":              "cpi",
	"unemployment":           "unemployment",
	"jobless":                "unemployment",
	"nonfarm payrolls":       "payrolls",
	"payrolls":               "payrolls",
	"fed funds":              "rates",
	"interest rate":          "rates",
	"interest rates":         "rates",
	"rate cut":               "rates",
	"rate hike":              "rates",
	"recession":              "recession",
}

// aliasKeys returns a table's aliases longest-first so multi-word forms are
// tried before their substrings.
func aliasKeys(table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

var (
	politicalKeys = aliasKeys(politicalAliases)
	cryptoKeys    = aliasKeys(cryptoAliases)
	indicatorKeys = aliasKeys(indicatorAliases)
)

// primaryCanonical returns the canonical name of the alias occurring earliest
// in the title, or "" if none is present. At most one canonical entity per
// table is attributed to a title.
func primaryCanonical(title string, keys []string, table map[string]string) string {
	lower := strings.ToLower(title)
	best := ""
	bestIdx := -1
	for _, alias := range keys {
		idx := indexWord(lower, alias)
		if idx < 0 {
			continue
		}
		if bestIdx == -1 || idx < bestIdx {
			best = table[alias]
			bestIdx = idx
		}
	}
	return best
}

// indexWord finds alias in s at a word boundary.
func indexWord(s, alias string) int {
	from := 0
	for {
		idx := strings.Index(s[from:], alias)
		if idx < 0 {
			return -1
		}
		idx += from
		startOK := idx == 0 || !isWordChar(s[idx-1])
		end := idx + len(alias)
		endOK := end >= len(s) || !isWordChar(s[end])
		if startOK && endOK {
			return idx
		}
		from = idx + 1
		if from >= len(s) {
			return -1
		}
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}

// PrimaryFigure returns the canonical political figure named in the title.
func PrimaryFigure(title string) string {
	return primaryCanonical(title, politicalKeys, politicalAliases)
}

// PrimaryCrypto returns the canonical crypto asset named in the title.
func PrimaryCrypto(title string) string {
	return primaryCanonical(title, cryptoKeys, cryptoAliases)
}

// PrimaryIndicator returns the canonical economic indicator named in the
// title.
func PrimaryIndicator(title string) string {
	return primaryCanonical(title, indicatorKeys, indicatorAliases)
}

// Category buckets titles into fixed topical groups for the category score.
type Category string

const (
	CategoryEconomic  Category = "economic"
	CategoryPolitical Category = "political"
	CategoryCrypto    Category = "crypto"
	CategorySports    Category = "sports"
	CategoryUnknown   Category = ""
)

var categoryKeywords = map[Category][]string{
	CategoryEconomic: {
		"gdp", "inflation", "cpi", "unemployment", "fed", "federal",
		"rates", "recession", "payrolls", "economy", "tariff",
		"tariffs", "treasury",
	},
	CategoryPolitical: {
		"election", "president", "presidential", "senate", "congress",
		"nominee", "impeach", "impeachment", "primary", "governor",
		"cabinet", "veto",
	},
	CategoryCrypto: {
		"bitcoin", "btc", "ethereum", "eth", "solana", "crypto",
		"blockchain", "doge", "xrp", "stablecoin",
	},
	CategorySports: {
		"nfl", "nba", "mlb", "nhl", "super bowl", "world series",
		"playoffs", "moneyline", "spread", "champion", "championship",
		"finals", "ufc", "premier league",
	},
}

// Categorize assigns the title to the bucket with the most keyword hits.
// Titles matching no bucket return CategoryUnknown. A detected sports market
// always buckets as sports regardless of keyword counts.
func Categorize(title string) Category {
	lower := strings.ToLower(title)
	if IsSports(title) {
		return CategorySports
	}
	best := CategoryUnknown
	bestHits := 0
	for _, cat := range []Category{CategoryEconomic, CategoryPolitical, CategoryCrypto, CategorySports} {
		hits := 0
		for _, kw := range categoryKeywords[cat] {
			if indexWord(lower, kw) >= 0 {
				hits++
			}
		}
		if hits > bestHits {
			best = cat
			bestHits = hits
		}
	}
	return best
}
