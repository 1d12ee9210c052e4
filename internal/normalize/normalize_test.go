package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "drops stop words and short tokens",
			title: "Will the Chiefs win the Super Bowl?",
			want:  []string{"chiefs", "win", "super", "bowl"},
		},
		{
			name:  "strips surrounding punctuation",
			title: "Bitcoin reach $100k by 2025?",
			want:  []string{"bitcoin", "reach", "100k", "2025"},
		},
		{
			name:  "deduplicates",
			title: "growth growth growth",
			want:  []string{"growth"},
		},
		{
			name:  "empty title",
			title: "",
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.title))
		})
	}
}

func TestExtractYear(t *testing.T) {
	assert.Equal(t, 2025, Normalize("US recession in 2025?").Year)
	assert.Equal(t, 0, Normalize("Founded in 1999").Year)
	assert.Equal(t, 0, Normalize("Back in 2023 this happened").Year)
}

func TestExtractTicker(t *testing.T) {
	assert.Equal(t, "GDP", Normalize("Will GDP exceed 3.0 this year?").Ticker)
	assert.Equal(t, "BTC", Normalize("BTC to hit new highs").Ticker)
	assert.Equal(t, "", Normalize("Chiefs beat Bills on Sunday").Ticker)
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 0.5, Jaccard([]string{"a", "b", "c"}, []string{"b", "c", "d"}), 1e-9)
	assert.Equal(t, 0.0, Jaccard(nil, []string{"a"}))
	assert.Equal(t, 1.0, Jaccard([]string{"a"}, []string{"a"}))
}

func TestParseBracket(t *testing.T) {
	tests := []struct {
		title string
		want  *Bracket
	}{
		{"GDP growth of 2.1 to 2.5 percent?", &Bracket{Low: 2.1, High: 2.5, Kind: BracketRange}},
		{"Inflation at 2.1-2.5% this quarter", &Bracket{Low: 2.1, High: 2.5, Kind: BracketRange}},
		{"Rate at 3% or above", openBracket("3", BracketAbove)},
		{"CPI over 250 by year end", openBracket("250", BracketAbove)},
		{"Unemployment under 2.5 next month", openBracket("2.5", BracketBelow)},
		{"4% or below for the quarter", openBracket("4", BracketBelow)},
		{"Will it happen at all?", nil},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBracket(tt.title))
		})
	}
}

func TestBracketOverlapsAndGap(t *testing.T) {
	a := Bracket{Low: 2.1, High: 2.5, Kind: BracketRange}
	b := Bracket{Low: 2.3, High: 2.6, Kind: BracketRange}
	c := Bracket{Low: 2.6, High: 3.0, Kind: BracketRange}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
	assert.InDelta(t, 0.1, a.Gap(c), 1e-9)
	assert.Equal(t, 0.0, a.Gap(b))
}

func TestStripBracketNormalizesBaseEvent(t *testing.T) {
	a := Normalize("US GDP growth of 2.1 to 2.5 percent?")
	b := Normalize("US GDP growth of 2.3 to 2.6 percent?")
	require.NotNil(t, a.Bracket)
	require.NotNil(t, b.Bracket)
	assert.Equal(t, a.BaseTerms, b.BaseTerms)
}

func TestExtractTarget(t *testing.T) {
	ts := Normalize("Bitcoin above $100k by March?")
	require.NotNil(t, ts.Target)
	assert.Equal(t, TargetPrice, ts.Target.Kind)
	assert.InDelta(t, 100_000, ts.Target.Value, 1e-9)

	ts = Normalize("Inflation above 3.5% in June?")
	require.NotNil(t, ts.Target)
	assert.Equal(t, TargetPercent, ts.Target.Kind)
	assert.InDelta(t, 3.5, ts.Target.Value, 1e-9)

	assert.Nil(t, Normalize("Will the bill pass?").Target)
}

func TestPrimaryEntities(t *testing.T) {
	assert.Equal(t, "trump", PrimaryFigure("Will Donald Trump win the nomination?"))
	assert.Equal(t, "trump", PrimaryFigure("DJT approval above 50"))
	assert.Equal(t, "biden", PrimaryFigure("Biden approval rating"))
	assert.Equal(t, "", PrimaryFigure("GDP growth next quarter"))

	assert.Equal(t, "btc", PrimaryCrypto("Bitcoin above $100k"))
	assert.Equal(t, "btc", PrimaryCrypto("BTC all time high"))
	assert.Equal(t, "eth", PrimaryCrypto("Ethereum merge complete"))

	assert.Equal(t, "cpi", PrimaryIndicator("Will inflation exceed 3%?"))
	assert.Equal(t, "gdp", PrimaryIndicator("US GDP growth slows"))
	assert.Equal(t, "rates", PrimaryIndicator("Fed rate cut in September?"))
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, CategoryEconomic, Categorize("Will the US enter a recession?"))
	assert.Equal(t, CategoryCrypto, Categorize("Bitcoin above $100k"))
	assert.Equal(t, CategoryPolitical, Categorize("Who wins the presidential election?"))
	assert.Equal(t, CategorySports, Categorize("Chiefs vs Bills"))
	assert.Equal(t, CategoryUnknown, Categorize("A quiet day outdoors"))
}

func TestCategorizeEconomicTitlesNeverBucketAsSports(t *testing.T) {
	assert.Equal(t, CategoryEconomic, Categorize("Will inflation exceed 3% in 2025?"))
	assert.Equal(t, CategoryEconomic, Categorize("CPI over 3%?"))
	assert.Equal(t, CategoryCrypto, Categorize("Whether Bitcoin clears $100k"))
}
