package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTeams(t *testing.T) {
	assert.Equal(t, []string{"chiefs", "bills"}, DetectTeams("Chiefs vs Bills Winner?"))
	assert.Equal(t, []string{"chiefs", "bills"}, DetectTeams("Kansas City Chiefs @ Buffalo Bills Moneyline"))
	assert.Empty(t, DetectTeams("GDP growth next quarter"))
}

func TestDetectSport(t *testing.T) {
	assert.Equal(t, SportNFL, DetectSport("Chiefs vs Bills"))
	assert.Equal(t, SportNBA, DetectSport("Lakers to win the NBA Finals"))
	assert.Equal(t, SportNFL, DetectSport("Super Bowl champion 2026"))
	assert.Equal(t, SportUnknown, DetectSport("Inflation above 3%"))
}

func TestLeagueKeywordsMatchWholeWordsOnly(t *testing.T) {
	// "inflation" contains "nfl" as a substring; none of these are sports
	for _, title := range []string{
		"Inflation above 3%",
		"Will inflation exceed 3% in 2025?",
		"CPI over 3% year over year?",
		"Unemployment below 4%?",
	} {
		assert.Equal(t, SportUnknown, DetectSport(title), title)
		assert.False(t, IsSports(title), title)
	}

	assert.Equal(t, SportNFL, DetectSport("NFL week 13 winner"))
	assert.True(t, IsSports("NFL week 13 winner"))
}

func TestDetectBetType(t *testing.T) {
	assert.Equal(t, BetWinner, DetectBetType("Chiefs vs Bills Winner?"))
	assert.Equal(t, BetMoneyline, DetectBetType("Chiefs @ Bills Moneyline"))
	assert.Equal(t, BetSpread, DetectBetType("Chiefs -3.5 spread vs Bills"))
	assert.Equal(t, BetTotal, DetectBetType("Chiefs vs Bills over 47.5 total points"))
	assert.Equal(t, BetFutures, DetectBetType("Lakers to win the championship"))
	assert.Equal(t, BetUnknown, DetectBetType("Chiefs vs Bills"))
}

func TestDetectMajorEvent(t *testing.T) {
	assert.Equal(t, "super_bowl", DetectMajorEvent("Who wins the Super Bowl?"))
	assert.Equal(t, "world_series", DetectMajorEvent("Yankees World Series champion"))
	assert.Equal(t, "", DetectMajorEvent("Chiefs vs Bills"))
}

func TestDetectMarker(t *testing.T) {
	m := DetectMarker("Chiefs vs Bills Week 13")
	require.NotNil(t, m)
	assert.Equal(t, "week", m.Kind)
	assert.Equal(t, 13, m.Value)

	m = DetectMarker("Celtics Game 7 winner")
	require.NotNil(t, m)
	assert.Equal(t, "game", m.Kind)
	assert.Equal(t, 7, m.Value)

	assert.Nil(t, DetectMarker("Chiefs vs Bills"))
}

func TestSportsSignals(t *testing.T) {
	sig := Sports("Chiefs -3.5 spread vs Bills")
	assert.True(t, sig.IsSports)
	assert.Equal(t, SportNFL, sig.Sport)
	assert.Equal(t, BetSpread, sig.BetType)
	require.NotNil(t, sig.Line)
	assert.InDelta(t, -3.5, *sig.Line, 1e-9)

	sig = Sports("Chiefs vs Bills over 47.5 total points")
	assert.Equal(t, BetTotal, sig.BetType)
	require.NotNil(t, sig.Total)
	assert.InDelta(t, 47.5, *sig.Total, 1e-9)

	sig = Sports("Will inflation exceed 3%?")
	assert.False(t, sig.IsSports)
}
