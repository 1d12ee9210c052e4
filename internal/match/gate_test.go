package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/normalize"
)

var baseEnd = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

func poly(title string, end time.Time) domain.Market {
	return domain.Market{Venue: domain.VenuePolymarket, ID: "p", Title: title, EndTime: end}
}

func kalshi(title string, end time.Time) domain.Market {
	return domain.Market{Venue: domain.VenueKalshi, ID: "k", Title: title, EndTime: end}
}

func checkPair(t *testing.T, a, b domain.Market) RejectReason {
	t.Helper()
	return NewGate().Check(a, b, normalize.Normalize(a.Title), normalize.Normalize(b.Title))
}

func TestGateTimeWindow(t *testing.T) {
	a := poly("US GDP growth of 2.1 to 2.5 percent?", baseEnd)
	b := kalshi("US GDP growth of 2.1 to 2.5 percent?", baseEnd.Add(5*24*time.Hour))
	assert.Equal(t, ReasonTimeWindow, checkPair(t, a, b))

	// 72h exactly is inside the window
	b.EndTime = baseEnd.Add(72 * time.Hour)
	assert.Equal(t, ReasonNone, checkPair(t, a, b))
}

func TestGateSemanticConflict(t *testing.T) {
	a := poly("Will unemployment fall this year?", baseEnd)
	b := kalshi("Will unemployment rise this year?", baseEnd)
	assert.Equal(t, ReasonSemanticConflict, checkPair(t, a, b))

	a = poly("CPI comes in under 3?", baseEnd)
	b = kalshi("CPI comes in over 3?", baseEnd)
	assert.Equal(t, ReasonSemanticConflict, checkPair(t, a, b))
}

func TestGatePeriodConflict(t *testing.T) {
	a := poly("US GDP growth in Q3?", baseEnd)
	b := kalshi("US GDP growth?", baseEnd)
	assert.Equal(t, ReasonPeriodConflict, checkPair(t, a, b))

	// both scoped to the same granularity passes this filter
	b = kalshi("US GDP growth in Q3?", baseEnd)
	assert.Equal(t, ReasonNone, checkPair(t, a, b))
}

func TestGateEntityConflict(t *testing.T) {
	assert.Equal(t, ReasonEntityConflict, checkPair(t,
		poly("Trump approval at year end?", baseEnd),
		kalshi("Biden approval at year end?", baseEnd)))

	assert.Equal(t, ReasonEntityConflict, checkPair(t,
		poly("Bitcoin hits new high?", baseEnd),
		kalshi("Ethereum hits new high?", baseEnd)))

	assert.Equal(t, ReasonEntityConflict, checkPair(t,
		poly("Unemployment report beats expectations?", baseEnd),
		kalshi("Payrolls report beats expectations?", baseEnd)))
}

func TestGateNumericConflict(t *testing.T) {
	// 100k vs 150k is a 33% gap, beyond the 20% price tolerance
	assert.Equal(t, ReasonNumericConflict, checkPair(t,
		poly("Bitcoin at $100k by June?", baseEnd),
		kalshi("Bitcoin at $150k by June?", baseEnd)))

	// 100k vs 105k is within tolerance
	assert.Equal(t, ReasonNone, checkPair(t,
		poly("Bitcoin at $100k by June?", baseEnd),
		kalshi("Bitcoin at $105k by June?", baseEnd)))

	// percent targets use an absolute 0.5pt tolerance
	assert.Equal(t, ReasonNumericConflict, checkPair(t,
		poly("Inflation at 3.0% in June?", baseEnd),
		kalshi("Inflation at 4.0% in June?", baseEnd)))
}

func TestGateYearConflict(t *testing.T) {
	assert.Equal(t, ReasonYearConflict, checkPair(t,
		poly("Recession declared in 2025?", baseEnd),
		kalshi("Recession declared in 2026?", baseEnd)))
}

func TestGateMutuallyExclusiveBrackets(t *testing.T) {
	assert.Equal(t, ReasonMutuallyExcl, checkPair(t,
		poly("US GDP growth of 2.1 to 2.5 percent?", baseEnd),
		kalshi("US GDP growth of 2.6 to 3.0 percent?", baseEnd)))

	// overlapping brackets survive the gate
	assert.Equal(t, ReasonNone, checkPair(t,
		poly("US GDP growth of 2.1 to 2.5 percent?", baseEnd),
		kalshi("US GDP growth of 2.3 to 2.6 percent?", baseEnd)))

	// a shared boundary is adjacency, not overlap
	assert.Equal(t, ReasonMutuallyExcl, checkPair(t,
		poly("US GDP growth of 2.1 to 2.5 percent?", baseEnd),
		kalshi("US GDP growth of 2.5 to 3.0 percent?", baseEnd)))
}

func TestGateSportsConflict(t *testing.T) {
	// different leagues
	assert.Equal(t, ReasonSportsConflict, checkPair(t,
		poly("Chiefs vs Bills Winner?", baseEnd),
		kalshi("Lakers vs Celtics Winner?", baseEnd)))

	// no shared teams within the same league
	assert.Equal(t, ReasonSportsConflict, checkPair(t,
		poly("Chiefs vs Bills Winner?", baseEnd),
		kalshi("Eagles vs Cowboys Winner?", baseEnd)))

	// schedule markers of the same kind must agree
	assert.Equal(t, ReasonSportsConflict, checkPair(t,
		poly("Chiefs vs Bills Week 13 Winner?", baseEnd),
		kalshi("Chiefs vs Bills Week 14 Winner?", baseEnd)))

	// compatible bet-type labels pass
	assert.Equal(t, ReasonNone, checkPair(t,
		poly("Chiefs vs Bills Winner?", baseEnd),
		kalshi("Kansas City Chiefs @ Buffalo Bills Moneyline", baseEnd)))
}

func TestGateCleanPair(t *testing.T) {
	assert.Equal(t, ReasonNone, checkPair(t,
		poly("Will Bitcoin reach $100k in 2025?", baseEnd),
		kalshi("Bitcoin price at $100k in 2025?", baseEnd)))
}
