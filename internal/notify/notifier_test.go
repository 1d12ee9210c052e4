package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name   string
	fail   bool
	titles []string
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.fail {
		return errors.New("boom")
	}
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifyFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventOpportunity}, slog.Default())

	require.NoError(t, n.Notify(context.Background(), EventScanDone, "scan", "done"))
	assert.Empty(t, s.titles)

	require.NoError(t, n.Notify(context.Background(), EventOpportunity, "arb", "found"))
	assert.Equal(t, []string{"arb"}, s.titles)
}

func TestNotifyEmptyEventListAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, slog.Default())

	require.NoError(t, n.Notify(context.Background(), "anything", "t", "m"))
	assert.Len(t, s.titles, 1)
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "bad", fail: true}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.Default())

	err := n.NotifyAll(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, good.titles, 1)
}

func TestNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, slog.Default())
	assert.NoError(t, n.NotifyAll(context.Background(), "t", "m"))
}

func TestFormatOpportunity(t *testing.T) {
	opp := domain.ArbitrageOpportunity{
		MatchID:       "polymarket:p1|kalshi:k1",
		Direction:     domain.DirectionPolyYesKalshiNo,
		Poly:          domain.Market{Title: "Bitcoin above $100k by March 31?"},
		Kalshi:        domain.Market{Title: "BTC price above 100000 on Mar 31"},
		PolyPrice:     0.40,
		KalshiPrice:   0.55,
		CombinedCost:  0.95,
		Payout:        1.0,
		ProfitPercent: 5.26,
		ExpiresAt:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	title, message := FormatOpportunity(opp)
	assert.Equal(t, "Arbitrage: 5.26% edge", title)
	assert.Contains(t, message, "Polymarket YES + Kalshi NO")
	assert.Contains(t, message, "@ 0.400")
	assert.Contains(t, message, "@ 0.550")
	assert.Contains(t, message, "0.950 for 1.00 payout")
}

func TestFormatTradePlan(t *testing.T) {
	plan := domain.TradePlan{
		Opportunity: domain.ArbitrageOpportunity{MatchID: "polymarket:p1|kalshi:k1"},
		Legs: [2]domain.TradeLeg{
			{Venue: domain.VenuePolymarket, Outcome: "Yes", Price: 0.40},
			{Venue: domain.VenueKalshi, Outcome: "No", Price: 0.55},
		},
		AdjustedCost:     0.964,
		NetProfit:        0.036,
		NetProfitPercent: 3.73,
	}

	title, message := FormatTradePlan(plan)
	assert.Equal(t, "Trade plan: 3.73% net edge", title)
	assert.Contains(t, message, "Leg 1: buy Yes on polymarket @ 0.400")
	assert.Contains(t, message, "Leg 2: buy No on kalshi @ 0.550")
	assert.True(t, strings.HasSuffix(message, "Match: polymarket:p1|kalshi:k1"))
}
