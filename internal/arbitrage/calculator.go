// Package arbitrage computes locked cross-venue opportunities from matched
// market pairs and their current two-sided prices.
package arbitrage

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quantship/crossarb/internal/domain"
)

// Payout is the fixed settlement value of a binary contract.
const Payout = 1.0

// Calculator evaluates both trade directions of every match. It holds no
// state; opportunities are recomputed from scratch on every price refresh.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator creates a Calculator.
func NewCalculator(logger *slog.Logger) *Calculator {
	return &Calculator{logger: logger.With(slog.String("component", "arb_calculator"))}
}

// Detect returns every profitable direction across the given matches. A
// match missing a required price (nil quote, or the 0 no-liquidity
// sentinel) contributes nothing. Each match can yield zero, one, or two
// opportunities.
func (c *Calculator) Detect(matches []domain.CrossPlatformMatch) []domain.ArbitrageOpportunity {
	now := time.Now().UTC()
	var opps []domain.ArbitrageOpportunity
	for _, m := range matches {
		opps = append(opps, c.detectMatch(m, now)...)
	}
	if len(opps) > 0 {
		c.logger.Debug("arbitrage pass complete",
			slog.Int("matches", len(matches)),
			slog.Int("opportunities", len(opps)),
		)
	}
	return opps
}

func (c *Calculator) detectMatch(m domain.CrossPlatformMatch, now time.Time) []domain.ArbitrageOpportunity {
	var opps []domain.ArbitrageOpportunity

	// Direction 1: buy Polymarket YES + buy Kalshi NO.
	if m.Poly.Yes.Priced() && m.Kalshi.No.Priced() {
		cost := m.Poly.Yes.Quote.Probability + m.Kalshi.No.Quote.Probability
		if cost < Payout {
			opps = append(opps, build(m, domain.DirectionPolyYesKalshiNo,
				m.Poly.Yes.Quote.Probability, m.Kalshi.No.Quote.Probability, cost, now))
		}
	}

	// Direction 2: buy Kalshi YES + buy Polymarket NO.
	if m.Kalshi.Yes.Priced() && m.Poly.No.Priced() {
		cost := m.Kalshi.Yes.Quote.Probability + m.Poly.No.Quote.Probability
		if cost < Payout {
			opps = append(opps, build(m, domain.DirectionKalshiYesPolyNo,
				m.Poly.No.Quote.Probability, m.Kalshi.Yes.Quote.Probability, cost, now))
		}
	}

	return opps
}

func build(m domain.CrossPlatformMatch, dir domain.Direction, polyPrice, kalshiPrice, cost float64, now time.Time) domain.ArbitrageOpportunity {
	profit := Payout - cost
	return domain.ArbitrageOpportunity{
		ID:            uuid.New().String(),
		MatchID:       m.ID,
		Direction:     dir,
		Poly:          m.Poly,
		Kalshi:        m.Kalshi,
		PolyPrice:     polyPrice,
		KalshiPrice:   kalshiPrice,
		CombinedCost:  cost,
		Payout:        Payout,
		Profit:        profit,
		ProfitPercent: profit / cost * 100,
		ExpiresAt:     m.Expiry(),
		DetectedAt:    now,
	}
}
