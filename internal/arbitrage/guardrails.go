package arbitrage

import (
	"time"

	"github.com/quantship/crossarb/internal/domain"
)

// DetectWithGuardrails evaluates matches under the given guardrail settings
// and returns actionable trade plans. On top of the raw cost<1 test it
// requires fresh quotes and minimum depth on both legs, inflates cost by the
// fee and slippage buffers, and keeps only the cheaper direction when both
// would qualify.
func (c *Calculator) DetectWithGuardrails(matches []domain.CrossPlatformMatch, settings domain.GuardrailSettings) []domain.TradePlan {
	now := time.Now().UTC()
	multiplier := 1 + (settings.FeesPercent+settings.SlippageBufferPercent)/100

	var plans []domain.TradePlan
	for _, m := range matches {
		var best *domain.TradePlan
		for _, opp := range c.detectMatch(m, now) {
			legA, legB := legsFor(opp)
			if !legOK(legA, m, settings, now) || !legOK(legB, m, settings, now) {
				continue
			}
			adjusted := opp.CombinedCost * multiplier
			if adjusted >= Payout {
				continue
			}
			netProfit := Payout - adjusted
			netPct := netProfit / adjusted * 100
			if netPct < settings.MinEdgePercent {
				continue
			}
			if best != nil && adjusted >= best.AdjustedCost {
				continue
			}
			best = &domain.TradePlan{
				Opportunity:      opp,
				Legs:             [2]domain.TradeLeg{legA, legB},
				AdjustedCost:     adjusted,
				NetProfit:        netProfit,
				NetProfitPercent: netPct,
				CreatedAt:        now,
			}
		}
		if best != nil {
			plans = append(plans, *best)
		}
	}
	return plans
}

func legsFor(opp domain.ArbitrageOpportunity) (domain.TradeLeg, domain.TradeLeg) {
	if opp.Direction == domain.DirectionPolyYesKalshiNo {
		return domain.TradeLeg{
				Venue:        domain.VenuePolymarket,
				MarketID:     opp.Poly.ID,
				InstrumentID: opp.Poly.Yes.InstrumentID,
				Outcome:      "yes",
				Price:        opp.PolyPrice,
			}, domain.TradeLeg{
				Venue:        domain.VenueKalshi,
				MarketID:     opp.Kalshi.ID,
				InstrumentID: opp.Kalshi.No.InstrumentID,
				Outcome:      "no",
				Price:        opp.KalshiPrice,
			}
	}
	return domain.TradeLeg{
			Venue:        domain.VenueKalshi,
			MarketID:     opp.Kalshi.ID,
			InstrumentID: opp.Kalshi.Yes.InstrumentID,
			Outcome:      "yes",
			Price:        opp.KalshiPrice,
		}, domain.TradeLeg{
			Venue:        domain.VenuePolymarket,
			MarketID:     opp.Poly.ID,
			InstrumentID: opp.Poly.No.InstrumentID,
			Outcome:      "no",
			Price:        opp.PolyPrice,
		}
}

// legOK checks freshness and depth for one leg's quote.
func legOK(leg domain.TradeLeg, m domain.CrossPlatformMatch, settings domain.GuardrailSettings, now time.Time) bool {
	q := quoteFor(leg, m)
	if q == nil {
		return false
	}
	if settings.FreshnessWindowSeconds > 0 {
		age := now.Sub(q.Timestamp)
		if age > time.Duration(settings.FreshnessWindowSeconds)*time.Second {
			return false
		}
	}
	if settings.MinLiquidityDollars > 0 && q.DepthDollars < settings.MinLiquidityDollars {
		return false
	}
	return true
}

func quoteFor(leg domain.TradeLeg, m domain.CrossPlatformMatch) *domain.PriceQuote {
	mkt := m.Poly
	if leg.Venue == domain.VenueKalshi {
		mkt = m.Kalshi
	}
	if leg.Outcome == "yes" {
		return mkt.Yes.Quote
	}
	return mkt.No.Quote
}
