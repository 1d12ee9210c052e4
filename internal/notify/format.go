package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantship/crossarb/internal/domain"
)

// FormatMatch renders a newly accepted cross-platform match as a short alert
// body.
func FormatMatch(m domain.CrossPlatformMatch) (title, message string) {
	title = "New cross-platform match"
	var b strings.Builder
	fmt.Fprintf(&b, "Score: %.2f\n", m.Score)
	fmt.Fprintf(&b, "Polymarket: %s\n", m.Poly.Title)
	fmt.Fprintf(&b, "Kalshi: %s\n", m.Kalshi.Title)
	fmt.Fprintf(&b, "Expires: %s", m.Expiry().Format(time.RFC3339))
	return title, b.String()
}

// FormatOpportunity renders a raw arbitrage opportunity.
func FormatOpportunity(opp domain.ArbitrageOpportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage: %.2f%% edge", opp.ProfitPercent)
	var b strings.Builder
	fmt.Fprintf(&b, "Direction: %s\n", directionLabel(opp.Direction))
	fmt.Fprintf(&b, "Polymarket: %s @ %.3f\n", opp.Poly.Title, opp.PolyPrice)
	fmt.Fprintf(&b, "Kalshi: %s @ %.3f\n", opp.Kalshi.Title, opp.KalshiPrice)
	fmt.Fprintf(&b, "Combined cost: %.3f for %.2f payout\n", opp.CombinedCost, opp.Payout)
	fmt.Fprintf(&b, "Expires: %s", opp.ExpiresAt.Format(time.RFC3339))
	return title, b.String()
}

// FormatTradePlan renders a guardrail-approved plan with its net economics.
func FormatTradePlan(plan domain.TradePlan) (title, message string) {
	title = fmt.Sprintf("Trade plan: %.2f%% net edge", plan.NetProfitPercent)
	var b strings.Builder
	fmt.Fprintf(&b, "Adjusted cost: %.3f\n", plan.AdjustedCost)
	fmt.Fprintf(&b, "Net profit: %.3f per contract\n", plan.NetProfit)
	for i, leg := range plan.Legs {
		fmt.Fprintf(&b, "Leg %d: buy %s on %s @ %.3f\n", i+1, leg.Outcome, leg.Venue, leg.Price)
	}
	fmt.Fprintf(&b, "Match: %s", plan.Opportunity.MatchID)
	return title, b.String()
}

func directionLabel(d domain.Direction) string {
	switch d {
	case domain.DirectionPolyYesKalshiNo:
		return "Polymarket YES + Kalshi NO"
	case domain.DirectionKalshiYesPolyNo:
		return "Kalshi YES + Polymarket NO"
	default:
		return string(d)
	}
}
