package domain

import "time"

// Direction names which side is bought on which venue.
type Direction string

const (
	DirectionPolyYesKalshiNo Direction = "poly_yes_kalshi_no"
	DirectionKalshiYesPolyNo Direction = "kalshi_yes_poly_no"
)

// ArbitrageOpportunity is a locked two-leg position: complementary contracts
// whose combined cost is under the fixed payout.
type ArbitrageOpportunity struct {
	ID            string    `json:"id"`
	MatchID       string    `json:"match_id"`
	Direction     Direction `json:"direction"`
	Poly          Market    `json:"poly"`
	Kalshi        Market    `json:"kalshi"`
	PolyPrice     float64   `json:"poly_price"`
	KalshiPrice   float64   `json:"kalshi_price"`
	CombinedCost  float64   `json:"combined_cost"`
	Payout        float64   `json:"payout"`
	Profit        float64   `json:"profit"`
	ProfitPercent float64   `json:"profit_percent"`
	ExpiresAt     time.Time `json:"expires_at"`
	DetectedAt    time.Time `json:"detected_at"`
}

// GuardrailSettings tighten raw detection into something actionable. Zero
// values disable the corresponding check.
type GuardrailSettings struct {
	FreshnessWindowSeconds int     `json:"freshness_window_seconds"`
	MinEdgePercent         float64 `json:"min_edge_percent"`
	MinLiquidityDollars    float64 `json:"min_liquidity_dollars"`
	SlippageBufferPercent  float64 `json:"slippage_buffer_percent"`
	FeesPercent            float64 `json:"fees_percent"`
}

// TradeLeg is one side of a planned two-leg position.
type TradeLeg struct {
	Venue        Venue   `json:"venue"`
	MarketID     string  `json:"market_id"`
	InstrumentID string  `json:"instrument_id"`
	Outcome      string  `json:"outcome"`
	Price        float64 `json:"price"`
}

// TradePlan is a guardrail-approved opportunity with its cost adjusted for
// fees and slippage.
type TradePlan struct {
	Opportunity      ArbitrageOpportunity `json:"opportunity"`
	Legs             [2]TradeLeg          `json:"legs"`
	AdjustedCost     float64              `json:"adjusted_cost"`
	NetProfit        float64              `json:"net_profit"`
	NetProfitPercent float64              `json:"net_profit_percent"`
	CreatedAt        time.Time            `json:"created_at"`
}
