package kalshi

import (
	"time"

	"github.com/quantship/crossarb/internal/domain"
)

// APIMarket represents a market as returned by the Kalshi REST API. Prices
// arrive as cents in [1,99].
type APIMarket struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "active", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	NoBid          float64 `json:"no_bid"`
	NoAsk          float64 `json:"no_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         int64   `json:"volume"`
	Volume24H      int64   `json:"volume_24h"`
	OpenInterest   int64   `json:"open_interest"`
	Liquidity      int64   `json:"liquidity"` // cents of resting depth
	Category       string  `json:"category"`
	ExpirationTime string  `json:"expiration_time"`
	CloseTime      string  `json:"close_time"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
}

// Open reports whether the market is still trading.
func (a *APIMarket) Open() bool {
	return (a.Status == "active" || a.Status == "open") && a.Result == ""
}

// normalizeProb converts a Kalshi cent price to a probability in [0,1].
// Prices outside (0,100) are treated as missing and map to 0.
func normalizeProb(cents float64) float64 {
	if cents <= 0 || cents >= 100 {
		return 0
	}
	return cents / 100
}

// ToDomainMarket converts the Kalshi DTO to a domain.Market. The ask side is
// what a buyer pays, so yes_ask and no_ask seed the quotes; a zero ask leaves
// the side quoted at the no-liquidity sentinel.
func (a *APIMarket) ToDomainMarket() domain.Market {
	m := domain.Market{
		Venue:  domain.VenueKalshi,
		ID:     a.Ticker,
		Title:  a.Title,
		Slug:   a.Ticker,
		Volume: float64(a.Volume),
	}
	if a.Subtitle != "" {
		m.Title = a.Title + " " + a.Subtitle
	}

	if t, err := time.Parse(time.RFC3339, a.CloseTime); err == nil {
		m.EndTime = t
	} else if t, err := time.Parse(time.RFC3339, a.ExpirationTime); err == nil {
		m.EndTime = t
	}

	now := time.Now().UTC()
	depth := float64(a.Liquidity) / 100
	m.Yes = domain.OutcomeSide{
		Label:        "Yes",
		InstrumentID: a.Ticker,
		Quote: &domain.PriceQuote{
			Probability:  normalizeProb(a.YesAsk),
			Source:       domain.QuoteSourceOrderbook,
			DepthDollars: depth,
			Timestamp:    now,
		},
	}
	m.No = domain.OutcomeSide{
		Label:        "No",
		InstrumentID: a.Ticker,
		Quote: &domain.PriceQuote{
			Probability:  normalizeProb(a.NoAsk),
			Source:       domain.QuoteSourceOrderbook,
			DepthDollars: depth,
			Timestamp:    now,
		},
	}
	m.UpdatedAt = now

	return m
}

// APIErrorResponse represents a Kalshi API error body.
type APIErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
