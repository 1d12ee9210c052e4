package domain

import "time"

// Venue identifies one of the two supported prediction-market platforms.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// QuoteSource tags where a price observation came from.
type QuoteSource string

const (
	QuoteSourceOrderbook QuoteSource = "orderbook"
	QuoteSourceLastTrade QuoteSource = "last_trade"
)

// PriceQuote is a single price observation for one outcome side. Probability
// is the market-implied probability in [0,1]. A probability of exactly 0 is a
// no-liquidity sentinel and is excluded from arbitrage evaluation.
type PriceQuote struct {
	Probability  float64
	Source       QuoteSource
	DepthDollars float64
	Timestamp    time.Time
}

// OutcomeSide is one of the two complementary contracts of a binary market.
// Quote is nil until a price has been fetched for the side.
type OutcomeSide struct {
	Label        string // e.g. "Yes" / "No"
	InstrumentID string // venue-specific token ID or ticker, used for trade links
	Quote        *PriceQuote
}

// Priced reports whether the side has a usable price: a quote must exist and
// its probability must be strictly positive (0 means no liquidity).
func (s OutcomeSide) Priced() bool {
	return s.Quote != nil && s.Quote.Probability > 0
}

// Market is a tradable binary contract on one venue.
type Market struct {
	Venue     Venue
	ID        string
	Title     string
	Slug      string
	EndTime   time.Time
	Volume    float64
	Yes       OutcomeSide
	No        OutcomeSide
	UpdatedAt time.Time
}

// Key returns the globally unique identifier for the market across venues.
func (m Market) Key() string { return string(m.Venue) + ":" + m.ID }

// Matchable reports whether the market carries the fields the matcher
// requires. Markets without a title or end time are skipped, not rejected.
func (m Market) Matchable() bool {
	return m.ID != "" && m.Title != "" && !m.EndTime.IsZero()
}
