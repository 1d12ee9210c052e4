package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/quantship/crossarb/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"condition_id"`
	Slug          string   `json:"slug"`
	Active        flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`       // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"`  // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	ClobTokenIDs  string   `json:"clob_token_ids"` // JSON-encoded: e.g. "[\"123\",\"456\"]"
	Volume        string   `json:"volume"`
	EndDateISO    string   `json:"end_date_iso"`
	UpdatedAt     string   `json:"updated_at"`
}

// Tradable reports whether the market is an open binary Yes/No market worth
// scanning.
func (a *APIMarket) Tradable() bool {
	return bool(a.Active) && !a.Closed && a.Question != ""
}

// ToDomainMarket converts the Gamma DTO to a domain.Market. Outcome prices
// from the listing are seeded as last-trade quotes; the CLOB book refresh
// overwrites them with orderbook-derived quotes.
func (a *APIMarket) ToDomainMarket() domain.Market {
	m := domain.Market{
		Venue: domain.VenuePolymarket,
		ID:    a.ID,
		Title: a.Question,
		Slug:  a.Slug,
	}

	if t, err := time.Parse(time.RFC3339, a.EndDateISO); err == nil {
		m.EndTime = t
	}
	if t, err := time.Parse(time.RFC3339, a.UpdatedAt); err == nil {
		m.UpdatedAt = t
	}
	m.Volume, _ = strconv.ParseFloat(a.Volume, 64)

	outcomes := decodeStringArray(a.Outcomes)
	prices := decodeStringArray(a.OutcomePrices)
	tokens := decodeStringArray(a.ClobTokenIDs)

	now := time.Now().UTC()
	for i, outcome := range outcomes {
		side := domain.OutcomeSide{Label: outcome}
		if i < len(tokens) {
			side.InstrumentID = tokens[i]
		}
		if i < len(prices) {
			if p, err := strconv.ParseFloat(prices[i], 64); err == nil && p > 0 && p < 1 {
				side.Quote = &domain.PriceQuote{
					Probability: p,
					Source:      domain.QuoteSourceLastTrade,
					Timestamp:   now,
				}
			}
		}
		switch strings.ToLower(outcome) {
		case "yes":
			m.Yes = side
		case "no":
			m.No = side
		}
	}

	return m
}

// decodeStringArray parses the double-encoded JSON arrays the Gamma API uses
// for outcomes, prices, and token ids. Malformed input yields nil.
func decodeStringArray(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// BookLevel is a single price level in the CLOB orderbook response.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the CLOB orderbook for one token.
type APIBook struct {
	AssetID   string      `json:"asset_id"`
	Market    string      `json:"market"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp string      `json:"timestamp"`
	Hash      string      `json:"hash"`
}

// WSMessage is one frame from the CLOB market WebSocket channel.
type WSMessage struct {
	EventType string      `json:"event_type"` // "book", "price_change", "last_trade_price"
	AssetID   string      `json:"asset_id"`
	Market    string      `json:"market"`
	Price     string      `json:"price"`
	Size      string      `json:"size"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp string      `json:"timestamp"`
}

// WSCommand is the JSON payload sent to the WebSocket to subscribe.
type WSCommand struct {
	Type    string   `json:"type"` // "subscribe" or "unsubscribe"
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}
