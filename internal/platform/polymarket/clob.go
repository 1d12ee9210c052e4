package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quantship/crossarb/internal/domain"
)

// ClobClient is the REST client for the Polymarket CLOB API, used here for
// public orderbook and price reads only.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    domain.RateLimiter
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string, timeout time.Duration, limiter domain.RateLimiter) *ClobClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClobClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// FetchQuote reads the orderbook for one token and derives an executable
// quote: the best ask is what a buyer pays, and the dollar depth at the top
// ask level bounds the fillable size.
func (c *ClobClient) FetchQuote(ctx context.Context, tokenID string) (*domain.PriceQuote, error) {
	book, err := c.GetBook(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return bookToQuote(book), nil
}

// GetBook returns the current orderbook for one CLOB token.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (APIBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, "/book?"+params.Encode())
	if err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(body, &book); err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	if book.AssetID == "" {
		book.AssetID = tokenID
	}
	return book, nil
}

// bookToQuote derives a PriceQuote from an orderbook snapshot. An empty ask
// side yields a zero-probability quote so callers can distinguish "no
// liquidity" from "never fetched".
func bookToQuote(book APIBook) *domain.PriceQuote {
	q := &domain.PriceQuote{
		Source:    domain.QuoteSourceOrderbook,
		Timestamp: time.Now().UTC(),
	}

	bestAsk, askSize, found := bestLevel(book.Asks, false)
	if !found {
		return q
	}
	q.Probability = bestAsk
	q.DepthDollars = bestAsk * askSize
	return q
}

// bestLevel returns the most competitive level on one side of the book:
// lowest price for asks, highest for bids.
func bestLevel(levels []BookLevel, wantHighest bool) (price, size float64, found bool) {
	for _, lv := range levels {
		p, err1 := strconv.ParseFloat(lv.Price, 64)
		s, err2 := strconv.ParseFloat(lv.Size, 64)
		if err1 != nil || err2 != nil || p <= 0 || s <= 0 {
			continue
		}
		if !found || (wantHighest && p > price) || (!wantHighest && p < price) {
			price, size, found = p, s, true
		}
	}
	return price, size, found
}

func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rateKey); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}
