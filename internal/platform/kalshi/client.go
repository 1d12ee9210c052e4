// Package kalshi provides a REST client for the Kalshi exchange API. Only
// public market-data endpoints are used; the API key, when present, buys a
// higher rate limit.
package kalshi

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

// rateKey is the limiter bucket shared by all Kalshi REST calls.
const rateKey = "kalshi:rest"

// Client is the REST client for the Kalshi exchange API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    domain.RateLimiter
}

// NewClient creates a new Kalshi REST client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
// limiter may be nil, in which case requests are not throttled.
func NewClient(baseURL, apiKey string, timeout time.Duration, limiter domain.RateLimiter) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// ListOpenMarkets walks the cursor-paginated listing and returns up to
// maxMarkets open markets converted to the domain model.
func (c *Client) ListOpenMarkets(ctx context.Context, pageSize, maxMarkets int) ([]domain.Market, error) {
	if pageSize <= 0 {
		pageSize = 200
	}

	var markets []domain.Market
	cursor := ""
	for {
		page, next, err := c.GetMarkets(ctx, pageSize, cursor)
		if err != nil {
			return nil, err
		}
		markets = append(markets, page...)
		if next == "" || (maxMarkets > 0 && len(markets) >= maxMarkets) {
			break
		}
		cursor = next
	}
	if maxMarkets > 0 && len(markets) > maxMarkets {
		markets = markets[:maxMarkets]
	}
	return markets, nil
}

// GetMarkets returns one page of open markets plus the next cursor.
func (c *Client) GetMarkets(ctx context.Context, limit int, cursor string) ([]domain.Market, string, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("status", "open")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp struct {
		Markets []APIMarket `json:"markets"`
		Cursor  string      `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(resp.Markets))
	for i := range resp.Markets {
		if !resp.Markets[i].Open() {
			continue
		}
		markets = append(markets, resp.Markets[i].ToDomainMarket())
	}
	return markets, resp.Cursor, nil
}

// GetMarket returns a single market by its ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (domain.Market, error) {
	body, err := c.doGet(ctx, "/markets/"+url.PathEscape(ticker))
	if err != nil {
		return domain.Market{}, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}

	var resp struct {
		Market APIMarket `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Market{}, fmt.Errorf("kalshi: decode market: %w", err)
	}
	return resp.Market.ToDomainMarket(), nil
}

// RefreshQuotes re-fetches the given tickers and returns fresh yes/no quotes
// keyed by ticker.
func (c *Client) RefreshQuotes(ctx context.Context, tickers []string) (map[string]domain.Market, error) {
	out := make(map[string]domain.Market, len(tickers))
	for _, ticker := range tickers {
		m, err := c.GetMarket(ctx, ticker)
		if err != nil {
			return out, err
		}
		out[ticker] = m
	}
	return out, nil
}

// doGet sends a GET request to the Kalshi API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
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
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to domain sentinel errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr APIErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, apiErr.Message, apiErr.Code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s (%s)", domain.ErrUnauthorized, apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("kalshi: HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
