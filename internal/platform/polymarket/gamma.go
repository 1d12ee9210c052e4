// Package polymarket provides REST and WebSocket clients for the Polymarket
// Gamma (discovery) and CLOB (pricing) APIs.
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

// rateKey is the limiter bucket shared by all Polymarket REST calls.
const rateKey = "polymarket:rest"

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    domain.RateLimiter
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// limiter may be nil, in which case requests are not throttled.
func NewGammaClient(baseURL string, timeout time.Duration, limiter domain.RateLimiter) *GammaClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GammaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// ListOpenMarkets pages through the Gamma listing and returns up to
// maxMarkets open binary markets converted to the domain model.
func (g *GammaClient) ListOpenMarkets(ctx context.Context, pageSize, maxMarkets int) ([]domain.Market, error) {
	if pageSize <= 0 {
		pageSize = 500
	}

	var markets []domain.Market
	for offset := 0; maxMarkets <= 0 || len(markets) < maxMarkets; offset += pageSize {
		page, err := g.GetMarkets(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		markets = append(markets, page...)
		if len(page) < pageSize {
			break
		}
	}
	if maxMarkets > 0 && len(markets) > maxMarkets {
		markets = markets[:maxMarkets]
	}
	return markets, nil
}

// GetMarkets returns one page of open markets.
func (g *GammaClient) GetMarkets(ctx context.Context, limit, offset int) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(apiMarkets))
	for i := range apiMarkets {
		if !apiMarkets[i].Tradable() {
			continue
		}
		markets = append(markets, apiMarkets[i].ToDomainMarket())
	}
	return markets, nil
}

// GetMarket returns a single market by its ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	body, err := g.doGet(ctx, "/markets/"+url.PathEscape(id))
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}
	return apiMarket.ToDomainMarket(), nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, rateKey); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
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

// checkHTTPStatus maps non-2xx status codes to domain sentinel errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: HTTP 404", domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", domain.ErrUnauthorized, statusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP 429", domain.ErrRateLimited)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
