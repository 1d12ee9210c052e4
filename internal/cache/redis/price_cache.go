package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/redis/go-redis/v9"
)

// quoteTTL caps how long a quote survives without a refresh. Stale quotes are
// rejected downstream anyway, expiry just keeps the keyspace bounded.
const quoteTTL = 10 * time.Minute

// PriceCache implements domain.PriceCache using Redis hashes. Each
// instrument's quote is stored as a hash at key "quote:{instrumentID}" with
// fields "prob", "src", "depth", and "ts" (Unix nanosecond timestamp).
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func quoteKey(instrumentID string) string {
	return "quote:" + instrumentID
}

// SetQuote stores the latest quote for an instrument.
func (pc *PriceCache) SetQuote(ctx context.Context, instrumentID string, quote domain.PriceQuote) error {
	key := quoteKey(instrumentID)
	fields := map[string]interface{}{
		"prob":  strconv.FormatFloat(quote.Probability, 'f', -1, 64),
		"src":   string(quote.Source),
		"depth": strconv.FormatFloat(quote.DepthDollars, 'f', -1, 64),
		"ts":    strconv.FormatInt(quote.Timestamp.UnixNano(), 10),
	}

	pipe := pc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", instrumentID, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for an instrument.
// It returns domain.ErrNotFound when the key does not exist.
func (pc *PriceCache) GetQuote(ctx context.Context, instrumentID string) (domain.PriceQuote, error) {
	vals, err := pc.rdb.HGetAll(ctx, quoteKey(instrumentID)).Result()
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: get quote %s: %w", instrumentID, err)
	}
	if len(vals) == 0 {
		return domain.PriceQuote{}, domain.ErrNotFound
	}

	quote, err := quoteFromHash(vals)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: decode quote %s: %w", instrumentID, err)
	}
	return quote, nil
}

// GetQuotes retrieves the latest quotes for multiple instruments using a
// pipeline. Instruments whose keys do not exist are omitted from the result.
func (pc *PriceCache) GetQuotes(ctx context.Context, instrumentIDs []string) (map[string]domain.PriceQuote, error) {
	if len(instrumentIDs) == 0 {
		return map[string]domain.PriceQuote{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(instrumentIDs))
	for _, id := range instrumentIDs {
		cmds[id] = pipe.HGetAll(ctx, quoteKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get quotes pipeline: %w", err)
	}

	result := make(map[string]domain.PriceQuote, len(instrumentIDs))
	for id, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		quote, err := quoteFromHash(vals)
		if err != nil {
			continue
		}
		result[id] = quote
	}

	return result, nil
}

// quoteFromHash rebuilds a PriceQuote from its hash fields.
func quoteFromHash(vals map[string]string) (domain.PriceQuote, error) {
	probStr, ok := vals["prob"]
	if !ok {
		return domain.PriceQuote{}, domain.ErrNotFound
	}
	prob, err := strconv.ParseFloat(probStr, 64)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("parse prob: %w", err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return domain.PriceQuote{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("parse ts: %w", err)
	}

	depth, _ := strconv.ParseFloat(vals["depth"], 64)

	return domain.PriceQuote{
		Probability:  prob,
		Source:       domain.QuoteSource(vals["src"]),
		DepthDollars: depth,
		Timestamp:    time.Unix(0, tsNano),
	}, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
