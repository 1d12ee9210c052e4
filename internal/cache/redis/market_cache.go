package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/redis/go-redis/v9"
)

const marketTTL = 30 * time.Minute

// MarketCache implements domain.MarketCache using Redis hashes with JSON-
// serialized Market data and a secondary instrument-to-market index.
//
// Key schema:
//
//	market:{venue:id}           - hash with field "data" containing JSON
//	market:instrument:{instID}  - string value of the market key
type MarketCache struct {
	rdb *redis.Client
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client) *MarketCache {
	return &MarketCache{rdb: c.Underlying()}
}

func marketKey(key string) string          { return "market:" + key }
func marketInstrumentKey(id string) string { return "market:instrument:" + id }

// Set stores a Market in the cache with a 30-minute TTL. It also creates
// instrument-to-market index entries for both outcome sides.
func (mc *MarketCache) Set(ctx context.Context, market domain.Market) error {
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("redis: marshal market %s: %w", market.Key(), err)
	}

	key := marketKey(market.Key())

	pipe := mc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, marketTTL)

	for _, instID := range []string{market.Yes.InstrumentID, market.No.InstrumentID} {
		if instID == "" {
			continue
		}
		pipe.Set(ctx, marketInstrumentKey(instID), market.Key(), marketTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set market %s: %w", market.Key(), err)
	}
	return nil
}

// Get retrieves a Market by its venue-qualified key.
// It returns domain.ErrNotFound when the key does not exist.
func (mc *MarketCache) Get(ctx context.Context, key string) (domain.Market, error) {
	data, err := mc.rdb.HGet(ctx, marketKey(key), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market %s: %w", key, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s: %w", key, err)
	}
	return market, nil
}

// GetByInstrument looks up a Market by one of its outcome instrument IDs.
// It returns domain.ErrNotFound if the mapping or market does not exist.
func (mc *MarketCache) GetByInstrument(ctx context.Context, instrumentID string) (domain.Market, error) {
	key, err := mc.rdb.Get(ctx, marketInstrumentKey(instrumentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market by instrument %s: %w", instrumentID, err)
	}

	return mc.Get(ctx, key)
}

// Invalidate removes a Market and its instrument index entries from the cache.
func (mc *MarketCache) Invalidate(ctx context.Context, key string) error {
	// Read the market first so the reverse index entries can be cleaned up.
	market, err := mc.Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("redis: invalidate market %s: %w", key, err)
	}

	pipe := mc.rdb.TxPipeline()
	pipe.Del(ctx, marketKey(key))

	if err == nil {
		for _, instID := range []string{market.Yes.InstrumentID, market.No.InstrumentID} {
			if instID == "" {
				continue
			}
			pipe.Del(ctx, marketInstrumentKey(instID))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate market %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
