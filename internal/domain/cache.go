package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest quote per outcome instrument.
type PriceCache interface {
	SetQuote(ctx context.Context, instrumentID string, quote PriceQuote) error
	GetQuote(ctx context.Context, instrumentID string) (PriceQuote, error)
	GetQuotes(ctx context.Context, instrumentIDs []string) (map[string]PriceQuote, error)
}

// MarketCache provides fast market metadata lookups keyed by Market.Key().
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, key string) (Market, error)
	Invalidate(ctx context.Context, key string) error
}

// RateLimiter provides distributed rate limiting for venue API calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking so only one instance runs a full
// scan at a time.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub for match and opportunity events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
