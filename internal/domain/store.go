package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
}

// MatchStore persists accepted cross-platform matches.
type MatchStore interface {
	Upsert(ctx context.Context, match CrossPlatformMatch) error
	UpsertBatch(ctx context.Context, matches []CrossPlatformMatch) error
	GetByID(ctx context.Context, id string) (CrossPlatformMatch, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]CrossPlatformMatch, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityStore persists detected arbitrage opportunities.
type OpportunityStore interface {
	Insert(ctx context.Context, opp ArbitrageOpportunity) error
	ListRecent(ctx context.Context, limit int) ([]ArbitrageOpportunity, error)
	ListOpen(ctx context.Context, now time.Time) ([]ArbitrageOpportunity, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
