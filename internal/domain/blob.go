package domain

import (
	"context"
	"io"
	"time"
)

// BlobReader retrieves objects from blob storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver snapshots matcher and detector output to cold storage so the hot
// database stays small.
type Archiver interface {
	ArchiveMatches(ctx context.Context, at time.Time) (int64, error)
	ArchiveOpportunities(ctx context.Context, at time.Time) (int64, error)
}
