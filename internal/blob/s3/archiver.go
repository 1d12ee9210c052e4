package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantship/crossarb/internal/domain"
)

// MatchArchiveSource provides read access to matches for archival purposes.
// The Postgres MatchStore satisfies it through its ListRecent method.
type MatchArchiveSource interface {
	ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.CrossPlatformMatch, error)
}

// OpportunityArchiveSource provides read access to opportunities for archival
// purposes.
type OpportunityArchiveSource interface {
	ListRecent(ctx context.Context, limit int) ([]domain.ArbitrageOpportunity, error)
}

// Archiver implements domain.Archiver by reading the current match and
// opportunity sets, serializing them to JSONL, and uploading the snapshots to
// S3. Nothing is deleted from the primary store here; retention is a separate
// explicit step run after a snapshot has been verified.
type Archiver struct {
	writer  domain.BlobWriter
	matches MatchArchiveSource
	opps    OpportunityArchiveSource
	audit   domain.AuditStore
}

// NewArchiver creates a new Archiver.
func NewArchiver(
	writer domain.BlobWriter,
	matches MatchArchiveSource,
	opps OpportunityArchiveSource,
	audit domain.AuditStore,
) *Archiver {
	return &Archiver{
		writer:  writer,
		matches: matches,
		opps:    opps,
		audit:   audit,
	}
}

// ArchiveMatches snapshots all stored matches to
// archive/matches/YYYY-MM-DD/HHMMSS.jsonl and returns the record count. The
// snapshot event is recorded in the audit log.
func (a *Archiver) ArchiveMatches(ctx context.Context, at time.Time) (int64, error) {
	matches, err := a.matches.ListRecent(ctx, domain.ListOpts{})
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches query: %w", err)
	}
	if len(matches) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(matches)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive matches marshal: %w", err)
	}

	path := archivePath("matches", at)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive matches upload: %w", err)
	}

	count := int64(len(matches))

	if err := a.audit.Log(ctx, "archive.matches", map[string]any{
		"path":  path,
		"count": count,
		"at":    at.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive matches audit log: %w", err)
	}

	return count, nil
}

// ArchiveOpportunities snapshots all stored opportunities to
// archive/opportunities/YYYY-MM-DD/HHMMSS.jsonl and returns the record count.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, at time.Time) (int64, error) {
	opps, err := a.opps.ListRecent(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities marshal: %w", err)
	}

	path := archivePath("opportunities", at)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive opportunities upload: %w", err)
	}

	count := int64(len(opps))

	if err := a.audit.Log(ctx, "archive.opportunities", map[string]any{
		"path":  path,
		"count": count,
		"at":    at.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive opportunities audit log: %w", err)
	}

	return count, nil
}

// archivePath builds the S3 key for a snapshot, partitioned by date with a
// time-of-day filename so repeated snapshots on one day never collide.
//
//	archive/matches/2026-09-01/153000.jsonl
func archivePath(kind string, at time.Time) string {
	return fmt.Sprintf("archive/%s/%s/%s.jsonl", kind, at.Format("2006-01-02"), at.Format("150405"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
