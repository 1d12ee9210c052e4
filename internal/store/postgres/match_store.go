package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantship/crossarb/internal/domain"
)

// MatchStore implements domain.MatchStore using PostgreSQL. The two market
// snapshots and the score breakdown are stored as JSONB so a match row is
// self-contained.
type MatchStore struct {
	pool *pgxpool.Pool
}

// NewMatchStore creates a new MatchStore backed by the given connection pool.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

const matchUpsertQuery = `
	INSERT INTO cross_matches (
		id, poly_key, kalshi_key, poly, kalshi, score, scores, reason, matched_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	ON CONFLICT (id) DO UPDATE SET
		poly       = EXCLUDED.poly,
		kalshi     = EXCLUDED.kalshi,
		score      = EXCLUDED.score,
		scores     = EXCLUDED.scores,
		reason     = EXCLUDED.reason,
		matched_at = EXCLUDED.matched_at,
		updated_at = NOW()`

// Upsert inserts a match or refreshes an existing row with the same ID.
func (s *MatchStore) Upsert(ctx context.Context, match domain.CrossPlatformMatch) error {
	args, err := matchUpsertArgs(match)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, matchUpsertQuery, args...); err != nil {
		return fmt.Errorf("postgres: upsert match %s: %w", match.ID, err)
	}
	return nil
}

// UpsertBatch upserts many matches in a single round trip using a pgx batch.
func (s *MatchStore) UpsertBatch(ctx context.Context, matches []domain.CrossPlatformMatch) error {
	if len(matches) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, match := range matches {
		args, err := matchUpsertArgs(match)
		if err != nil {
			return err
		}
		batch.Queue(matchUpsertQuery, args...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range matches {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert match batch: %w", err)
		}
	}
	return nil
}

func matchUpsertArgs(match domain.CrossPlatformMatch) ([]any, error) {
	polyJSON, err := json.Marshal(match.Poly)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal poly market %s: %w", match.ID, err)
	}
	kalshiJSON, err := json.Marshal(match.Kalshi)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal kalshi market %s: %w", match.ID, err)
	}
	scoresJSON, err := json.Marshal(match.Scores)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal scores %s: %w", match.ID, err)
	}
	return []any{
		match.ID, match.Poly.Key(), match.Kalshi.Key(),
		polyJSON, kalshiJSON, match.Score, scoresJSON, match.Reason, match.MatchedAt,
	}, nil
}

const matchSelectCols = `id, poly, kalshi, score, scores, reason, matched_at`

// GetByID returns one match. It returns domain.ErrNotFound when absent.
func (s *MatchStore) GetByID(ctx context.Context, id string) (domain.CrossPlatformMatch, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+matchSelectCols+` FROM cross_matches WHERE id = $1`, id)

	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CrossPlatformMatch{}, domain.ErrNotFound
		}
		return domain.CrossPlatformMatch{}, fmt.Errorf("postgres: get match %s: %w", id, err)
	}
	return match, nil
}

// ListRecent returns matches ordered by matched_at descending.
func (s *MatchStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.CrossPlatformMatch, error) {
	query := `SELECT ` + matchSelectCols + ` FROM cross_matches WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND matched_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}

	query += " ORDER BY matched_at DESC, id"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.CrossPlatformMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list matches rows: %w", err)
	}
	return matches, nil
}

// Count returns the total number of stored matches.
func (s *MatchStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cross_matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count matches: %w", err)
	}
	return n, nil
}

func scanMatch(row pgx.Row) (domain.CrossPlatformMatch, error) {
	var match domain.CrossPlatformMatch
	var polyJSON, kalshiJSON, scoresJSON []byte

	if err := row.Scan(
		&match.ID, &polyJSON, &kalshiJSON,
		&match.Score, &scoresJSON, &match.Reason, &match.MatchedAt,
	); err != nil {
		return domain.CrossPlatformMatch{}, err
	}

	if err := json.Unmarshal(polyJSON, &match.Poly); err != nil {
		return domain.CrossPlatformMatch{}, fmt.Errorf("unmarshal poly: %w", err)
	}
	if err := json.Unmarshal(kalshiJSON, &match.Kalshi); err != nil {
		return domain.CrossPlatformMatch{}, fmt.Errorf("unmarshal kalshi: %w", err)
	}
	if err := json.Unmarshal(scoresJSON, &match.Scores); err != nil {
		return domain.CrossPlatformMatch{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	return match, nil
}

// Compile-time interface check.
var _ domain.MatchStore = (*MatchStore)(nil)
