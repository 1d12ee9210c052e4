package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantship/crossarb/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const oppSelectCols = `id, match_id, direction, poly, kalshi,
	poly_price, kalshi_price, combined_cost, payout,
	profit, profit_percent, expires_at, detected_at`

// Insert stores a new arbitrage opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	const query = `
		INSERT INTO arb_opportunities (
			id, match_id, direction, poly, kalshi,
			poly_price, kalshi_price, combined_cost, payout,
			profit, profit_percent, expires_at, detected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13
		)`

	polyJSON, err := json.Marshal(opp.Poly)
	if err != nil {
		return fmt.Errorf("postgres: marshal poly market %s: %w", opp.ID, err)
	}
	kalshiJSON, err := json.Marshal(opp.Kalshi)
	if err != nil {
		return fmt.Errorf("postgres: marshal kalshi market %s: %w", opp.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.MatchID, string(opp.Direction), polyJSON, kalshiJSON,
		opp.PolyPrice, opp.KalshiPrice, opp.CombinedCost, opp.Payout,
		opp.Profit, opp.ProfitPercent, opp.ExpiresAt, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM arb_opportunities ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	return s.list(ctx, query, args...)
}

// ListOpen returns opportunities whose expiry is still in the future.
func (s *OpportunityStore) ListOpen(ctx context.Context, now time.Time) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM arb_opportunities
		WHERE expires_at > $1 ORDER BY detected_at DESC`
	return s.list(ctx, query, now)
}

func (s *OpportunityStore) list(ctx context.Context, query string, args ...any) ([]domain.ArbitrageOpportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return opps, nil
}

func scanOpportunity(row pgx.Row) (domain.ArbitrageOpportunity, error) {
	var opp domain.ArbitrageOpportunity
	var direction string
	var polyJSON, kalshiJSON []byte

	if err := row.Scan(
		&opp.ID, &opp.MatchID, &direction, &polyJSON, &kalshiJSON,
		&opp.PolyPrice, &opp.KalshiPrice, &opp.CombinedCost, &opp.Payout,
		&opp.Profit, &opp.ProfitPercent, &opp.ExpiresAt, &opp.DetectedAt,
	); err != nil {
		return domain.ArbitrageOpportunity{}, err
	}
	opp.Direction = domain.Direction(direction)

	if err := json.Unmarshal(polyJSON, &opp.Poly); err != nil {
		return domain.ArbitrageOpportunity{}, fmt.Errorf("unmarshal poly: %w", err)
	}
	if err := json.Unmarshal(kalshiJSON, &opp.Kalshi); err != nil {
		return domain.ArbitrageOpportunity{}, fmt.Errorf("unmarshal kalshi: %w", err)
	}
	return opp, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
