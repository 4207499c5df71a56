package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// MatchResultRepository persists one batch outcome per order. A re-run
// replaces the previous result.
type MatchResultRepository struct {
	db *sql.DB
}

func NewMatchResultRepository(db *sql.DB) *MatchResultRepository {
	return &MatchResultRepository{db: db}
}

func (r *MatchResultRepository) SaveBatchResult(ctx context.Context, orderID string, result *domain.BatchResult) error {
	matchesJSON, err := json.Marshal(result.Matches)
	if err != nil {
		return fmt.Errorf("marshal matches: %w", err)
	}
	statsJSON, err := json.Marshal(result.Statistics)
	if err != nil {
		return fmt.Errorf("marshal statistics: %w", err)
	}
	gatesJSON, err := json.Marshal(result.Gates)
	if err != nil {
		return fmt.Errorf("marshal gates: %w", err)
	}
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO match_results (order_id, matches, statistics, confidence, gates, errors, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (order_id) DO UPDATE
SET matches = EXCLUDED.matches,
	statistics = EXCLUDED.statistics,
	confidence = EXCLUDED.confidence,
	gates = EXCLUDED.gates,
	errors = EXCLUDED.errors,
	created_at = EXCLUDED.created_at
`, orderID, matchesJSON, statsJSON, result.Confidence, gatesJSON, errorsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert match result: %w", err)
	}
	return nil
}

func (r *MatchResultRepository) GetBatchResult(ctx context.Context, orderID string) (*domain.BatchResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT matches, statistics, confidence, gates, errors
FROM match_results
WHERE order_id = $1
`, orderID)

	var (
		result     domain.BatchResult
		matchesRaw []byte
		statsRaw   []byte
		gatesRaw   []byte
		errorsRaw  []byte
	)
	err := row.Scan(&matchesRaw, &statsRaw, &result.Confidence, &gatesRaw, &errorsRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrOrderNotFound, "get match result", fmt.Errorf("order %q", orderID))
		}
		return nil, fmt.Errorf("scan match result: %w", err)
	}

	if err := json.Unmarshal(matchesRaw, &result.Matches); err != nil {
		return nil, fmt.Errorf("unmarshal matches: %w", err)
	}
	if err := json.Unmarshal(statsRaw, &result.Statistics); err != nil {
		return nil, fmt.Errorf("unmarshal statistics: %w", err)
	}
	if err := json.Unmarshal(gatesRaw, &result.Gates); err != nil {
		return nil, fmt.Errorf("unmarshal gates: %w", err)
	}
	if err := json.Unmarshal(errorsRaw, &result.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return &result, nil
}
