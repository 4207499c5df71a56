package ports

import (
	"context"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// PartsMatcher is the matching engine's entry point. FindMatches never returns
// an error for individual item failures; those are folded into the result's
// statistics and error map.
type PartsMatcher interface {
	MatchItem(ctx context.Context, item domain.LineItem) ([]domain.CandidateMatch, error)
	FindMatches(ctx context.Context, items []domain.LineItem) (*domain.BatchResult, error)
}
