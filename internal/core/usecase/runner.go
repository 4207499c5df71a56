package usecase

import (
	"context"
	"log/slog"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// StrategyRunner executes one strategy, applies its weight, and drops
// low-confidence candidates. A failing strategy is logged and reported as an
// empty result; it never aborts the surrounding search.
type StrategyRunner struct {
	minConfidence float64
	logger        *slog.Logger
}

func NewStrategyRunner(minConfidence float64, logger *slog.Logger) *StrategyRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &StrategyRunner{
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Run executes the strategy and returns its weighted, confidence-filtered
// candidates. The confidence floor applies to the pre-weight combined score.
func (r *StrategyRunner) Run(ctx context.Context, strategy Strategy, query string, filters domain.SearchFilters, topK int) []domain.CandidateMatch {
	candidates, err := strategy.Execute(ctx, query, filters, topK)
	if err != nil {
		r.logger.Warn("strategy_failed",
			"strategy", strategy.Name(),
			"query", query,
			"error", err,
		)
		return nil
	}

	out := make([]domain.CandidateMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.Scores.CombinedScore < r.minConfidence {
			continue
		}
		c.Strategy = strategy.Name()
		c.WeightedScore = c.Scores.CombinedScore * strategy.Weight()
		out = append(out, c)
	}
	return out
}
