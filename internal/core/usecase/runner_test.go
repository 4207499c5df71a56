package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// stubStrategy returns canned candidates or a canned error.
type stubStrategy struct {
	name    string
	weight  float64
	results []domain.CandidateMatch
	err     error
	calls   int
}

func (s *stubStrategy) Name() string    { return s.name }
func (s *stubStrategy) Weight() float64 { return s.weight }

func (s *stubStrategy) Execute(context.Context, string, domain.SearchFilters, int) ([]domain.CandidateMatch, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.CandidateMatch, len(s.results))
	copy(out, s.results)
	return out, nil
}

func candidate(number string, combined float64) domain.CandidateMatch {
	return domain.CandidateMatch{
		Part:   domain.Part{Number: number},
		Scores: domain.ScoreBreakdown{CombinedScore: combined},
	}
}

func TestRunnerAppliesWeight(t *testing.T) {
	runner := NewStrategyRunner(0.5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	strategy := &stubStrategy{
		name:    StrategyDescription,
		weight:  0.9,
		results: []domain.CandidateMatch{candidate("P-1", 0.6)},
	}

	got := runner.Run(context.Background(), strategy, "query", domain.SearchFilters{}, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Strategy != StrategyDescription {
		t.Errorf("strategy label = %q", got[0].Strategy)
	}
	if want := 0.6 * 0.9; got[0].WeightedScore != want {
		t.Errorf("weighted score = %v, want %v", got[0].WeightedScore, want)
	}
}

func TestRunnerFiltersBelowConfidenceFloor(t *testing.T) {
	runner := NewStrategyRunner(0.5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	strategy := &stubStrategy{
		name:   StrategyKeyTerms,
		weight: 0.7,
		results: []domain.CandidateMatch{
			candidate("KEEP", 0.55),
			candidate("DROP", 0.45),
		},
	}

	got := runner.Run(context.Background(), strategy, "query", domain.SearchFilters{}, 5)
	if len(got) != 1 || got[0].Part.Number != "KEEP" {
		t.Fatalf("confidence floor not applied: %v", got)
	}
}

func TestRunnerIsolatesStrategyFailure(t *testing.T) {
	runner := NewStrategyRunner(0.5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	strategy := &stubStrategy{
		name:   StrategyFuzzy,
		weight: 0.4,
		err:    errors.New("catalog unavailable"),
	}

	got := runner.Run(context.Background(), strategy, "query", domain.SearchFilters{}, 5)
	if got != nil {
		t.Fatalf("expected nil on strategy failure, got %v", got)
	}
}
