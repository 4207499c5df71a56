package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// MatcherOptions is the matching engine's recognized configuration surface.
type MatcherOptions struct {
	MaxMatchesPerItem       int
	MinConfidence           float64
	FuzzyFallbackThreshold  float64
	HighConfidenceThreshold float64
	MaxConcurrent           int
	BatchTimeout            time.Duration
}

// DefaultMatcherOptions returns the documented defaults.
func DefaultMatcherOptions() MatcherOptions {
	return MatcherOptions{
		MaxMatchesPerItem:       5,
		MinConfidence:           0.5,
		FuzzyFallbackThreshold:  0.6,
		HighConfidenceThreshold: 0.8,
		MaxConcurrent:           4,
		BatchTimeout:            60 * time.Second,
	}
}

// Validate fails fast on a configuration the engine cannot run with.
func (o MatcherOptions) Validate() error {
	if o.MaxMatchesPerItem <= 0 {
		return domain.WrapError(domain.ErrConfiguration, "matcher options",
			fmt.Errorf("max matches per item must be positive, got %d", o.MaxMatchesPerItem))
	}
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return domain.WrapError(domain.ErrConfiguration, "matcher options",
			fmt.Errorf("min confidence out of [0,1]: %v", o.MinConfidence))
	}
	if o.FuzzyFallbackThreshold < 0 || o.FuzzyFallbackThreshold > 1 {
		return domain.WrapError(domain.ErrConfiguration, "matcher options",
			fmt.Errorf("fuzzy fallback threshold out of [0,1]: %v", o.FuzzyFallbackThreshold))
	}
	if o.HighConfidenceThreshold <= 0 || o.HighConfidenceThreshold > 1 {
		return domain.WrapError(domain.ErrConfiguration, "matcher options",
			fmt.Errorf("high confidence threshold out of (0,1]: %v", o.HighConfidenceThreshold))
	}
	if o.MaxConcurrent <= 0 {
		return domain.WrapError(domain.ErrConfiguration, "matcher options",
			fmt.Errorf("max concurrent tasks must be positive, got %d", o.MaxConcurrent))
	}
	return nil
}

// MatcherMetrics is implemented by the observability layer. A nil metrics
// sink disables instrumentation.
type MatcherMetrics interface {
	ItemProcessed(outcome string, duration time.Duration)
	FuzzyFallbackTriggered()
	BatchProcessed(stats domain.BatchStatistics)
	StartItem()
	FinishItem()
}

// MatchingOrchestrator plans and runs the strategy set per line item and fans
// batches out over a bounded worker pool.
type MatchingOrchestrator struct {
	registry  map[string]Strategy
	runner    *StrategyRunner
	processor *MatchProcessor
	gates     *QualityGateManager
	metrics   MatcherMetrics
	logger    *slog.Logger
	opts      MatcherOptions
}

func NewMatchingOrchestrator(
	registry map[string]Strategy,
	runner *StrategyRunner,
	processor *MatchProcessor,
	gates *QualityGateManager,
	metrics MatcherMetrics,
	logger *slog.Logger,
	opts MatcherOptions,
) (*MatchingOrchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, name := range []string{StrategyPartNumber, StrategyDescription, StrategyNormalized, StrategyKeyTerms, StrategyFuzzy} {
		if _, ok := registry[name]; !ok {
			return nil, domain.WrapError(domain.ErrConfiguration, "matching orchestrator",
				fmt.Errorf("strategy %q missing from registry", name))
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchingOrchestrator{
		registry:  registry,
		runner:    runner,
		processor: processor,
		gates:     gates,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
	}, nil
}

type plannedRun struct {
	strategy string
	query    string
}

// buildPlan selects the strategies for one item: identifier search when a
// part-number hint exists; description, normalized description (only when
// normalization changes the text), and key terms when free text exists.
func (o *MatchingOrchestrator) buildPlan(item domain.LineItem) []plannedRun {
	plan := make([]plannedRun, 0, 4)
	if hint := strings.TrimSpace(item.PartNumberHint); hint != "" {
		plan = append(plan, plannedRun{StrategyPartNumber, hint})
	}
	text := strings.TrimSpace(item.RawText)
	if text == "" {
		return plan
	}

	plan = append(plan, plannedRun{StrategyDescription, text})
	if normalized := normalizeText(text); normalized != "" && normalized != text {
		plan = append(plan, plannedRun{StrategyNormalized, text})
	}
	plan = append(plan, plannedRun{StrategyKeyTerms, text})
	return plan
}

// materialVocabulary backs keyword detection when no explicit material hint
// was extracted.
var materialVocabulary = []string{
	"stainless", "steel", "aluminum", "aluminium", "brass", "copper",
	"bronze", "titanium", "nylon", "ptfe", "rubber", "plastic", "zinc",
	"cast iron", "carbide",
}

func (o *MatchingOrchestrator) deriveFilters(item domain.LineItem) domain.SearchFilters {
	filters := domain.SearchFilters{}

	if hint := strings.TrimSpace(item.MaterialHint); hint != "" {
		filters.MaterialContains = hint
	} else {
		lower := strings.ToLower(item.RawText)
		for _, material := range materialVocabulary {
			if strings.Contains(lower, material) {
				filters.MaterialContains = material
				break
			}
		}
	}

	if item.DimensionsHint != "" || len(extractNumbers(item.RawText)) > 0 {
		filters.DimensionTolerance = 0.05
	}
	return filters
}

// MatchItem runs the full matching pass for one line item and returns its
// ranked, explained candidates.
func (o *MatchingOrchestrator) MatchItem(ctx context.Context, item domain.LineItem) ([]domain.CandidateMatch, error) {
	if strings.TrimSpace(item.RawText) == "" && strings.TrimSpace(item.PartNumberHint) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "match item",
			errors.New("line item has neither text nor part number hint"))
	}

	filters := o.deriveFilters(item)
	topK := o.opts.MaxMatchesPerItem

	merged := make([]domain.CandidateMatch, 0, topK*4)
	for _, step := range o.buildPlan(item) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merged = append(merged, o.runner.Run(ctx, o.registry[step.strategy], step.query, filters, topK)...)
	}
	merged = o.processor.Deduplicate(merged)

	if best := bestWeightedScore(merged); len(merged) == 0 || best < o.opts.FuzzyFallbackThreshold {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.metrics != nil {
			o.metrics.FuzzyFallbackTriggered()
		}
		o.logger.Debug("fuzzy_fallback", "item_id", item.ID, "best_score", best)
		fuzzy := o.runner.Run(ctx, o.registry[StrategyFuzzy], item.RawText, filters, topK)
		merged = o.processor.Deduplicate(append(merged, fuzzy...))
	}

	merged = o.processor.SortAndLimit(merged, o.opts.MaxMatchesPerItem)
	for i := range merged {
		merged[i].Explanation = o.processor.Explain(item, merged[i])
	}
	return merged, nil
}

func bestWeightedScore(matches []domain.CandidateMatch) float64 {
	best := 0.0
	for _, m := range matches {
		if m.WeightedScore > best {
			best = m.WeightedScore
		}
	}
	return best
}

// FindMatches processes the batch with bounded concurrency. Item failures are
// captured as zero-match results; the call only errors when the worker pool
// itself cannot be created.
func (o *MatchingOrchestrator) FindMatches(ctx context.Context, items []domain.LineItem) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		Matches: make(map[string][]domain.CandidateMatch, len(items)),
		Errors:  make(map[string]string),
	}
	result.Statistics.TotalItems = len(items)
	if len(items) == 0 {
		return result, nil
	}

	if o.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.BatchTimeout)
		defer cancel()
	}

	pool, err := ants.NewPool(o.opts.MaxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	record := func(item domain.LineItem, matches []domain.CandidateMatch, itemErr error, duration time.Duration) {
		mu.Lock()
		defer mu.Unlock()

		outcome := "matched"
		switch {
		case itemErr != nil && errors.Is(itemErr, context.DeadlineExceeded):
			result.Statistics.TimedOut++
			result.Statistics.NoMatch++
			result.Matches[item.ID] = nil
			result.Errors[item.ID] = "timed out"
			outcome = "timeout"
		case itemErr != nil:
			result.Statistics.Failed++
			result.Statistics.NoMatch++
			result.Matches[item.ID] = nil
			result.Errors[item.ID] = itemErr.Error()
			outcome = "failed"
		case len(matches) == 0:
			result.Statistics.NoMatch++
			result.Matches[item.ID] = matches
			outcome = "no_match"
		default:
			result.Statistics.Matched++
			result.Matches[item.ID] = matches
			if bestWeightedScore(matches) >= o.opts.HighConfidenceThreshold {
				result.Statistics.HighConfidence++
			} else {
				result.Statistics.Partial++
			}
		}
		if o.metrics != nil {
			o.metrics.ItemProcessed(outcome, duration)
		}
	}

	for _, item := range items {
		item := item
		// Items the deadline prevents from being scheduled are marked as
		// timed out instead of blocking the batch.
		if err := ctx.Err(); err != nil {
			record(item, nil, context.DeadlineExceeded, 0)
			continue
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if o.metrics != nil {
				o.metrics.StartItem()
				defer o.metrics.FinishItem()
			}
			start := time.Now()
			matches, itemErr := o.MatchItem(ctx, item)
			if itemErr != nil {
				o.logger.Warn("item_match_failed", "item_id", item.ID, "error", itemErr)
			}
			record(item, matches, itemErr, time.Since(start))
		})
		if submitErr != nil {
			wg.Done()
			record(item, nil, fmt.Errorf("submit to pool: %w", submitErr), 0)
		}
	}
	wg.Wait()

	o.finalize(result)
	return result, nil
}

// finalize computes the batch confidence, attaches quality gate outcomes, and
// reports metrics.
func (o *MatchingOrchestrator) finalize(result *domain.BatchResult) {
	stats := &result.Statistics
	if stats.TotalItems > 0 {
		confidence := (float64(stats.HighConfidence)*1.0 + float64(stats.Partial)*0.6) / float64(stats.TotalItems)
		if confidence > 1 {
			confidence = 1
		}
		result.Confidence = confidence
	}

	if o.gates != nil {
		best := 0.0
		sum := 0.0
		counted := 0
		for _, matches := range result.Matches {
			s := bestWeightedScore(matches)
			if s > best {
				best = s
			}
			if len(matches) > 0 {
				sum += s
				counted++
			}
		}
		avg := 0.0
		if counted > 0 {
			avg = sum / float64(counted)
		}
		result.Gates = append(result.Gates, o.gates.ValidateSearch(SearchPayload{
			CandidateCount: stats.Matched,
			TopScore:       best,
			AverageScore:   avg,
		}))
		result.Gates = append(result.Gates, o.gates.ValidateMatchSelection(SelectionPayload{
			Confidence: result.Confidence,
			Reasoning:  fmt.Sprintf("%d/%d items matched, %d high confidence", stats.Matched, stats.TotalItems, stats.HighConfidence),
		}))
	}

	if o.metrics != nil {
		o.metrics.BatchProcessed(result.Statistics)
	}
	if len(result.Errors) == 0 {
		result.Errors = nil
	}
}
