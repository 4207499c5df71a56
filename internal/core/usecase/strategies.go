package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// Strategy names. The registry and the explanation text key off these.
const (
	StrategyPartNumber  = "part_number"
	StrategyDescription = "description"
	StrategyNormalized  = "normalized_description"
	StrategyKeyTerms    = "key_terms"
	StrategyFuzzy       = "fuzzy"
)

// Fixed strategy weights.
var strategyWeights = map[string]float64{
	StrategyPartNumber:  1.0,
	StrategyDescription: 0.9,
	StrategyNormalized:  0.8,
	StrategyKeyTerms:    0.7,
	StrategyFuzzy:       0.4,
}

// fuzzyPenalty is applied to every fuzzy phrase hit on top of the strategy weight.
const fuzzyPenalty = 0.8

// fuzzyPhraseTopK bounds each individual phrase query.
const fuzzyPhraseTopK = 3

// Strategy is one retrieval policy. Execute returns unweighted candidates;
// the runner applies the weight. An empty or whitespace query yields no
// matches and no error.
type Strategy interface {
	Name() string
	Weight() float64
	Execute(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.CandidateMatch, error)
}

// NewStrategyRegistry builds the closed set of strategies dispatched by name.
func NewStrategyRegistry(engine *CatalogQueryEngine) map[string]Strategy {
	return map[string]Strategy{
		StrategyPartNumber:  &partNumberStrategy{engine: engine},
		StrategyDescription: &descriptionStrategy{engine: engine},
		StrategyNormalized:  &normalizedDescriptionStrategy{engine: engine},
		StrategyKeyTerms:    &keyTermsStrategy{engine: engine},
		StrategyFuzzy:       &fuzzyStrategy{engine: engine},
	}
}

type partNumberStrategy struct {
	engine *CatalogQueryEngine
}

func (s *partNumberStrategy) Name() string    { return StrategyPartNumber }
func (s *partNumberStrategy) Weight() float64 { return strategyWeights[StrategyPartNumber] }

func (s *partNumberStrategy) Execute(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.CandidateMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return s.engine.Search(ctx, query, filters, topK)
}

type descriptionStrategy struct {
	engine *CatalogQueryEngine
}

func (s *descriptionStrategy) Name() string    { return StrategyDescription }
func (s *descriptionStrategy) Weight() float64 { return strategyWeights[StrategyDescription] }

func (s *descriptionStrategy) Execute(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.CandidateMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return s.engine.Search(ctx, query, filters, topK)
}

type normalizedDescriptionStrategy struct {
	engine *CatalogQueryEngine
}

func (s *normalizedDescriptionStrategy) Name() string    { return StrategyNormalized }
func (s *normalizedDescriptionStrategy) Weight() float64 { return strategyWeights[StrategyNormalized] }

func (s *normalizedDescriptionStrategy) Execute(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.CandidateMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	normalized := normalizeText(query)
	// No-op guard: identical text would duplicate the description strategy.
	if normalized == "" || normalized == query {
		return nil, nil
	}
	return s.engine.Search(ctx, normalized, filters, topK)
}

type keyTermsStrategy struct {
	engine *CatalogQueryEngine
}

func (s *keyTermsStrategy) Name() string    { return StrategyKeyTerms }
func (s *keyTermsStrategy) Weight() float64 { return strategyWeights[StrategyKeyTerms] }

func (s *keyTermsStrategy) Execute(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.CandidateMatch, error) {
	terms := extractKeyTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	return s.engine.Search(ctx, strings.Join(terms, " "), filters, topK)
}

type fuzzyStrategy struct {
	engine *CatalogQueryEngine
}

func (s *fuzzyStrategy) Name() string    { return StrategyFuzzy }
func (s *fuzzyStrategy) Weight() float64 { return strategyWeights[StrategyFuzzy] }

// Execute queries the catalog for every contiguous phrase of up to three
// significant tokens, penalizes each hit, and merges the phrase results.
func (s *fuzzyStrategy) Execute(ctx context.Context, query string, filters domain.SearchFilters, topK int) ([]domain.CandidateMatch, error) {
	tokens := significantTokens(splitAlphaNumLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	best := make(map[string]domain.CandidateMatch, topK*2)
	for _, phrase := range phraseWindows(tokens) {
		hits, err := s.engine.Search(ctx, phrase, filters, fuzzyPhraseTopK)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			hit.Scores.CombinedScore *= fuzzyPenalty
			hit.Scores.FuzzyMatch = true
			if prev, seen := best[hit.Part.Number]; !seen || hit.Scores.CombinedScore > prev.Scores.CombinedScore {
				best[hit.Part.Number] = hit
			}
		}
	}

	out := make([]domain.CandidateMatch, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scores.CombinedScore != out[j].Scores.CombinedScore {
			return out[i].Scores.CombinedScore > out[j].Scores.CombinedScore
		}
		return out[i].Part.Number < out[j].Part.Number
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// phraseWindows yields every contiguous window of one to three tokens,
// preserving order: "steel", "steel sheet", "steel sheet 304", ...
func phraseWindows(tokens []string) []string {
	out := make([]string, 0, len(tokens)*3)
	for i := range tokens {
		for width := 1; width <= 3 && i+width <= len(tokens); width++ {
			out = append(out, strings.Join(tokens[i:i+width], " "))
		}
	}
	return out
}
