package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/steelhub/parts-matcher/internal/core/domain"
	"github.com/steelhub/parts-matcher/internal/core/ports"
)

// Base scores per query shape.
const (
	baseScoreExactIdentifier   = 1.0
	baseScorePartialIdentifier = 0.8
	baseScoreFullText          = 0.7
	baseScoreDescription       = 0.6
	baseScoreFiltered          = 0.5
)

// Weights of the combined score factors; they sum to 1.0.
const (
	weightIdentifier    = 0.25
	weightDescription   = 0.20
	weightMaterial      = 0.15
	weightKeyword       = 0.10
	weightAvailability  = 0.10
	weightSpecification = 0.10
	weightBase          = 0.10
)

// multiShapeBoost rewards a part surfaced by more than one query shape.
const multiShapeBoost = 0.1

// combinedScoreCeiling bounds the boosted combined score.
const combinedScoreCeiling = 1.3

// CatalogQueryEngine issues the raw query shapes against the catalog store,
// scores every candidate, and merges same-part hits across shapes.
type CatalogQueryEngine struct {
	store   ports.CatalogStore
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewCatalogQueryEngine(store ports.CatalogStore, limiter *rate.Limiter, logger *slog.Logger) *CatalogQueryEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogQueryEngine{
		store:   store,
		limiter: limiter,
		logger:  logger,
	}
}

type rawHit struct {
	part      domain.Part
	matchType string
	baseScore float64
}

// Search runs all query shapes for query, computes each candidate's score
// breakdown, merges duplicates with a boost, applies filters as a post-filter
// pass, and returns candidates sorted by combined score.
func (e *CatalogQueryEngine) Search(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]domain.CandidateMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	hits, err := e.collectHits(ctx, query, filters, limit)
	if err != nil {
		return nil, err
	}

	merged := e.mergeAndScore(query, hits)
	merged = applyFilters(merged, filters)
	e.logger.Debug("catalog_search",
		"query", query,
		"raw_hits", len(hits),
		"candidates", len(merged),
	)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Scores.CombinedScore != merged[j].Scores.CombinedScore {
			return merged[i].Scores.CombinedScore > merged[j].Scores.CombinedScore
		}
		return merged[i].Part.Number < merged[j].Part.Number
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (e *CatalogQueryEngine) collectHits(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]rawHit, error) {
	hits := make([]rawHit, 0, limit*4)

	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	exact, err := e.store.LookupByNumber(ctx, query)
	switch {
	case err == nil && exact != nil:
		hits = append(hits, rawHit{part: *exact, matchType: domain.MatchTypeExactIdentifier, baseScore: baseScoreExactIdentifier})
	case err != nil && !domain.IsKind(err, domain.ErrPartNotFound):
		return nil, fmt.Errorf("lookup by number: %w", err)
	}

	shapes := []struct {
		matchType string
		baseScore float64
		run       func(context.Context) ([]domain.Part, error)
	}{
		{domain.MatchTypePartialIdentifier, baseScorePartialIdentifier, func(ctx context.Context) ([]domain.Part, error) {
			return e.store.SearchByNumberPartial(ctx, query, limit)
		}},
		{domain.MatchTypeFullText, baseScoreFullText, func(ctx context.Context) ([]domain.Part, error) {
			return e.store.SearchFullText(ctx, query, limit)
		}},
		{domain.MatchTypeDescription, baseScoreDescription, func(ctx context.Context) ([]domain.Part, error) {
			return e.store.SearchByDescription(ctx, query, limit)
		}},
	}
	if !filters.IsZero() {
		shapes = append(shapes, struct {
			matchType string
			baseScore float64
			run       func(context.Context) ([]domain.Part, error)
		}{domain.MatchTypeFiltered, baseScoreFiltered, func(ctx context.Context) ([]domain.Part, error) {
			return e.store.SearchFiltered(ctx, query, filters, limit)
		}})
	}

	for _, shape := range shapes {
		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		parts, err := shape.run(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog query %s: %w", shape.matchType, err)
		}
		for _, part := range parts {
			hits = append(hits, rawHit{part: part, matchType: shape.matchType, baseScore: shape.baseScore})
		}
	}
	return hits, nil
}

func (e *CatalogQueryEngine) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("catalog rate limit: %w", err)
	}
	return nil
}

// mergeAndScore builds the candidate map keyed by part number. The first
// occurrence computes the full breakdown; later occurrences of the same part
// only add the multi-shape boost.
func (e *CatalogQueryEngine) mergeAndScore(query string, hits []rawHit) []domain.CandidateMatch {
	byNumber := make(map[string]int, len(hits))
	out := make([]domain.CandidateMatch, 0, len(hits))

	for _, hit := range hits {
		if hit.part.Number == "" {
			continue
		}
		if idx, seen := byNumber[hit.part.Number]; seen {
			boosted := out[idx].Scores.CombinedScore + multiShapeBoost
			out[idx].Scores.CombinedScore = math.Min(boosted, combinedScoreCeiling)
			continue
		}
		candidate := domain.CandidateMatch{
			Part:   hit.part,
			Scores: e.scoreCandidate(query, hit),
		}
		byNumber[hit.part.Number] = len(out)
		out = append(out, candidate)
	}
	return out
}

func (e *CatalogQueryEngine) scoreCandidate(query string, hit rawHit) domain.ScoreBreakdown {
	queryTokens := toTokenSet(query)
	specScore, dimensionMatch := specificationScore(query, hit.part)

	breakdown := domain.ScoreBreakdown{
		IdentifierScore:    identifierScore(query, queryTokens, hit.part.Number),
		DescriptionScore:   tokenOverlap(queryTokens, toTokenSet(hit.part.Description)),
		MaterialScore:      fieldHitScore(queryTokens, hit.part.Material, 0.8),
		KeywordScore:       fieldHitScore(queryTokens, hit.part.Keywords, 0.6),
		AvailabilityScore:  availabilityScore(hit.part.Availability),
		SpecificationScore: specScore,
		BaseScore:          hit.baseScore,
		MatchType:          hit.matchType,
		DimensionMatch:     dimensionMatch,
	}

	breakdown.CombinedScore = weightIdentifier*breakdown.IdentifierScore +
		weightDescription*breakdown.DescriptionScore +
		weightMaterial*breakdown.MaterialScore +
		weightKeyword*breakdown.KeywordScore +
		weightAvailability*breakdown.AvailabilityScore +
		weightSpecification*breakdown.SpecificationScore +
		weightBase*breakdown.BaseScore

	return breakdown
}

func identifierScore(query string, queryTokens map[string]struct{}, number string) float64 {
	if number == "" {
		return 0
	}
	normQuery := normalizeIdentifier(query)
	normNumber := normalizeIdentifier(number)
	switch {
	case normQuery == "":
		return 0
	case normQuery == normNumber:
		return 1.0
	case strings.Contains(normNumber, normQuery):
		return 0.8
	case strings.HasPrefix(normQuery, normNumber):
		return 0.7
	}
	lowerNumber := strings.ToLower(number)
	for token := range queryTokens {
		if strings.Contains(lowerNumber, token) {
			return 0.5
		}
	}
	return 0
}

func fieldHitScore(queryTokens map[string]struct{}, field string, score float64) float64 {
	if field == "" {
		return 0
	}
	lower := strings.ToLower(field)
	for token := range queryTokens {
		if strings.Contains(lower, token) {
			return score
		}
	}
	return 0
}

func availabilityScore(status domain.AvailabilityStatus) float64 {
	switch status {
	case domain.AvailabilityInStock:
		return 1.0
	case domain.AvailabilityLimited:
		return 0.7
	case domain.AvailabilitySpecialOrder:
		return 0.5
	default:
		return 0
	}
}

// specificationScore awards 0.2 per dimensional field whose stored value
// exactly matches a numeric token of the query, and 0.2 per matching numeric
// component of the material grade, clamped to [0,1]. The second return value
// reports whether any dimensional field matched.
func specificationScore(query string, part domain.Part) (float64, bool) {
	numbers := extractNumbers(query)
	if len(numbers) == 0 {
		return 0, false
	}

	score := 0.0
	dimensionMatch := false
	for _, dim := range part.Dimensions() {
		for _, n := range numbers {
			if n == dim {
				score += 0.2
				dimensionMatch = true
				break
			}
		}
	}
	for _, grade := range extractNumbers(part.MaterialGrade) {
		for _, n := range numbers {
			if n == grade {
				score += 0.2
				break
			}
		}
	}
	if score > 1 {
		score = 1
	}
	return score, dimensionMatch
}

// applyFilters excludes candidates failing any set predicate.
func applyFilters(matches []domain.CandidateMatch, filters domain.SearchFilters) []domain.CandidateMatch {
	if filters.IsZero() {
		return matches
	}
	out := matches[:0]
	for _, m := range matches {
		if passesFilters(m.Part, filters) {
			out = append(out, m)
		}
	}
	return out
}

func passesFilters(part domain.Part, filters domain.SearchFilters) bool {
	if filters.Category != "" && !strings.EqualFold(part.Category, filters.Category) {
		return false
	}
	if filters.MaterialContains != "" &&
		!strings.Contains(strings.ToLower(part.Material), strings.ToLower(filters.MaterialContains)) {
		return false
	}
	if filters.Availability != "" && part.Availability != filters.Availability {
		return false
	}
	if filters.InStockOnly && part.Availability != domain.AvailabilityInStock {
		return false
	}
	if filters.MinPrice > 0 && part.ListPrice < filters.MinPrice {
		return false
	}
	if filters.MaxPrice > 0 && part.ListPrice > filters.MaxPrice {
		return false
	}
	return true
}
