package usecase

import (
	"sort"
	"strings"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// MatchProcessor deduplicates, ranks, caps, and explains merged strategy
// output for one line item.
type MatchProcessor struct{}

func NewMatchProcessor() *MatchProcessor {
	return &MatchProcessor{}
}

// Deduplicate keeps the highest-weighted entry per part number. Candidates
// without a part number are dropped.
func (p *MatchProcessor) Deduplicate(matches []domain.CandidateMatch) []domain.CandidateMatch {
	best := make(map[string]int, len(matches))
	out := make([]domain.CandidateMatch, 0, len(matches))

	for _, m := range matches {
		if m.Part.Number == "" {
			continue
		}
		if idx, seen := best[m.Part.Number]; seen {
			if m.WeightedScore > out[idx].WeightedScore {
				out[idx] = m
			}
			continue
		}
		best[m.Part.Number] = len(out)
		out = append(out, m)
	}
	return out
}

// SortAndLimit orders matches by weighted score descending and truncates to
// maxN (default 5 when maxN <= 0).
func (p *MatchProcessor) SortAndLimit(matches []domain.CandidateMatch, maxN int) []domain.CandidateMatch {
	if maxN <= 0 {
		maxN = 5
	}
	out := make([]domain.CandidateMatch, len(matches))
	copy(out, matches)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WeightedScore != out[j].WeightedScore {
			return out[i].WeightedScore > out[j].WeightedScore
		}
		return out[i].Part.Number < out[j].Part.Number
	})
	if len(out) > maxN {
		out = out[:maxN]
	}
	return out
}

var strategyPhrases = map[string]string{
	StrategyPartNumber:  "Matched by part number",
	StrategyDescription: "Matched by description",
	StrategyNormalized:  "Matched by normalized description",
	StrategyKeyTerms:    "Matched by key terms",
	StrategyFuzzy:       "Fuzzy match on partial terms",
}

// Explain builds the human-readable explanation for one match: strategy
// phrase, confidence band, and material/dimension agreement, joined by " - ".
func (p *MatchProcessor) Explain(item domain.LineItem, match domain.CandidateMatch) string {
	parts := make([]string, 0, 4)

	phrase, ok := strategyPhrases[match.Strategy]
	if !ok {
		phrase = "Matched using " + match.Strategy
	}
	parts = append(parts, phrase)
	parts = append(parts, confidenceBand(match.Scores.CombinedScore))

	if item.MaterialHint != "" &&
		strings.Contains(strings.ToLower(match.Part.Material), strings.ToLower(item.MaterialHint)) {
		parts = append(parts, "Material matches request")
	}
	if match.Scores.DimensionMatch {
		parts = append(parts, "Dimensions match specifications")
	}
	return strings.Join(parts, " - ")
}

func confidenceBand(score float64) string {
	switch {
	case score >= 0.9:
		return "Very high confidence match"
	case score >= 0.7:
		return "High confidence match"
	case score >= 0.5:
		return "Moderate confidence match"
	default:
		return "Low confidence match"
	}
}

// Quality summarizes a result list's weighted scores.
func (p *MatchProcessor) Quality(matches []domain.CandidateMatch) domain.MatchQuality {
	if len(matches) == 0 {
		return domain.MatchQuality{Label: domain.QualityNoMatch}
	}

	sum := 0.0
	best := 0.0
	for _, m := range matches {
		sum += m.WeightedScore
		if m.WeightedScore > best {
			best = m.WeightedScore
		}
	}
	avg := sum / float64(len(matches))

	label := domain.QualityPoor
	switch {
	case avg >= 0.8:
		label = domain.QualityExcellent
	case avg >= 0.6:
		label = domain.QualityGood
	case avg >= 0.4:
		label = domain.QualityFair
	}

	return domain.MatchQuality{
		AverageScore: avg,
		BestScore:    best,
		Label:        label,
	}
}
