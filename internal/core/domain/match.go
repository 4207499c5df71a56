package domain

// Match types assigned by the catalog query engine per query shape.
const (
	MatchTypeExactIdentifier   = "exact_identifier"
	MatchTypePartialIdentifier = "partial_identifier"
	MatchTypeFullText          = "full_text"
	MatchTypeDescription       = "description"
	MatchTypeFiltered          = "filtered"
)

// ScoreBreakdown carries the per-factor sub-scores behind a candidate's
// combined score. Sub-scores are each in [0,1]; CombinedScore can exceed 1.0
// (up to ~1.3) when a part is found by several independent query shapes.
type ScoreBreakdown struct {
	IdentifierScore    float64 `json:"identifier_score"`
	DescriptionScore   float64 `json:"description_score"`
	MaterialScore      float64 `json:"material_score"`
	KeywordScore       float64 `json:"keyword_score"`
	AvailabilityScore  float64 `json:"availability_score"`
	SpecificationScore float64 `json:"specification_score"`
	BaseScore          float64 `json:"base_score"`
	CombinedScore      float64 `json:"combined_score"`

	MatchType      string `json:"match_type"`
	DimensionMatch bool   `json:"dimension_match,omitempty"`
	FuzzyMatch     bool   `json:"fuzzy_match,omitempty"`
}

// CandidateMatch is one ranked catalog candidate for a line item.
// WeightedScore is CombinedScore multiplied by the strategy weight; it is the
// score candidates are deduplicated, sorted and gated on.
type CandidateMatch struct {
	Part          Part           `json:"part"`
	Scores        ScoreBreakdown `json:"scores"`
	Strategy      string         `json:"search_strategy"`
	WeightedScore float64        `json:"weighted_score"`
	Explanation   string         `json:"match_explanation,omitempty"`
}

// MatchQuality aggregates a line item's result list.
type MatchQuality struct {
	AverageScore float64 `json:"average_score"`
	BestScore    float64 `json:"best_score"`
	Label        string  `json:"label"`
}

// Quality labels.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
	QualityNoMatch   = "no_match"
)
