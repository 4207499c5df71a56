package domain

// Stage identifies a validated pipeline stage.
type Stage string

const (
	StageExtraction     Stage = "extraction"
	StageSearch         Stage = "search"
	StageMatchSelection Stage = "match_selection"
)

// QualityLevel is the named profile the base thresholds are derived from.
type QualityLevel string

const (
	QualityStrict   QualityLevel = "STRICT"
	QualityStandard QualityLevel = "STANDARD"
	QualityLenient  QualityLevel = "LENIENT"
)

// ThresholdSet holds the acceptance threshold per pipeline stage.
// Value semantics: adjusted sets are derived copies, never shared state.
type ThresholdSet struct {
	Extraction     float64 `yaml:"extraction" json:"extraction"`
	Search         float64 `yaml:"search" json:"search"`
	MatchSelection float64 `yaml:"match_selection" json:"match_selection"`
}

// For returns the threshold for one stage.
func (t ThresholdSet) For(stage Stage) float64 {
	switch stage {
	case StageExtraction:
		return t.Extraction
	case StageSearch:
		return t.Search
	case StageMatchSelection:
		return t.MatchSelection
	default:
		return 0
	}
}

// Scale returns a copy with every stage threshold multiplied by factor and
// clamped to [0.05, 0.99].
func (t ThresholdSet) Scale(factor float64) ThresholdSet {
	clamp := func(v float64) float64 {
		v *= factor
		if v < 0.05 {
			return 0.05
		}
		if v > 0.99 {
			return 0.99
		}
		return v
	}
	return ThresholdSet{
		Extraction:     clamp(t.Extraction),
		Search:         clamp(t.Search),
		MatchSelection: clamp(t.MatchSelection),
	}
}

// ContextSignals are the business signals that temporarily tighten or loosen
// quality thresholds for one validation call.
type ContextSignals struct {
	Urgency         string `json:"urgency,omitempty"`
	BusinessContext string `json:"business_context,omitempty"`
	Complexity      string `json:"complexity,omitempty"`
}

// Business-context signal values recognized by the quality gates.
const (
	ContextEmergency      = "emergency"
	ContextProductionDown = "production_down"
	ContextRegulatory     = "regulatory"
	ContextHighComplexity = "high_complexity"
)

// QualityGateResult is the outcome of one gate validation. Created fresh per
// call and never mutated afterwards.
type QualityGateResult struct {
	Stage           Stage    `json:"stage"`
	Passed          bool     `json:"passed"`
	Score           float64  `json:"score"`
	Threshold       float64  `json:"threshold"`
	Issues          []string `json:"issues,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}
