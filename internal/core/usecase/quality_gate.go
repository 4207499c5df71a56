package usecase

import (
	"fmt"
	"sync"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

// Profile multipliers applied to the STANDARD baseline.
const (
	strictFactor  = 1.15
	lenientFactor = 0.85
)

// Contextual multipliers. Emergency situations accept more uncertainty to
// move fast; regulated or complex work demands more certainty.
const (
	factorUrgencyCritical   = 0.85
	factorUrgencyHigh       = 0.95
	factorContextEmergency  = 0.80
	factorContextRegulatory = 1.15
)

// DefaultThresholds is the STANDARD baseline before profile scaling.
func DefaultThresholds() domain.ThresholdSet {
	return domain.ThresholdSet{
		Extraction:     0.70,
		Search:         0.60,
		MatchSelection: 0.65,
	}
}

// ExtractionPayload is validated after the (external) field extraction stage.
type ExtractionPayload struct {
	Description        string
	Quantity           float64
	SpecificationCount int
}

// SearchPayload is validated after a line item's candidate search.
type SearchPayload struct {
	CandidateCount int
	TopScore       float64
	AverageScore   float64
}

// SelectionPayload is validated when a match is picked for submission.
type SelectionPayload struct {
	Confidence float64
	Reasoning  string
}

// QualityGateManager validates stage payloads against profile-derived
// thresholds. Contextual validation computes an adjusted ThresholdSet per
// call; the mutate-and-restore surface remains for callers that configure a
// long-lived adjustment, and is lock-protected.
type QualityGateManager struct {
	mu       sync.Mutex
	original domain.ThresholdSet
	active   domain.ThresholdSet
}

// NewQualityGateManager derives the working thresholds from the base set and
// the named profile.
func NewQualityGateManager(profile domain.QualityLevel, base domain.ThresholdSet) (*QualityGateManager, error) {
	var thresholds domain.ThresholdSet
	switch profile {
	case domain.QualityStrict:
		thresholds = base.Scale(strictFactor)
	case domain.QualityStandard, "":
		thresholds = base.Scale(1.0)
	case domain.QualityLenient:
		thresholds = base.Scale(lenientFactor)
	default:
		return nil, domain.WrapError(domain.ErrConfiguration, "quality gate manager",
			fmt.Errorf("unknown quality level %q", profile))
	}

	for _, stage := range []domain.Stage{domain.StageExtraction, domain.StageSearch, domain.StageMatchSelection} {
		if t := thresholds.For(stage); t <= 0 || t >= 1 {
			return nil, domain.WrapError(domain.ErrConfiguration, "quality gate manager",
				fmt.Errorf("threshold for %s out of range: %v", stage, t))
		}
	}

	return &QualityGateManager{
		original: thresholds,
		active:   thresholds,
	}, nil
}

// Threshold returns the active threshold for a stage.
func (m *QualityGateManager) Threshold(stage domain.Stage) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.For(stage)
}

// AdjustForContext replaces the active thresholds with a contextually scaled
// copy. RestoreOriginalThresholds reverts the adjustment; callers that use
// this surface must restore before the next unrelated batch.
func (m *QualityGateManager) AdjustForContext(signals domain.ContextSignals) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = thresholdsForContext(m.original, signals)
}

// RestoreOriginalThresholds reverts every stage to its pre-adjustment value.
func (m *QualityGateManager) RestoreOriginalThresholds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = m.original
}

// thresholdsForContext derives an adjusted copy without touching shared
// state, so concurrent contextual validations cannot race.
func thresholdsForContext(base domain.ThresholdSet, signals domain.ContextSignals) domain.ThresholdSet {
	factor := 1.0
	switch signals.Urgency {
	case domain.UrgencyCritical:
		factor *= factorUrgencyCritical
	case domain.UrgencyHigh:
		factor *= factorUrgencyHigh
	}
	switch signals.BusinessContext {
	case domain.ContextEmergency, domain.ContextProductionDown:
		factor *= factorContextEmergency
	case domain.ContextRegulatory, domain.ContextHighComplexity:
		factor *= factorContextRegulatory
	}
	if signals.Complexity == domain.ContextHighComplexity {
		factor *= factorContextRegulatory
	}
	return base.Scale(factor)
}

// ValidateExtraction gates the extraction stage payload.
func (m *QualityGateManager) ValidateExtraction(payload ExtractionPayload) domain.QualityGateResult {
	return m.validateExtractionAt(payload, m.Threshold(domain.StageExtraction))
}

func (m *QualityGateManager) validateExtractionAt(payload ExtractionPayload, threshold float64) domain.QualityGateResult {
	result := domain.QualityGateResult{Stage: domain.StageExtraction, Threshold: threshold}

	switch {
	case len(payload.Description) >= 10:
		result.Score += 0.4
	case len(payload.Description) >= 3:
		result.Score += 0.2
		result.Warnings = append(result.Warnings, "description is very short")
	default:
		result.Issues = append(result.Issues, "description missing or unusable")
	}

	if payload.Quantity > 0 {
		result.Score += 0.3
	} else {
		result.Issues = append(result.Issues, "quantity not extracted")
		result.Recommendations = append(result.Recommendations, "re-run extraction with quantity prompt")
	}

	specRichness := float64(payload.SpecificationCount) / 3.0
	if specRichness > 1 {
		specRichness = 1
	}
	result.Score += 0.3 * specRichness
	if payload.SpecificationCount == 0 {
		result.Warnings = append(result.Warnings, "no specifications extracted")
	}

	result.Passed = result.Score >= threshold
	return result
}

// ValidateSearch gates one line item's candidate search outcome.
func (m *QualityGateManager) ValidateSearch(payload SearchPayload) domain.QualityGateResult {
	return m.validateSearchAt(payload, m.Threshold(domain.StageSearch))
}

func (m *QualityGateManager) validateSearchAt(payload SearchPayload, threshold float64) domain.QualityGateResult {
	result := domain.QualityGateResult{Stage: domain.StageSearch, Threshold: threshold}

	if payload.CandidateCount == 0 {
		result.Issues = append(result.Issues, "no candidates found")
		result.Recommendations = append(result.Recommendations, "broaden search terms or run fuzzy fallback")
		result.Passed = false
		return result
	}

	countScore := float64(payload.CandidateCount) / 5.0
	if countScore > 1 {
		countScore = 1
	}
	topScore := payload.TopScore
	if topScore > 1 {
		topScore = 1
	}
	result.Score = 0.5*countScore + 0.5*topScore

	if payload.TopScore < 0.5 {
		result.Warnings = append(result.Warnings, "best candidate is low confidence")
	}
	if payload.AverageScore > 0 && payload.TopScore-payload.AverageScore < 0.05 && payload.CandidateCount > 1 {
		result.Warnings = append(result.Warnings, "candidates are not well separated")
	}

	result.Passed = result.Score >= threshold
	return result
}

// ValidateMatchSelection gates the final match pick.
func (m *QualityGateManager) ValidateMatchSelection(payload SelectionPayload) domain.QualityGateResult {
	return m.validateSelectionAt(payload, m.Threshold(domain.StageMatchSelection))
}

func (m *QualityGateManager) validateSelectionAt(payload SelectionPayload, threshold float64) domain.QualityGateResult {
	result := domain.QualityGateResult{Stage: domain.StageMatchSelection, Threshold: threshold}

	confidence := payload.Confidence
	if confidence > 1 {
		confidence = 1
	}
	result.Score = 0.7 * confidence
	if payload.Reasoning != "" {
		result.Score += 0.3
	} else {
		result.Warnings = append(result.Warnings, "selection has no reasoning attached")
	}

	if payload.Confidence < 0.3 {
		result.Issues = append(result.Issues, "selection confidence is very low")
		result.Recommendations = append(result.Recommendations, "escalate to manual review")
	}

	result.Passed = result.Score >= threshold
	return result
}

// ValidateWithContext validates a stage payload against thresholds adjusted
// for the given signals. The adjustment is call-local; shared thresholds are
// not mutated.
func (m *QualityGateManager) ValidateWithContext(stage domain.Stage, payload any, signals domain.ContextSignals) (domain.QualityGateResult, error) {
	m.mu.Lock()
	adjusted := thresholdsForContext(m.original, signals)
	m.mu.Unlock()

	switch stage {
	case domain.StageExtraction:
		p, ok := payload.(ExtractionPayload)
		if !ok {
			return domain.QualityGateResult{}, domain.WrapError(domain.ErrInvalidInput, "validate with context",
				fmt.Errorf("stage %s expects ExtractionPayload", stage))
		}
		return m.validateExtractionAt(p, adjusted.For(stage)), nil
	case domain.StageSearch:
		p, ok := payload.(SearchPayload)
		if !ok {
			return domain.QualityGateResult{}, domain.WrapError(domain.ErrInvalidInput, "validate with context",
				fmt.Errorf("stage %s expects SearchPayload", stage))
		}
		return m.validateSearchAt(p, adjusted.For(stage)), nil
	case domain.StageMatchSelection:
		p, ok := payload.(SelectionPayload)
		if !ok {
			return domain.QualityGateResult{}, domain.WrapError(domain.ErrInvalidInput, "validate with context",
				fmt.Errorf("stage %s expects SelectionPayload", stage))
		}
		return m.validateSelectionAt(p, adjusted.For(stage)), nil
	default:
		return domain.QualityGateResult{}, domain.WrapError(domain.ErrInvalidInput, "validate with context",
			fmt.Errorf("unknown stage %q", stage))
	}
}
