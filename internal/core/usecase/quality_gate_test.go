package usecase

import (
	"math"
	"testing"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

func mustGates(t *testing.T, profile domain.QualityLevel) *QualityGateManager {
	t.Helper()
	gates, err := NewQualityGateManager(profile, DefaultThresholds())
	if err != nil {
		t.Fatalf("NewQualityGateManager(%s): %v", profile, err)
	}
	return gates
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProfileScaling(t *testing.T) {
	tests := []struct {
		profile        domain.QualityLevel
		wantExtraction float64
	}{
		{domain.QualityStandard, 0.70},
		{domain.QualityStrict, 0.70 * 1.15},
		{domain.QualityLenient, 0.70 * 0.85},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			gates := mustGates(t, tt.profile)
			if got := gates.Threshold(domain.StageExtraction); !almostEqual(got, tt.wantExtraction) {
				t.Fatalf("extraction threshold = %v, want %v", got, tt.wantExtraction)
			}
		})
	}
}

func TestUnknownProfileRejected(t *testing.T) {
	_, err := NewQualityGateManager("RELAXED", DefaultThresholds())
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAdjustAndRestore(t *testing.T) {
	gates := mustGates(t, domain.QualityStandard)
	before := gates.Threshold(domain.StageSearch)

	gates.AdjustForContext(domain.ContextSignals{Urgency: domain.UrgencyCritical})
	adjusted := gates.Threshold(domain.StageSearch)
	if !almostEqual(adjusted, before*0.85) {
		t.Fatalf("adjusted threshold = %v, want %v", adjusted, before*0.85)
	}

	gates.RestoreOriginalThresholds()
	if got := gates.Threshold(domain.StageSearch); !almostEqual(got, before) {
		t.Fatalf("restore did not revert: %v, want %v", got, before)
	}
}

func TestContextualFactorsCompoundAndClamp(t *testing.T) {
	base := domain.ThresholdSet{Extraction: 0.90, Search: 0.90, MatchSelection: 0.90}
	adjusted := thresholdsForContext(base, domain.ContextSignals{
		BusinessContext: domain.ContextRegulatory,
		Complexity:      domain.ContextHighComplexity,
	})
	// 0.90 * 1.15 * 1.15 exceeds the ceiling.
	if adjusted.Extraction != 0.99 {
		t.Fatalf("extraction threshold = %v, want clamp at 0.99", adjusted.Extraction)
	}

	low := thresholdsForContext(domain.ThresholdSet{Extraction: 0.06, Search: 0.06, MatchSelection: 0.06},
		domain.ContextSignals{Urgency: domain.UrgencyCritical, BusinessContext: domain.ContextProductionDown})
	if low.Search != 0.05 {
		t.Fatalf("search threshold = %v, want clamp at 0.05", low.Search)
	}
}

func TestValidateExtraction(t *testing.T) {
	gates := mustGates(t, domain.QualityStandard)

	tests := []struct {
		name       string
		payload    ExtractionPayload
		wantPassed bool
	}{
		{
			name:       "complete extraction",
			payload:    ExtractionPayload{Description: "stainless steel sheet 304", Quantity: 5, SpecificationCount: 3},
			wantPassed: true,
		},
		{
			name:       "missing quantity",
			payload:    ExtractionPayload{Description: "stainless steel sheet 304", SpecificationCount: 3},
			wantPassed: true, // 0.4 + 0.3 spec richness == 0.70
		},
		{
			name:       "short description no specs",
			payload:    ExtractionPayload{Description: "bolt", Quantity: 2},
			wantPassed: false,
		},
		{
			name:       "empty extraction",
			payload:    ExtractionPayload{},
			wantPassed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := gates.ValidateExtraction(tt.payload)
			if result.Passed != tt.wantPassed {
				t.Fatalf("passed = %v (score %v, threshold %v), want %v",
					result.Passed, result.Score, result.Threshold, tt.wantPassed)
			}
			if result.Stage != domain.StageExtraction {
				t.Fatalf("stage = %s", result.Stage)
			}
		})
	}
}

func TestValidateSearchFailsFastWithoutCandidates(t *testing.T) {
	gates := mustGates(t, domain.QualityStandard)

	result := gates.ValidateSearch(SearchPayload{CandidateCount: 0})
	if result.Passed {
		t.Fatal("expected failure with zero candidates")
	}
	if len(result.Issues) == 0 || len(result.Recommendations) == 0 {
		t.Fatalf("expected issues and recommendations, got %v / %v", result.Issues, result.Recommendations)
	}
}

func TestValidateSearchScoring(t *testing.T) {
	gates := mustGates(t, domain.QualityStandard)

	result := gates.ValidateSearch(SearchPayload{CandidateCount: 5, TopScore: 0.9, AverageScore: 0.6})
	if !result.Passed {
		t.Fatalf("expected pass, score %v against %v", result.Score, result.Threshold)
	}
	if !almostEqual(result.Score, 0.5+0.5*0.9) {
		t.Fatalf("score = %v, want %v", result.Score, 0.5+0.5*0.9)
	}
}

func TestValidateMatchSelection(t *testing.T) {
	gates := mustGates(t, domain.QualityStandard)

	pass := gates.ValidateMatchSelection(SelectionPayload{Confidence: 0.8, Reasoning: "3/3 items matched"})
	if !pass.Passed {
		t.Fatalf("expected pass, score %v", pass.Score)
	}

	fail := gates.ValidateMatchSelection(SelectionPayload{Confidence: 0.2})
	if fail.Passed {
		t.Fatalf("expected failure, score %v", fail.Score)
	}
	if len(fail.Issues) == 0 {
		t.Fatal("expected low-confidence issue")
	}
}

func TestValidateWithContextIsCallLocal(t *testing.T) {
	gates := mustGates(t, domain.QualityStandard)
	payload := SearchPayload{CandidateCount: 3, TopScore: 0.55, AverageScore: 0.40}

	// 0.5*0.6 + 0.5*0.55 = 0.575: below the standard 0.60 search threshold.
	if normal := gates.ValidateSearch(payload); normal.Passed {
		t.Fatalf("expected failure at standard threshold, score %v", normal.Score)
	}

	relaxed, err := gates.ValidateWithContext(domain.StageSearch, payload,
		domain.ContextSignals{BusinessContext: domain.ContextEmergency})
	if err != nil {
		t.Fatalf("ValidateWithContext: %v", err)
	}
	if !relaxed.Passed {
		t.Fatalf("expected pass at emergency threshold %v, score %v", relaxed.Threshold, relaxed.Score)
	}

	// Shared thresholds are untouched.
	if got := gates.Threshold(domain.StageSearch); !almostEqual(got, 0.60) {
		t.Fatalf("shared threshold mutated: %v", got)
	}
}

func TestValidateWithContextRejectsWrongPayload(t *testing.T) {
	gates := mustGates(t, domain.QualityStandard)

	_, err := gates.ValidateWithContext(domain.StageSearch, ExtractionPayload{}, domain.ContextSignals{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}

	_, err = gates.ValidateWithContext("review", SearchPayload{}, domain.ContextSignals{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error for unknown stage, got %v", err)
	}
}
