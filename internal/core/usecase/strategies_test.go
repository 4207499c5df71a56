package usecase

import (
	"context"
	"reflect"
	"testing"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

func TestStrategyRegistryComplete(t *testing.T) {
	registry := NewStrategyRegistry(testEngine(newFakeCatalog()))

	want := map[string]float64{
		StrategyPartNumber:  1.0,
		StrategyDescription: 0.9,
		StrategyNormalized:  0.8,
		StrategyKeyTerms:    0.7,
		StrategyFuzzy:       0.4,
	}
	if len(registry) != len(want) {
		t.Fatalf("registry has %d strategies, want %d", len(registry), len(want))
	}
	for name, weight := range want {
		s, ok := registry[name]
		if !ok {
			t.Fatalf("strategy %q missing", name)
		}
		if s.Name() != name {
			t.Errorf("strategy %q reports name %q", name, s.Name())
		}
		if s.Weight() != weight {
			t.Errorf("strategy %q weight = %v, want %v", name, s.Weight(), weight)
		}
	}
}

func TestStrategiesEmptyQuery(t *testing.T) {
	store := newFakeCatalog(domain.Part{Number: "X-1", Description: "anything"})
	registry := NewStrategyRegistry(testEngine(store))

	for name, strategy := range registry {
		got, err := strategy.Execute(context.Background(), "  ", domain.SearchFilters{}, 5)
		if err != nil {
			t.Errorf("strategy %q: %v", name, err)
		}
		if got != nil {
			t.Errorf("strategy %q returned %d matches for blank query", name, len(got))
		}
	}
	if store.callCount() != 0 {
		t.Fatalf("store queried %d times for blank queries", store.callCount())
	}
}

func TestNormalizedStrategyNoOpGuard(t *testing.T) {
	store := newFakeCatalog(domain.Part{Number: "SH-100", Description: "stainless steel sheet"})
	strategy := NewStrategyRegistry(testEngine(store))[StrategyNormalized]

	got, err := strategy.Execute(context.Background(), "stainless steel sheet", domain.SearchFilters{}, 5)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for already-normalized query, got %d matches", len(got))
	}
	if store.callCount() != 0 {
		t.Fatalf("store queried %d times despite no-op guard", store.callCount())
	}
}

func TestNormalizedStrategySearchesCleanedText(t *testing.T) {
	store := newFakeCatalog(domain.Part{Number: "SH-100", Description: "stainless steel sheet", Availability: domain.AvailabilityInStock})
	strategy := NewStrategyRegistry(testEngine(store))[StrategyNormalized]

	got, err := strategy.Execute(context.Background(), "Stainless, Steel! Sheet", domain.SearchFilters{}, 5)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 1 || got[0].Part.Number != "SH-100" {
		t.Fatalf("expected SH-100 via normalized text, got %v", got)
	}
}

func TestKeyTermsStrategyDropsNoise(t *testing.T) {
	store := newFakeCatalog(domain.Part{Number: "SH-100", Description: "stainless steel sheet frame kit", Availability: domain.AvailabilityInStock})
	strategy := NewStrategyRegistry(testEngine(store))[StrategyKeyTerms]

	got, err := strategy.Execute(context.Background(), "Need 5 pcs of stainless steel sheet for the frame", domain.SearchFilters{}, 5)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 1 || got[0].Part.Number != "SH-100" {
		t.Fatalf("expected SH-100 via key terms, got %v", got)
	}
}

func TestPhraseWindows(t *testing.T) {
	got := phraseWindows([]string{"stainless", "steel", "sheet"})
	want := []string{
		"stainless", "stainless steel", "stainless steel sheet",
		"steel", "steel sheet",
		"sheet",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("windows = %v, want %v", got, want)
	}
}

func TestFuzzyStrategyPenalizesAndDeduplicates(t *testing.T) {
	store := newFakeCatalog(
		domain.Part{Number: "SH-100", Description: "stainless steel sheet", Availability: domain.AvailabilityInStock},
		domain.Part{Number: "PL-200", Description: "carbon steel plate", Availability: domain.AvailabilityInStock},
	)
	engine := testEngine(store)

	direct, err := engine.Search(context.Background(), "stainless steel sheet", domain.SearchFilters{}, 3)
	if err != nil {
		t.Fatalf("direct search: %v", err)
	}
	if len(direct) == 0 {
		t.Fatal("direct search found nothing")
	}

	strategy := NewStrategyRegistry(engine)[StrategyFuzzy]
	got, err := strategy.Execute(context.Background(), "stainless steel sheet", domain.SearchFilters{}, 5)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("fuzzy search found nothing")
	}

	seen := make(map[string]bool, len(got))
	for _, m := range got {
		if !m.Scores.FuzzyMatch {
			t.Errorf("candidate %s not flagged as fuzzy", m.Part.Number)
		}
		if seen[m.Part.Number] {
			t.Errorf("candidate %s appears twice", m.Part.Number)
		}
		seen[m.Part.Number] = true
	}

	// The best fuzzy score carries the 0.8 penalty relative to the best score
	// the same phrase achieves directly.
	if got[0].Scores.CombinedScore > direct[0].Scores.CombinedScore {
		t.Fatalf("fuzzy score %v exceeds unpenalized score %v",
			got[0].Scores.CombinedScore, direct[0].Scores.CombinedScore)
	}
}

func TestFuzzyStrategyRespectsTopK(t *testing.T) {
	store := newFakeCatalog(
		domain.Part{Number: "B-1", Description: "ball bearing small"},
		domain.Part{Number: "B-2", Description: "ball bearing medium"},
		domain.Part{Number: "B-3", Description: "ball bearing large"},
	)
	strategy := NewStrategyRegistry(testEngine(store))[StrategyFuzzy]

	got, err := strategy.Execute(context.Background(), "sealed ball bearing assembly", domain.SearchFilters{}, 2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) > 2 {
		t.Fatalf("expected at most 2 matches, got %d", len(got))
	}
}
