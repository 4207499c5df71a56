package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steelhub/parts-matcher/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
	if cfg.NATSSubject != "orders.match" {
		t.Errorf("NATSSubject = %q", cfg.NATSSubject)
	}
	if cfg.MaxMatchesPerItem != 5 || cfg.MaxConcurrentTasks != 4 {
		t.Errorf("unexpected matching defaults: %+v", cfg)
	}
	if cfg.BatchTimeout != 60*time.Second {
		t.Errorf("BatchTimeout = %v", cfg.BatchTimeout)
	}
	if cfg.QualityLevel != domain.QualityStandard {
		t.Errorf("QualityLevel = %q", cfg.QualityLevel)
	}
	if cfg.QualityThresholds.Extraction != 0.70 ||
		cfg.QualityThresholds.Search != 0.60 ||
		cfg.QualityThresholds.MatchSelection != 0.65 {
		t.Errorf("unexpected threshold defaults: %+v", cfg.QualityThresholds)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MAX_MATCHES_PER_ITEM", "3")
	t.Setenv("FUZZY_FALLBACK_THRESHOLD", "0.45")
	t.Setenv("QUALITY_LEVEL", "STRICT")

	cfg := Load()
	if cfg.MaxMatchesPerItem != 3 {
		t.Errorf("MaxMatchesPerItem = %d", cfg.MaxMatchesPerItem)
	}
	if cfg.FuzzyFallbackThreshold != 0.45 {
		t.Errorf("FuzzyFallbackThreshold = %v", cfg.FuzzyFallbackThreshold)
	}
	if cfg.QualityLevel != domain.QualityStrict {
		t.Errorf("QualityLevel = %q", cfg.QualityLevel)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max matches", func(c *Config) { c.MaxMatchesPerItem = 0 }},
		{"min confidence above one", func(c *Config) { c.MinConfidenceThreshold = 1.5 }},
		{"negative fallback threshold", func(c *Config) { c.FuzzyFallbackThreshold = -0.1 }},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentTasks = 0 }},
		{"zero query rate", func(c *Config) { c.CatalogQueriesPerSecond = 0 }},
		{"unknown quality level", func(c *Config) { c.QualityLevel = "RELAXED" }},
		{"threshold at one", func(c *Config) { c.QualityThresholds.Search = 1.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !domain.IsKind(err, domain.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestLoadThresholdsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	content := "extraction: 0.75\nsearch: 0.55\nmatch_selection: 0.68\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write thresholds file: %v", err)
	}

	cfg := Load()
	cfg.ThresholdsFilePath = path
	if err := cfg.LoadThresholdsFile(); err != nil {
		t.Fatalf("LoadThresholdsFile() error = %v", err)
	}
	want := domain.ThresholdSet{Extraction: 0.75, Search: 0.55, MatchSelection: 0.68}
	if cfg.QualityThresholds != want {
		t.Fatalf("thresholds = %+v, want %+v", cfg.QualityThresholds, want)
	}
}

func TestLoadThresholdsFileMissing(t *testing.T) {
	cfg := Load()
	cfg.ThresholdsFilePath = filepath.Join(t.TempDir(), "absent.yaml")

	if err := cfg.LoadThresholdsFile(); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
