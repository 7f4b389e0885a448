package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the documented defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Comparison.NumNeighbors != 8 {
		t.Errorf("Expected default connectivity 8, got %d", cfg.Comparison.NumNeighbors)
	}
	if cfg.Comparison.Empty {
		t.Error("Expected the empty-reference flag to default to false")
	}
	if cfg.Params.Beta != 1 {
		t.Errorf("Expected default beta 1, got %f", cfg.Params.Beta)
	}
	if cfg.Params.HDPercentile != 95 {
		t.Errorf("Expected default percentile 95, got %f", cfg.Params.HDPercentile)
	}
	if cfg.Params.BinsECE != 10 {
		t.Errorf("Expected default 10 calibration bins, got %d", cfg.Params.BinsECE)
	}
	if cfg.Sweep.MaxThresholds != 1500 || cfg.Sweep.MaxSamples != 150 {
		t.Errorf("Expected sweep caps 1500/150, got %d/%d",
			cfg.Sweep.MaxThresholds, cfg.Sweep.MaxSamples)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected the default config to validate, got %v", err)
	}
}

// TestSpacingFor verifies the lazy unit-spacing fallback
func TestSpacingFor(t *testing.T) {
	cfg := DefaultConfig()

	spacing := cfg.SpacingFor(3)
	if len(spacing) != 3 {
		t.Fatalf("Expected 3 spacing entries, got %d", len(spacing))
	}
	for _, s := range spacing {
		if s != 1 {
			t.Errorf("Expected unit spacing, got %f", s)
		}
	}

	cfg.Comparison.PixDim = []float64{0.5, 0.5, 2}
	spacing = cfg.SpacingFor(3)
	if spacing[2] != 2 {
		t.Errorf("Expected configured spacing to win, got %v", spacing)
	}
}

// TestValidate verifies the rejection of unusable option values
func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Params.BinsECE = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected zero calibration bins to be rejected")
	}

	cfg = DefaultConfig()
	cfg.Params.HDPercentile = 150
	if err := cfg.Validate(); err == nil {
		t.Error("Expected an out-of-range percentile to be rejected")
	}

	cfg = DefaultConfig()
	cfg.Sweep.MaxSamples = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected a zero sweep cap to be rejected")
	}

	cfg = DefaultConfig()
	cfg.Params.BenefitProba = 1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected a degenerate benefit threshold to be rejected")
	}
}

// TestLoadConfigMissing verifies a missing file falls back to defaults
func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got %v", err)
	}
	if cfg.Comparison.NumNeighbors != 8 {
		t.Errorf("Expected default config, got connectivity %d", cfg.Comparison.NumNeighbors)
	}
}

// TestSaveAndLoadConfig verifies the YAML round trip
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "segmeasures.yaml")

	cfg := DefaultConfig()
	cfg.Comparison.NumNeighbors = 26
	cfg.Comparison.PixDim = []float64{0.5, 0.5, 2}
	cfg.Params.Tau = 2.5
	cfg.Params.HDPercentile = 90

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Comparison.NumNeighbors != 26 {
		t.Errorf("Expected connectivity 26 after round trip, got %d", loaded.Comparison.NumNeighbors)
	}
	if len(loaded.Comparison.PixDim) != 3 || loaded.Comparison.PixDim[2] != 2 {
		t.Errorf("Expected spacing to survive the round trip, got %v", loaded.Comparison.PixDim)
	}
	if loaded.Params.Tau != 2.5 {
		t.Errorf("Expected tau 2.5 after round trip, got %f", loaded.Params.Tau)
	}
	if loaded.Params.HDPercentile != 90 {
		t.Errorf("Expected percentile 90 after round trip, got %f", loaded.Params.HDPercentile)
	}
	// Untouched options keep their defaults.
	if loaded.Sweep.MaxThresholds != 1500 {
		t.Errorf("Expected default sweep cap after round trip, got %d", loaded.Sweep.MaxThresholds)
	}
}

// TestLoadConfigInvalid verifies a config failing validation is rejected
func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("params:\n  binsECE: 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an invalid config file to be rejected")
	}
}
