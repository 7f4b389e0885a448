// Package config provides configuration loading and management for the
// measure engines. It handles loading configuration from YAML files and
// provides the documented default for every recognized option.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every recognized comparison option. Callers construct one
// (or load it from YAML), optionally override fields, and pass it to the
// comparison constructors; it is never mutated by the engines.
type Config struct {
	// Comparison parameters shared by both engines
	Comparison struct {
		// NumNeighbors selects the component/border connectivity:
		// 4 or 8 in 2D, 6 or 26 in 3D
		NumNeighbors int `yaml:"numNeighbors"`

		// PixDim is the physical spacing per axis in mm, used to convert
		// voxel distances to physical distances
		PixDim []float64 `yaml:"pixdim"`

		// Empty flags a known-empty reference; precision-family metrics
		// then return the sentinel value -1 instead of NaN
		Empty bool `yaml:"empty"`
	} `yaml:"comparison"`

	// Metric-specific parameters
	Params struct {
		// Beta is the F-beta weight
		Beta float64 `yaml:"beta"`

		// Tau is the normalised-surface-distance tolerance in mm
		Tau float64 `yaml:"tau"`

		// HDPercentile is the percentile for the percentile Hausdorff
		// distance
		HDPercentile float64 `yaml:"hdPercentile"`

		// BinsECE is the number of equal-width probability bins used by
		// the calibration error
		BinsECE int `yaml:"binsECE"`

		// ValueSensitivity is the operating target for the @sens queries
		ValueSensitivity float64 `yaml:"valueSensitivity"`

		// ValueSpecificity is the operating target for sens@spec
		ValueSpecificity float64 `yaml:"valueSpecificity"`

		// ValuePPV is the operating target for sens@ppv
		ValuePPV float64 `yaml:"valuePPV"`

		// ValueFPPI is the operating target for sens@fppi
		ValueFPPI float64 `yaml:"valueFPPI"`

		// BenefitProba is the decision threshold for the net-benefit
		// measure
		BenefitProba float64 `yaml:"benefitProba"`
	} `yaml:"params"`

	// Threshold-sweep cost bounds
	Sweep struct {
		// MaxThresholds caps the number of distinct probability values
		// swept before thresholds are coalesced
		MaxThresholds int `yaml:"maxThresholds"`

		// MaxSamples is the reference sample cap controlling the
		// coalesced bin size
		MaxSamples int `yaml:"maxSamples"`
	} `yaml:"sweep"`
}

// DefaultConfig returns a configuration with the documented defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Comparison defaults: 8-connectivity, unit spacing filled in lazily
	// from the grid rank when PixDim is left empty.
	cfg.Comparison.NumNeighbors = 8
	cfg.Comparison.PixDim = nil
	cfg.Comparison.Empty = false

	cfg.Params.Beta = 1
	cfg.Params.Tau = 1
	cfg.Params.HDPercentile = 95
	cfg.Params.BinsECE = 10
	cfg.Params.ValueSensitivity = 0.8
	cfg.Params.ValueSpecificity = 0.8
	cfg.Params.ValuePPV = 0.8
	cfg.Params.ValueFPPI = 0.8
	cfg.Params.BenefitProba = 0.5

	cfg.Sweep.MaxThresholds = 1500
	cfg.Sweep.MaxSamples = 150

	return cfg
}

// SpacingFor returns the physical spacing vector for a grid rank: the
// configured PixDim when set, unit spacing otherwise.
func (cfg *Config) SpacingFor(rank int) []float64 {
	if len(cfg.Comparison.PixDim) > 0 {
		return cfg.Comparison.PixDim
	}
	spacing := make([]float64, rank)
	for i := range spacing {
		spacing[i] = 1
	}
	return spacing
}

// Validate rejects option values no engine can honor.
func (cfg *Config) Validate() error {
	if cfg.Params.BinsECE < 1 {
		return fmt.Errorf("binsECE must be at least 1, got %d", cfg.Params.BinsECE)
	}
	if cfg.Params.HDPercentile < 0 || cfg.Params.HDPercentile > 100 {
		return fmt.Errorf("hdPercentile must be within [0,100], got %f", cfg.Params.HDPercentile)
	}
	if cfg.Sweep.MaxThresholds < 1 || cfg.Sweep.MaxSamples < 1 {
		return fmt.Errorf("sweep caps must be positive, got maxThresholds=%d maxSamples=%d",
			cfg.Sweep.MaxThresholds, cfg.Sweep.MaxSamples)
	}
	if cfg.Params.BenefitProba <= 0 || cfg.Params.BenefitProba >= 1 {
		return fmt.Errorf("benefitProba must be within (0,1), got %f", cfg.Params.BenefitProba)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
