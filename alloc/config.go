package alloc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable parameters shared by the estimator and the
// allocator. Loaded from YAML via LoadConfig(path); zero-valued fields fall
// back to DefaultConfig values.
type Config struct {
	// NLow is the mandatory per-key attempt floor. Every key receives at
	// least NLow attempts whenever the budget permits.
	NLow int `yaml:"n_low"`

	// NUp is the per-key attempt ceiling.
	NUp int `yaml:"n_up"`

	// EMA is the decay factor applied to accumulated success/failure
	// counts on each update. Must be strictly inside (0,1).
	EMA float64 `yaml:"ema"`

	// Alpha and Beta are the Beta-prior pseudo-counts for the
	// success-rate estimate. Alpha=Beta=1 is Laplace smoothing.
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`

	// HardFallbackShare is accepted for config compatibility but does not
	// weight the hard-key split; the split is uniform. See allocator.go.
	HardFallbackShare float64 `yaml:"hard_fallback_share"`

	// EasyMinCover grants every near-certain key (p ~ 1) exactly NLow
	// attempts so mastered items keep minimal coverage.
	EasyMinCover bool `yaml:"easy_min_cover"`

	// DefaultPerKeyCount derives the round budget as
	// len(keys) * DefaultPerKeyCount when the caller gives no override.
	DefaultPerKeyCount int `yaml:"default_per_key_count"`
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		NLow:               2,
		NUp:                128,
		EMA:                0.7,
		Alpha:              1.0,
		Beta:               1.0,
		HardFallbackShare:  1.0,
		EasyMinCover:       true,
		DefaultPerKeyCount: 8,
	}
}

// Validate checks the configuration invariants and returns the first
// violation found.
func (c Config) Validate() error {
	if c.NLow < 1 {
		return fmt.Errorf("n_low must be >= 1, got %d", c.NLow)
	}
	if c.NUp < c.NLow {
		return fmt.Errorf("n_up must be >= n_low, got n_low=%d n_up=%d", c.NLow, c.NUp)
	}
	if c.EMA <= 0 || c.EMA >= 1 {
		return fmt.Errorf("ema must be in (0,1) exclusive, got %f", c.EMA)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %f", c.Alpha)
	}
	if c.Beta < 0 {
		return fmt.Errorf("beta must be non-negative, got %f", c.Beta)
	}
	if c.DefaultPerKeyCount < 1 {
		return fmt.Errorf("default_per_key_count must be >= 1, got %d", c.DefaultPerKeyCount)
	}
	return nil
}

// LoadConfig reads a YAML config file on top of DefaultConfig and validates
// the result. Fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading allocator config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing allocator config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid allocator config %s: %w", path, err)
	}
	return cfg, nil
}
