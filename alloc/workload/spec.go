// Package workload generates synthetic binary-outcome workloads for
// closed-loop allocator runs: each item is a Bernoulli source whose true
// success rate may drift between rounds.
package workload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemSpec defines a single work item's outcome behavior.
type ItemSpec struct {
	Key string `yaml:"key"`

	// SuccessRate is the item's initial true success probability.
	SuccessRate float64 `yaml:"success_rate"`

	// Drift bounds the per-round random walk applied to the true rate;
	// 0 keeps the rate fixed for the whole run.
	Drift float64 `yaml:"drift,omitempty"`
}

// WorkloadSpec is the top-level workload configuration.
// Loaded from YAML via LoadWorkloadSpec(path).
type WorkloadSpec struct {
	Seed   int64      `yaml:"seed"`
	Rounds int        `yaml:"rounds"`
	Items  []ItemSpec `yaml:"items"`

	// BudgetOverride fixes the per-round budget; 0 derives it from the
	// allocator config's default per-key count.
	BudgetOverride int `yaml:"budget_override,omitempty"`
}

// LoadWorkloadSpec reads and validates a workload spec from a YAML file.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	var spec WorkloadSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec %s: %w", path, err)
	}
	return &spec, nil
}

// Validate checks spec invariants and returns the first violation.
func (s *WorkloadSpec) Validate() error {
	if s.Rounds < 1 {
		return fmt.Errorf("rounds must be >= 1, got %d", s.Rounds)
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("at least one item required")
	}
	if s.BudgetOverride < 0 {
		return fmt.Errorf("budget_override must be non-negative, got %d", s.BudgetOverride)
	}
	seen := make(map[string]bool, len(s.Items))
	for i, item := range s.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if item.Key == "" {
			return fmt.Errorf("%s: key must not be empty", prefix)
		}
		if seen[item.Key] {
			return fmt.Errorf("%s: duplicate key %q", prefix, item.Key)
		}
		seen[item.Key] = true
		if item.SuccessRate < 0 || item.SuccessRate > 1 {
			return fmt.Errorf("%s: success_rate must be in [0,1], got %f", prefix, item.SuccessRate)
		}
		if item.Drift < 0 || item.Drift > 0.5 {
			return fmt.Errorf("%s: drift must be in [0,0.5], got %f", prefix, item.Drift)
		}
	}
	return nil
}

// Keys returns the item keys in spec order.
func (s *WorkloadSpec) Keys() []string {
	keys := make([]string, len(s.Items))
	for i, item := range s.Items {
		keys[i] = item.Key
	}
	return keys
}

// UniformSpec builds an n-item spec with evenly spread success rates in
// (0,1), useful for quick synthetic runs without a spec file.
func UniformSpec(n, rounds int, seed int64) *WorkloadSpec {
	items := make([]ItemSpec, n)
	for i := range items {
		items[i] = ItemSpec{
			Key:         fmt.Sprintf("item_%03d", i),
			SuccessRate: float64(i+1) / float64(n+1),
		}
	}
	return &WorkloadSpec{Seed: seed, Rounds: rounds, Items: items}
}
