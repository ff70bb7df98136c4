package alloc

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Controller wires the estimator and the allocator into the per-round
// sequence the training loop drives: Plan before sampling, Observe after.
// One logical round per key set; the controller does not synchronize.
type Controller struct {
	cfg       Config
	estimator *SuccessRateEstimator
	allocator *BudgetAllocator
}

// NewController builds a controller from cfg with a fresh estimator.
func NewController(cfg Config) (*Controller, error) {
	allocator, err := NewBudgetAllocator(cfg)
	if err != nil {
		return nil, err
	}
	estimator, err := NewSuccessRateEstimator(cfg.EMA, cfg.Alpha, cfg.Beta)
	if err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg, estimator: estimator, allocator: allocator}, nil
}

// NewControllerWithEstimator builds a controller around an existing
// estimator, e.g. one restored from a snapshot.
func NewControllerWithEstimator(cfg Config, estimator *SuccessRateEstimator) (*Controller, error) {
	if estimator == nil {
		return nil, fmt.Errorf("estimator must not be nil")
	}
	allocator, err := NewBudgetAllocator(cfg)
	if err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg, estimator: estimator, allocator: allocator}, nil
}

// Estimator exposes the underlying estimator for snapshotting and key
// lifecycle management.
func (c *Controller) Estimator() *SuccessRateEstimator { return c.estimator }

// RoundPlan is one round's allocation decision.
type RoundPlan struct {
	Keys   []string
	Probs  []float64
	Alloc  []int32
	Budget int
}

// Sum reports the total attempts the plan assigns.
func (r *RoundPlan) Sum() int { return sumAlloc(r.Alloc) }

// Degraded reports whether the plan under-allocates its budget, which only
// happens on the proportional scale-down branch of Allocate.
func (r *RoundPlan) Degraded() bool { return r.Sum() != r.Budget }

// Expand flattens the plan into a key-index list: index i repeated
// Alloc[i] times, driving downstream sampling. If every count is zero
// (all-hard keys with zero budget) it falls back to one attempt per key so
// the round still produces outcomes.
func (r *RoundPlan) Expand() []int {
	total := r.Sum()
	if total == 0 {
		idx := make([]int, len(r.Keys))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, total)
	for i, n := range r.Alloc {
		for j := int32(0); j < n; j++ {
			idx = append(idx, i)
		}
	}
	return idx
}

// ExpandKeys is Expand with indices resolved to their keys, in the shape
// Observe expects back alongside the outcomes.
func (r *RoundPlan) ExpandKeys() []string {
	idx := r.Expand()
	keys := make([]string, len(idx))
	for i, j := range idx {
		keys[i] = r.Keys[j]
	}
	return keys
}

// Plan estimates success probabilities for keys and allocates the round
// budget across them. budgetOverride <= 0 derives the budget as
// len(keys) * DefaultPerKeyCount. Duplicate keys are allowed and receive
// independent allocation entries.
func (c *Controller) Plan(keys []string, budgetOverride int) (*RoundPlan, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one key required")
	}
	budget := budgetOverride
	if budget <= 0 {
		budget = len(keys) * c.cfg.DefaultPerKeyCount
	}

	probs := c.estimator.Estimate(keys)
	alloc, err := c.allocator.Allocate(probs, budget)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("planned round: %d keys, budget %d, assigned %d", len(keys), budget, sumAlloc(alloc))
	return &RoundPlan{Keys: keys, Probs: probs, Alloc: alloc, Budget: budget}, nil
}

// Observe feeds one round's expanded outcomes back into the estimator.
func (c *Controller) Observe(expandedKeys []string, successes []int) error {
	return c.estimator.UpdateBatch(expandedKeys, successes)
}
