package workload

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rollout-alloc/rollout-alloc/alloc"
	"github.com/rollout-alloc/rollout-alloc/alloc/trace"
)

// Driver runs the full closed loop against a synthetic workload: per round
// it plans an allocation, samples Bernoulli outcomes for every assigned
// attempt, feeds them back into the estimator, and applies each item's
// drift to its true rate.
type Driver struct {
	spec  *WorkloadSpec
	ctrl  *alloc.Controller
	rng   *alloc.PartitionedRNG
	rates []float64 // current true success rate per item
}

// NewDriver builds a driver for spec using cfg's estimator and allocator
// parameters.
func NewDriver(spec *WorkloadSpec, cfg alloc.Config) (*Driver, error) {
	if spec == nil {
		return nil, fmt.Errorf("workload spec must not be nil")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ctrl, err := alloc.NewController(cfg)
	if err != nil {
		return nil, err
	}
	rates := make([]float64, len(spec.Items))
	for i, item := range spec.Items {
		rates[i] = item.SuccessRate
	}
	return &Driver{
		spec:  spec,
		ctrl:  ctrl,
		rng:   alloc.NewPartitionedRNG(alloc.NewRunKey(spec.Seed)),
		rates: rates,
	}, nil
}

// Controller exposes the underlying controller, e.g. for snapshotting the
// estimator after a run.
func (d *Driver) Controller() *alloc.Controller { return d.ctrl }

// TrueRates returns a copy of the current per-item true success rates.
func (d *Driver) TrueRates() []float64 {
	rates := make([]float64, len(d.rates))
	copy(rates, d.rates)
	return rates
}

// Run executes all configured rounds, recording into at (which may be a
// LevelNone trace).
func (d *Driver) Run(at *trace.AllocationTrace) error {
	if at == nil {
		at = trace.NewAllocationTrace(trace.LevelNone)
	}
	keys := d.spec.Keys()
	outcomeRNG := d.rng.ForSubsystem(alloc.SubsystemOutcomes)

	for round := 0; round < d.spec.Rounds; round++ {
		plan, err := d.ctrl.Plan(keys, d.spec.BudgetOverride)
		if err != nil {
			return fmt.Errorf("planning round %d: %w", round, err)
		}

		idx := plan.Expand()
		expandedKeys := make([]string, len(idx))
		successes := make([]int, len(idx))
		for j, i := range idx {
			expandedKeys[j] = keys[i]
			if outcomeRNG.Float64() < d.rates[i] {
				successes[j] = 1
			}
			at.RecordOutcome(trace.OutcomeRecord{Round: round, Key: keys[i], Success: successes[j] == 1})
		}

		if err := d.ctrl.Observe(expandedKeys, successes); err != nil {
			return fmt.Errorf("observing round %d: %w", round, err)
		}

		at.RecordRound(trace.RoundRecord{
			Round:    round,
			Budget:   plan.Budget,
			Keys:     keys,
			Probs:    plan.Probs,
			Alloc:    plan.Alloc,
			Degraded: plan.Degraded(),
		})
		logrus.Debugf("[round %04d] budget=%d assigned=%d attempts=%d", round, plan.Budget, plan.Sum(), len(idx))

		d.drift()
	}
	return nil
}

// drift applies each item's bounded random walk to its true rate, clamped
// to [0,1]. Items with zero drift keep their rate and consume no
// randomness.
func (d *Driver) drift() {
	for i, item := range d.spec.Items {
		if item.Drift == 0 {
			continue
		}
		rng := d.rng.ForSubsystem(alloc.SubsystemItem(i))
		r := d.rates[i] + item.Drift*(2*rng.Float64()-1)
		if r < 0 {
			r = 0
		}
		if r > 1 {
			r = 1
		}
		d.rates[i] = r
	}
}
