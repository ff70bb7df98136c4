package alloc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// estimateEpsilon keeps the estimate denominator non-zero when
// alpha = beta = 0 and a key has no observations.
const estimateEpsilon = 1e-9

type emaCounts struct {
	Succ float64 `yaml:"succ"`
	Fail float64 `yaml:"fail"`
}

// SuccessRateEstimator tracks a decayed per-key success probability from
// noisy binary trials observed in batches.
//
// Per-round batches are small (a handful of trials per key), so individual
// trials are aggregated per call and the aggregate counts are decayed. That
// keeps memory bounded per key and lets the estimate adapt when the true
// rate drifts.
//
// Thread-safety: NOT thread-safe. Concurrent UpdateBatch/Estimate calls
// require external locking.
type SuccessRateEstimator struct {
	ema    float64
	alpha  float64
	beta   float64
	counts map[string]emaCounts
}

// NewSuccessRateEstimator creates an estimator with the given decay factor
// and Beta-prior pseudo-counts. ema must be strictly inside (0,1).
func NewSuccessRateEstimator(ema, alpha, beta float64) (*SuccessRateEstimator, error) {
	if ema <= 0 || ema >= 1 {
		return nil, fmt.Errorf("ema must be in (0,1) exclusive, got %f", ema)
	}
	if alpha < 0 || beta < 0 {
		return nil, fmt.Errorf("prior pseudo-counts must be non-negative, got alpha=%f beta=%f", alpha, beta)
	}
	return &SuccessRateEstimator{
		ema:    ema,
		alpha:  alpha,
		beta:   beta,
		counts: make(map[string]emaCounts),
	}, nil
}

// UpdateBatch folds one round of binary outcomes into the per-key counters.
// keys and successes must have equal length; successes entries are treated
// as success iff > 0. Multiple trials for the same key within one call are
// aggregated before the EMA step, so a key decays once per call regardless
// of how many trials it had.
func (e *SuccessRateEstimator) UpdateBatch(keys []string, successes []int) error {
	if len(keys) != len(successes) {
		return fmt.Errorf("keys/successes length mismatch: %d vs %d", len(keys), len(successes))
	}

	type tally struct{ succ, fail int }
	batch := make(map[string]tally, len(keys))
	order := make([]string, 0, len(keys))
	for i, k := range keys {
		t, seen := batch[k]
		if !seen {
			order = append(order, k)
		}
		if successes[i] > 0 {
			t.succ++
		} else {
			t.fail++
		}
		batch[k] = t
	}

	for _, k := range order {
		t := batch[k]
		c := e.counts[k]
		c.Succ = e.ema*c.Succ + (1-e.ema)*float64(t.succ)
		c.Fail = e.ema*c.Fail + (1-e.ema)*float64(t.fail)
		e.counts[k] = c
	}
	return nil
}

// Estimate returns the success probability estimate for each key, in input
// order. Unknown keys yield the prior mean alpha/(alpha+beta); duplicate
// input keys yield duplicate outputs.
func (e *SuccessRateEstimator) Estimate(keys []string) []float64 {
	p := make([]float64, len(keys))
	for i, k := range keys {
		c := e.counts[k]
		p[i] = (e.alpha + c.Succ) / (e.alpha + e.beta + c.Succ + c.Fail + estimateEpsilon)
	}
	return p
}

// Len reports the number of tracked keys.
func (e *SuccessRateEstimator) Len() int {
	return len(e.counts)
}

// Forget drops the counters for the given keys. Unknown keys are ignored.
// Key lifecycle is owned by the caller; the estimator never evicts on its
// own.
func (e *SuccessRateEstimator) Forget(keys []string) {
	for _, k := range keys {
		delete(e.counts, k)
	}
}

// Reset drops all tracked keys, returning the estimator to its initial
// state. The decay factor and priors are unchanged.
func (e *SuccessRateEstimator) Reset() {
	e.counts = make(map[string]emaCounts)
}

// estimatorSnapshot is the YAML document produced by Snapshot.
type estimatorSnapshot struct {
	EMA    float64              `yaml:"ema"`
	Alpha  float64              `yaml:"alpha"`
	Beta   float64              `yaml:"beta"`
	Counts map[string]emaCounts `yaml:"counts"`
}

// Snapshot serializes the estimator parameters and per-key counters to YAML.
func (e *SuccessRateEstimator) Snapshot() ([]byte, error) {
	snap := estimatorSnapshot{
		EMA:    e.ema,
		Alpha:  e.alpha,
		Beta:   e.beta,
		Counts: e.counts,
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding estimator snapshot: %w", err)
	}
	return data, nil
}

// RestoreSnapshot replaces the estimator's parameters and counters with the
// contents of a Snapshot document.
func (e *SuccessRateEstimator) RestoreSnapshot(data []byte) error {
	var snap estimatorSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing estimator snapshot: %w", err)
	}
	if snap.EMA <= 0 || snap.EMA >= 1 {
		return fmt.Errorf("snapshot ema must be in (0,1) exclusive, got %f", snap.EMA)
	}
	e.ema = snap.EMA
	e.alpha = snap.Alpha
	e.beta = snap.Beta
	e.counts = snap.Counts
	if e.counts == nil {
		e.counts = make(map[string]emaCounts)
	}
	return nil
}

// SaveSnapshot writes a Snapshot document to path.
func (e *SuccessRateEstimator) SaveSnapshot(path string) error {
	data, err := e.Snapshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing estimator snapshot: %w", err)
	}
	return nil
}

// LoadEstimator reconstructs an estimator from a snapshot file written by
// SaveSnapshot.
func LoadEstimator(path string) (*SuccessRateEstimator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading estimator snapshot: %w", err)
	}
	e := &SuccessRateEstimator{counts: make(map[string]emaCounts)}
	if err := e.RestoreSnapshot(data); err != nil {
		return nil, err
	}
	return e, nil
}
