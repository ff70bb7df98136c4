package trace

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from an AllocationTrace.
type TraceSummary struct {
	Rounds         int
	TotalAttempts  int64
	DegradedRounds int
	UniqueKeys     int
	KeyAttempts    map[string]int64 // key → attempts assigned across all rounds

	// Distribution of individual allocation entries across all rounds.
	MeanAlloc float64
	P50Alloc  float64
	P90Alloc  float64

	// Outcome statistics; zero-valued unless outcomes were traced.
	OutcomeCount int
	SuccessRate  float64
}

// Summarize computes aggregate statistics from an AllocationTrace. Safe for
// nil or empty traces (returns zero-value fields).
func Summarize(at *AllocationTrace) *TraceSummary {
	summary := &TraceSummary{
		KeyAttempts: make(map[string]int64),
	}
	if at == nil {
		return summary
	}

	var entries []float64
	summary.Rounds = len(at.Rounds)
	for _, r := range at.Rounds {
		if r.Degraded {
			summary.DegradedRounds++
		}
		for i, n := range r.Alloc {
			summary.TotalAttempts += int64(n)
			summary.KeyAttempts[r.Keys[i]] += int64(n)
			entries = append(entries, float64(n))
		}
	}
	summary.UniqueKeys = len(summary.KeyAttempts)

	if len(entries) > 0 {
		sort.Float64s(entries)
		summary.MeanAlloc = stat.Mean(entries, nil)
		summary.P50Alloc = stat.Quantile(0.5, stat.Empirical, entries, nil)
		summary.P90Alloc = stat.Quantile(0.9, stat.Empirical, entries, nil)
	}

	if len(at.Outcomes) > 0 {
		successes := 0
		for _, o := range at.Outcomes {
			if o.Success {
				successes++
			}
		}
		summary.OutcomeCount = len(at.Outcomes)
		summary.SuccessRate = float64(successes) / float64(len(at.Outcomes))
	}

	return summary
}
