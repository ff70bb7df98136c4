// Package trace provides round-level decision recording for allocation
// analysis. It stores pure data types and has no dependency on the sampling
// loop that produces them.
package trace

// RoundRecord captures one allocation round: the probability estimates the
// allocator saw and the counts it assigned.
type RoundRecord struct {
	Round    int       `json:"round"`
	Budget   int       `json:"budget"`
	Keys     []string  `json:"keys"`
	Probs    []float64 `json:"probs"`
	Alloc    []int32   `json:"alloc"`
	Degraded bool      `json:"degraded"` // sum fell short of budget (scale-down branch)
}

// OutcomeRecord captures a single sampled attempt's binary outcome.
type OutcomeRecord struct {
	Round   int    `json:"round"`
	Key     string `json:"key"`
	Success bool   `json:"success"`
}
