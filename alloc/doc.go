// Package alloc implements informativeness-weighted rollout budget allocation
// for iterative sampling loops.
//
// # Reading Guide
//
// Start with these three files to understand the allocation kernel:
//   - estimator.go: per-key EMA success-rate estimation from binary outcomes
//   - knapsack.go: bounded multiple-choice knapsack DP over excess attempts
//   - allocator.go: the public Allocate entry point with extreme-probability
//     handling and rounding repair
//
// # Architecture
//
// The package is a pure in-memory library; the surrounding training loop is
// an external collaborator that supplies keys and binary outcomes and
// consumes per-key attempt counts:
//
//	probs := estimator.Estimate(keys)
//	counts, err := allocator.Allocate(probs, budget)
//	// ... caller samples counts[i] attempts for keys[i] ...
//	estimator.UpdateBatch(expandedKeys, successes)
//
// Controller (round.go) packages that sequence into one object for callers
// that do not need to hold the pieces separately.
//
// Sub-packages:
//   - alloc/trace: per-round decision records and aggregate summaries
//   - alloc/workload: synthetic Bernoulli workloads for closed-loop runs
//
// None of the components synchronize internally; one logical round
// (Estimate -> Allocate -> sample -> UpdateBatch) must be serialized by the
// caller.
package alloc
