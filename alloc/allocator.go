package alloc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// extremeEpsilon bounds the "hard" (p <= eps) and "easy" (p >= 1-eps)
// probability regions that bypass the DP.
const extremeEpsilon = 1e-8

// BudgetAllocator converts a probability vector and an integer attempt
// budget into per-key attempt counts. Mid-region keys go through the
// knapsack DP; keys at the deterministic extremes carry zero information
// value and are handled by explicit branches instead.
//
// Every call is a pure function of its arguments; the only retained state
// is the reusable DP scratch buffer, so a single allocator must not be
// shared across goroutines.
type BudgetAllocator struct {
	cfg     Config
	scratch dpScratch
}

// NewBudgetAllocator validates cfg and returns an allocator.
func NewBudgetAllocator(cfg Config) (*BudgetAllocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.HardFallbackShare != 1.0 {
		// Accepted for config compatibility; the hard-key split is uniform.
		logrus.Warnf("hard_fallback_share=%.3f is accepted but not applied; hard keys split the leftover budget uniformly", cfg.HardFallbackShare)
	}
	return &BudgetAllocator{cfg: cfg}, nil
}

// Config returns the allocator's configuration.
func (a *BudgetAllocator) Config() Config { return a.cfg }

// Allocate distributes totalBudget attempts across the keys behind p and
// returns one count per key, each within [NLow, NUp], summing exactly to
// totalBudget.
//
// Keys are partitioned by probability: hard (p <= eps), easy (p >= 1-eps),
// and mid. Easy keys get exactly NLow when EasyMinCover is set. Mid keys
// get the floor plus DP-chosen excess. Budget left over after the mid
// region is split uniformly across hard keys, remainder to the
// lowest-index keys first, clipped to bounds. A final bounded repair pass
// absorbs any drift the clipping introduced.
//
// Two degraded-but-defined exceptions to sum-exactness:
//   - If the easy-cover floor alone exceeds totalBudget, all assigned
//     counts are scaled down proportionally and the (possibly short)
//     result is returned as-is.
//   - totalBudget > len(p)*NUp cannot be repaired within bounds and
//     returns an error.
func (a *BudgetAllocator) Allocate(p []float64, totalBudget int) ([]int32, error) {
	cfg := a.cfg
	m := len(p)
	if totalBudget < 0 {
		return nil, fmt.Errorf("total budget must be non-negative, got %d", totalBudget)
	}
	if m == 0 {
		if totalBudget != 0 {
			return nil, fmt.Errorf("cannot allocate budget %d across zero keys", totalBudget)
		}
		return []int32{}, nil
	}
	for i, pi := range p {
		if math.IsNaN(pi) || pi < 0 || pi > 1 {
			return nil, fmt.Errorf("probability out of range at index %d: %f", i, pi)
		}
	}

	alloc := make([]int32, m)
	var hard, mid []int
	for i, pi := range p {
		switch {
		case pi <= extremeEpsilon:
			hard = append(hard, i)
		case pi >= 1-extremeEpsilon:
			if cfg.EasyMinCover {
				alloc[i] = int32(cfg.NLow)
			}
		default:
			mid = append(mid, i)
		}
	}

	assigned := sumAlloc(alloc)
	budgetMid := totalBudget - assigned
	if budgetMid < 0 {
		// Easy-cover floor alone overshoots the budget. Scale down
		// proportionally and return; the sum may fall short of the budget
		// in this branch.
		logrus.Warnf("budget %d below easy-cover floor %d for %d keys; scaling down", totalBudget, assigned, m)
		for i := range alloc {
			alloc[i] = int32(math.Floor(float64(alloc[i]) * float64(totalBudget) / float64(assigned)))
		}
		return alloc, nil
	}

	if len(mid) > 0 {
		pMid := make([]float64, len(mid))
		for j, i := range mid {
			pMid[j] = p[i]
		}
		midAlloc := knapsackDP(pMid, budgetMid, cfg.NLow, cfg.NUp, &a.scratch)
		for j, i := range mid {
			alloc[i] = midAlloc[j]
		}
	}

	remain := totalBudget - sumAlloc(alloc)
	if remain > 0 && len(hard) > 0 {
		// Uniform split; an informativeness weighting for hard keys would
		// hang off HardFallbackShare here.
		share := remain / len(hard)
		extra := remain % len(hard)
		for j, i := range hard {
			give := share
			if j < extra {
				give++
			}
			alloc[i] = clampCount(alloc[i]+int32(give), cfg.NLow, cfg.NUp)
		}
	}

	if err := a.repair(alloc, totalBudget); err != nil {
		return nil, err
	}
	return alloc, nil
}

// repair restores sum-exactness after bound clipping by walking the vector
// in key order, raising entries below NUp (or lowering entries above NLow)
// by as much as each can absorb. A single pass visits every entry once, so
// the work is bounded by M*(NUp-NLow) unit adjustments; if drift survives
// the pass the budget is outside [NLow*M, NUp*M] and the call fails.
func (a *BudgetAllocator) repair(alloc []int32, totalBudget int) error {
	diff := totalBudget - sumAlloc(alloc)
	if diff == 0 {
		return nil
	}
	sign := 1
	if diff < 0 {
		sign, diff = -1, -diff
	}
	for i := 0; i < len(alloc) && diff > 0; i++ {
		var can int
		if sign > 0 {
			can = a.cfg.NUp - int(alloc[i])
		} else {
			can = int(alloc[i]) - a.cfg.NLow
		}
		if can <= 0 {
			continue
		}
		if can > diff {
			can = diff
		}
		alloc[i] += int32(sign * can)
		diff -= can
	}
	if diff != 0 {
		return fmt.Errorf("allocation repair failed: budget %d not representable within [%d,%d] over %d keys",
			totalBudget, a.cfg.NLow, a.cfg.NUp, len(alloc))
	}
	return nil
}

func sumAlloc(alloc []int32) int {
	total := 0
	for _, v := range alloc {
		total += int(v)
	}
	return total
}

func clampCount(v int32, lo, hi int) int32 {
	if v < int32(lo) {
		return int32(lo)
	}
	if v > int32(hi) {
		return int32(hi)
	}
	return v
}
