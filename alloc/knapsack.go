package alloc

// unreachable marks DP states that no prefix of items can realize. Matched
// with a threshold comparison rather than equality so accumulated negative
// values can never be mistaken for a real state.
const (
	unreachable          = -1e30
	unreachableThreshold = -1e29
)

// dpScratch holds the dense DP and backtracking tables, reused across
// Allocate calls to avoid per-round allocation churn. Both tables are
// row-major: dp is (M+1) x (B+1), choice is M x (B+1).
type dpScratch struct {
	dp     []float64
	choice []int32
}

func (s *dpScratch) grow(m, b int) {
	needDP := (m + 1) * (b + 1)
	if cap(s.dp) < needDP {
		s.dp = make([]float64, needDP)
	}
	s.dp = s.dp[:needDP]

	needChoice := m * (b + 1)
	if cap(s.choice) < needChoice {
		s.choice = make([]int32, needChoice)
	}
	s.choice = s.choice[:needChoice]
}

// knapsackDP distributes totalBudget attempts over len(p) items with per-item
// bounds [nLow, nUp], maximizing the summed attempt value. Every item is
// first given the nLow floor; the remaining budget B is spent as integer
// excess units via a bounded multiple-choice knapsack over
// (item index, cumulative excess). Ties break toward the smallest excess so
// allocations are reproducible for identical inputs.
//
// Complexity is O(M * B * (nUp-nLow)), workable for budgets up to a few
// thousand units.
//
// If totalBudget cannot cover the floor for every item, each item gets the
// uniform floor totalBudget/len(p) instead; the caller repairs the
// remainder.
func knapsackDP(p []float64, totalBudget, nLow, nUp int, scratch *dpScratch) []int32 {
	m := len(p)
	if m == 0 {
		return []int32{}
	}

	alloc := make([]int32, m)
	budgetExcess := totalBudget - m*nLow
	if budgetExcess < 0 {
		take := int32(totalBudget / m)
		if take < 0 {
			take = 0
		}
		for i := range alloc {
			alloc[i] = take
		}
		return alloc
	}
	for i := range alloc {
		alloc[i] = int32(nLow)
	}

	tables := make([][]float64, m)
	for i, pi := range p {
		tables[i] = valueTable(pi, nLow, nUp)
	}

	b1 := budgetExcess + 1
	scratch.grow(m, budgetExcess)
	dp, choice := scratch.dp, scratch.choice
	for i := range dp {
		dp[i] = unreachable
	}
	dp[0] = 0

	maxExcess := nUp - nLow
	if maxExcess > budgetExcess {
		maxExcess = budgetExcess
	}

	for i := 1; i <= m; i++ {
		vt := tables[i-1]
		prev := dp[(i-1)*b1 : i*b1]
		cur := dp[i*b1 : (i+1)*b1]
		row := choice[(i-1)*b1 : i*b1]
		for b := 0; b <= budgetExcess; b++ {
			best, bestExcess := prev[b], int32(0)
			limit := maxExcess
			if limit > b {
				limit = b
			}
			for e := 1; e <= limit; e++ {
				cand := prev[b-e]
				if cand <= unreachableThreshold {
					continue
				}
				v := cand + vt[e] - vt[0]
				if v > best {
					best, bestExcess = v, int32(e)
				}
			}
			cur[b] = best
			row[b] = bestExcess
		}
	}

	// Backtrack the recorded choices from the final state.
	b := budgetExcess
	for i := m; i >= 1; i-- {
		e := choice[(i-1)*b1+b]
		alloc[i-1] += e
		b -= int(e)
	}
	return alloc
}

// allocValue computes the total objective value of an allocation, used by
// callers that want to compare candidate allocations directly.
func allocValue(p []float64, alloc []int32) float64 {
	total := 0.0
	for i, pi := range p {
		total += Value(pi, int(alloc[i]))
	}
	return total
}
