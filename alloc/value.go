package alloc

import "math"

// gradSignal returns the probability that n independent Bernoulli(p) trials
// produce at least one success and at least one failure. An item only
// yields a usable learning signal when its outcomes are mixed.
func gradSignal(n int, p float64) float64 {
	if p <= 0 || p >= 1 || n <= 0 {
		return 0
	}
	return 1 - math.Pow(p, float64(n)) - math.Pow(1-p, float64(n))
}

// infoGain is the informativeness weight p*(1-p)^2, peaking near p = 1/3
// and vanishing at both deterministic extremes.
func infoGain(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return p * (1 - p) * (1 - p)
}

// Value scores allocating n attempts to an item with success probability p.
// It is zero for p at or beyond either extreme, for any n.
func Value(p float64, n int) float64 {
	return gradSignal(n, p) * infoGain(p)
}

// valueTable returns Value(p, n) for n = nLow..nUp inclusive. Index 0 is
// the floor count nLow; the DP in knapsack.go charges only the marginal
// value above that baseline.
func valueTable(p float64, nLow, nUp int) []float64 {
	vt := make([]float64, nUp-nLow+1)
	for k := range vt {
		vt[k] = Value(p, nLow+k)
	}
	return vt
}
