package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessRateEstimator_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		ema   float64
		alpha float64
		beta  float64
	}{
		{"ema zero", 0, 1, 1},
		{"ema one", 1, 1, 1},
		{"ema negative", -0.5, 1, 1},
		{"ema above one", 1.5, 1, 1},
		{"negative alpha", 0.7, -1, 1},
		{"negative beta", 0.7, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSuccessRateEstimator(tt.ema, tt.alpha, tt.beta)
			assert.Error(t, err)
		})
	}
}

func TestUpdateBatch_LengthMismatch(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.7, 1, 1)
	require.NoError(t, err)
	err = est.UpdateBatch([]string{"a", "b"}, []int{1})
	assert.Error(t, err)
}

func TestEstimate_UnknownKeysReturnPriorMean(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.7, 1, 1)
	require.NoError(t, err)
	p := est.Estimate([]string{"never", "seen"})
	require.Len(t, p, 2)
	assert.InDelta(t, 0.5, p[0], 1e-6)
	assert.InDelta(t, 0.5, p[1], 1e-6)

	skewed, err := NewSuccessRateEstimator(0.7, 2, 1)
	require.NoError(t, err)
	p = skewed.Estimate([]string{"x"})
	assert.InDelta(t, 2.0/3.0, p[0], 1e-6)
}

func TestUpdateBatch_GroupsTrialsWithinCall(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.5, 1, 1)
	require.NoError(t, err)

	// Three trials for one key in a single call decay the key once:
	// succ = 0.5*0 + 0.5*2 = 1.0, fail = 0.5*0 + 0.5*1 = 0.5.
	require.NoError(t, est.UpdateBatch([]string{"k", "k", "k"}, []int{1, 1, 0}))
	p := est.Estimate([]string{"k"})
	assert.InDelta(t, (1+1.0)/(2+1.5), p[0], 1e-6)
}

func TestUpdateBatch_SeparateCallsDecayBetween(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.5, 1, 1)
	require.NoError(t, err)

	require.NoError(t, est.UpdateBatch([]string{"k"}, []int{1}))
	require.NoError(t, est.UpdateBatch([]string{"k"}, []int{0}))
	// succ: 0.5 then 0.25; fail: 0 then 0.5.
	p := est.Estimate([]string{"k"})
	assert.InDelta(t, (1+0.25)/(2+0.75), p[0], 1e-6)
}

func TestEstimate_DuplicateKeysDuplicateOutputs(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.7, 1, 1)
	require.NoError(t, err)
	require.NoError(t, est.UpdateBatch([]string{"a", "a", "a", "a"}, []int{1, 1, 1, 0}))

	p := est.Estimate([]string{"a", "b", "a"})
	require.Len(t, p, 3)
	assert.Equal(t, p[0], p[2])
	assert.NotEqual(t, p[0], p[1])
}

func TestEstimator_ForgetResetLen(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.7, 1, 1)
	require.NoError(t, err)
	require.NoError(t, est.UpdateBatch([]string{"a", "b", "c"}, []int{1, 0, 1}))
	assert.Equal(t, 3, est.Len())

	est.Forget([]string{"b", "missing"})
	assert.Equal(t, 2, est.Len())
	assert.InDelta(t, 0.5, est.Estimate([]string{"b"})[0], 1e-6)

	est.Reset()
	assert.Equal(t, 0, est.Len())
}

func TestEstimator_SnapshotRoundTrip(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.6, 1.5, 0.5)
	require.NoError(t, err)
	require.NoError(t, est.UpdateBatch([]string{"a", "a", "b"}, []int{1, 0, 1}))

	data, err := est.Snapshot()
	require.NoError(t, err)

	restored, err := NewSuccessRateEstimator(0.9, 1, 1)
	require.NoError(t, err)
	require.NoError(t, restored.RestoreSnapshot(data))

	keys := []string{"a", "b", "unseen"}
	assert.Equal(t, est.Estimate(keys), restored.Estimate(keys))
}

func TestEstimator_SaveLoadFile(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.6, 1, 1)
	require.NoError(t, err)
	require.NoError(t, est.UpdateBatch([]string{"a", "b"}, []int{1, 0}))

	path := t.TempDir() + "/estimator.yaml"
	require.NoError(t, est.SaveSnapshot(path))

	loaded, err := LoadEstimator(path)
	require.NoError(t, err)
	assert.Equal(t, est.Estimate([]string{"a", "b"}), loaded.Estimate([]string{"a", "b"}))
}

func TestEstimator_ConvergesToTrueRates(t *testing.T) {
	est, err := NewSuccessRateEstimator(0.6, 1, 1)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	keys := []string{"a", "b", "c"}
	pTrue := map[string]float64{"a": 0.2, "b": 0.5, "c": 0.8}

	// 200 rounds of 4 Bernoulli trials per key. The estimate is averaged
	// over the last 100 rounds to smooth the EMA's round-to-round noise;
	// at 4 trials per round the Laplace prior keeps a bias toward 0.5 of
	// (1-2p)/6, which the tolerance accounts for.
	avg := make([]float64, len(keys))
	for round := 0; round < 200; round++ {
		batchKeys := make([]string, 0, 12)
		outcomes := make([]int, 0, 12)
		for _, k := range keys {
			for trial := 0; trial < 4; trial++ {
				batchKeys = append(batchKeys, k)
				s := 0
				if rng.Float64() < pTrue[k] {
					s = 1
				}
				outcomes = append(outcomes, s)
			}
		}
		require.NoError(t, est.UpdateBatch(batchKeys, outcomes))
		if round >= 100 {
			for i, p := range est.Estimate(keys) {
				avg[i] += p / 100
			}
		}
	}

	for i, k := range keys {
		assert.InDelta(t, pTrue[k], avg[i], 0.15, "key %s", k)
	}
}
