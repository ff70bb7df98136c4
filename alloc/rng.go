package alloc

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// RunKey uniquely identifies a reproducible closed-loop run. Two runs with
// the same RunKey and identical configuration MUST produce bit-for-bit
// identical allocations and outcomes.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// SubsystemOutcomes is the RNG subsystem for Bernoulli outcome sampling.
const SubsystemOutcomes = "outcomes"

// SubsystemItem returns the subsystem name for item N, used for per-item
// drift so adding an item never perturbs the others' streams.
func SubsystemItem(i int) string {
	return fmt.Sprintf("item_%d", i)
}

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. Each subsystem is seeded with masterSeed XOR
// fnv1a64(subsystemName), so streams stay independent and adding a
// subsystem never perturbs existing ones.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
