// Package sim synthesizes footstep samples for the simulated tile. The
// ledger itself never generates randomness; this is the external sample
// generator it consumes.
package sim

import "math/rand/v2"

// Sample ranges for a piezoelectric floor tile under a human footstep.
const (
	MinForceN        = 400.0
	MaxForceN        = 800.0
	MinDisplacementM = 0.002
	MaxDisplacementM = 0.005
)

// Sample is one synthetic footstep measurement.
type Sample struct {
	Force        float64 // newtons
	Displacement float64 // meters
}

// Sampler draws uniform samples from the tile's operating ranges.
type Sampler struct {
	rng *rand.Rand
}

// New returns a sampler seeded from the global source.
func New() *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded returns a deterministic sampler for tests.
func NewSeeded(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Next draws one footstep sample.
func (s *Sampler) Next() Sample {
	return Sample{
		Force:        uniform(s.rng, MinForceN, MaxForceN),
		Displacement: uniform(s.rng, MinDisplacementM, MaxDisplacementM),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
