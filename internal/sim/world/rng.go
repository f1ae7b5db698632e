package world

import "math/rand/v2"

// Rand is the single seam every probabilistic decision flows through
// (mating, hatching, play joins, trait mutation, wander retargeting).
// Tests inject scripted implementations to force outcomes.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n must be > 0.
	IntN(n int) int
}

type pcgRand struct{ r *rand.Rand }

// NewRand returns a deterministic PCG-backed source for the given seed.
func NewRand(seed int64) Rand {
	return &pcgRand{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

func (p *pcgRand) Float64() float64 { return p.r.Float64() }
func (p *pcgRand) IntN(n int) int   { return p.r.IntN(n) }

// rangeSample draws uniformly from [lo, hi].
func rangeSample(r Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

// jitterAround draws uniformly from mean*(1-frac) .. mean*(1+frac).
func jitterAround(r Rand, mean, frac float64) float64 {
	return rangeSample(r, mean*(1-frac), mean*(1+frac))
}
