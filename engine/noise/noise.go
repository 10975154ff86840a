package noise

import (
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
)

// Source is a continuous 2D pseudo-random function.
type Source interface {
	// Noise2D samples the function at (x, y).
	//
	// Parameters:
	//   - x, y: sample coordinates
	//
	// Returns:
	//   - float64: the noise value, roughly in [-1, 1] for Perlin sources
	Noise2D(x, y float64) float64
}

// Func adapts a plain function to the Source interface.
// Useful for deterministic sources in tests.
type Func func(x, y float64) float64

// Noise2D calls f(x, y).
func (f Func) Noise2D(x, y float64) float64 {
	return f(x, y)
}

// perlinSource is a Perlin-backed Source.
// The permutation tables are read-only after construction, so sampling is safe for concurrent use.
type perlinSource struct {
	seed int64
	p    *perlin.Perlin
}

// Seeded is a Source that knows the seed it was built from.
type Seeded interface {
	Source

	// Seed returns the seed the source was created with.
	//
	// Returns:
	//   - int64: the seed
	Seed() int64
}

var _ Seeded = &perlinSource{}

// NewPerlin creates a single-octave Perlin source seeded with the given seed.
// A zero seed is replaced with a random one.
//
// Parameters:
//   - seed: the permutation seed, or 0 for a random seed
//   - options: functional options for the octave parameters
//
// Returns:
//   - Seeded: the Perlin noise source
func NewPerlin(seed int64, options ...PerlinBuilderOption) Seeded {
	cfg := perlinConfig{
		alpha:   2,
		beta:    2,
		octaves: 1,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if seed == 0 {
		seed = RandomSeed()
	}
	return &perlinSource{
		seed: seed,
		p:    perlin.NewPerlin(cfg.alpha, cfg.beta, cfg.octaves, seed),
	}
}

func (s *perlinSource) Noise2D(x, y float64) float64 {
	return s.p.Noise2D(x, y)
}

func (s *perlinSource) Seed() int64 {
	return s.seed
}

// RandomSeed returns a non-zero seed derived from the current time.
//
// Returns:
//   - int64: a random non-zero seed
func RandomSeed() int64 {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		if s := r.Int63(); s != 0 {
			return s
		}
	}
}
