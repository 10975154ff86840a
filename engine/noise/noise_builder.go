package noise

// perlinConfig holds the octave parameters passed to the Perlin generator.
type perlinConfig struct {
	alpha   float64
	beta    float64
	octaves int32
}

// PerlinBuilderOption is a functional option for configuring a Perlin source.
type PerlinBuilderOption func(*perlinConfig)

// WithOctaves sets the number of summed octaves. Values below 1 are clamped to 1.
//
// Parameters:
//   - n: the octave count
//
// Returns:
//   - PerlinBuilderOption: option function to apply
func WithOctaves(n int32) PerlinBuilderOption {
	return func(c *perlinConfig) {
		if n < 1 {
			n = 1
		}
		c.octaves = n
	}
}

// WithPersistence sets the amplitude divisor (alpha) and frequency multiplier (beta) between octaves.
//
// Parameters:
//   - alpha: amplitude divisor per octave
//   - beta: frequency multiplier per octave
//
// Returns:
//   - PerlinBuilderOption: option function to apply
func WithPersistence(alpha, beta float64) PerlinBuilderOption {
	return func(c *perlinConfig) {
		c.alpha = alpha
		c.beta = beta
	}
}
