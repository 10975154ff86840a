package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerlinIsDeterministicForSeed(t *testing.T) {
	a := NewPerlin(42)
	b := NewPerlin(42)
	for _, p := range [][2]float64{{0.1, 0.2}, {3.3, -1.7}, {-5, 9.25}} {
		assert.Equal(t, a.Noise2D(p[0], p[1]), b.Noise2D(p[0], p[1]))
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestPerlinZeroSeedIsRandomised(t *testing.T) {
	s := NewPerlin(0)
	assert.NotZero(t, s.Seed())
}

func TestPerlinValuesAreBounded(t *testing.T) {
	s := NewPerlin(7)
	for x := -10.0; x < 10; x += 0.37 {
		for y := -10.0; y < 10; y += 0.41 {
			v := s.Noise2D(x, y)
			assert.GreaterOrEqual(t, v, -1.5)
			assert.LessOrEqual(t, v, 1.5)
		}
	}
}

func TestFuncAdapter(t *testing.T) {
	var src Source = Func(func(x, y float64) float64 { return x*10 + y })
	assert.Equal(t, 32.0, src.Noise2D(3, 2))
}
