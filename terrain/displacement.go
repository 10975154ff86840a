package terrain

import (
	"math"

	"github.com/Carmen-Shannon/oxy-terrain/engine/geometry"
	"github.com/Carmen-Shannon/oxy-terrain/engine/noise"
)

// Height-field sampling constants.
const (
	NoiseFrequency = 15
	NoiseAmplitude = 5
)

// Displacement pairs a vertex with the height sampled for it at build time.
type Displacement struct {
	Vertex int
	Height float32
}

// DisplacementArray holds one Displacement per terrain vertex, in vertex iteration order.
// It is never modified after SampleDisplacement returns.
type DisplacementArray []Displacement

// ParallelFunc runs fn(i) for every i in [0, n) and returns once all calls finished.
type ParallelFunc func(n int, fn func(i int))

// Sequential is a ParallelFunc that runs on the calling goroutine.
func Sequential(n int, fn func(i int)) {
	for i := range n {
		fn(i)
	}
}

// SampleDisplacement samples src at every vertex's planar position and writes the result
// into the vertex height.
//
// Parameters:
//   - g: the geometry whose vertices are sampled and displaced
//   - src: the noise source, sampled at (x/NoiseFrequency, y/NoiseFrequency)
//   - parallel: runs the per-vertex sampling, possibly concurrently; nil samples sequentially
//
// Returns:
//   - DisplacementArray: the sampled heights in vertex order
func SampleDisplacement(g geometry.Geometry, src noise.Source, parallel ParallelFunc) DisplacementArray {
	if parallel == nil {
		parallel = Sequential
	}
	n := g.VertexCount()
	out := make(DisplacementArray, n)
	parallel(n, func(i int) {
		v := g.Vertex(i)
		out[i] = Displacement{Vertex: i, Height: HeightAt(src, v.X, v.Y)}
	})
	for _, d := range out {
		g.SetHeight(d.Vertex, d.Height)
	}
	return out
}

// HeightAt returns the scaled noise height for a planar position.
//
// Parameters:
//   - src: the noise source
//   - x, y: the planar position in object space
//
// Returns:
//   - float32: noise(x/15, y/15) * 5
func HeightAt(src noise.Source, x, y float32) float32 {
	return float32(src.Noise2D(float64(x)/NoiseFrequency, float64(y)/NoiseFrequency) * NoiseAmplitude)
}

// ReadIndex maps a source index to the vertex it is written to for the given offset:
// floor((i + offset) mod n). The result is in [0, n) for any non-negative i and offset.
//
// Parameters:
//   - i: the source index
//   - offset: the animation offset
//   - n: the vertex count
//
// Returns:
//   - int: the target vertex index
func ReadIndex(i int, offset float64, n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(math.Mod(float64(i)+offset, float64(n))))
	if idx < 0 {
		idx += n
	}
	return idx
}

// Apply writes every displacement into the geometry, shifted by offset.
//
// Parameters:
//   - g: the geometry to write
//   - offset: the animation offset
func (d DisplacementArray) Apply(g geometry.Geometry, offset float64) {
	n := len(d)
	for _, disp := range d {
		g.SetHeight(ReadIndex(disp.Vertex, offset, n), disp.Height)
	}
}
