package geometry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaneVertexCount(t *testing.T) {
	g := NewPlane(150, 300, 100, 100)
	assert.Equal(t, 101*101, g.VertexCount())
	assert.Len(t, g.Indices(), 100*100*6)
}

func TestPlaneVertexOrder(t *testing.T) {
	g := NewPlane(150, 300, 100, 100)

	first := g.Vertex(0)
	assert.InDelta(t, -75, first.X, 1e-4)
	assert.InDelta(t, 150, first.Y, 1e-4)
	assert.Zero(t, first.Z)

	second := g.Vertex(1)
	assert.InDelta(t, -73.5, second.X, 1e-4)
	assert.InDelta(t, 150, second.Y, 1e-4)

	rowTwo := g.Vertex(101)
	assert.InDelta(t, -75, rowTwo.X, 1e-4)
	assert.InDelta(t, 147, rowTwo.Y, 1e-4)

	last := g.Vertex(g.VertexCount() - 1)
	assert.InDelta(t, 75, last.X, 1e-4)
	assert.InDelta(t, -150, last.Y, 1e-4)
}

func TestPlaneUVs(t *testing.T) {
	g := NewPlane(2, 2, 2, 2)
	assert.Equal(t, float32(0), g.Vertex(0).U)
	assert.Equal(t, float32(1), g.Vertex(0).V)
	assert.Equal(t, float32(1), g.Vertex(8).U)
	assert.Equal(t, float32(0), g.Vertex(8).V)
}

func TestPlaneWireframeEdgesAreUnique(t *testing.T) {
	g := NewPlane(1, 1, 3, 2)
	edges := g.WireframeIndices()
	require.Zero(t, len(edges)%2)

	// A w×h grid split into triangles has w(h+1) + h(w+1) + w·h unique edges.
	w, h := 3, 2
	assert.Equal(t, w*(h+1)+h*(w+1)+w*h, len(edges)/2)

	seen := map[[2]uint32]bool{}
	for i := 0; i < len(edges); i += 2 {
		a, b := min(edges[i], edges[i+1]), max(edges[i], edges[i+1])
		assert.False(t, seen[[2]uint32{a, b}], "duplicate edge %d-%d", a, b)
		seen[[2]uint32{a, b}] = true
	}
}

func TestPlaneSetHeightAndDirtyFlag(t *testing.T) {
	g := NewPlane(10, 10, 1, 1)
	assert.True(t, g.NeedsUpdate())
	g.SetNeedsUpdate(false)

	g.SetHeight(3, 2.5)
	assert.Equal(t, float32(2.5), g.Vertex(3).Z)
	assert.False(t, g.NeedsUpdate())
}

func TestPlaneMarshalVertices(t *testing.T) {
	g := NewPlane(2, 2, 1, 1)
	g.SetHeight(2, 4)
	buf := g.MarshalVertices()
	require.Len(t, buf, 4*VertexStride)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	o := 2 * VertexStride
	assert.Equal(t, float32(-1), f(o))
	assert.Equal(t, float32(-1), f(o+4))
	assert.Equal(t, float32(4), f(o+8))
	assert.Equal(t, float32(1), f(o+20))
}

func TestMarshalIndices(t *testing.T) {
	buf := MarshalIndices([]uint32{1, 258})
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 1, 0, 0}, buf)
}
