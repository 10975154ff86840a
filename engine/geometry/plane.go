package geometry

import (
	"encoding/binary"
	"math"
)

// VertexStride is the size in bytes of one marshaled vertex: position (3×f32), normal (3×f32), uv (2×f32).
const VertexStride = 32

// Vertex is a single plane vertex in object space.
type Vertex struct {
	X, Y, Z float32
	U, V    float32
}

// Geometry is a CPU-side vertex/index store whose vertex heights may be edited between frames.
// Geometry is not safe for concurrent use; it is owned by the goroutine that animates and renders it.
type Geometry interface {
	// VertexCount returns the number of vertices.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Vertex returns the vertex at index i.
	//
	// Parameters:
	//   - i: the vertex index in iteration order
	//
	// Returns:
	//   - Vertex: the vertex
	Vertex(i int) Vertex

	// SetHeight sets the z coordinate of the vertex at index i.
	// The change is not visible to the GPU until NeedsUpdate is set.
	//
	// Parameters:
	//   - i: the vertex index
	//   - z: the new height
	SetHeight(i int, z float32)

	// Normal returns the shared face normal of the plane in object space.
	//
	// Returns:
	//   - [3]float32: the normal
	Normal() [3]float32

	// Indices returns the triangle list indices.
	//
	// Returns:
	//   - []uint32: three indices per triangle
	Indices() []uint32

	// WireframeIndices returns the line list indices covering every unique triangle edge.
	//
	// Returns:
	//   - []uint32: two indices per edge
	WireframeIndices() []uint32

	// NeedsUpdate reports whether vertex data changed since the last GPU upload.
	//
	// Returns:
	//   - bool: true if the vertex buffer must be re-uploaded
	NeedsUpdate() bool

	// SetNeedsUpdate marks or clears the dirty flag.
	//
	// Parameters:
	//   - dirty: the new flag value
	SetNeedsUpdate(dirty bool)

	// MarshalVertices serializes all vertices for GPU upload using the VertexStride layout.
	//
	// Returns:
	//   - []byte: the vertex bytes
	MarshalVertices() []byte
}

// plane is a rectangular grid in the XY plane facing +Z.
type plane struct {
	width, height  float32
	widthSegments  int
	heightSegments int
	vertices       []Vertex
	indices        []uint32
	wireIndices    []uint32
	needsUpdate    bool
	marshalScratch []byte
}

var _ Geometry = &plane{}

// NewPlane builds a width×height plane split into widthSegments×heightSegments cells.
// Vertices are laid out row by row starting at the top-left corner (-width/2, +height/2),
// x increasing along a row and y decreasing between rows; this order is the vertex index contract.
// Segment counts below 1 are clamped to 1.
//
// Parameters:
//   - width: extent along X
//   - height: extent along Y
//   - widthSegments: cell count along X
//   - heightSegments: cell count along Y
//
// Returns:
//   - Geometry: the plane geometry
func NewPlane(width, height float32, widthSegments, heightSegments int) Geometry {
	widthSegments = max(widthSegments, 1)
	heightSegments = max(heightSegments, 1)

	p := &plane{
		width:          width,
		height:         height,
		widthSegments:  widthSegments,
		heightSegments: heightSegments,
		needsUpdate:    true,
	}

	gridX1 := widthSegments + 1
	gridY1 := heightSegments + 1
	segW := width / float32(widthSegments)
	segH := height / float32(heightSegments)
	halfW := width / 2
	halfH := height / 2

	p.vertices = make([]Vertex, 0, gridX1*gridY1)
	for iy := range gridY1 {
		y := float32(iy)*segH - halfH
		for ix := range gridX1 {
			x := float32(ix)*segW - halfW
			p.vertices = append(p.vertices, Vertex{
				X: x,
				Y: -y,
				U: float32(ix) / float32(widthSegments),
				V: 1 - float32(iy)/float32(heightSegments),
			})
		}
	}

	p.indices = make([]uint32, 0, widthSegments*heightSegments*6)
	for iy := range heightSegments {
		for ix := range widthSegments {
			a := uint32(ix + gridX1*iy)
			b := uint32(ix + gridX1*(iy+1))
			c := uint32(ix + 1 + gridX1*(iy+1))
			d := uint32(ix + 1 + gridX1*iy)
			p.indices = append(p.indices, a, b, d, b, c, d)
		}
	}

	p.wireIndices = edgesOf(p.indices)
	return p
}

// edgesOf returns each unique undirected edge of a triangle list once, in first-seen order.
func edgesOf(indices []uint32) []uint32 {
	seen := make(map[uint64]struct{}, len(indices))
	out := make([]uint32, 0, len(indices))
	add := func(a, b uint32) {
		lo, hi := min(a, b), max(a, b)
		key := uint64(lo)<<32 | uint64(hi)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, a, b)
	}
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		add(a, b)
		add(b, c)
		add(c, a)
	}
	return out
}

func (p *plane) VertexCount() int {
	return len(p.vertices)
}

func (p *plane) Vertex(i int) Vertex {
	return p.vertices[i]
}

func (p *plane) SetHeight(i int, z float32) {
	p.vertices[i].Z = z
}

func (p *plane) Normal() [3]float32 {
	return [3]float32{0, 0, 1}
}

func (p *plane) Indices() []uint32 {
	return p.indices
}

func (p *plane) WireframeIndices() []uint32 {
	return p.wireIndices
}

func (p *plane) NeedsUpdate() bool {
	return p.needsUpdate
}

func (p *plane) SetNeedsUpdate(dirty bool) {
	p.needsUpdate = dirty
}

// MarshalVertices reuses an internal scratch buffer; the returned slice is overwritten by the next call.
func (p *plane) MarshalVertices() []byte {
	size := len(p.vertices) * VertexStride
	if cap(p.marshalScratch) < size {
		p.marshalScratch = make([]byte, size)
	}
	buf := p.marshalScratch[:size]
	n := p.Normal()
	for i, v := range p.vertices {
		o := i * VertexStride
		putF32(buf[o:], v.X)
		putF32(buf[o+4:], v.Y)
		putF32(buf[o+8:], v.Z)
		putF32(buf[o+12:], n[0])
		putF32(buf[o+16:], n[1])
		putF32(buf[o+20:], n[2])
		putF32(buf[o+24:], v.U)
		putF32(buf[o+28:], v.V)
	}
	return buf
}

// MarshalIndices serializes a uint32 index slice as little-endian bytes.
//
// Parameters:
//   - indices: the indices to serialize
//
// Returns:
//   - []byte: the index bytes
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func putF32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}
