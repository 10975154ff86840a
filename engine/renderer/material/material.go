package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-terrain/common"
)

// material is the implementation of the Material interface.
type material struct {
	mu        *sync.Mutex
	name      string
	baseColor [4]float32
	wireframe bool
	colorMap  Texture
	sampler   common.SamplerStagingData
}

// Material defines a Lambert surface: a diffuse color modulated by an optional color map,
// lit by the scene's point lights, drawn either filled or as a wireframe.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Wireframe reports whether the material draws triangle edges instead of filled triangles.
	//
	// Returns:
	//   - bool: true for wireframe rendering
	Wireframe() bool

	// ColorMap retrieves the diffuse texture, or nil if none is set.
	// A set texture may still be loading; renderers draw the untextured color until it is ready.
	//
	// Returns:
	//   - Texture: the diffuse texture, or nil
	ColorMap() Texture

	// Sampler retrieves the sampler configuration for the color map.
	//
	// Returns:
	//   - common.SamplerStagingData: the sampler configuration
	Sampler() common.SamplerStagingData

	// SetBaseColor sets the diffuse RGBA color.
	//
	// Parameters:
	//   - color: the base color
	SetBaseColor(color [4]float32)

	// SetWireframe toggles wireframe rendering.
	//
	// Parameters:
	//   - wireframe: true for wireframe rendering
	SetWireframe(wireframe bool)

	// SetColorMap sets the diffuse texture.
	//
	// Parameters:
	//   - tex: the texture, or nil to remove it
	SetColorMap(tex Texture)
}

var _ Material = &material{}

// NewLambertMaterial creates a white, filled Lambert material with no color map.
//
// Parameters:
//   - options: functional options to configure the material
//
// Returns:
//   - Material: the newly created material
func NewLambertMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:        &sync.Mutex{},
		name:      "lambert",
		baseColor: [4]float32{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseColor
}

func (m *material) Wireframe() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wireframe
}

func (m *material) ColorMap() Texture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.colorMap
}

func (m *material) Sampler() common.SamplerStagingData {
	return m.sampler
}

func (m *material) SetBaseColor(color [4]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseColor = color
}

func (m *material) SetWireframe(wireframe bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wireframe = wireframe
}

func (m *material) SetColorMap(tex Texture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.colorMap = tex
}
