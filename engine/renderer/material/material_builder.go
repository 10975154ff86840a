package material

import "github.com/Carmen-Shannon/oxy-terrain/common"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithWireframe is an option builder that draws the material's triangle edges only.
//
// Parameters:
//   - wireframe: true for wireframe rendering
//
// Returns:
//   - MaterialBuilderOption: a function that applies the wireframe option to a material
func WithWireframe(wireframe bool) MaterialBuilderOption {
	return func(m *material) {
		m.wireframe = wireframe
	}
}

// WithColorMap is an option builder that sets the diffuse texture of the material.
//
// Parameters:
//   - tex: the diffuse texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color map option to a material
func WithColorMap(tex Texture) MaterialBuilderOption {
	return func(m *material) {
		m.colorMap = tex
	}
}

// WithSampler is an option builder that sets the color map sampler configuration.
//
// Parameters:
//   - cfg: the sampler configuration
//
// Returns:
//   - MaterialBuilderOption: a function that applies the sampler option to a material
func WithSampler(cfg common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.sampler = cfg
	}
}
