package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-terrain/engine/geometry"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	id       uint64
	enabled  atomic.Bool
	mu       *sync.RWMutex
	geom     geometry.Geometry
	mat      material.Material
	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3
}

// GameObject defines the interface for a drawable scene entity: a geometry rendered
// with a material under a position/rotation/scale transform.
//
// Rotation is stored as XYZ Euler angles in radians and applied in X, then Y, then Z order
// about the object's local axes. Transform accessors are safe for concurrent use; the
// geometry itself is not and belongs to the goroutine that renders it.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Geometry returns the vertex data drawn for this object.
	//
	// Returns:
	//   - geometry.Geometry: the geometry, or nil
	Geometry() geometry.Geometry

	// Material returns the surface material for this object.
	//
	// Returns:
	//   - material.Material: the material, or nil
	Material() material.Material

	// Position returns the object's world-space translation.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Rotation returns the object's Euler rotation in radians.
	//
	// Returns:
	//   - rx, ry, rz: rotation angles
	Rotation() (rx, ry, rz float32)

	// Scale returns the object's scale factors.
	//
	// Returns:
	//   - sx, sy, sz: scale components
	Scale() (sx, sy, sz float32)

	// ModelMatrix composes translation, rotation and scale into a column-major world matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the model-to-world matrix
	ModelMatrix() mgl32.Mat4

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetGeometry replaces the object's geometry.
	//
	// Parameters:
	//   - g: the geometry
	SetGeometry(g geometry.Geometry)

	// SetMaterial replaces the object's material.
	//
	// Parameters:
	//   - m: the material
	SetMaterial(m material.Material)

	// SetPosition sets the world-space translation.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation angles
	SetRotation(rx, ry, rz float32)

	// RotateZ adds angle radians to the Z rotation.
	//
	// Parameters:
	//   - angle: the rotation increment in radians
	RotateZ(angle float32)

	// SetScale sets the scale factors.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject with unit scale configured with the given options.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu:    &sync.RWMutex{},
		scale: mgl32.Vec3{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Geometry() geometry.Geometry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.geom
}

func (g *gameObject) Material() material.Material {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mat
}

func (g *gameObject) Position() (x, y, z float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position.Elem()
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation.Elem()
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale.Elem()
}

func (g *gameObject) ModelMatrix() mgl32.Mat4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return ComposeMatrix(g.position, g.rotation, g.scale)
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetGeometry(geom geometry.Geometry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.geom = geom
}

func (g *gameObject) SetMaterial(m material.Material) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mat = m
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = mgl32.Vec3{x, y, z}
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = mgl32.Vec3{rx, ry, rz}
}

func (g *gameObject) RotateZ(angle float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation[2] += angle
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = mgl32.Vec3{sx, sy, sz}
}

// ComposeMatrix builds T * Rx * Ry * Rz * S, the world matrix for an XYZ Euler rotation.
//
// Parameters:
//   - position: the translation
//   - rotation: the Euler angles in radians
//   - scale: the scale factors
//
// Returns:
//   - mgl32.Mat4: the composed matrix
func ComposeMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	r := mgl32.HomogRotate3DX(rotation[0]).
		Mul4(mgl32.HomogRotate3DY(rotation[1])).
		Mul4(mgl32.HomogRotate3DZ(rotation[2]))
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(r).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}
