package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// clipCorrection remaps OpenGL clip-space depth [-1, 1] to WebGPU's [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32 // vertical, radians
	aspect float32
	near   float32
	far    float32
	zoom   float32
	focus  float32

	position mgl32.Vec3
	rotation mgl32.Vec3 // XYZ Euler, radians

	matrixWorld      mgl32.Mat4
	projectionMatrix mgl32.Mat4

	// manual cameras take their world and projection matrices from SetMatrixWorld/SetProjectionMatrix.
	manual bool
}

// Camera defines the interface for a perspective camera.
//
// The camera is placed by a position and an XYZ Euler rotation and looks down its local -Z axis.
// ProjectionMatrix uses the OpenGL depth convention so off-axis projections can be derived from it;
// ViewProjectionMatrix applies the WebGPU depth correction and is what shaders consume.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Zoom returns the zoom factor applied to the field of view.
	//
	// Returns:
	//   - float32: the zoom factor
	Zoom() float32

	// Focus returns the distance of the zero-parallax plane used by stereo rigs.
	//
	// Returns:
	//   - float32: the focus distance
	Focus() float32

	// Position returns the local position of the camera.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Rotation returns the XYZ Euler rotation in radians.
	//
	// Returns:
	//   - mgl32.Vec3: the rotation
	Rotation() mgl32.Vec3

	// WorldPosition returns the translation of the world matrix.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space position
	WorldPosition() mgl32.Vec3

	// MatrixWorld returns the camera-to-world matrix computed by the last UpdateMatrixWorld.
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	MatrixWorld() mgl32.Mat4

	// ViewMatrix returns the world-to-camera matrix, the inverse of MatrixWorld.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the projection matrix in OpenGL clip convention.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns the WebGPU-corrected projection times view.
	//
	// Returns:
	//   - mgl32.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() mgl32.Mat4

	// UpdateMatrixWorld recomputes the world matrix from position and rotation.
	// Manual cameras keep the matrix last given to SetMatrixWorld.
	UpdateMatrixWorld()

	// SetPosition sets the local position.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetRotation sets the XYZ Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: rotation angles
	SetRotation(rx, ry, rz float32)

	// SetFov sets the vertical field of view in radians and recomputes the projection.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes the projection.
	// Non-positive values are ignored.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetMatrixWorld overrides the world matrix and switches the camera to manual mode.
	//
	// Parameters:
	//   - m: the camera-to-world matrix
	SetMatrixWorld(m mgl32.Mat4)

	// SetProjectionMatrix overrides the projection matrix and switches the camera to manual mode.
	//
	// Parameters:
	//   - m: the projection matrix in OpenGL clip convention
	SetProjectionMatrix(m mgl32.Mat4)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new perspective Camera at the origin looking down -Z with a 50° field of view,
// aspect 1, near 0.1, far 2000, zoom 1 and focus 10.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    mgl32.DegToRad(50),
		aspect: 1.0,
		near:   0.1,
		far:    2000.0,
		zoom:   1.0,
		focus:  10.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateProjection()
	c.updateWorld()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *cameraImpl) Focus() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Rotation() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation
}

func (c *cameraImpl) WorldPosition() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrixWorld.Col(3).Vec3()
}

func (c *cameraImpl) MatrixWorld() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrixWorld
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrixWorld.Inv()
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clipCorrection.Mul4(c.projectionMatrix).Mul4(c.matrixWorld.Inv())
}

func (c *cameraImpl) UpdateMatrixWorld() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateWorld()
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = mgl32.Vec3{x, y, z}
}

func (c *cameraImpl) SetRotation(rx, ry, rz float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = mgl32.Vec3{rx, ry, rz}
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateProjection()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 || math.IsInf(float64(aspect), 0) || math.IsNaN(float64(aspect)) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateProjection()
}

func (c *cameraImpl) SetMatrixWorld(m mgl32.Mat4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual = true
	c.matrixWorld = m
}

func (c *cameraImpl) SetProjectionMatrix(m mgl32.Mat4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual = true
	c.projectionMatrix = m
}

// updateWorld rebuilds the world matrix as T * Rx * Ry * Rz. Caller holds mu.
func (c *cameraImpl) updateWorld() {
	if c.manual {
		return
	}
	c.matrixWorld = mgl32.Translate3D(c.position[0], c.position[1], c.position[2]).
		Mul4(mgl32.HomogRotate3DX(c.rotation[0])).
		Mul4(mgl32.HomogRotate3DY(c.rotation[1])).
		Mul4(mgl32.HomogRotate3DZ(c.rotation[2]))
}

// updateProjection rebuilds the perspective projection. Caller holds mu.
func (c *cameraImpl) updateProjection() {
	if c.manual {
		return
	}
	fov := 2 * float32(math.Atan(math.Tan(float64(c.fov)/2)/float64(c.zoom)))
	c.projectionMatrix = mgl32.Perspective(fov, c.aspect, c.near, c.far)
}
