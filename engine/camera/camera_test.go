package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTerrainCamera() Camera {
	cam := NewCamera(
		WithFovDegrees(75),
		WithAspect(2),
		WithClipPlanes(0.1, 1000),
		WithRotation(mgl32.DegToRad(60), 0, 0),
		WithPosition(0, 0, 15),
	)
	cam.UpdateMatrixWorld()
	return cam
}

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera()
	assert.InDelta(t, mgl32.DegToRad(50), cam.Fov(), 1e-6)
	assert.Equal(t, float32(1), cam.Aspect())
	assert.Equal(t, float32(1), cam.Zoom())
	assert.Equal(t, float32(10), cam.Focus())
	assert.True(t, cam.MatrixWorld().ApproxEqual(mgl32.Ident4()))
}

func TestCameraWorldMatrix(t *testing.T) {
	cam := newTerrainCamera()
	assert.True(t, cam.WorldPosition().ApproxEqual(mgl32.Vec3{0, 0, 15}))

	// Rotating 60° about X tilts the -Z view direction toward +Y.
	forward := cam.MatrixWorld().Mul4x1(mgl32.Vec4{0, 0, -1, 0})
	assert.InDelta(t, math.Sin(math.Pi/3), forward[1], 1e-5)
	assert.InDelta(t, -0.5, forward[2], 1e-5)

	assert.True(t, cam.ViewMatrix().Mul4(cam.MatrixWorld()).ApproxEqualThreshold(mgl32.Ident4(), 1e-5))
}

func TestCameraPositionRequiresUpdate(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(1, 2, 3)
	assert.True(t, cam.WorldPosition().ApproxEqual(mgl32.Vec3{}))
	cam.UpdateMatrixWorld()
	assert.True(t, cam.WorldPosition().ApproxEqual(mgl32.Vec3{1, 2, 3}))
}

func TestCameraSetAspect(t *testing.T) {
	cam := newTerrainCamera()
	before := cam.ProjectionMatrix()
	cam.SetAspect(1)
	assert.Equal(t, float32(1), cam.Aspect())
	assert.InDelta(t, before[0]*2, cam.ProjectionMatrix()[0], 1e-5)

	cam.SetAspect(0)
	cam.SetAspect(float32(math.Inf(1)))
	assert.Equal(t, float32(1), cam.Aspect())
}

func TestViewProjectionDepthRange(t *testing.T) {
	cam := NewCamera(WithClipPlanes(1, 100))
	cam.UpdateMatrixWorld()
	vp := cam.ViewProjectionMatrix()

	near := vp.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := vp.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0, near[2]/near[3], 1e-5)
	assert.InDelta(t, 1, far[2]/far[3], 1e-4)
}

func TestGPUCameraUniformMarshal(t *testing.T) {
	cam := newTerrainCamera()
	u := NewGPUCameraUniform(cam)
	require.Equal(t, 80, u.Size())
	buf := u.Marshal()
	require.Len(t, buf, 80)
	z := math.Float32frombits(binary.LittleEndian.Uint32(buf[72:]))
	assert.InDelta(t, 15, z, 1e-5)
	assert.Contains(t, GPUCameraUniformSource, "view_proj")
}
