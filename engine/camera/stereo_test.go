package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestStereoEyesAreOffsetAlongCameraX(t *testing.T) {
	cam := newTerrainCamera()
	rig := NewStereo(WithStereoAspect(0.5))
	rig.Update(cam)

	left := rig.Left().WorldPosition()
	right := rig.Right().WorldPosition()
	assert.InDelta(t, -DefaultEyeSeparation/2, left[0], 1e-6)
	assert.InDelta(t, DefaultEyeSeparation/2, right[0], 1e-6)
	assert.InDelta(t, 15, left[2], 1e-5)
	assert.InDelta(t, DefaultEyeSeparation, right.Sub(left).Len(), 1e-6)
}

func TestStereoOffAxisProjection(t *testing.T) {
	cam := newTerrainCamera()
	rig := NewStereo(WithStereoAspect(0.5))
	rig.Update(cam)

	near := cam.Near()
	eyeSepOnProjection := float32(DefaultEyeSeparation/2) * near / cam.Focus()
	ymax := near * float32(math.Tan(float64(cam.Fov())/2))
	aspect := cam.Aspect() * 0.5

	lp := rig.Left().ProjectionMatrix()
	rp := rig.Right().ProjectionMatrix()
	assert.InDelta(t, near/(ymax*aspect), lp[0], 1e-4)
	assert.InDelta(t, lp[0], rp[0], 1e-6)
	assert.InDelta(t, eyeSepOnProjection/(ymax*aspect), lp[8], 1e-6)
	assert.InDelta(t, -lp[8], rp[8], 1e-6)

	// Rows other than the X scale and skew come from the main projection.
	mp := cam.ProjectionMatrix()
	assert.Equal(t, mp[5], lp[5])
	assert.Equal(t, mp[10], lp[10])
	assert.Equal(t, mp[14], lp[14])
}

func TestStereoTracksMainCamera(t *testing.T) {
	cam := newTerrainCamera()
	rig := NewStereo()
	rig.Update(cam)

	cam.SetPosition(10, 0, 15)
	cam.UpdateMatrixWorld()
	rig.Update(cam)
	assert.InDelta(t, 10-DefaultEyeSeparation/2, rig.Left().WorldPosition()[0], 1e-5)

	before := rig.Left().ProjectionMatrix()
	cam.SetAspect(1)
	rig.Update(cam)
	assert.NotEqual(t, before[0], rig.Left().ProjectionMatrix()[0])
}

func TestStereoEyesIgnoreOwnUpdate(t *testing.T) {
	cam := newTerrainCamera()
	rig := NewStereo(WithEyeSeparation(1))
	rig.Update(cam)
	rig.Left().UpdateMatrixWorld()
	assert.InDelta(t, -0.5, rig.Left().WorldPosition()[0], 1e-6)
	assert.True(t, rig.Left().MatrixWorld().Mul4(mgl32.Translate3D(1, 0, 0)).ApproxEqualThreshold(rig.Right().MatrixWorld(), 1e-6))
}
