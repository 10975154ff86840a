package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Default stereo rig parameters.
const (
	DefaultEyeSeparation = 0.064
	DefaultStereoAspect  = 1.0
)

// Stereo is a pair of off-axis eye cameras derived from a main camera.
// The eyes share the main camera's orientation, are shifted by half the eye separation
// along its local X axis, and converge on the main camera's focus plane.
type Stereo interface {
	// EyeSeparation returns the distance between the two eyes in world units.
	//
	// Returns:
	//   - float32: the eye separation
	EyeSeparation() float32

	// Aspect returns the factor applied to the main camera's aspect for each eye.
	// 0.5 suits side-by-side rendering where each eye gets half the canvas width.
	//
	// Returns:
	//   - float32: the aspect factor
	Aspect() float32

	// Update recomputes both eye cameras from the main camera's current world and projection state.
	// Projections are only rebuilt when a lens parameter changed since the previous call.
	//
	// Parameters:
	//   - cam: the main camera
	Update(cam Camera)

	// Left returns the left eye camera.
	//
	// Returns:
	//   - Camera: the left eye
	Left() Camera

	// Right returns the right eye camera.
	//
	// Returns:
	//   - Camera: the right eye
	Right() Camera
}

// stereoLens is the set of camera parameters the eye projections depend on.
type stereoLens struct {
	fov, aspect, near, far, zoom, focus, eyeSep float32
}

type stereoImpl struct {
	mu     *sync.Mutex
	eyeSep float32
	aspect float32
	left   Camera
	right  Camera
	lens   stereoLens
	primed bool
}

var _ Stereo = &stereoImpl{}

// NewStereo creates a stereo rig with the default eye separation and aspect factor 1.
//
// Parameters:
//   - options: functional options to configure the rig
//
// Returns:
//   - Stereo: the newly created rig
func NewStereo(options ...StereoBuilderOption) Stereo {
	s := &stereoImpl{
		mu:     &sync.Mutex{},
		eyeSep: DefaultEyeSeparation,
		aspect: DefaultStereoAspect,
		left:   newEye(),
		right:  newEye(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func newEye() Camera {
	c := NewCamera()
	c.SetMatrixWorld(mgl32.Ident4())
	return c
}

func (s *stereoImpl) EyeSeparation() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eyeSep
}

func (s *stereoImpl) Aspect() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aspect
}

func (s *stereoImpl) Left() Camera {
	return s.left
}

func (s *stereoImpl) Right() Camera {
	return s.right
}

func (s *stereoImpl) Update(cam Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lens := stereoLens{
		fov:    cam.Fov(),
		aspect: cam.Aspect() * s.aspect,
		near:   cam.Near(),
		far:    cam.Far(),
		zoom:   cam.Zoom(),
		focus:  cam.Focus(),
		eyeSep: s.eyeSep,
	}

	eyeSepHalf := lens.eyeSep / 2
	if !s.primed || lens != s.lens {
		s.lens = lens
		s.primed = true

		// Off-axis frustums: both eyes see the same rectangle on the focus plane.
		eyeSepOnProjection := eyeSepHalf * lens.near / lens.focus
		ymax := lens.near * float32(math.Tan(float64(lens.fov)/2)) / lens.zoom

		proj := cam.ProjectionMatrix()

		xmin := -ymax*lens.aspect + eyeSepOnProjection
		xmax := ymax*lens.aspect + eyeSepOnProjection
		proj[0] = 2 * lens.near / (xmax - xmin)
		proj[8] = (xmax + xmin) / (xmax - xmin)
		s.left.SetProjectionMatrix(proj)

		xmin = -ymax*lens.aspect - eyeSepOnProjection
		xmax = ymax*lens.aspect - eyeSepOnProjection
		proj[0] = 2 * lens.near / (xmax - xmin)
		proj[8] = (xmax + xmin) / (xmax - xmin)
		s.right.SetProjectionMatrix(proj)
	}

	world := cam.MatrixWorld()
	s.left.SetMatrixWorld(world.Mul4(mgl32.Translate3D(-eyeSepHalf, 0, 0)))
	s.right.SetMatrixWorld(world.Mul4(mgl32.Translate3D(eyeSepHalf, 0, 0)))
}

// StereoBuilderOption is a function that configures a stereo rig during construction.
type StereoBuilderOption func(*stereoImpl)

// WithEyeSeparation sets the distance between the eyes in world units.
//
// Parameters:
//   - sep: the eye separation
//
// Returns:
//   - StereoBuilderOption: a function that sets the eye separation
func WithEyeSeparation(sep float32) StereoBuilderOption {
	return func(s *stereoImpl) {
		s.eyeSep = sep
	}
}

// WithStereoAspect sets the factor applied to the main camera's aspect for each eye.
//
// Parameters:
//   - aspect: the aspect factor
//
// Returns:
//   - StereoBuilderOption: a function that sets the aspect factor
func WithStereoAspect(aspect float32) StereoBuilderOption {
	return func(s *stereoImpl) {
		if aspect > 0 {
			s.aspect = aspect
		}
	}
}
