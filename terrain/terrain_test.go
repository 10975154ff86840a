package terrain

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-terrain/assets"
	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/frame"
	"github.com/Carmen-Shannon/oxy-terrain/engine/geometry"
	"github.com/Carmen-Shannon/oxy-terrain/engine/noise"
	"github.com/Carmen-Shannon/oxy-terrain/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renderCall struct {
	cam         camera.Camera
	viewport    [4]int
	scissor     [4]int
	scissorTest bool
}

type stubRenderer struct {
	width, height int
	autoClear     bool
	viewport      [4]int
	scissor       [4]int
	scissorTest   bool
	renders       []renderCall
	clears        int
	renderErr     error
}

func newStubRenderer(width, height int) *stubRenderer {
	return &stubRenderer{width: width, height: height, autoClear: true}
}

func (s *stubRenderer) Render(_ scene.Scene, cam camera.Camera) error {
	s.renders = append(s.renders, renderCall{cam: cam, viewport: s.viewport, scissor: s.scissor, scissorTest: s.scissorTest})
	return s.renderErr
}

func (s *stubRenderer) Clear() error {
	s.clears++
	return nil
}

func (s *stubRenderer) SetViewport(x, y, w, h int) { s.viewport = [4]int{x, y, w, h} }

func (s *stubRenderer) SetScissor(x, y, w, h int) { s.scissor = [4]int{x, y, w, h} }

func (s *stubRenderer) SetScissorTest(enabled bool) { s.scissorTest = enabled }

func (s *stubRenderer) AutoClear() bool { return s.autoClear }

func (s *stubRenderer) Size() (int, int) { return s.width, s.height }

// waves is a deterministic noise source.
var waves = noise.Func(func(x, y float64) float64 {
	return math.Sin(x*1.3) * math.Cos(y*0.7)
})

func newBuiltContext(t *testing.T, options ...ContextBuilderOption) (*Context, *stubRenderer, *frame.Queue) {
	t.Helper()
	r := newStubRenderer(800, 600)
	q := frame.NewQueue()
	ctx := NewContext(r, q, append([]ContextBuilderOption{WithNoise(waves)}, options...)...)
	b := NewSceneBuilder(ctx)
	b.BuildGeom()
	b.AddButton()
	return ctx, r, q
}

func TestBuildTerrainDisplacementMatchesNoise(t *testing.T) {
	ctx, _, _ := newBuiltContext(t)
	g := ctx.Terrain.Geometry()

	require.Len(t, ctx.Displacement, (TerrainSegments+1)*(TerrainSegments+1))
	require.Equal(t, 10201, g.VertexCount())
	for i, d := range ctx.Displacement {
		v := g.Vertex(i)
		require.Equal(t, i, d.Vertex)
		want := float32(waves.Noise2D(float64(v.X)/15, float64(v.Y)/15) * 5)
		require.Equal(t, want, d.Height, "vertex %d", i)
		require.Equal(t, d.Height, v.Z, "vertex %d", i)
	}
}

func TestDeterministicNoiseVertexZero(t *testing.T) {
	ctx, _, _ := newBuiltContext(t)
	v := ctx.Terrain.Geometry().Vertex(0)
	assert.Equal(t, float32(-75), v.X)
	assert.Equal(t, float32(150), v.Y)

	want := float32(waves.Noise2D(-75.0/15, 150.0/15) * 5)
	assert.Equal(t, want, v.Z)
	assert.Equal(t, want, ctx.Displacement[0].Height)
}

func TestSampleDisplacementParallelMatchesSequential(t *testing.T) {
	s := scene.NewScene("s")
	a := SampleDisplacement(geometry.NewPlane(10, 10, 30, 30), waves, s.ParallelFor)
	b := SampleDisplacement(geometry.NewPlane(10, 10, 30, 30), waves, nil)
	assert.Equal(t, b, a)
}

func TestBuildTerrainMeshSetup(t *testing.T) {
	ctx, _, _ := newBuiltContext(t)
	_, _, rz := ctx.Terrain.Rotation()
	assert.InDelta(t, mgl32.DegToRad(270), rz, 1e-6)
	assert.True(t, ctx.Terrain.Material().Wireframe())
	assert.Nil(t, ctx.Terrain.Material().ColorMap())
	assert.Equal(t, 1, ctx.Scene.Count())
}

func TestBuildTerrainLoadsTextureInBackground(t *testing.T) {
	ctx, _, _ := newBuiltContext(t, WithTexture(assets.Rock()))
	tex := ctx.Terrain.Material().ColorMap()
	require.NotNil(t, tex)
	require.NoError(t, tex.Wait())
	assert.True(t, tex.Ready())
}

func TestBuildLight(t *testing.T) {
	ctx, _, _ := newBuiltContext(t)
	lights := ctx.Scene.Lights()
	require.Len(t, lights, 1)
	l := lights[0]
	assert.Same(t, ctx.Light, l)
	assert.Equal(t, [3]float32{0, 0, 10}, l.Position())
	assert.Equal(t, [3]float32{1, 1, 1}, l.Color())
	assert.Equal(t, float32(5), l.Intensity())
	assert.Equal(t, float32(100), l.Range())
}

func TestReadIndexInRange(t *testing.T) {
	const n = 10201
	for _, offset := range []float64{0, 0.5, 1, 250.5, 10200.5, 10201, 1e6 + 0.5} {
		for _, i := range []int{0, 1, 5000, n - 1} {
			idx := ReadIndex(i, offset, n)
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, n)
			require.Equal(t, int(math.Floor(math.Mod(float64(i)+offset, n))), idx)
		}
	}
	assert.Equal(t, 0, ReadIndex(3, 1, 0))
	assert.Equal(t, 2, ReadIndex(n-1, 2.5, n))
}

func TestApplyShiftsTargetsNotValues(t *testing.T) {
	g := geometry.NewPlane(4, 4, 2, 2)
	disp := make(DisplacementArray, g.VertexCount())
	for i := range disp {
		disp[i] = Displacement{Vertex: i, Height: float32(i + 1)}
	}

	for _, steps := range []int{0, 1, 2, 7, 18} {
		offset := OffsetStep * float64(steps)
		disp.Apply(g, offset)
		for i, d := range disp {
			target := int(math.Floor(math.Mod(float64(i)+offset, float64(len(disp)))))
			require.Equal(t, d.Height, g.Vertex(target).Z, "step %d source %d", steps, i)
		}

		before := make([]float32, g.VertexCount())
		for i := range before {
			before[i] = g.Vertex(i).Z
		}
		disp.Apply(g, offset)
		for i := range before {
			require.Equal(t, before[i], g.Vertex(i).Z, "replay of step %d is idempotent", steps)
		}
	}
}

func TestThousandStepsWithStubRenderer(t *testing.T) {
	ctx, r, q := newBuiltContext(t)
	loop := NewAnimationLoop(ctx)
	loop.Start()

	for range 1000 {
		require.Equal(t, 1, q.Step(1.0/60))
	}
	assert.Equal(t, 500.0, loop.Offset())
	assert.Equal(t, uint64(1000), loop.Frames())
	assert.Len(t, r.renders, 1000)
	assert.Equal(t, 1, q.Pending())
	assert.True(t, ctx.Terrain.Geometry().NeedsUpdate())
}

func TestFrameMutatesExpectedVertices(t *testing.T) {
	ctx, _, q := newBuiltContext(t)
	loop := NewAnimationLoop(ctx)
	loop.Start()
	g := ctx.Terrain.Geometry()

	for step := range 5 {
		offset := loop.Offset()
		require.Equal(t, OffsetStep*float64(step), offset)
		q.Step(0)
		for i := 0; i < len(ctx.Displacement); i += 97 {
			target := ReadIndex(i, offset, len(ctx.Displacement))
			require.Equal(t, ctx.Displacement[i].Height, g.Vertex(target).Z)
		}
	}
}

func TestMonoFrameRendersOnceFullCanvas(t *testing.T) {
	ctx, r, q := newBuiltContext(t)
	r.viewport = [4]int{1, 2, 3, 4}
	loop := NewAnimationLoop(ctx)
	loop.Start()
	q.Step(0)

	require.Len(t, r.renders, 1)
	call := r.renders[0]
	assert.Same(t, ctx.Camera, call.cam)
	assert.Equal(t, [4]int{0, 0, 800, 600}, call.viewport)
	assert.Equal(t, [4]int{0, 0, 800, 600}, call.scissor)
	assert.False(t, call.scissorTest)
	assert.Zero(t, r.clears)
}

func TestStereoFrameRendersTwoHalves(t *testing.T) {
	ctx, r, q := newBuiltContext(t, WithInitialMode(ModeStereo))
	loop := NewAnimationLoop(ctx)
	loop.Start()
	q.Step(0)

	require.Len(t, r.renders, 2)
	left, right := r.renders[0], r.renders[1]
	assert.Same(t, ctx.Stereo.Left(), left.cam)
	assert.Same(t, ctx.Stereo.Right(), right.cam)
	assert.Equal(t, [4]int{0, 0, 400, 600}, left.viewport)
	assert.Equal(t, [4]int{400, 0, 400, 600}, right.viewport)
	assert.Equal(t, left.viewport, left.scissor)
	assert.Equal(t, right.viewport, right.scissor)
	assert.True(t, left.scissorTest)
	assert.True(t, right.scissorTest)
	assert.False(t, r.scissorTest, "scissor test is switched off after the frame")
	assert.Equal(t, 1, r.clears)

	r.autoClear = false
	q.Step(0)
	assert.Equal(t, 1, r.clears, "no clear without auto-clear")
	assert.Len(t, r.renders, 4)
}

func TestStereoEyesStraddleMainCamera(t *testing.T) {
	ctx, _, q := newBuiltContext(t, WithInitialMode(ModeStereo))
	NewAnimationLoop(ctx).Start()
	q.Step(0)

	main := ctx.Camera.MatrixWorld().Col(3).Vec3()
	l := ctx.Stereo.Left().MatrixWorld().Col(3).Vec3()
	rr := ctx.Stereo.Right().MatrixWorld().Col(3).Vec3()
	assert.InDelta(t, camera.DefaultEyeSeparation, l.Sub(rr).Len(), 1e-5)
	assert.InDelta(t, 0, l.Add(rr).Mul(0.5).Sub(main).Len(), 1e-5)
	assert.InDelta(t, 15, main.Z(), 1e-5)
}

func TestModeFollowsToggleBetweenFrames(t *testing.T) {
	ctx, r, q := newBuiltContext(t)
	NewAnimationLoop(ctx).Start()

	q.Step(0)
	ctx.Mode.Toggle()
	q.Step(0)
	ctx.Mode.Toggle()
	q.Step(0)
	assert.Len(t, r.renders, 1+2+1)
}

func TestButtonClicksToggleModeOncePerClick(t *testing.T) {
	ctx, r, _ := newBuiltContext(t)
	bounds := ctx.Button.Bounds(r.width, r.height)
	assert.Equal(t, r.width-16, bounds.Max.X)
	assert.Equal(t, r.height-16, bounds.Max.Y)
	assert.Equal(t, ToggleLabel, ctx.Button.Label())

	x, y := bounds.Min.X+1, bounds.Min.Y+1
	assert.False(t, ctx.Mode.Stereo())
	require.True(t, ctx.Overlay.DispatchClick(x, y, r.width, r.height))
	assert.True(t, ctx.Mode.Stereo())
	require.True(t, ctx.Overlay.DispatchClick(x, y, r.width, r.height))
	assert.False(t, ctx.Mode.Stereo())

	assert.False(t, ctx.Overlay.DispatchClick(0, 0, r.width, r.height))
	assert.False(t, ctx.Mode.Stereo())
}

func TestModeSwitchParity(t *testing.T) {
	s := NewModeSwitch(ModeMono)
	var seen []Mode
	s.OnChange(func(m Mode) { seen = append(seen, m) })
	for range 6 {
		s.Toggle()
	}
	assert.Equal(t, ModeMono, s.Mode())
	assert.Equal(t, []Mode{ModeStereo, ModeMono, ModeStereo, ModeMono, ModeStereo, ModeMono}, seen)
	assert.Equal(t, "Terrain [Stereo]", Title("Terrain", ModeStereo))
	assert.Equal(t, "Mono", ModeMono.String())
}

func TestStopEndsRescheduling(t *testing.T) {
	ctx, r, q := newBuiltContext(t)
	loop := NewAnimationLoop(ctx)
	loop.Start()
	loop.Start()
	assert.Equal(t, 1, q.Pending(), "starting twice registers one frame")

	q.Step(0)
	loop.Stop()
	q.Step(0)
	assert.Equal(t, 0.5, loop.Offset())
	assert.Zero(t, q.Pending())
	assert.Len(t, r.renders, 1)

	assert.True(t, loop.Toggle())
	q.Step(0)
	assert.Equal(t, 1.0, loop.Offset())

	// Stop then Start before the pending frame runs: the stale frame is dropped.
	loop.Stop()
	loop.Start()
	assert.Equal(t, 2, q.Pending())
	q.Step(0)
	assert.Equal(t, 1.5, loop.Offset())
	assert.Equal(t, 1, q.Pending())
}

func TestRenderErrorKeepsScheduling(t *testing.T) {
	ctx, r, q := newBuiltContext(t)
	r.renderErr = errors.New("device lost")
	loop := NewAnimationLoop(ctx)
	loop.Start()
	for range 3 {
		q.Step(0)
	}
	assert.Equal(t, 1.5, loop.Offset())
	assert.Equal(t, 1, q.Pending())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ctx, _, q := newBuiltContext(t, WithMetrics(m))
	NewAnimationLoop(ctx).Start()

	q.Step(0)
	q.Step(0)
	assert.Zero(t, testutil.ToFloat64(m.Stereo))
	ctx.Mode.Toggle()
	q.Step(0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Frames))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RenderCalls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Stereo))
}

func TestContextResizeUpdatesAspect(t *testing.T) {
	ctx, _, _ := newBuiltContext(t)
	assert.InDelta(t, 800.0/600.0, ctx.Camera.Aspect(), 1e-6)
	ctx.Resize(1000, 500)
	assert.InDelta(t, 2, ctx.Camera.Aspect(), 1e-6)
	ctx.Resize(0, 500)
	assert.InDelta(t, 2, ctx.Camera.Aspect(), 1e-6)
}
