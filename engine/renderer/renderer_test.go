package renderer

import (
	"encoding/binary"
	"image"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPass struct {
	kind string
	pass PassState
}

type fakeBackend struct {
	configured [][2]int
	passes     []recordedPass
	frames     int
	presented  int
	mode       PresentMode
}

func (f *fakeBackend) ConfigureSurface(width, height int) {
	f.configured = append(f.configured, [2]int{width, height})
}

func (f *fakeBackend) SetPresentMode(mode PresentMode) { f.mode = mode }

func (f *fakeBackend) BeginFrame() error { return nil }

func (f *fakeBackend) DrawScene(pass PassState, _ scene.Scene, _ camera.Camera) error {
	f.passes = append(f.passes, recordedPass{"scene", pass})
	return nil
}

func (f *fakeBackend) DrawOverlay(pass PassState, _ []OverlayElement) error {
	f.passes = append(f.passes, recordedPass{"overlay", pass})
	return nil
}

func (f *fakeBackend) ClearPass(pass PassState) error {
	f.passes = append(f.passes, recordedPass{"clear", pass})
	return nil
}

func (f *fakeBackend) EndFrame() { f.frames++ }

func (f *fakeBackend) Present() { f.presented++ }

func newTestRenderer(t *testing.T, width, height int, options ...RendererBuilderOption) (*renderer, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	r := newRenderer(options...)
	r.backend = fb
	r.attach(width, height)
	return r, fb
}

func TestRendererRequiresFrame(t *testing.T) {
	r, _ := newTestRenderer(t, 800, 600)
	err := r.Render(scene.NewScene("s"), camera.NewCamera())
	assert.ErrorIs(t, err, ErrNoFrame)
	assert.ErrorIs(t, r.Clear(), ErrNoFrame)

	require.NoError(t, r.BeginFrame())
	assert.Error(t, r.BeginFrame())
}

func TestRendererMonoFrameClearsOnce(t *testing.T) {
	r, fb := newTestRenderer(t, 800, 600)
	s, cam := scene.NewScene("s"), camera.NewCamera()

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Render(s, cam))
	r.EndFrame()
	r.Present()

	require.Len(t, fb.passes, 1)
	p := fb.passes[0].pass
	assert.Equal(t, "scene", fb.passes[0].kind)
	assert.True(t, p.Clear)
	assert.Equal(t, Rect{Width: 800, Height: 600}, p.Viewport)
	assert.Equal(t, Rect{Width: 800, Height: 600}, p.Scissor)
	assert.Equal(t, 1, fb.frames)
	assert.Equal(t, 1, fb.presented)

	info := r.Info()
	assert.Equal(t, uint64(1), info.Frame)
	assert.Equal(t, 1, info.Calls)
}

func TestRendererSplitViewportFrame(t *testing.T) {
	r, fb := newTestRenderer(t, 800, 600)
	s, cam := scene.NewScene("s"), camera.NewCamera()

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Clear())
	r.SetScissorTest(true)
	r.SetScissor(0, 0, 400, 600)
	r.SetViewport(0, 0, 400, 600)
	require.NoError(t, r.Render(s, cam))
	r.SetScissor(400, 0, 400, 600)
	r.SetViewport(400, 0, 400, 600)
	require.NoError(t, r.Render(s, cam))
	r.SetScissorTest(false)
	r.EndFrame()

	require.Len(t, fb.passes, 3)
	assert.Equal(t, "clear", fb.passes[0].kind)
	assert.True(t, fb.passes[0].pass.Clear)

	left, right := fb.passes[1].pass, fb.passes[2].pass
	assert.False(t, left.Clear, "scissored passes must not wipe the other half")
	assert.False(t, right.Clear)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 400, Height: 600}, left.Viewport)
	assert.Equal(t, Rect{X: 400, Y: 0, Width: 400, Height: 600}, right.Viewport)
	assert.Equal(t, left.Viewport, left.Scissor)
	assert.Equal(t, right.Viewport, right.Scissor)
	assert.Equal(t, []int{0, 1, 2}, []int{fb.passes[0].pass.Index, left.Index, right.Index})
	assert.Equal(t, 2, r.Info().Calls)
}

func TestRendererFlipsBottomLeftOrigin(t *testing.T) {
	r, fb := newTestRenderer(t, 800, 600)
	require.NoError(t, r.BeginFrame())
	r.SetViewport(10, 20, 100, 50)
	require.NoError(t, r.Render(scene.NewScene("s"), camera.NewCamera()))

	assert.Equal(t, Rect{X: 10, Y: 530, Width: 100, Height: 50}, fb.passes[0].pass.Viewport)
}

func TestRendererClampsToSurface(t *testing.T) {
	r, fb := newTestRenderer(t, 800, 600)
	require.NoError(t, r.BeginFrame())
	r.SetViewport(-100, -100, 1000, 1000)
	require.NoError(t, r.Render(scene.NewScene("s"), camera.NewCamera()))

	assert.Equal(t, Rect{X: 0, Y: 0, Width: 800, Height: 600}, fb.passes[0].pass.Viewport)

	r.SetViewport(700, 550, 200, 100)
	require.NoError(t, r.Render(scene.NewScene("s"), camera.NewCamera()))
	assert.Equal(t, Rect{X: 700, Y: 0, Width: 100, Height: 50}, fb.passes[1].pass.Viewport)
}

func TestRendererEndFrameClearsUntouchedFrame(t *testing.T) {
	r, fb := newTestRenderer(t, 320, 240)
	require.NoError(t, r.BeginFrame())
	r.EndFrame()

	require.Len(t, fb.passes, 1)
	assert.Equal(t, "clear", fb.passes[0].kind)
}

func TestRendererAutoClearOff(t *testing.T) {
	r, fb := newTestRenderer(t, 320, 240, WithAutoClear(false), WithClearColor(0.1, 0.2, 0.3, 1))
	assert.False(t, r.AutoClear())

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Render(scene.NewScene("s"), camera.NewCamera()))
	require.NoError(t, r.RenderOverlay())
	r.EndFrame()

	require.Len(t, fb.passes, 3)
	assert.False(t, fb.passes[0].pass.Clear)
	assert.Equal(t, "overlay", fb.passes[1].kind)
	assert.False(t, fb.passes[1].pass.Clear)
	assert.Equal(t, "clear", fb.passes[2].kind)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 1}, fb.passes[2].pass.ClearColor)
}

func TestRendererPassLimit(t *testing.T) {
	r, _ := newTestRenderer(t, 320, 240)
	s, cam := scene.NewScene("s"), camera.NewCamera()
	require.NoError(t, r.BeginFrame())
	for range MaxPassesPerFrame {
		require.NoError(t, r.Render(s, cam))
	}
	assert.ErrorIs(t, r.Render(s, cam), ErrTooManyPasses)
	r.EndFrame()

	require.NoError(t, r.BeginFrame())
	assert.NoError(t, r.Render(s, cam))
}

func TestRendererResizeResetsViewportAndScissor(t *testing.T) {
	r, fb := newTestRenderer(t, 800, 600, WithPresentMode(PresentModeUncapped))
	assert.Equal(t, PresentModeUncapped, fb.mode)

	r.SetViewport(1, 2, 3, 4)
	r.SetScissor(5, 6, 7, 8)
	r.Resize(1024, 0)

	w, h := r.Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, Rect{Width: 1024, Height: 1}, r.Viewport())
	assert.Equal(t, Rect{Width: 1024, Height: 1}, r.Scissor())
	assert.Equal(t, [][2]int{{800, 600}, {1024, 1}}, fb.configured)
}

func TestMarshalObjectUniform(t *testing.T) {
	buf := marshalObjectUniform(mgl32.Translate3D(1, 2, 3), [4]float32{0.5, 0.25, 1, 1})
	require.Len(t, buf, objectUniformSize)
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(1), f(12*4))
	assert.Equal(t, float32(2), f(13*4))
	assert.Equal(t, float32(0.5), f(64))
	assert.Equal(t, float32(0.25), f(68))
}

func TestOverlayQuadNDC(t *testing.T) {
	buf := overlayQuad(image.Rect(600, 500, 800, 600), 800, 600)
	require.Len(t, buf, 6*overlayVertexStride)
	f := func(vertex, component int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[vertex*overlayVertexStride+component*4:]))
	}
	assert.InDelta(t, 0.5, f(0, 0), 1e-6)
	assert.InDelta(t, -2.0/3.0, f(0, 1), 1e-6)
	assert.InDelta(t, 1, f(2, 0), 1e-6)
	assert.InDelta(t, -1, f(2, 1), 1e-6)
	assert.Equal(t, float32(1), f(2, 2))
	assert.Equal(t, float32(1), f(2, 3))
}

func TestTerrainShaderPreProcesses(t *testing.T) {
	p := shader.NewPreProcessor()
	out, err := p.Process(terrainShaderSource)
	require.NoError(t, err)
	assert.Contains(t, out, "struct CameraUniform")
	assert.Contains(t, out, "@group(1) @binding(0) var<uniform> light_block: LightBlock;")
	assert.NotContains(t, out, "@oxy:")
	assert.Len(t, p.Declarations(), 2)
}
