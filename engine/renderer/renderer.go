package renderer

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/scene"
	"github.com/Carmen-Shannon/oxy-terrain/engine/window"
)

// MaxPassesPerFrame is the number of render passes (scene, overlay and clear) a single frame may encode.
const MaxPassesPerFrame = 8

var (
	// ErrNoFrame is returned when a pass is requested outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrTooManyPasses is returned when a frame requests more than MaxPassesPerFrame passes.
	ErrTooManyPasses = errors.New("renderer: too many passes in one frame")
)

// Info holds draw statistics.
type Info struct {
	// Frame is the number of frames ended so far.
	Frame uint64

	// Calls is the number of Render calls in the current (or last ended) frame.
	Calls int

	// TotalCalls is the number of Render calls since creation.
	TotalCalls uint64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	width, height int

	// viewport and scissor are stored as set, with a bottom-left origin.
	viewport    Rect
	scissor     Rect
	scissorTest bool
	autoClear   bool
	clearColor  [4]float64

	inFrame          bool
	passIndex        int
	clearedThisFrame bool
	info             Info

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer draws scenes into a window surface.
//
// Each frame is bracketed by BeginFrame and EndFrame. Between them, every Render, RenderOverlay and Clear
// call encodes one render pass using the viewport, scissor and clear state current at the time of the call.
// Viewport and scissor rectangles use a bottom-left origin in framebuffer pixels.
type Renderer interface {
	// Render draws every enabled object of the scene through the camera into the current viewport.
	// The scene's and camera's world matrices are updated first.
	// With auto-clear on, the pass clears the whole surface unless scissor testing is on and the surface was
	// already cleared this frame.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - cam: the camera to draw through
	//
	// Returns:
	//   - error: ErrNoFrame, ErrTooManyPasses, or a wrapped backend error
	Render(s scene.Scene, cam camera.Camera) error

	// RenderOverlay draws screen-space elements over the whole surface.
	//
	// Parameters:
	//   - elements: the elements to draw, in order
	//
	// Returns:
	//   - error: ErrNoFrame, ErrTooManyPasses, or a wrapped backend error
	RenderOverlay(elements ...OverlayElement) error

	// Clear clears the whole surface to the clear color and resets depth.
	//
	// Returns:
	//   - error: ErrNoFrame, ErrTooManyPasses, or a wrapped backend error
	Clear() error

	// SetViewport sets the viewport rectangle (bottom-left origin).
	//
	// Parameters:
	//   - x, y: the bottom-left corner in pixels
	//   - width, height: the size in pixels
	SetViewport(x, y, width, height int)

	// Viewport returns the viewport rectangle as set (bottom-left origin).
	Viewport() Rect

	// SetScissor sets the scissor rectangle (bottom-left origin). Only used while scissor testing is on.
	//
	// Parameters:
	//   - x, y: the bottom-left corner in pixels
	//   - width, height: the size in pixels
	SetScissor(x, y, width, height int)

	// Scissor returns the scissor rectangle as set (bottom-left origin).
	Scissor() Rect

	// SetScissorTest enables or disables scissor testing.
	SetScissorTest(enabled bool)

	// ScissorTest reports whether scissor testing is enabled.
	ScissorTest() bool

	// AutoClear reports whether Render clears the surface before drawing.
	AutoClear() bool

	// SetAutoClear enables or disables automatic clearing.
	SetAutoClear(enabled bool)

	// SetClearColor sets the color used by cleared passes.
	SetClearColor(r, g, b, a float64)

	// Size returns the drawing surface size in pixels.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	Size() (width, height int)

	// Resize configures the backend for a new surface size and resets viewport and scissor to cover it.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required for it to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the swapchain texture and opens a frame.
	//
	// Returns:
	//   - error: an error if a frame is already open or the swapchain texture could not be acquired
	BeginFrame() error

	// EndFrame submits the frame's passes. A frame with no clearing pass is cleared before submission.
	EndFrame()

	// Present presents the surface to the display. Must be called once per frame after EndFrame.
	Present()

	// Info returns the draw statistics.
	Info() Info
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer drawing into the given window.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - w: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, w window.Window, options ...RendererBuilderOption) Renderer {
	r := newRenderer(options...)
	r.backendType = backendType

	msaa := MSAAOff
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(w.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	r.attach(w.Width(), w.Height())
	return r
}

// newRenderer applies options to a renderer without a backend.
func newRenderer(options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:         &sync.Mutex{},
		autoClear:  true,
		clearColor: [4]float64{0, 0, 0, 1},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// attach configures the backend surface once it is set.
func (r *renderer) attach(width, height int) {
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.Resize(width, height)
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = max(width, 1)
	r.height = max(height, 1)
	r.viewport = Rect{Width: r.width, Height: r.height}
	r.scissor = r.viewport
	r.backend.ConfigureSurface(r.width, r.height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetViewport(x, y, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport = Rect{X: x, Y: y, Width: width, Height: height}
}

func (r *renderer) Viewport() Rect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

func (r *renderer) SetScissor(x, y, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scissor = Rect{X: x, Y: y, Width: width, Height: height}
}

func (r *renderer) Scissor() Rect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scissor
}

func (r *renderer) SetScissorTest(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scissorTest = enabled
}

func (r *renderer) ScissorTest() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scissorTest
}

func (r *renderer) AutoClear() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.autoClear
}

func (r *renderer) SetAutoClear(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoClear = enabled
}

func (r *renderer) SetClearColor(red, green, blue, alpha float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = [4]float64{red, green, blue, alpha}
}

func (r *renderer) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFrame {
		return errors.New("renderer: frame already in progress")
	}
	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	r.inFrame = true
	r.passIndex = 0
	r.clearedThisFrame = false
	r.info.Calls = 0
	return nil
}

func (r *renderer) Render(s scene.Scene, cam camera.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pass, err := r.nextPassLocked(r.autoClear && (!r.scissorTest || !r.clearedThisFrame))
	if err != nil {
		return err
	}

	s.UpdateMatrixWorld()
	cam.UpdateMatrixWorld()
	if err := r.backend.DrawScene(pass, s, cam); err != nil {
		return fmt.Errorf("failed to render scene %q: %w", s.Name(), err)
	}
	r.info.Calls++
	r.info.TotalCalls++
	return nil
}

func (r *renderer) RenderOverlay(elements ...OverlayElement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pass, err := r.nextPassLocked(r.autoClear && !r.clearedThisFrame)
	if err != nil {
		return err
	}
	full := Rect{Width: r.width, Height: r.height}
	pass.Viewport = full
	pass.Scissor = full

	if err := r.backend.DrawOverlay(pass, elements); err != nil {
		return fmt.Errorf("failed to render overlay: %w", err)
	}
	return nil
}

func (r *renderer) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearLocked()
}

func (r *renderer) clearLocked() error {
	pass, err := r.nextPassLocked(true)
	if err != nil {
		return err
	}
	full := Rect{Width: r.width, Height: r.height}
	pass.Viewport = full
	pass.Scissor = full

	if err := r.backend.ClearPass(pass); err != nil {
		return fmt.Errorf("failed to clear: %w", err)
	}
	return nil
}

// nextPassLocked resolves the current state into the next pass of the frame.
func (r *renderer) nextPassLocked(clearing bool) (PassState, error) {
	if !r.inFrame {
		return PassState{}, ErrNoFrame
	}
	if r.passIndex >= MaxPassesPerFrame {
		return PassState{}, ErrTooManyPasses
	}

	pass := PassState{
		Index:      r.passIndex,
		Viewport:   r.toFramebuffer(r.viewport),
		Scissor:    Rect{Width: r.width, Height: r.height},
		Clear:      clearing,
		ClearColor: r.clearColor,
	}
	if r.scissorTest {
		pass.Scissor = r.toFramebuffer(r.scissor)
	}

	r.passIndex++
	if clearing {
		r.clearedThisFrame = true
	}
	return pass, nil
}

// toFramebuffer converts a bottom-left-origin rectangle into a top-left-origin one clamped to the surface.
func (r *renderer) toFramebuffer(rect Rect) Rect {
	x0 := clampInt(rect.X, 0, r.width)
	x1 := clampInt(rect.X+rect.Width, 0, r.width)
	top := r.height - (rect.Y + rect.Height)
	y0 := clampInt(top, 0, r.height)
	y1 := clampInt(top+rect.Height, 0, r.height)
	return Rect{X: x0, Y: y0, Width: max(x1-x0, 0), Height: max(y1-y0, 0)}
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return
	}
	if !r.clearedThisFrame {
		// Leave the swapchain image defined even when nothing was drawn.
		if err := r.clearLocked(); err != nil {
			log.Printf("[Renderer] end of frame clear failed: %v", err)
		}
	}
	r.backend.EndFrame()
	r.inFrame = false
	r.info.Frame++
}

func (r *renderer) Present() {
	r.backend.Present()
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
