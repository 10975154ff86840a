package renderer

import (
	"image"

	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/scene"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1). This is the default.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4
)

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// PassState is the fully resolved state of one render pass, handed from the Renderer to its backend.
// Viewport and Scissor are in framebuffer pixels with a top-left origin, already clamped to the surface.
type PassState struct {
	// Index is the pass number within the current frame, starting at 0.
	Index int

	// Viewport is the region the normalized device coordinates map to.
	Viewport Rect

	// Scissor is the region fragments are restricted to.
	Scissor Rect

	// Clear reports whether the color and depth attachments are cleared when the pass begins.
	// A cleared pass always clears the whole attachment, regardless of Scissor.
	Clear bool

	// ClearColor is the RGBA color used when Clear is set.
	ClearColor [4]float64
}

// OverlayElement is a screen-space image drawn on top of the 3D scene, such as a button.
type OverlayElement interface {
	// Key identifies the element across frames so its GPU resources can be reused.
	Key() string

	// Visible reports whether the element is drawn.
	Visible() bool

	// Bounds returns the element rectangle in framebuffer pixels with a top-left origin.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	//
	// Returns:
	//   - image.Rectangle: the element rectangle
	Bounds(width, height int) image.Rectangle

	// Image returns the element's current pixels.
	Image() *image.RGBA

	// Version increments whenever Image changes.
	Version() uint64
}

// RendererBackend is the GPU-facing half of the Renderer. The Renderer resolves viewport, scissor and
// clear state into a PassState; the backend encodes one render pass per call.
type RendererBackend interface {
	// ConfigureSurface (re)configures the presentation surface and its attachments.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the next swapchain texture and creates the frame's command encoder.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawScene encodes a render pass drawing every enabled object of the scene through the camera.
	//
	// Parameters:
	//   - pass: the resolved pass state
	//   - s: the scene whose drawables are drawn
	//   - cam: the camera providing the view-projection matrix
	//
	// Returns:
	//   - error: an error if GPU resources for an object could not be created
	DrawScene(pass PassState, s scene.Scene, cam camera.Camera) error

	// DrawOverlay encodes a render pass drawing screen-space elements without depth testing.
	//
	// Parameters:
	//   - pass: the resolved pass state
	//   - elements: the elements to draw, in order
	//
	// Returns:
	//   - error: an error if GPU resources for an element could not be created
	DrawOverlay(pass PassState, elements []OverlayElement) error

	// ClearPass encodes a render pass that only clears the attachments.
	//
	// Parameters:
	//   - pass: the resolved pass state
	//
	// Returns:
	//   - error: an error if the pass could not be encoded
	ClearPass(pass PassState) error

	// EndFrame finishes the frame's command encoder and submits it to the GPU queue.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()
}
