// Package terrain builds and animates a noise-displaced terrain mesh with an optional
// side-by-side stereo render path.
//
// A Context carries everything the scene builder and the animation loop share. SceneBuilder
// fills it once; AnimationLoop reads it every frame.
package terrain

import (
	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/frame"
	"github.com/Carmen-Shannon/oxy-terrain/engine/game_object"
	"github.com/Carmen-Shannon/oxy-terrain/engine/light"
	"github.com/Carmen-Shannon/oxy-terrain/engine/noise"
	"github.com/Carmen-Shannon/oxy-terrain/engine/scene"
	"github.com/Carmen-Shannon/oxy-terrain/engine/ui"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera rig settings.
const (
	CameraFovDegrees    = 75
	CameraNear          = 0.1
	CameraFar           = 1000
	CameraTiltDegrees   = 60
	CameraDistance      = 15
	StereoAspect        = 0.5
	DefaultCanvasWidth  = 1280
	DefaultCanvasHeight = 720
)

// Renderer is the part of the engine renderer the animation loop draws through.
// Rectangles use a bottom-left origin in pixels.
type Renderer interface {
	Render(s scene.Scene, cam camera.Camera) error
	Clear() error
	SetViewport(x, y, width, height int)
	SetScissor(x, y, width, height int)
	SetScissorTest(enabled bool)
	AutoClear() bool
	Size() (width, height int)
}

// Context is the application state shared by SceneBuilder and AnimationLoop.
type Context struct {
	Scene     scene.Scene
	Camera    camera.Camera
	Stereo    camera.Stereo
	Renderer  Renderer
	Scheduler frame.Scheduler
	Noise     noise.Source
	Overlay   ui.Overlay
	Mode      *ModeSwitch
	Metrics   *Metrics

	// Texture is the color map source; a zero value leaves the terrain untextured.
	Texture common.ImageSource

	// Populated by SceneBuilder.
	Terrain      game_object.GameObject
	Light        light.Light
	Displacement DisplacementArray
	Button       ui.Button

	eyeSeparation float32
	initialMode   Mode
}

// ContextBuilderOption is a functional option applied to a Context by NewContext.
type ContextBuilderOption func(*Context)

// NewContext creates a Context drawing through r and animating on sched.
// Defaults: a fresh scene, a random-seeded Perlin source, an empty overlay, mono mode, no metrics and
// a camera whose aspect matches the renderer's surface.
//
// Parameters:
//   - r: the renderer
//   - sched: the per-refresh scheduler
//   - options: functional options
//
// Returns:
//   - *Context: the context
func NewContext(r Renderer, sched frame.Scheduler, options ...ContextBuilderOption) *Context {
	c := &Context{
		Renderer:      r,
		Scheduler:     sched,
		eyeSeparation: camera.DefaultEyeSeparation,
		initialMode:   ModeMono,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.Scene == nil {
		c.Scene = scene.NewScene("terrain")
	}
	if c.Noise == nil {
		c.Noise = noise.NewPerlin(0)
	}
	if c.Overlay == nil {
		c.Overlay = ui.NewOverlay()
	}
	if c.Mode == nil {
		c.Mode = NewModeSwitch(c.initialMode)
	}

	width, height := DefaultCanvasWidth, DefaultCanvasHeight
	if r != nil {
		width, height = r.Size()
	}
	c.Camera = camera.NewCamera(
		camera.WithFovDegrees(CameraFovDegrees),
		camera.WithAspect(aspectOf(width, height)),
		camera.WithClipPlanes(CameraNear, CameraFar),
		camera.WithRotation(mgl32.DegToRad(CameraTiltDegrees), 0, 0),
		camera.WithPosition(0, 0, CameraDistance),
	)
	c.Stereo = camera.NewStereo(
		camera.WithStereoAspect(StereoAspect),
		camera.WithEyeSeparation(c.eyeSeparation),
	)

	c.Metrics.observeMode(c.Mode.Mode())
	c.Mode.OnChange(c.Metrics.observeMode)
	return c
}

// Resize updates the main camera's aspect for a new surface size.
//
// Parameters:
//   - width, height: the surface size in pixels
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Camera.SetAspect(aspectOf(width, height))
}

func aspectOf(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// WithScene replaces the default scene.
func WithScene(s scene.Scene) ContextBuilderOption {
	return func(c *Context) {
		c.Scene = s
	}
}

// WithNoise sets the noise source sampled by BuildTerrain.
//
// Parameters:
//   - src: the noise source
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithNoise(src noise.Source) ContextBuilderOption {
	return func(c *Context) {
		c.Noise = src
	}
}

// WithOverlay sets the overlay AddButton adds the toggle button to.
func WithOverlay(o ui.Overlay) ContextBuilderOption {
	return func(c *Context) {
		c.Overlay = o
	}
}

// WithTexture sets the image loaded as the terrain's color map.
func WithTexture(src common.ImageSource) ContextBuilderOption {
	return func(c *Context) {
		c.Texture = src
	}
}

// WithInitialMode sets the mode the viewer starts in. Defaults to ModeMono.
func WithInitialMode(m Mode) ContextBuilderOption {
	return func(c *Context) {
		c.initialMode = m
	}
}

// WithEyeSeparation sets the stereo rig's eye separation in world units.
func WithEyeSeparation(sep float32) ContextBuilderOption {
	return func(c *Context) {
		if sep > 0 {
			c.eyeSeparation = sep
		}
	}
}

// WithMetrics sets the Prometheus collectors the loop and mode switch report to.
//
// Parameters:
//   - m: the metrics, or nil to disable reporting
//
// Returns:
//   - ContextBuilderOption: option function to apply
func WithMetrics(m *Metrics) ContextBuilderOption {
	return func(c *Context) {
		c.Metrics = m
	}
}
