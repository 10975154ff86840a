package engine

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/frame"
	"github.com/Carmen-Shannon/oxy-terrain/engine/profiler"
	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer"
	"github.com/Carmen-Shannon/oxy-terrain/engine/ui"
	"github.com/Carmen-Shannon/oxy-terrain/engine/window"
)

// engine implements the Engine interface.
// Coordinates the render goroutine with the window's message loop.
type engine struct {
	mu *sync.Mutex

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer
	queue    *frame.Queue
	overlay  ui.Overlay

	profiler         *profiler.Profiler
	profilingEnabled bool

	resizeHooks []func(width, height int)
	keyHooks    []func(keyCode uint32)

	// pendingSize is the latest framebuffer size reported by the window, applied on the render goroutine.
	pendingSize *[2]int

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It owns the per-refresh frame lifecycle: each iteration of the render goroutine opens a renderer
// frame, runs the callbacks registered with Scheduler, draws the overlay, then ends and presents the frame.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, or nil when running headless
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Scheduler returns the per-refresh callback registry driven by the render goroutine.
	//
	// Returns:
	//   - frame.Scheduler: the scheduler
	Scheduler() frame.Scheduler

	// Overlay returns the screen-space overlay drawn after the frame callbacks and hit-tested on clicks.
	//
	// Returns:
	//   - ui.Overlay: the overlay
	Overlay() ui.Overlay

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// OnResize registers a hook run on the render goroutine after the renderer adopted a new surface size.
	//
	// Parameters:
	//   - hook: function receiving the new width and height in pixels
	OnResize(hook func(width, height int))

	// OnKeyDown registers a hook run on the window thread for key presses.
	//
	// Parameters:
	//   - hook: function receiving the virtual key code
	OnKeyDown(hook func(keyCode uint32))

	// Run starts the render goroutine and the window message loop (blocks until the window closes).
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// WithRenderer is required; WithWindow is optional so the frame lifecycle can run headless.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:          &sync.Mutex{},
		quitChannel: make(chan struct{}),
		queue:       frame.NewQueue(),
		overlay:     ui.NewOverlay(),
		wg:          sync.WaitGroup{},
	}

	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		panic("engine requires a renderer")
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.queueResize)
		e.window.SetMouseDownCallback(func(button int, x, y int) {
			if button != common.MouseButtonLeft {
				return
			}
			width, height := e.renderer.Size()
			e.overlay.DispatchClick(x, y, width, height)
		})
		e.window.SetKeyDownCallback(func(keyCode uint32) {
			e.mu.Lock()
			hooks := append([]func(uint32){}, e.keyHooks...)
			e.mu.Unlock()
			for _, hook := range hooks {
				hook(keyCode)
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scheduler() frame.Scheduler {
	return e.queue
}

func (e *engine) Overlay() ui.Overlay {
	return e.overlay
}

func (e *engine) OnResize(hook func(width, height int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resizeHooks = append(e.resizeHooks, hook)
}

func (e *engine) OnKeyDown(hook func(keyCode uint32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keyHooks = append(e.keyHooks, hook)
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handle launches the render goroutine, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	e.wg.Add(1)
	go e.handleRender()
}

// queueResize records a framebuffer size from the window thread for the render goroutine to apply.
func (e *engine) queueResize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingSize = &[2]int{width, height}
}

// applyResize resizes the renderer and runs resize hooks if the window reported a new size.
func (e *engine) applyResize() {
	e.mu.Lock()
	size := e.pendingSize
	e.pendingSize = nil
	hooks := append([]func(int, int){}, e.resizeHooks...)
	e.mu.Unlock()

	if size == nil {
		return
	}
	e.renderer.Resize(size[0], size[1])
	width, height := e.renderer.Size()
	for _, hook := range hooks {
		hook(width, height)
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame(dt)

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame runs one refresh: pending resize, frame callbacks, overlay, submit and present.
// A frame whose surface texture cannot be acquired is skipped without running callbacks,
// so the callbacks see exactly one invocation per presented refresh.
//
// Parameters:
//   - dt: elapsed time since the previous refresh in seconds
//
// Returns:
//   - bool: true if a frame was presented
func (e *engine) renderFrame(dt float32) bool {
	e.applyResize()

	if err := e.renderer.BeginFrame(); err != nil {
		return false
	}
	e.queue.Step(dt)
	if err := e.renderer.RenderOverlay(e.overlay.Elements()...); err != nil {
		log.Printf("[Engine] overlay pass failed: %v", err)
	}
	e.renderer.EndFrame()
	e.renderer.Present()
	return true
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
