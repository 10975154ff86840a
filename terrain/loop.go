package terrain

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/frame"
)

// OffsetStep is added to the animation offset every frame.
const OffsetStep = 0.5

// AnimationLoop scrolls the displacement array through the terrain vertices and renders every frame.
// Start and Stop may be called from any goroutine; frames run on the scheduler's goroutine.
type AnimationLoop struct {
	mu         *sync.Mutex
	ctx        *Context
	offset     float64
	running    bool
	generation uint64
	frames     uint64
	lastErr    string
}

// NewAnimationLoop creates a stopped loop over a built context.
//
// Parameters:
//   - ctx: a context populated by SceneBuilder
//
// Returns:
//   - *AnimationLoop: the loop
func NewAnimationLoop(ctx *Context) *AnimationLoop {
	return &AnimationLoop{
		mu:  &sync.Mutex{},
		ctx: ctx,
	}
}

// Start registers the first frame with the scheduler. Starting a running loop does nothing.
// The offset carries over from where a stopped loop left off.
func (l *AnimationLoop) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.generation++
	gen := l.generation
	l.mu.Unlock()

	l.ctx.Scheduler.RequestFrame(l.callback(gen))
}

// Stop ends the loop. The already registered frame returns without animating or rescheduling.
func (l *AnimationLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
}

// Toggle stops a running loop or starts a stopped one.
//
// Returns:
//   - bool: true if the loop is running afterwards
func (l *AnimationLoop) Toggle() bool {
	if l.Running() {
		l.Stop()
		return false
	}
	l.Start()
	return true
}

// Running reports whether the loop is started.
func (l *AnimationLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Offset returns the current animation offset: OffsetStep times the number of frames run.
func (l *AnimationLoop) Offset() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offset
}

// Frames returns the number of frames run.
func (l *AnimationLoop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *AnimationLoop) callback(gen uint64) frame.Callback {
	return func(float32) {
		l.mu.Lock()
		if !l.running || l.generation != gen {
			l.mu.Unlock()
			return
		}
		offset := l.offset
		l.offset += OffsetStep
		l.frames++
		l.mu.Unlock()

		l.ctx.Displacement.Apply(l.ctx.Terrain.Geometry(), offset)
		l.ctx.Terrain.Geometry().SetNeedsUpdate(true)

		// The next frame is registered before rendering so a failed render never ends the animation.
		l.ctx.Scheduler.RequestFrame(l.callback(gen))

		l.ctx.Metrics.observeFrame()
		l.report(l.render())
	}
}

// render draws the frame on the path chosen by the mode at this instant.
func (l *AnimationLoop) render() error {
	if l.ctx.Mode.Stereo() {
		return l.renderStereo()
	}
	return l.renderMono()
}

func (l *AnimationLoop) renderMono() error {
	r := l.ctx.Renderer
	width, height := r.Size()
	r.SetScissor(0, 0, width, height)
	r.SetViewport(0, 0, width, height)
	return l.draw(l.ctx.Camera)
}

func (l *AnimationLoop) renderStereo() error {
	r := l.ctx.Renderer
	l.ctx.Scene.UpdateMatrixWorld()
	l.ctx.Camera.UpdateMatrixWorld()
	l.ctx.Stereo.Update(l.ctx.Camera)

	width, height := r.Size()
	half := width / 2

	if r.AutoClear() {
		if err := r.Clear(); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	r.SetScissorTest(true)
	defer r.SetScissorTest(false)

	r.SetScissor(0, 0, half, height)
	r.SetViewport(0, 0, half, height)
	leftErr := l.draw(l.ctx.Stereo.Left())

	r.SetScissor(half, 0, half, height)
	r.SetViewport(half, 0, half, height)
	rightErr := l.draw(l.ctx.Stereo.Right())

	return errors.Join(leftErr, rightErr)
}

func (l *AnimationLoop) draw(cam camera.Camera) error {
	l.ctx.Metrics.observeRender()
	return l.ctx.Renderer.Render(l.ctx.Scene, cam)
}

// report logs a render error once per distinct message so a persistent failure does not flood the log.
func (l *AnimationLoop) report(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	l.mu.Lock()
	changed := msg != l.lastErr
	l.lastErr = msg
	l.mu.Unlock()
	if changed && err != nil {
		log.Printf("[Terrain] render failed: %v", err)
	}
}
