package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer"
	"github.com/Carmen-Shannon/oxy-terrain/engine/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRenderer records the frame lifecycle. Methods it does not override panic through the nil embed.
type stubRenderer struct {
	renderer.Renderer
	calls     []string
	beginErr  error
	width     int
	height    int
	overlayed int
}

func (s *stubRenderer) BeginFrame() error {
	s.calls = append(s.calls, "begin")
	return s.beginErr
}

func (s *stubRenderer) RenderOverlay(elements ...renderer.OverlayElement) error {
	s.calls = append(s.calls, "overlay")
	s.overlayed = len(elements)
	return nil
}

func (s *stubRenderer) EndFrame() { s.calls = append(s.calls, "end") }

func (s *stubRenderer) Present() { s.calls = append(s.calls, "present") }

func (s *stubRenderer) Resize(width, height int) {
	s.calls = append(s.calls, "resize")
	s.width, s.height = max(width, 1), max(height, 1)
}

func (s *stubRenderer) Size() (int, int) { return s.width, s.height }

func TestNewEngineRequiresRenderer(t *testing.T) {
	assert.Panics(t, func() { NewEngine() })
}

func TestRenderFrameOrder(t *testing.T) {
	r := &stubRenderer{width: 800, height: 600}
	e := NewEngine(WithRenderer(r)).(*engine)
	e.Overlay().Add(ui.NewButton("Toggle VR"))

	var got []float32
	e.Scheduler().RequestFrame(func(dt float32) {
		r.calls = append(r.calls, "callback")
		got = append(got, dt)
	})

	require.True(t, e.renderFrame(0.016))
	assert.Equal(t, []string{"begin", "callback", "overlay", "end", "present"}, r.calls)
	assert.Equal(t, []float32{0.016}, got)
	assert.Equal(t, 1, r.overlayed)

	r.calls = nil
	require.True(t, e.renderFrame(0.016))
	assert.Equal(t, []string{"begin", "overlay", "end", "present"}, r.calls, "callbacks are one-shot")
}

func TestRenderFrameSkipsCallbacksWhenFrameUnavailable(t *testing.T) {
	r := &stubRenderer{beginErr: errors.New("surface lost")}
	e := NewEngine(WithRenderer(r)).(*engine)
	ran := 0
	e.Scheduler().RequestFrame(func(float32) { ran++ })

	assert.False(t, e.renderFrame(0))
	assert.Equal(t, 0, ran)
	assert.Equal(t, 1, e.queue.Pending())

	r.beginErr = nil
	assert.True(t, e.renderFrame(0))
	assert.Equal(t, 1, ran)
}

func TestResizeAppliedOnRenderGoroutine(t *testing.T) {
	r := &stubRenderer{width: 800, height: 600}
	e := NewEngine(WithRenderer(r)).(*engine)
	var sizes [][2]int
	e.OnResize(func(w, h int) { sizes = append(sizes, [2]int{w, h}) })

	e.queueResize(1024, 0)
	e.queueResize(1024, 768)
	assert.Empty(t, sizes, "hooks wait for the next frame")

	e.renderFrame(0)
	assert.Equal(t, [][2]int{{1024, 768}}, sizes)
	assert.Equal(t, "resize", r.calls[0])

	e.renderFrame(0)
	assert.Len(t, sizes, 1)
}

func TestRunHeadlessStopsOnQuit(t *testing.T) {
	r := &stubRenderer{width: 10, height: 10}
	e := NewEngine(WithRenderer(r), WithRenderFrameLimit(1000))

	frames := make(chan struct{}, 1)
	var tick func(float32)
	tick = func(float32) {
		select {
		case frames <- struct{}{}:
		default:
		}
		e.Scheduler().RequestFrame(tick)
	}
	e.Scheduler().RequestFrame(tick)

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame rendered")
	}
	e.Quit()
	e.Quit()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), frameDuration(0))
	assert.Equal(t, time.Duration(0), frameDuration(-5))
	assert.Equal(t, time.Second/60, frameDuration(60))
	assert.Equal(t, time.Duration(float64(time.Second)/144), frameDuration(144))
}
