package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngineWindowDefaultsAndClamp(t *testing.T) {
	w := newEngineWindow()
	assert.Equal(t, "Terrain", w.Title())
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())

	w = newEngineWindow(WithSize(100, 5000), WithMinSize(200, 200), WithMaxSize(1000, 1000), WithTitle("x"))
	assert.Equal(t, 200, w.Width())
	assert.Equal(t, 1000, w.Height())
	assert.Equal(t, "x", w.Title())
}

func TestSetTitleMarksPending(t *testing.T) {
	w := newEngineWindow(WithTitle("a"))
	_, ok := w.takeTitle()
	assert.False(t, ok)

	w.SetTitle("a")
	_, ok = w.takeTitle()
	assert.False(t, ok, "unchanged title is not re-applied")

	w.SetTitle("b")
	title, ok := w.takeTitle()
	assert.True(t, ok)
	assert.Equal(t, "b", title)
	_, ok = w.takeTitle()
	assert.False(t, ok)
}

func TestToFramebufferScalesHighDPI(t *testing.T) {
	x, y := toFramebuffer(100.5, 50, 640, 480, 1280, 960)
	assert.Equal(t, 201, x)
	assert.Equal(t, 100, y)

	x, y = toFramebuffer(10, 20, 0, 0, 100, 100)
	assert.Equal(t, 10, x)
	assert.Equal(t, 20, y)
}

func TestUninitializedWindow(t *testing.T) {
	w := newEngineWindow()
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}
