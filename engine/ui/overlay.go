package ui

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer"
)

// overlay is the implementation of the Overlay interface.
type overlay struct {
	mu      *sync.RWMutex
	buttons []Button
}

// Overlay is an ordered set of buttons drawn over the scene. Later buttons are drawn on top and
// receive clicks first.
// Thread-safe for concurrent access.
type Overlay interface {
	// Add appends a button. A button with the same key replaces the earlier one in place.
	//
	// Parameters:
	//   - b: the button to add
	Add(b Button)

	// Remove removes the button with the given key, if present.
	//
	// Parameters:
	//   - key: the button key
	Remove(key string)

	// Buttons returns the buttons in draw order.
	Buttons() []Button

	// Elements returns the buttons as overlay elements in draw order, for Renderer.RenderOverlay.
	Elements() []renderer.OverlayElement

	// DispatchClick clicks the topmost visible button containing the framebuffer pixel.
	//
	// Parameters:
	//   - x, y: the pixel position (top-left origin)
	//   - width, height: the framebuffer size
	//
	// Returns:
	//   - bool: true if a button was clicked
	DispatchClick(x, y, width, height int) bool
}

var _ Overlay = &overlay{}

// NewOverlay creates an empty Overlay.
//
// Returns:
//   - Overlay: the overlay
func NewOverlay() Overlay {
	return &overlay{mu: &sync.RWMutex{}}
}

func (o *overlay) Add(b Button) {
	o.mu.Lock()
	defer o.mu.Unlock()
	idx := slices.IndexFunc(o.buttons, func(existing Button) bool { return existing.Key() == b.Key() })
	if idx >= 0 {
		o.buttons[idx] = b
		return
	}
	o.buttons = append(o.buttons, b)
}

func (o *overlay) Remove(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buttons = slices.DeleteFunc(o.buttons, func(b Button) bool { return b.Key() == key })
}

func (o *overlay) Buttons() []Button {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.buttons)
}

func (o *overlay) Elements() []renderer.OverlayElement {
	o.mu.RLock()
	defer o.mu.RUnlock()
	elements := make([]renderer.OverlayElement, len(o.buttons))
	for i, b := range o.buttons {
		elements[i] = b
	}
	return elements
}

func (o *overlay) DispatchClick(x, y, width, height int) bool {
	o.mu.RLock()
	var hit Button
	for i := len(o.buttons) - 1; i >= 0; i-- {
		if o.buttons[i].Contains(x, y, width, height) {
			hit = o.buttons[i]
			break
		}
	}
	o.mu.RUnlock()

	if hit == nil {
		return false
	}
	hit.Click()
	return true
}
