package ui

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/Carmen-Shannon/oxy-terrain/engine/renderer"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// Anchor selects the surface corner a button is positioned against.
type Anchor int

const (
	AnchorBottomRight Anchor = iota
	AnchorBottomLeft
	AnchorTopRight
	AnchorTopLeft
)

// button is the implementation of the Button interface.
type button struct {
	mu *sync.RWMutex

	key     string
	label   string
	anchor  Anchor
	margin  int
	padding int
	scale   int
	visible bool

	foreground color.RGBA
	background color.RGBA
	font       tinyfont.Fonter

	img     *image.RGBA
	version uint64

	handlers []func()
}

// Button is a clickable text label drawn as an overlay element anchored to a corner of the surface.
// Its pixels are rasterized on the CPU whenever the label changes.
// Thread-safe: clicks arrive on the window thread while frames read the image on the render thread.
type Button interface {
	renderer.OverlayElement

	// Label returns the button text.
	Label() string

	// SetLabel changes the button text and re-rasterizes the image.
	//
	// Parameters:
	//   - label: the new text
	SetLabel(label string)

	// SetVisible shows or hides the button. Hidden buttons are neither drawn nor clickable.
	SetVisible(visible bool)

	// Anchor returns the corner the button is positioned against.
	Anchor() Anchor

	// Contains reports whether a framebuffer pixel (top-left origin) lies on the visible button.
	//
	// Parameters:
	//   - x, y: the pixel position
	//   - width, height: the framebuffer size
	//
	// Returns:
	//   - bool: true if the point hits the button
	Contains(x, y, width, height int) bool

	// OnClick registers a handler invoked once per Click.
	//
	// Parameters:
	//   - handler: the function to invoke
	OnClick(handler func())

	// Click invokes every registered handler in registration order.
	Click()
}

var _ Button = &button{}

// NewButton creates a Button with the given label.
// Defaults: bottom-right anchor, 16px margin, 6px padding, 2× font scale, white text on a translucent
// dark background, proggy TinySZ8pt7b font, key equal to the label.
//
// Parameters:
//   - label: the button text
//   - options: functional options to configure the button
//
// Returns:
//   - Button: the button
func NewButton(label string, options ...ButtonBuilderOption) Button {
	b := &button{
		mu:         &sync.RWMutex{},
		key:        label,
		label:      label,
		anchor:     AnchorBottomRight,
		margin:     16,
		padding:    6,
		scale:      2,
		visible:    true,
		foreground: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		background: color.RGBA{R: 0, G: 0, B: 0, A: 160},
		font:       &proggy.TinySZ8pt7b,
	}
	for _, opt := range options {
		opt(b)
	}
	b.rasterizeLocked()
	return b
}

func (b *button) Key() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.key
}

func (b *button) Visible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible
}

func (b *button) SetVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visible = visible
}

func (b *button) Label() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.label
}

func (b *button) SetLabel(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if label == b.label {
		return
	}
	b.label = label
	b.rasterizeLocked()
}

func (b *button) Anchor() Anchor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.anchor
}

func (b *button) Image() *image.RGBA {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.img
}

func (b *button) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

func (b *button) Bounds(width, height int) image.Rectangle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.boundsLocked(width, height)
}

func (b *button) boundsLocked(width, height int) image.Rectangle {
	size := b.img.Bounds().Size()
	var origin image.Point
	switch b.anchor {
	case AnchorBottomLeft:
		origin = image.Pt(b.margin, height-b.margin-size.Y)
	case AnchorTopRight:
		origin = image.Pt(width-b.margin-size.X, b.margin)
	case AnchorTopLeft:
		origin = image.Pt(b.margin, b.margin)
	default:
		origin = image.Pt(width-b.margin-size.X, height-b.margin-size.Y)
	}
	return image.Rectangle{Min: origin, Max: origin.Add(size)}
}

func (b *button) Contains(x, y, width, height int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible && image.Pt(x, y).In(b.boundsLocked(width, height))
}

func (b *button) OnClick(handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *button) Click() {
	b.mu.RLock()
	handlers := make([]func(), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h()
	}
}

// rasterizeLocked redraws the background, a one pixel border and the label into a fresh image.
func (b *button) rasterizeLocked() {
	_, textWidth := tinyfont.LineWidth(b.font, b.label)
	lineHeight := int(b.font.GetYAdvance())
	scale := max(b.scale, 1)

	w := (int(textWidth) + 2*b.padding) * scale
	h := (lineHeight + 2*b.padding) * scale
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: b.background}, image.Point{}, draw.Src)

	for x := range w {
		img.SetRGBA(x, 0, b.foreground)
		img.SetRGBA(x, h-1, b.foreground)
	}
	for y := range h {
		img.SetRGBA(0, y, b.foreground)
		img.SetRGBA(w-1, y, b.foreground)
	}

	// Glyphs hang above the baseline; leave a quarter line for descenders.
	baseline := b.padding + lineHeight - lineHeight/4
	d := &imageDisplayer{img: img, scale: scale}
	tinyfont.WriteLine(d, b.font, int16(b.padding), int16(baseline), b.label, b.foreground)

	b.img = img
	b.version++
}

// imageDisplayer adapts an RGBA image to the display interface tinyfont draws on,
// expanding each font pixel into a scale×scale block.
type imageDisplayer struct {
	img   *image.RGBA
	scale int
}

var _ drivers.Displayer = &imageDisplayer{}

func (d *imageDisplayer) Size() (x, y int16) {
	size := d.img.Bounds().Size()
	return int16(size.X / d.scale), int16(size.Y / d.scale)
}

func (d *imageDisplayer) SetPixel(x, y int16, c color.RGBA) {
	x0, y0 := int(x)*d.scale, int(y)*d.scale
	for dy := range d.scale {
		for dx := range d.scale {
			d.img.SetRGBA(x0+dx, y0+dy, c)
		}
	}
}

func (d *imageDisplayer) Display() error {
	return nil
}
