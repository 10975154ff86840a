package ui

import (
	"image/color"

	"tinygo.org/x/tinyfont"
)

// ButtonBuilderOption is a functional option used to configure a Button during construction.
type ButtonBuilderOption func(*button)

// WithKey sets the key that identifies the button's GPU resources and overlay slot.
//
// Parameters:
//   - key: the unique key
//
// Returns:
//   - ButtonBuilderOption: a function that sets the key
func WithKey(key string) ButtonBuilderOption {
	return func(b *button) {
		b.key = key
	}
}

// WithAnchor sets the corner the button is positioned against.
//
// Parameters:
//   - anchor: the corner
//
// Returns:
//   - ButtonBuilderOption: a function that sets the anchor
func WithAnchor(anchor Anchor) ButtonBuilderOption {
	return func(b *button) {
		b.anchor = anchor
	}
}

// WithMargin sets the distance in pixels between the button and the anchored surface edges.
func WithMargin(margin int) ButtonBuilderOption {
	return func(b *button) {
		b.margin = max(margin, 0)
	}
}

// WithPadding sets the unscaled space in font pixels between the label and the button border.
func WithPadding(padding int) ButtonBuilderOption {
	return func(b *button) {
		b.padding = max(padding, 0)
	}
}

// WithScale sets the integer magnification applied to the rasterized button.
func WithScale(scale int) ButtonBuilderOption {
	return func(b *button) {
		b.scale = max(scale, 1)
	}
}

// WithColors sets the text and border color and the background color.
//
// Parameters:
//   - foreground: the text and border color
//   - background: the fill color
//
// Returns:
//   - ButtonBuilderOption: a function that sets the colors
func WithColors(foreground, background color.RGBA) ButtonBuilderOption {
	return func(b *button) {
		b.foreground = foreground
		b.background = background
	}
}

// WithFont sets the font the label is drawn with.
func WithFont(font tinyfont.Fonter) ButtonBuilderOption {
	return func(b *button) {
		b.font = font
	}
}

// WithVisible sets whether the button starts visible.
func WithVisible(visible bool) ButtonBuilderOption {
	return func(b *button) {
		b.visible = visible
	}
}
