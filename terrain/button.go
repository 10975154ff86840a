package terrain

import "github.com/Carmen-Shannon/oxy-terrain/engine/ui"

// ToggleLabel is the text of the stereo toggle button.
const ToggleLabel = "Toggle VR"

// AddButton adds the bottom-right "Toggle VR" button to the overlay.
// Every click flips the mode exactly once.
//
// Returns:
//   - ui.Button: the button
func (b *SceneBuilder) AddButton() ui.Button {
	btn := ui.NewButton(ToggleLabel,
		ui.WithKey("toggle-vr"),
		ui.WithAnchor(ui.AnchorBottomRight),
	)
	mode := b.ctx.Mode
	btn.OnClick(func() {
		mode.Toggle()
	})
	b.ctx.Overlay.Add(btn)
	b.ctx.Button = btn
	return btn
}
