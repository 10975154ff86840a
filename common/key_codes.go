package common

// Virtual key codes for input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyV     = 86 // V key (ASCII), toggles VR mode
	KeySpace = 32 // Spacebar (ASCII), pauses and resumes the animation loop
)

// MouseButtonLeft is the primary button index reported by the window mouse callback.
// Values match GLFW mouse button indices.
const MouseButtonLeft = 0
