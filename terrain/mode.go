package terrain

import (
	"sync"
	"sync/atomic"
)

// Mode selects the render path.
type Mode int32

const (
	// ModeMono renders once through the main camera over the whole surface.
	ModeMono Mode = iota

	// ModeStereo renders the left and right eyes side by side.
	ModeStereo
)

func (m Mode) String() string {
	if m == ModeStereo {
		return "Stereo"
	}
	return "Mono"
}

// ModeSwitch is the two-state Mono/Stereo machine. Toggle is its only transition.
// Safe for concurrent use: clicks arrive on the window thread while frames read the mode on the render goroutine.
type ModeSwitch struct {
	stereo    atomic.Bool
	mu        *sync.Mutex
	listeners []func(Mode)
}

// NewModeSwitch creates a switch in the given mode.
//
// Parameters:
//   - initial: the starting mode
//
// Returns:
//   - *ModeSwitch: the switch
func NewModeSwitch(initial Mode) *ModeSwitch {
	s := &ModeSwitch{mu: &sync.Mutex{}}
	s.stereo.Store(initial == ModeStereo)
	return s
}

// Mode returns the current mode.
func (s *ModeSwitch) Mode() Mode {
	if s.stereo.Load() {
		return ModeStereo
	}
	return ModeMono
}

// Stereo reports whether the current mode is ModeStereo.
func (s *ModeSwitch) Stereo() bool {
	return s.stereo.Load()
}

// Toggle flips the mode exactly once and notifies listeners with the new mode.
//
// Returns:
//   - Mode: the mode after the flip
func (s *ModeSwitch) Toggle() Mode {
	for {
		old := s.stereo.Load()
		if s.stereo.CompareAndSwap(old, !old) {
			next := ModeMono
			if !old {
				next = ModeStereo
			}
			s.notify(next)
			return next
		}
	}
}

// OnChange registers a listener called after every Toggle.
//
// Parameters:
//   - fn: the listener, receiving the new mode
func (s *ModeSwitch) OnChange(fn func(Mode)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *ModeSwitch) notify(m Mode) {
	s.mu.Lock()
	listeners := append([]func(Mode){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(m)
	}
}

// Title formats a window title that shows the mode.
//
// Parameters:
//   - base: the application title
//   - m: the mode
//
// Returns:
//   - string: e.g. "Terrain [Stereo]"
func Title(base string, m Mode) string {
	return base + " [" + m.String() + "]"
}
