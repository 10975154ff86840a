package material

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-terrain/common"
)

// Texture is a color map whose pixels may arrive after the texture is handed to a material.
type Texture interface {
	// Name retrieves the texture identifier.
	//
	// Returns:
	//   - string: the texture name
	Name() string

	// Ready reports whether pixel data is available.
	//
	// Returns:
	//   - bool: true once decoding finished successfully
	Ready() bool

	// Data retrieves the decoded pixel data.
	//
	// Returns:
	//   - common.TextureStagingData: the pixels, zero-valued while loading
	//   - bool: true if the data is ready
	Data() (common.TextureStagingData, bool)

	// Version increments each time new pixel data is published, so renderers can re-upload.
	//
	// Returns:
	//   - uint64: the current data version, 0 while loading
	Version() uint64

	// Wait blocks until loading finished, successfully or not.
	//
	// Returns:
	//   - error: the decode error, if any
	Wait() error
}

// texture is the implementation of the Texture interface.
type texture struct {
	name    string
	data    atomic.Pointer[common.TextureStagingData]
	version atomic.Uint64
	done    chan struct{}
	err     error
}

var _ Texture = &texture{}

// NewTexture wraps already-decoded pixel data as a ready texture.
//
// Parameters:
//   - name: the texture identifier
//   - data: the pixel data
//
// Returns:
//   - Texture: the ready texture
func NewTexture(name string, data common.TextureStagingData) Texture {
	t := &texture{name: name, done: make(chan struct{})}
	t.publish(data)
	close(t.done)
	return t
}

// LoadTexture starts decoding src in the background and returns immediately.
// A failed load is logged once and leaves the texture permanently not ready.
//
// Parameters:
//   - src: the encoded image source
//
// Returns:
//   - Texture: the loading texture
func LoadTexture(src common.ImageSource) Texture {
	t := &texture{name: src.Name, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		data, err := src.Decode()
		if err != nil {
			t.err = err
			log.Printf("[Texture] failed to load %s: %v", src.Name, err)
			return
		}
		t.publish(data)
	}()
	return t
}

func (t *texture) publish(data common.TextureStagingData) {
	t.data.Store(&data)
	t.version.Add(1)
}

func (t *texture) Name() string {
	return t.name
}

func (t *texture) Ready() bool {
	return t.data.Load() != nil
}

func (t *texture) Data() (common.TextureStagingData, bool) {
	d := t.data.Load()
	if d == nil {
		return common.TextureStagingData{}, false
	}
	return *d, true
}

func (t *texture) Version() uint64 {
	return t.version.Load()
}

func (t *texture) Wait() error {
	<-t.done
	return t.err
}

// whiteOnce guards the shared fallback texture.
var (
	whiteOnce sync.Once
	white     Texture
)

// White returns a shared 1×1 opaque white texture, used in place of a missing or loading color map.
//
// Returns:
//   - Texture: the white texture
func White() Texture {
	whiteOnce.Do(func() {
		white = NewTexture("white", common.TextureStagingData{
			Pixels: []byte{255, 255, 255, 255},
			Width:  1,
			Height: 1,
		})
	})
	return white
}
