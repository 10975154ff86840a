package material

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLambertMaterialDefaults(t *testing.T) {
	m := NewLambertMaterial()
	assert.Equal(t, "lambert", m.Name())
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.BaseColor())
	assert.False(t, m.Wireframe())
	assert.Nil(t, m.ColorMap())
}

func TestLambertMaterialOptions(t *testing.T) {
	tex := White()
	m := NewLambertMaterial(
		WithName("rock"),
		WithBaseColor([4]float32{0.5, 0.5, 0.5, 1}),
		WithWireframe(true),
		WithColorMap(tex),
	)
	assert.Equal(t, "rock", m.Name())
	assert.Equal(t, [4]float32{0.5, 0.5, 0.5, 1}, m.BaseColor())
	assert.True(t, m.Wireframe())
	assert.Same(t, tex, m.ColorMap())

	m.SetWireframe(false)
	m.SetColorMap(nil)
	assert.False(t, m.Wireframe())
	assert.Nil(t, m.ColorMap())
}

func TestLoadTextureSucceeds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	tex := LoadTexture(common.ImageSource{Name: "rock", Data: buf.Bytes()})
	require.NoError(t, tex.Wait())
	assert.True(t, tex.Ready())
	assert.Equal(t, uint64(1), tex.Version())

	data, ok := tex.Data()
	require.True(t, ok)
	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, byte(200), data.Pixels[0])
}

func TestLoadTextureFailureStaysUnready(t *testing.T) {
	tex := LoadTexture(common.ImageSource{Name: "missing", Path: "no/such/file.png"})
	assert.Error(t, tex.Wait())
	assert.False(t, tex.Ready())
	assert.Zero(t, tex.Version())

	_, ok := tex.Data()
	assert.False(t, ok)
}

func TestWhiteIsShared(t *testing.T) {
	assert.Same(t, White(), White())
	data, ok := White().Data()
	require.True(t, ok)
	assert.Equal(t, []byte{255, 255, 255, 255}, data.Pixels)
}
