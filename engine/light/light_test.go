package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointLightFromHex(t *testing.T) {
	l := NewPointLight(0xffffff, 5, 100, WithPosition(0, 0, 10))
	assert.Equal(t, LightTypePoint, l.Type())
	assert.Equal(t, [3]float32{1, 1, 1}, l.Color())
	assert.Equal(t, float32(5), l.Intensity())
	assert.Equal(t, float32(100), l.Range())
	assert.Equal(t, [3]float32{0, 0, 10}, l.Position())
	assert.True(t, l.Enabled())
}

func TestHexColor(t *testing.T) {
	r, g, b := HexColor(0xff8000)
	assert.Equal(t, float32(1), r)
	assert.InDelta(t, 128.0/255, g, 1e-6)
	assert.Zero(t, b)
}

func TestAttenuation(t *testing.T) {
	l := NewPointLight(0xffffff, 1, 100)
	assert.Equal(t, float32(1), l.Attenuation(0))
	assert.InDelta(t, 0.5, l.Attenuation(50), 1e-6)
	assert.Zero(t, l.Attenuation(150))

	unbounded := NewPointLight(0xffffff, 1, 0)
	assert.Equal(t, float32(1), unbounded.Attenuation(1e6))

	sun := NewLight(LightTypeDirectional, WithRange(1))
	assert.Equal(t, float32(1), sun.Attenuation(10))
}

func TestSetDirectionNormalizes(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetDirection(0, 3, 4)
	d := l.Direction()
	assert.InDelta(t, 0.6, d[1], 1e-6)
	assert.InDelta(t, 0.8, d[2], 1e-6)
}

func TestMarshalLightBuffer(t *testing.T) {
	lights := []Light{
		NewPointLight(0xffffff, 5, 100, WithPosition(1, 2, 3)),
		NewPointLight(0xff0000, 1, 0, WithEnabled(false)),
	}
	buf := MarshalLightBuffer(lights, [3]float32{0.1, 0.1, 0.1})
	require.Len(t, buf, LightBufferSize)
	assert.Equal(t, 16+MaxGPULights*64, LightBufferSize)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.InDelta(t, 0.1, f(0), 1e-6)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[12:]))
	assert.Equal(t, float32(3), f(16+8))
	assert.Equal(t, float32(5), f(16+28))
	assert.Equal(t, float32(100), f(16+44))
	assert.Equal(t, float32(1), f(16+48))
}

func TestMarshalLightBufferCapsSlots(t *testing.T) {
	lights := make([]Light, MaxGPULights+3)
	for i := range lights {
		lights[i] = NewPointLight(0xffffff, 1, 0)
	}
	buf := MarshalLightBuffer(lights, [3]float32{})
	assert.Equal(t, uint32(MaxGPULights), binary.LittleEndian.Uint32(buf[12:]))
}

func TestGPULightSize(t *testing.T) {
	assert.Equal(t, 64, (&GPULight{}).Size())
	assert.Len(t, (&GPULight{}).Marshal(), 64)
	assert.Contains(t, GPULightSource, "struct LightBlock")
}
