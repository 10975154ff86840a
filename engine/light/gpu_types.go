package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxGPULights is the number of light slots in the GPU light uniform.
// Enabled lights beyond this budget are dropped in scene order.
const MaxGPULights = 8

// GPULightSource is the canonical WGSL definition of the Light and LightBlock structs.
// Matches GPULight and the MarshalLightBuffer layout exactly.
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of a single light source.
// Size: 64 bytes (WGSL uniform aligned).
type GPULight struct {
	Position  [3]float32 // offset  0: world-space position (point) or unused (directional)
	LightType uint32     // offset 12: 0 = point, 1 = directional
	Color     [3]float32 // offset 16: RGB color
	Intensity float32    // offset 28: scalar multiplier
	Direction [3]float32 // offset 32: normalized direction (directional) or unused (point)
	Range     float32    // offset 44: attenuation cutoff distance, 0 for none
	Decay     float32    // offset 48: falloff exponent
	_pad      [3]uint32  // offset 52: padding to 64-byte alignment
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	g.marshalInto(buf)
	return buf
}

func (g *GPULight) marshalInto(buf []byte) {
	putVec3(buf[0:], g.Position)
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	putVec3(buf[16:], g.Color)
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	putVec3(buf[32:], g.Direction)
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Range))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.Decay))
	clear(buf[52:64])
}

// GPULightHeader is the header at the start of the light uniform.
// Contains the ambient color and the active light count.
// Size: 16 bytes (vec3 + u32).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: scene ambient RGB
	LightCount   uint32     // offset 12: number of active light slots
}

// Size returns the size of the GPULightHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// LightBufferSize is the fixed byte size of the light uniform: one header and MaxGPULights slots.
var LightBufferSize = (&GPULightHeader{}).Size() + MaxGPULights*(&GPULight{}).Size()

// ToGPULight converts a Light interface value into the GPU-aligned GPULight struct.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position:  l.Position(),
		LightType: uint32(l.Type()),
		Color:     l.Color(),
		Intensity: l.Intensity(),
		Direction: l.Direction(),
		Range:     l.Range(),
		Decay:     l.Decay(),
	}
}

// MarshalLightBuffer marshals the enabled lights into a LightBufferSize byte buffer.
// The buffer layout is:
//
//	[GPULightHeader (16 bytes)] [GPULight × MaxGPULights (64 bytes each)]
//
// Unused slots are zeroed.
//
// Parameters:
//   - lights: the scene lights (only enabled lights are included)
//   - ambient: the scene ambient color as RGB
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
func MarshalLightBuffer(lights []Light, ambient [3]float32) []byte {
	headerSize := (&GPULightHeader{}).Size()
	lightSize := (&GPULight{}).Size()
	buf := make([]byte, LightBufferSize)

	written := 0
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		if written >= MaxGPULights {
			break
		}
		gpu := ToGPULight(l)
		off := headerSize + written*lightSize
		gpu.marshalInto(buf[off : off+lightSize])
		written++
	}

	putVec3(buf[0:], ambient)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(written))
	return buf
}

func putVec3(buf []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
}
