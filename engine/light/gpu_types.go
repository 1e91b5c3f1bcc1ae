package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxGPULights is the maximum number of lights that can be marshaled into the
// GPU storage buffer per frame. The CPU-side light list is unbounded; this cap
// controls only how many lights the GPU evaluates.
const MaxGPULights = 1024

// GPULight is the GPU-aligned representation of a single light source.
// Matches the std430 Light struct layout in the shading passes exactly.
// Size: 64 bytes.
type GPULight struct {
	Position    [3]float32 // offset  0: world-space position (point/spot) or unused (directional)
	LightType   uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color       [3]float32 // offset 16: RGB color
	Intensity   float32    // offset 28: scalar multiplier
	Direction   [3]float32 // offset 32: normalized direction (directional/spot) or unused (point)
	LightRange  float32    // offset 44: attenuation cutoff distance
	InnerCone   float32    // offset 48: cos(inner half-angle) for spot
	OuterCone   float32    // offset 52: cos(outer half-angle) for spot
	CastsShadow uint32     // offset 56: 1 = casts shadows, 0 = does not
	ShadowIndex int32      // offset 60: assigned shadow slot, or -1 for none
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
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.LightRange))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.InnerCone))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.OuterCone))
	binary.LittleEndian.PutUint32(buf[56:60], g.CastsShadow)
	binary.LittleEndian.PutUint32(buf[60:64], uint32(g.ShadowIndex))
	return buf
}

// FromLight fills a GPULight from a Light's current state, including the
// shadow slot assigned by the scheduler this frame.
//
// Parameters:
//   - l: the light to read from
//
// Returns:
//   - GPULight: the populated GPU struct
func FromLight(l Light) GPULight {
	g := GPULight{
		Position:    l.Position(),
		LightType:   uint32(l.Type()),
		Color:       l.Color(),
		Intensity:   l.Intensity(),
		Direction:   l.Direction(),
		LightRange:  l.Range(),
		InnerCone:   l.InnerCone(),
		OuterCone:   l.OuterCone(),
		ShadowIndex: l.ShadowIndex(),
	}
	if l.CastsShadows() {
		g.CastsShadow = 1
	}
	return g
}
