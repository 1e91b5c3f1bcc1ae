package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform is the GPU-aligned representation of the per-camera uniform
// buffer consumed by the depth pre-pass and the occlusion cull compute shader.
// Size: 160 bytes (std430 aligned).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset   0: combined view-projection matrix (mat4)
	View           [16]float32 // offset  64: view matrix (mat4)
	CameraPosition [3]float32  // offset 128: world-space camera position (vec3)
	NearPlane      float32     // offset 140: near clipping plane distance
	FarPlane       float32     // offset 144: far clipping plane distance
	_pad           [3]float32  // offset 148: padding to 160 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.View[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	binary.LittleEndian.PutUint32(buf[140:], math.Float32bits(g.NearPlane))
	binary.LittleEndian.PutUint32(buf[144:], math.Float32bits(g.FarPlane))
	return buf
}

// UniformFromCamera fills a GPUCameraUniform from a camera's current state.
//
// Parameters:
//   - c: the camera to read from
//
// Returns:
//   - GPUCameraUniform: the populated uniform struct
func UniformFromCamera(c Camera) GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       c.ViewProjectionMatrix(),
		View:           c.ViewMatrix(),
		CameraPosition: c.Position(),
		NearPlane:      c.Near(),
		FarPlane:       c.Far(),
	}
}
