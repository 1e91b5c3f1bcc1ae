package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Size: 64 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Color[3]))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.Tangent[0]))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.Tangent[1]))
	binary.LittleEndian.PutUint32(buf[56:60], math.Float32bits(g.Tangent[2]))
	binary.LittleEndian.PutUint32(buf[60:64], math.Float32bits(g.Tangent[3]))
	return buf
}

// MarshalVertices serializes a vertex slice into one contiguous upload buffer.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: the packed vertex bytes, 64 bytes per vertex
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, 0, len(vertices)*64)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}

// MarshalIndices serializes a uint32 index slice into an upload buffer.
//
// Parameters:
//   - indices: the triangle indices to serialize
//
// Returns:
//   - []byte: the packed index bytes, 4 bytes per index
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// ComputeBoundingSphere calculates an origin-centered bounding sphere from a
// vertex slice. The radius is the maximum vertex distance from the origin.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding sphere from
//
// Returns:
//   - [3]float32: the sphere center (always the origin)
//   - float32: the sphere radius
func ComputeBoundingSphere(vertices []GPUVertex) ([3]float32, float32) {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return [3]float32{}, float32(math.Sqrt(float64(maxDistSq)))
}
