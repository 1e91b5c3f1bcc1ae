package cull

import (
	"encoding/binary"
	"math"
)

// Category is a material bucket. Every visible node routes into exactly
// one bucket; each bucket is consumed by one indirect draw call.
type Category int

const (
	CategoryOpaque Category = iota
	CategoryTransparent
	CategoryWireframe
	CategoryRandomColor
	CategoryLineStrip
	CategorySprite
	// CategoryCount is the number of material buckets.
	CategoryCount
)

// String returns the category's lower-case name.
//
// Returns:
//   - string: the bucket name
func (c Category) String() string {
	switch c {
	case CategoryTransparent:
		return "transparent"
	case CategoryWireframe:
		return "wireframe"
	case CategoryRandomColor:
		return "random_color"
	case CategoryLineStrip:
		return "line_strip"
	case CategorySprite:
		return "sprite"
	default:
		return "opaque"
	}
}

// DefaultBucketCapacity is the per-bucket draw command capacity. The cull
// shader clamps at capacity, so an overflowing scene drops excess draws
// instead of failing the frame.
const DefaultBucketCapacity = 4096

// DrawCommandSize is the byte size of one indexed indirect draw command
// (index count, instance count, first index, vertex offset, first
// instance).
const DrawCommandSize = 20

// CullGroupSize is the compute workgroup size of the visibility dispatch.
const CullGroupSize = 64

// DefaultDepthBias is the epsilon added to sampled pyramid depth to keep
// borderline-visible geometry from flickering through self-occlusion.
const DefaultDepthBias = 1e-4

// Node is one cullable scene object: a world-space bounding sphere, the
// bucket its material routes into, and the index-range parameters its
// draw command carries.
type Node struct {
	Center       [3]float32
	Radius       float32
	Category     Category
	IndexCount   uint32
	FirstIndex   uint32
	VertexOffset int32
	InstanceID   uint32
}

// GPUNode is the shader-side node record. Field offsets match the
// std430 layout of the cull shader's node buffer.
type GPUNode struct {
	Center       [3]float32 // offset 0
	Radius       float32    // offset 12
	IndexCount   uint32     // offset 16
	FirstIndex   uint32     // offset 20
	VertexOffset int32      // offset 24
	Category     uint32     // offset 28
	InstanceID   uint32     // offset 32
	_            [3]uint32  // offset 36, pad to 48
}

// GPUNodeSize is the byte size of one GPUNode record.
const GPUNodeSize = 48

// Marshal writes the record into out, which must be at least GPUNodeSize
// bytes.
//
// Parameters:
//   - out: the destination slice
func (n *GPUNode) Marshal(out []byte) {
	le := binary.LittleEndian
	le.PutUint32(out[0:], math.Float32bits(n.Center[0]))
	le.PutUint32(out[4:], math.Float32bits(n.Center[1]))
	le.PutUint32(out[8:], math.Float32bits(n.Center[2]))
	le.PutUint32(out[12:], math.Float32bits(n.Radius))
	le.PutUint32(out[16:], n.IndexCount)
	le.PutUint32(out[20:], n.FirstIndex)
	le.PutUint32(out[24:], uint32(n.VertexOffset))
	le.PutUint32(out[28:], n.Category)
	le.PutUint32(out[32:], n.InstanceID)
	le.PutUint32(out[36:], 0)
	le.PutUint32(out[40:], 0)
	le.PutUint32(out[44:], 0)
}

// GPUNodeFromNode converts a scene node to its shader-side record.
//
// Parameters:
//   - n: the scene node
//
// Returns:
//   - GPUNode: the shader record
func GPUNodeFromNode(n Node) GPUNode {
	return GPUNode{
		Center:       n.Center,
		Radius:       n.Radius,
		IndexCount:   n.IndexCount,
		FirstIndex:   n.FirstIndex,
		VertexOffset: n.VertexOffset,
		Category:     uint32(n.Category),
		InstanceID:   n.InstanceID,
	}
}

// MarshalNodes packs nodes into one shader-ready byte slice.
//
// Parameters:
//   - nodes: the scene nodes
//
// Returns:
//   - []byte: the packed node buffer contents
func MarshalNodes(nodes []Node) []byte {
	out := make([]byte, len(nodes)*GPUNodeSize)
	for i, n := range nodes {
		g := GPUNodeFromNode(n)
		g.Marshal(out[i*GPUNodeSize:])
	}
	return out
}

// DrawCommand mirrors the GPU's indexed indirect draw command for the CPU
// reference path and tests.
type DrawCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32
}

// BucketOffset returns the byte offset of a bucket's command region inside
// the draw command buffer.
//
// Parameters:
//   - c: the bucket
//   - capacity: the per-bucket command capacity
//
// Returns:
//   - uint32: the byte offset
func BucketOffset(c Category, capacity uint32) uint32 {
	return uint32(c) * capacity * DrawCommandSize
}

// CountOffset returns the byte offset of a bucket's counter inside the
// draw count buffer.
//
// Parameters:
//   - c: the bucket
//
// Returns:
//   - uint32: the byte offset
func CountOffset(c Category) uint32 {
	return uint32(c) * 4
}
