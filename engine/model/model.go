package model

import (
	"github.com/hucancode/mjolnir-sub007/engine/material"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	boundingCenter [3]float32
	boundingRadius float32
	indexCount     uint32
	firstIndex     uint32
	vertexOffset   int32
	mat            material.Material

	vertexData []byte
	indexData  []byte
}

// Model defines the interface for a renderable mesh descriptor. A Model
// identifies a contiguous index range inside externally-owned vertex/index
// storage, plus the bounding sphere visibility tests use. The raw vertex and
// index bytes are carried only until the host uploads them; draws are always
// indirect, driven by the cull output.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// BoundingCenter returns the model-space center of the bounding sphere.
	//
	// Returns:
	//   - [3]float32: the bounding sphere center
	BoundingCenter() [3]float32

	// BoundingRadius returns the bounding sphere radius. Used by frustum,
	// occlusion, and shadow caster tests.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// IndexCount returns the number of indices in this model's index range.
	//
	// Returns:
	//   - uint32: the index count
	IndexCount() uint32

	// FirstIndex returns the offset of this model's range within the shared
	// index buffer.
	//
	// Returns:
	//   - uint32: the first index
	FirstIndex() uint32

	// VertexOffset returns the value added to each index before vertex
	// lookup in the shared vertex buffer.
	//
	// Returns:
	//   - int32: the vertex offset
	VertexOffset() int32

	// Material retrieves the material assigned to this model, or nil if
	// none has been set. The material selects the visibility bucket.
	//
	// Returns:
	//   - material.Material: the material or nil
	Material() material.Material

	// SetMaterial assigns a material to this model.
	//
	// Parameters:
	//   - mat: the material to assign
	SetMaterial(mat material.Material)

	// VertexData returns the raw vertex data for this model's mesh.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the raw index data for this model's mesh.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// SetMeshRange sets the index range this model occupies in the shared
	// buffers after upload.
	//
	// Parameters:
	//   - firstIndex: the offset within the shared index buffer
	//   - indexCount: the number of indices
	//   - vertexOffset: the base vertex added to each index
	SetMeshRange(firstIndex, indexCount uint32, vertexOffset int32)

	// SetBoundingSphere sets the model-space bounding sphere.
	//
	// Parameters:
	//   - center: the sphere center
	//   - radius: the sphere radius
	SetBoundingSphere(center [3]float32, radius float32)
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) BoundingCenter() [3]float32 {
	return m.boundingCenter
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) IndexCount() uint32 {
	return m.indexCount
}

func (m *model) FirstIndex() uint32 {
	return m.firstIndex
}

func (m *model) VertexOffset() int32 {
	return m.vertexOffset
}

func (m *model) Material() material.Material {
	return m.mat
}

func (m *model) SetMaterial(mat material.Material) {
	m.mat = mat
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) SetMeshRange(firstIndex, indexCount uint32, vertexOffset int32) {
	m.firstIndex = firstIndex
	m.indexCount = indexCount
	m.vertexOffset = vertexOffset
}

func (m *model) SetBoundingSphere(center [3]float32, radius float32) {
	m.boundingCenter = center
	m.boundingRadius = radius
}
