package model

import (
	"github.com/hucancode/mjolnir-sub007/engine/material"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithBoundingSphere is an option builder that sets the model-space bounding sphere.
//
// Parameters:
//   - center: the sphere center
//   - radius: the sphere radius
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounding sphere option to a model
func WithBoundingSphere(center [3]float32, radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingCenter = center
		m.boundingRadius = radius
	}
}

// WithMeshRange is an option builder that sets the model's index range in the
// shared vertex/index storage.
//
// Parameters:
//   - firstIndex: the offset within the shared index buffer
//   - indexCount: the number of indices
//   - vertexOffset: the base vertex added to each index
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh range option to a model
func WithMeshRange(firstIndex, indexCount uint32, vertexOffset int32) ModelBuilderOption {
	return func(m *model) {
		m.firstIndex = firstIndex
		m.indexCount = indexCount
		m.vertexOffset = vertexOffset
	}
}

// WithMaterial is an option builder that assigns a material to the Model.
//
// Parameters:
//   - mat: the material to assign
//
// Returns:
//   - ModelBuilderOption: a function that applies the material option to a model
func WithMaterial(mat material.Material) ModelBuilderOption {
	return func(m *model) {
		m.mat = mat
	}
}

// WithMeshData is an option builder that sets the raw vertex and index bytes
// for the model. The host uploads these into the shared buffers and then
// records the resulting range via SetMeshRange.
//
// Parameters:
//   - vertexData: the raw vertex bytes
//   - indexData: the raw index bytes
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh data option to a model
func WithMeshData(vertexData, indexData []byte) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = vertexData
		m.indexData = indexData
	}
}

// WithMesh is an option builder that sets the model's geometry from typed
// vertices and indices. Marshals both into upload-ready bytes, sets the
// index count, and derives the bounding sphere from the vertex positions.
// The first-index and vertex-offset fields stay zero until the host
// records the mesh's placement via SetMeshRange.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: the mesh indices
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithMesh(vertices []GPUVertex, indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = MarshalVertices(vertices)
		m.indexData = MarshalIndices(indices)
		m.indexCount = uint32(len(indices))
		m.boundingCenter, m.boundingRadius = ComputeBoundingSphere(vertices)
	}
}
