package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucancode/mjolnir-sub007/engine/material"
)

func quadVertices() []GPUVertex {
	return []GPUVertex{
		{Position: [3]float32{-1, 0, -1}, Normal: [3]float32{0, 1, 0}},
		{Position: [3]float32{1, 0, -1}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{1, 0, 1}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{-1, 0, 1}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}},
	}
}

func TestWithMeshDerivesGeometry(t *testing.T) {
	m := NewModel(
		WithName("quad"),
		WithMesh(quadVertices(), []uint32{0, 1, 2, 0, 2, 3}),
	)

	assert.Equal(t, uint32(6), m.IndexCount())
	assert.Equal(t, uint32(0), m.FirstIndex())
	assert.Len(t, m.VertexData(), 4*64)
	assert.Len(t, m.IndexData(), 6*4)

	center := m.BoundingCenter()
	assert.Equal(t, [3]float32{0, 0, 0}, center)
	assert.InDelta(t, math.Sqrt2, float64(m.BoundingRadius()), 1e-6)
}

func TestSetMeshRangeAfterUpload(t *testing.T) {
	m := NewModel(WithMesh(quadVertices(), []uint32{0, 1, 2}))

	m.SetMeshRange(128, 3, 64)
	assert.Equal(t, uint32(128), m.FirstIndex())
	assert.Equal(t, uint32(3), m.IndexCount())
	assert.Equal(t, int32(64), m.VertexOffset())
}

func TestVertexMarshalLayout(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.5, 0.25},
		Color:    [4]float32{1, 0, 0, 1},
		Tangent:  [4]float32{1, 0, 0, -1},
	}
	buf := v.Marshal()
	require.Len(t, buf, 64)

	readF32 := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
	}
	assert.Equal(t, float32(3), readF32(8), "position.z at offset 8")
	assert.Equal(t, float32(1), readF32(16), "normal.y at offset 16")
	assert.Equal(t, float32(0.25), readF32(28), "texcoord.v at offset 28")
	assert.Equal(t, float32(1), readF32(44), "color.a at offset 44")
	assert.Equal(t, float32(-1), readF32(60), "tangent.w at offset 60")
}

func TestMaterialCategoryRouting(t *testing.T) {
	m := NewModel(
		WithMesh(quadVertices(), []uint32{0, 1, 2}),
		WithMaterial(material.NewMaterial(material.WithTransparent(true))),
	)
	assert.Equal(t, "transparent", m.Material().Category().String())

	m.SetMaterial(material.NewMaterial(material.WithWireframe(true)))
	assert.Equal(t, "wireframe", m.Material().Category().String())
}
