package cull

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucancode/mjolnir-sub007/common"
)

// testCamera looks down -Z from (0, 0, 10) with a 90 degree vertical fov.
func testCamera() CullParams {
	var view, proj, viewProj [16]float32
	common.LookAt(view[:], 0, 0, 10, 0, 0, 0, 0, 1, 0)
	common.Perspective(proj[:], 1.5708, 1, 0.1, 100)
	common.Mul4(viewProj[:], proj[:], view[:])
	return CullParams{
		View:         view,
		Proj:         proj,
		Frustum:      common.ExtractFrustumFromMatrix(viewProj[:]),
		ScreenWidth:  256,
		ScreenHeight: 256,
	}
}

func TestCullCPUFrustumOnly(t *testing.T) {
	params := testCamera()
	nodes := []Node{
		{Center: [3]float32{0, 0, 0}, Radius: 1, Category: CategoryOpaque, IndexCount: 36},
		{Center: [3]float32{0, 0, 200}, Radius: 1, Category: CategoryOpaque, IndexCount: 36},
		{Center: [3]float32{500, 0, 0}, Radius: 1, Category: CategoryOpaque, IndexCount: 36},
	}

	result := CullCPU(nodes, params)
	assert.Equal(t, uint32(1), result.Counts[CategoryOpaque], "only the node in front of the camera survives")
	require.Len(t, result.Commands[CategoryOpaque], 1)
	assert.Equal(t, uint32(36), result.Commands[CategoryOpaque][0].IndexCount)
	assert.Equal(t, uint32(1), result.Commands[CategoryOpaque][0].InstanceCount)
}

func TestCullCPUBucketRouting(t *testing.T) {
	params := testCamera()
	nodes := []Node{
		{Center: [3]float32{0, 0, 0}, Radius: 1, Category: CategoryOpaque},
		{Center: [3]float32{1, 0, 0}, Radius: 1, Category: CategoryTransparent},
		{Center: [3]float32{-1, 0, 0}, Radius: 1, Category: CategoryTransparent},
		{Center: [3]float32{0, 1, 0}, Radius: 1, Category: CategorySprite},
	}

	result := CullCPU(nodes, params)
	assert.Equal(t, uint32(1), result.Counts[CategoryOpaque])
	assert.Equal(t, uint32(2), result.Counts[CategoryTransparent])
	assert.Equal(t, uint32(1), result.Counts[CategorySprite])
	assert.Equal(t, uint32(0), result.Counts[CategoryWireframe])
}

func TestCullCPUCapacityClamp(t *testing.T) {
	params := testCamera()
	params.Capacity = 4
	nodes := make([]Node, 10)
	for i := range nodes {
		nodes[i] = Node{Center: [3]float32{0, 0, 0}, Radius: 1, Category: CategoryOpaque}
	}

	result := CullCPU(nodes, params)
	assert.Equal(t, uint32(4), result.Counts[CategoryOpaque], "bucket clamps at capacity")
	assert.Equal(t, uint32(6), result.Dropped)
}

func TestCullCPUOcclusion(t *testing.T) {
	params := testCamera()
	extent := uint32(64)
	params.ScreenWidth = extent
	params.ScreenHeight = extent

	// A depth buffer stating everything drawn so far sits very close to
	// the camera: any node behind it is occluded.
	near := make([]float32, extent*extent)
	for i := range near {
		near[i] = 0.01
	}
	params.Pyramid = BuildCPUPyramid(near, extent, extent)

	nodes := []Node{{Center: [3]float32{0, 0, 0}, Radius: 1, Category: CategoryOpaque}}
	result := CullCPU(nodes, params)
	assert.Equal(t, uint32(0), result.Counts[CategoryOpaque], "node behind the near depth wall is occluded")

	// The same node against a far depth buffer is visible.
	far := make([]float32, extent*extent)
	for i := range far {
		far[i] = 1.0
	}
	params.Pyramid = BuildCPUPyramid(far, extent, extent)
	result = CullCPU(nodes, params)
	assert.Equal(t, uint32(1), result.Counts[CategoryOpaque])
}

func TestCullCPUDepthBiasAgainstSelfOcclusion(t *testing.T) {
	params := testCamera()
	extent := uint32(64)
	params.ScreenWidth = extent
	params.ScreenHeight = extent

	node := Node{Center: [3]float32{0, 0, 0}, Radius: 1, Category: CategoryOpaque}

	// Compute the node's own closest depth and build a depth buffer that
	// equals it exactly, the self-occlusion case after a warm-up frame.
	vx, vy, vz, _ := transformPoint(params.View[:], node.Center[0], node.Center[1], node.Center[2])
	_, _, cz, cw := transformPoint(params.Proj[:], vx, vy, vz+node.Radius)
	self := make([]float32, extent*extent)
	for i := range self {
		self[i] = cz / cw
	}
	params.Pyramid = BuildCPUPyramid(self, extent, extent)

	result := CullCPU([]Node{node}, params)
	assert.Equal(t, uint32(1), result.Counts[CategoryOpaque], "a node must not occlude itself")
}

func TestCullCPUSphereTouchingCameraNeverOccluded(t *testing.T) {
	params := testCamera()
	near := make([]float32, 16*16)
	params.Pyramid = BuildCPUPyramid(near, 16, 16)
	params.ScreenWidth = 16
	params.ScreenHeight = 16

	nodes := []Node{{Center: [3]float32{0, 0, 9.5}, Radius: 2, Category: CategoryOpaque}}
	result := CullCPU(nodes, params)
	assert.Equal(t, uint32(1), result.Counts[CategoryOpaque])
}
