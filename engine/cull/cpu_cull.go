package cull

import (
	"github.com/hucancode/mjolnir-sub007/common"
)

// CullParams is one camera's input to the visibility test, shared by the
// GPU dispatch's push constants and the CPU reference path.
type CullParams struct {
	View         [16]float32
	Proj         [16]float32
	Frustum      common.Frustum
	ScreenWidth  uint32
	ScreenHeight uint32

	// Pyramid enables the occlusion half of the test; nil means
	// frustum-only.
	Pyramid *CPUPyramid

	DepthBias float32
	Capacity  uint32
}

// CullResult is the per-bucket output of one visibility pass.
type CullResult struct {
	Commands [CategoryCount][]DrawCommand
	Counts   [CategoryCount]uint32
	// Dropped counts nodes lost to bucket overflow.
	Dropped uint32
}

// CullCPU runs the visibility test on the host: the same frustum check,
// mip selection, max-depth comparison and bucket routing as the compute
// shader, node for node. It is the reference the GPU path is tested
// against and the cull engine's headless fallback.
//
// Parameters:
//   - nodes: the cullable scene nodes
//   - params: the camera's cull parameters
//
// Returns:
//   - CullResult: the per-bucket draw lists
func CullCPU(nodes []Node, params CullParams) CullResult {
	var result CullResult
	capacity := params.Capacity
	if capacity == 0 {
		capacity = DefaultBucketCapacity
	}
	bias := params.DepthBias
	if bias == 0 {
		bias = DefaultDepthBias
	}

	for _, n := range nodes {
		if !params.Frustum.IntersectsSphere(n.Center, n.Radius) {
			continue
		}
		if params.Pyramid != nil && occluded(n, params, bias) {
			continue
		}
		c := n.Category
		if c < 0 || c >= CategoryCount {
			c = CategoryOpaque
		}
		if result.Counts[c] >= capacity {
			result.Dropped++
			continue
		}
		result.Commands[c] = append(result.Commands[c], DrawCommand{
			IndexCount:    n.IndexCount,
			InstanceCount: 1,
			FirstIndex:    n.FirstIndex,
			VertexOffset:  n.VertexOffset,
			FirstInstance: n.InstanceID,
		})
		result.Counts[c]++
	}
	return result
}

// occluded tests a node's bounding sphere against the depth pyramid. The
// sphere's closest depth is compared against the max depth sampled at the
// mip covering its screen footprint; the bias keeps geometry that wrote
// last frame's depth from occluding itself.
func occluded(n Node, params CullParams, bias float32) bool {
	vx, vy, vz, _ := transformPoint(params.View[:], n.Center[0], n.Center[1], n.Center[2])
	dist := -vz
	if dist <= n.Radius {
		// Sphere reaches the camera plane; never occluded.
		return false
	}

	// Closest point of the sphere toward the camera.
	_, _, cz, cw := transformPoint(params.Proj[:], vx, vy, vz+n.Radius)
	if cw <= 0 {
		return false
	}
	sphereDepth := cz / cw

	// Center UV for the pyramid sample.
	px, py, _, pw := transformPoint(params.Proj[:], vx, vy, vz)
	if pw <= 0 {
		return false
	}
	u := px/pw*0.5 + 0.5
	v := py/pw*0.5 + 0.5
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return false
	}

	// Projected diameter in pixels picks the covering mip.
	footprint := n.Radius / dist * params.Proj[5] * float32(params.ScreenHeight)
	level := params.Pyramid.FootprintMip(footprint)
	maxDepth := params.Pyramid.Sample(level, u, v)

	return sphereDepth > maxDepth+bias
}

// transformPoint multiplies a column-major 4x4 matrix with (x, y, z, 1).
func transformPoint(m []float32, x, y, z float32) (float32, float32, float32, float32) {
	ox := m[0]*x + m[4]*y + m[8]*z + m[12]
	oy := m[1]*x + m[5]*y + m[9]*z + m[13]
	oz := m[2]*x + m[6]*y + m[10]*z + m[14]
	ow := m[3]*x + m[7]*y + m[11]*z + m[15]
	return ox, oy, oz, ow
}
