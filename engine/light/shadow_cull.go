package light

import (
	"math"

	"github.com/hucancode/mjolnir-sub007/common"
)

// Shadow caster visibility is deliberately frustum/sphere-only. A caster must
// not vanish from a shadow map just because the main camera cannot see it —
// its shadow may still fall inside the view. Occlusion testing applies only
// to camera draw lists, never to shadow passes.

// ShadowFrustum builds the view frustum of a light's shadow projection.
// Spot lights use a perspective frustum spanning the outer cone out to the
// light's range; directional lights use an orthographic box around the given
// focus point. Point lights have no single frustum (six cube faces) — use
// CasterVisible for their sphere test instead.
//
// Parameters:
//   - l: the light to build the frustum for
//   - focus: world-space focus point for directional lights (typically the
//     main camera's target); ignored for spot lights
//
// Returns:
//   - common.Frustum: the shadow frustum
//   - bool: false for point lights, which have no single frustum
func ShadowFrustum(l Light, focus [3]float32) (common.Frustum, bool) {
	var view, proj, viewProj [16]float32
	pos := l.Position()
	dir := l.Direction()
	ux, uy, uz := upFor(dir)

	switch l.Type() {
	case LightTypeSpot:
		// The stored cone value is cos(half-angle); the frustum fov is the
		// full cone angle.
		fov := 2 * acos32(l.OuterCone())
		common.LookAt(view[:],
			pos[0], pos[1], pos[2],
			pos[0]+dir[0], pos[1]+dir[1], pos[2]+dir[2],
			ux, uy, uz)
		common.Perspective(proj[:], fov, 1.0, DefaultShadowNear, l.Range())
	case LightTypeDirectional:
		eye := [3]float32{
			focus[0] - dir[0]*DefaultShadowFar*0.5,
			focus[1] - dir[1]*DefaultShadowFar*0.5,
			focus[2] - dir[2]*DefaultShadowFar*0.5,
		}
		common.LookAt(view[:],
			eye[0], eye[1], eye[2],
			focus[0], focus[1], focus[2],
			ux, uy, uz)
		common.Orthographic(proj[:], DefaultShadowHalfExtent, DefaultShadowNear, DefaultShadowFar)
	default:
		return common.Frustum{}, false
	}

	common.Mul4(viewProj[:], proj[:], view[:])
	return common.ExtractFrustumFromMatrix(viewProj[:]), true
}

// CasterVisible tests whether a bounding sphere can cast into a light's
// shadow map. Point lights use a sphere-sphere test against the light range;
// spot and directional lights test against their shadow frustum.
//
// Parameters:
//   - l: the shadow-casting light
//   - focus: directional light focus point (see ShadowFrustum)
//   - center: world-space bounding sphere center
//   - radius: bounding sphere radius
//
// Returns:
//   - bool: true if the caster may affect the light's shadow map
func CasterVisible(l Light, focus, center [3]float32, radius float32) bool {
	if l.Type() == LightTypePoint {
		pos := l.Position()
		dx := center[0] - pos[0]
		dy := center[1] - pos[1]
		dz := center[2] - pos[2]
		reach := l.Range() + radius
		return dx*dx+dy*dy+dz*dz <= reach*reach
	}
	f, ok := ShadowFrustum(l, focus)
	if !ok {
		return true
	}
	return f.IntersectsSphere(center, radius)
}

// upFor picks an up vector that is not parallel to the given direction.
func upFor(dir [3]float32) (x, y, z float32) {
	if dir[0] == 0 && dir[2] == 0 {
		return 0, 0, 1
	}
	return 0, 1, 0
}

// acos32 is a float32 wrapper over math.Acos with the input clamped to [-1, 1].
func acos32(v float32) float32 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return float32(math.Acos(float64(v)))
}
