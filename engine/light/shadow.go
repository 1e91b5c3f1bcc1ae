package light

// MaxShadowSlots is the size of the fixed shadow map slot pool. Each frame the
// scheduler assigns at most this many shadow-casting lights a slot; lights
// beyond the budget keep rendering but lose their shadow for the frame.
const MaxShadowSlots = 16

// InvalidShadowIndex marks a light that holds no shadow map slot. Shaders
// treat a negative shadow index as "no shadow lookup".
const InvalidShadowIndex int32 = -1

// ShadowMapResolution is the default width and height in texels of each
// shadow map slot's depth texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// used for the directional light shadow frustum. Controls how much of the scene
// around the camera center is captured in the shadow map.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane for shadow projections.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane for the directional light's
// orthographic shadow projection. Point and spot lights use their range
// instead.
const DefaultShadowFar float32 = 200.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.001
