package camera

import (
	"sync"

	"github.com/hucancode/mjolnir-sub007/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	occlusionCulling bool
}

// Camera defines the interface for a render viewpoint. The camera holds
// perspective settings, computes view/projection matrices from its
// position/target via Update(), and exposes the extracted view frustum
// used by both CPU and GPU visibility tests.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Target returns the world-space point the camera looks at.
	//
	// Returns:
	//   - [3]float32: target as (x, y, z)
	Target() [3]float32

	// Fov returns the field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix
	// as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Frustum returns the view frustum extracted from the current
	// view-projection matrix. Valid after the first Update().
	//
	// Returns:
	//   - common.Frustum: the six normalized frustum planes
	Frustum() common.Frustum

	// OcclusionCullingEnabled reports whether this camera participates in
	// hierarchical-depth occlusion testing. Cameras with this disabled are
	// culled by frustum only and get no depth pyramid passes.
	//
	// Returns:
	//   - bool: true if occlusion culling is enabled
	OcclusionCullingEnabled() bool

	// Update recomputes view, projection, and view-projection matrices from
	// the current position/target/up and perspective settings.
	// Should be called once per frame before compiling or executing the graph.
	Update()

	// SetPosition sets the camera's world-space position.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetTarget sets the point the camera looks at.
	//
	// Parameters:
	//   - x, y, z: target components
	SetTarget(x, y, z float32)

	// SetAspect sets the aspect ratio and marks matrices for recompute on the
	// next Update. Call when the render surface is resized.
	//
	// Parameters:
	//   - aspect: the new aspect ratio (width / height)
	SetAspect(aspect float32)

	// SetOcclusionCullingEnabled toggles hierarchical-depth occlusion testing
	// for this camera. Changing this reshapes the compiled pass graph, so the
	// caller must recompile afterwards.
	//
	// Parameters:
	//   - enabled: true to enable occlusion culling
	SetOcclusionCullingEnabled(enabled bool)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with sensible perspective defaults and any
// provided options applied. The initial matrices are computed immediately.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the camera
//
// Returns:
//   - Camera: a new Camera instance
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: [3]float32{0, 0, 5},
		target:   [3]float32{0, 0, 0},
		up:       [3]float32{0, 1, 0},
		fov:      1.0471976, // 60 degrees
		aspect:   16.0 / 9.0,
		near:     0.1,
		far:      1000.0,
	}
	for _, opt := range options {
		opt(c)
	}
	c.update()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

func (c *cameraImpl) OcclusionCullingEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.occlusionCulling
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update()
}

// update recomputes all matrices. Caller must hold the mutex.
func (c *cameraImpl) update() {
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2])
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = [3]float32{x, y, z}
	c.update()
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.update()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.update()
}

func (c *cameraImpl) SetOcclusionCullingEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.occlusionCulling = enabled
}
