package camera

// CameraBuilderOption is a function that configures a Camera instance during construction.
type CameraBuilderOption func(*cameraImpl)

// WithPosition is an option builder that sets the camera's world-space position.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - CameraBuilderOption: a function that applies the position option to a cameraImpl
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = [3]float32{x, y, z}
	}
}

// WithTarget is an option builder that sets the point the camera looks at.
//
// Parameters:
//   - x: the x target component
//   - y: the y target component
//   - z: the z target component
//
// Returns:
//   - CameraBuilderOption: a function that applies the target option to a cameraImpl
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = [3]float32{x, y, z}
	}
}

// WithUp is an option builder that sets the camera's up vector.
//
// Parameters:
//   - x: the x up component
//   - y: the y up component
//   - z: the z up component
//
// Returns:
//   - CameraBuilderOption: a function that applies the up vector option to a cameraImpl
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithPerspective is an option builder that sets the perspective projection parameters.
//
// Parameters:
//   - fov: vertical field of view in radians
//   - aspect: viewport aspect ratio (width / height)
//   - near: near clipping plane distance
//   - far: far clipping plane distance
//
// Returns:
//   - CameraBuilderOption: a function that applies the perspective option to a cameraImpl
func WithPerspective(fov, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
		c.aspect = aspect
		c.near = near
		c.far = far
	}
}

// WithOcclusionCulling is an option builder that enables or disables
// hierarchical-depth occlusion testing for this camera.
//
// Parameters:
//   - enabled: true to enable occlusion culling
//
// Returns:
//   - CameraBuilderOption: a function that applies the occlusion culling option to a cameraImpl
func WithOcclusionCulling(enabled bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.occlusionCulling = enabled
	}
}
