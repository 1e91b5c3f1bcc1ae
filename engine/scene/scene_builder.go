package scene

import (
	"github.com/hucancode/mjolnir-sub007/engine/camera"
	"github.com/hucancode/mjolnir-sub007/engine/game_object"
	"github.com/hucancode/mjolnir-sub007/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithViewport sets the initial pixel size of the render surface.
// Defaults to 1280x720 until the window reports its real size.
//
// Parameters:
//   - width: surface width in pixels
//   - height: surface height in pixels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewport(width, height uint32) SceneBuilderOption {
	return func(s *scene) {
		if width > 0 && height > 0 {
			s.viewportWidth = width
			s.viewportHeight = height
		}
	}
}

// WithFramesInFlight sets the frame ring size carried into every compile
// topology this scene produces. Defaults to 2; values below 2 break the
// one-frame visibility pipeline and are clamped.
//
// Parameters:
//   - n: the number of frames in flight (minimum 2)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFramesInFlight(n uint32) SceneBuilderOption {
	return func(s *scene) {
		if n < 2 {
			n = 2
		}
		s.framesInFlight = n
	}
}

// WithObjects adds initial objects to the scene. Objects carrying lights
// have their lights registered, same as Add.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			h := s.objects.Insert(obj)
			if l := obj.Light(); l != nil {
				s.objectLights[h] = s.lights.Add(l)
			}
		}
	}
}

// WithCameras adds initial cameras to the scene.
//
// Parameters:
//   - cameras: the cameras to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCameras(cameras ...camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		for _, cam := range cameras {
			s.cameras.Add(cam)
		}
	}
}

// WithLights adds initial free-standing lights (not attached to any
// object) to the scene.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			s.lights.Add(l)
		}
	}
}
