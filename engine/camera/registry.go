package camera

import (
	"github.com/hucancode/mjolnir-sub007/engine/registry"
)

// Handle identifies a camera in a Registry. Generation-checked so handles
// into removed cameras resolve to nothing instead of a recycled slot.
type Handle = registry.Handle

// Registry owns the set of active cameras. It is the camera half of the
// topology source: the active handle list, in stable slot order, drives
// per-camera pass instancing, and any membership change requires the caller
// to recompile the pass graph.
type Registry interface {
	// Add inserts a camera and returns its handle.
	//
	// Parameters:
	//   - c: the camera to add
	//
	// Returns:
	//   - Handle: a generation-checked handle to the camera
	Add(c Camera) Handle

	// Remove deactivates a camera. A stale handle is a no-op.
	//
	// Parameters:
	//   - h: the handle of the camera to remove
	//
	// Returns:
	//   - bool: true if a live camera was removed
	Remove(h Handle) bool

	// Get retrieves a camera by handle.
	//
	// Parameters:
	//   - h: the handle to look up
	//
	// Returns:
	//   - Camera: the camera, or nil for a stale handle
	Get(h Handle) Camera

	// ActiveHandles returns the handles of all active cameras in ascending
	// slot order. This ordering is stable across frames absent membership
	// change, which keeps per-camera pass instancing deterministic.
	//
	// Returns:
	//   - []Handle: active camera handles, ascending by slot index
	ActiveHandles() []Handle

	// Len returns the number of active cameras.
	//
	// Returns:
	//   - int: the active camera count
	Len() int
}

// cameraRegistry is the implementation of the Registry interface.
type cameraRegistry struct {
	arena registry.Arena[Camera]
}

var _ Registry = &cameraRegistry{}

// NewRegistry creates an empty camera Registry.
//
// Returns:
//   - Registry: the newly created registry
func NewRegistry() Registry {
	return &cameraRegistry{arena: registry.NewArena[Camera]()}
}

func (r *cameraRegistry) Add(c Camera) Handle {
	return r.arena.Insert(c)
}

func (r *cameraRegistry) Remove(h Handle) bool {
	return r.arena.Remove(h)
}

func (r *cameraRegistry) Get(h Handle) Camera {
	c, ok := r.arena.Get(h)
	if !ok {
		return nil
	}
	return c
}

func (r *cameraRegistry) ActiveHandles() []Handle {
	return r.arena.Handles()
}

func (r *cameraRegistry) Len() int {
	return r.arena.Len()
}
