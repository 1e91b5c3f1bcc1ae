package light

import (
	"github.com/hucancode/mjolnir-sub007/engine/registry"
)

// Handle identifies a light in a Registry. Generation-checked so handles
// into removed lights resolve to nothing instead of a recycled slot.
type Handle = registry.Handle

// Registry owns the set of active lights. It is the light half of the
// topology source: the shadow slot scheduler walks the active handle list in
// stable slot order each frame, and a change in the shadow-casting membership
// requires the caller to recompile the pass graph.
type Registry interface {
	// Add inserts a light and returns its handle.
	//
	// Parameters:
	//   - l: the light to add
	//
	// Returns:
	//   - Handle: a generation-checked handle to the light
	Add(l Light) Handle

	// Remove deactivates a light. A stale handle is a no-op.
	//
	// Parameters:
	//   - h: the handle of the light to remove
	//
	// Returns:
	//   - bool: true if a live light was removed
	Remove(h Handle) bool

	// Get retrieves a light by handle.
	//
	// Parameters:
	//   - h: the handle to look up
	//
	// Returns:
	//   - Light: the light, or nil for a stale handle
	Get(h Handle) Light

	// ActiveHandles returns the handles of all active lights in ascending
	// slot order. This ordering is stable across frames absent membership
	// change, which keeps shadow slot assignment deterministic.
	//
	// Returns:
	//   - []Handle: active light handles, ascending by slot index
	ActiveHandles() []Handle

	// Len returns the number of active lights.
	//
	// Returns:
	//   - int: the active light count
	Len() int
}

// lightRegistry is the implementation of the Registry interface.
type lightRegistry struct {
	arena registry.Arena[Light]
}

var _ Registry = &lightRegistry{}

// NewRegistry creates an empty light Registry.
//
// Returns:
//   - Registry: the newly created registry
func NewRegistry() Registry {
	return &lightRegistry{arena: registry.NewArena[Light]()}
}

func (r *lightRegistry) Add(l Light) Handle {
	return r.arena.Insert(l)
}

func (r *lightRegistry) Remove(h Handle) bool {
	return r.arena.Remove(h)
}

func (r *lightRegistry) Get(h Handle) Light {
	l, ok := r.arena.Get(h)
	if !ok {
		return nil
	}
	return l
}

func (r *lightRegistry) ActiveHandles() []Handle {
	return r.arena.Handles()
}

func (r *lightRegistry) Len() int {
	return r.arena.Len()
}
