package registry

// Handle identifies an entry in an Arena. The generation counter detects
// stale handles after a slot has been reused: a Handle whose generation no
// longer matches the slot's current generation resolves to nothing.
type Handle struct {
	// Index is the slot index within the arena.
	Index uint32
	// Generation is the slot generation this handle was issued for.
	Generation uint32
}

// InvalidHandle is the zero Handle. Slot 0 generation 0 is never issued, so
// the zero value is always stale.
var InvalidHandle = Handle{}

// slot is one arena cell: a value, its current generation, and an active bit.
type slot[T any] struct {
	value      T
	generation uint32
	active     bool
}

// arena is the implementation of the Arena interface.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32 // recycled slot indices, used LIFO
	count int
}

// Arena is a generational slot allocator for scene-level registries (cameras,
// lights). Iteration order over Handles is ascending slot index, which keeps
// every consumer of the registry deterministic regardless of insertion or
// removal history — map-backed registries cannot guarantee this.
//
// An Arena is not safe for concurrent mutation; registries are owned by the
// frame loop and mutated only between frames.
type Arena[T any] interface {
	// Insert places a value in the arena and returns its handle.
	// Recycles the most recently freed slot first; the slot's generation is
	// bumped on every reuse so handles into the previous occupant go stale.
	//
	// Parameters:
	//   - value: the value to store
	//
	// Returns:
	//   - Handle: a generation-checked handle to the stored value
	Insert(value T) Handle

	// Remove deactivates the slot a handle points at. Removing with a stale
	// or inactive handle is a no-op.
	//
	// Parameters:
	//   - h: the handle to remove
	//
	// Returns:
	//   - bool: true if a live entry was removed
	Remove(h Handle) bool

	// Get retrieves the value a handle points at.
	//
	// Parameters:
	//   - h: the handle to look up
	//
	// Returns:
	//   - T: the stored value (zero value when the handle is stale)
	//   - bool: false when the handle is stale or the slot inactive
	Get(h Handle) (T, bool)

	// Handles returns the handles of all active entries in ascending slot
	// order. The slice is freshly allocated on each call.
	//
	// Returns:
	//   - []Handle: active handles, ascending by slot index
	Handles() []Handle

	// Len returns the number of active entries.
	//
	// Returns:
	//   - int: the active entry count
	Len() int
}

var _ Arena[int] = &arena[int]{}

// NewArena creates an empty Arena.
//
// Returns:
//   - Arena[T]: the newly created arena
func NewArena[T any]() Arena[T] {
	// Slot 0 is burned at generation 0 so that the zero Handle is never valid.
	a := &arena[T]{}
	a.slots = append(a.slots, slot[T]{})
	a.free = append(a.free, 0)
	return a
}

func (a *arena[T]) Insert(value T) Handle {
	a.count++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = value
		s.generation++
		s.active = true
		return Handle{Index: idx, Generation: s.generation}
	}
	a.slots = append(a.slots, slot[T]{value: value, generation: 1, active: true})
	return Handle{Index: uint32(len(a.slots) - 1), Generation: 1}
}

func (a *arena[T]) Remove(h Handle) bool {
	if int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	if !s.active || s.generation != h.Generation {
		return false
	}
	var zero T
	s.value = zero
	s.active = false
	a.free = append(a.free, h.Index)
	a.count--
	return true
}

func (a *arena[T]) Get(h Handle) (T, bool) {
	if int(h.Index) >= len(a.slots) {
		var zero T
		return zero, false
	}
	s := &a.slots[h.Index]
	if !s.active || s.generation != h.Generation {
		var zero T
		return zero, false
	}
	return s.value, true
}

func (a *arena[T]) Handles() []Handle {
	handles := make([]Handle, 0, a.count)
	for i := range a.slots {
		if a.slots[i].active {
			handles = append(handles, Handle{Index: uint32(i), Generation: a.slots[i].generation})
		}
	}
	return handles
}

func (a *arena[T]) Len() int {
	return a.count
}
