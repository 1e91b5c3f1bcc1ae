package light

// ShadowSlot describes one entry of the fixed shadow map pool for the current
// frame: whether it is occupied, which kind of shadow map it needs (cube for
// point lights, 2D otherwise), and the owning light.
type ShadowSlot struct {
	// Active reports whether a light occupies this slot this frame.
	Active bool
	// Kind is the owning light's type, which selects the shadow resource kind
	// (point lights render into a cube map, spot and directional into a 2D map).
	Kind LightType
	// Light is the handle of the owning light.
	Light Handle
}

// shadowScheduler is the implementation of the ShadowScheduler interface.
type shadowScheduler struct {
	slots     [MaxShadowSlots]ShadowSlot
	slotCount int
}

// ShadowScheduler assigns the fixed pool of shadow map slots to active
// shadow-casting lights, once per frame. Assignment walks lights in stable
// handle order, so the slot a light holds does not change between frames
// unless the shadow-casting membership itself changes. The slot count drives
// per-light pass instancing; when it changes the caller must recompile the
// pass graph.
type ShadowScheduler interface {
	// Assign performs the per-frame slot assignment. Lights with shadows
	// enabled are given slots 0..MaxShadowSlots-1 in ascending handle order;
	// each receives its slot index via SetShadowIndex. Lights beyond the pool
	// budget, disabled lights, and lights with shadow casting cleared receive
	// InvalidShadowIndex — a degradation, never an error.
	//
	// Parameters:
	//   - reg: the light registry to scan
	//
	// Returns:
	//   - int: the number of slots assigned this frame
	//   - bool: true if the slot count or slot ownership changed since the
	//     previous assignment, in which case the pass graph must be recompiled
	Assign(reg Registry) (int, bool)

	// Slots returns the current slot pool. Only the first SlotCount entries
	// are active.
	//
	// Returns:
	//   - [MaxShadowSlots]ShadowSlot: the slot pool as of the last Assign
	Slots() [MaxShadowSlots]ShadowSlot

	// SlotCount returns the number of slots assigned by the last Assign call.
	//
	// Returns:
	//   - int: the active slot count
	SlotCount() int
}

var _ ShadowScheduler = &shadowScheduler{}

// NewShadowScheduler creates a ShadowScheduler with an empty slot pool.
//
// Returns:
//   - ShadowScheduler: the newly created scheduler
func NewShadowScheduler() ShadowScheduler {
	return &shadowScheduler{}
}

func (s *shadowScheduler) Assign(reg Registry) (int, bool) {
	var next [MaxShadowSlots]ShadowSlot
	count := 0

	// ActiveHandles is ascending by slot index, so assignment order is a
	// function of membership alone, not of insertion history.
	for _, h := range reg.ActiveHandles() {
		l := reg.Get(h)
		if l == nil {
			continue
		}
		if !l.Enabled() || !l.CastsShadows() {
			l.SetShadowIndex(InvalidShadowIndex)
			continue
		}
		if count >= MaxShadowSlots {
			// Pool exhausted: the light keeps rendering, just unshadowed.
			l.SetShadowIndex(InvalidShadowIndex)
			continue
		}
		next[count] = ShadowSlot{Active: true, Kind: l.Type(), Light: h}
		l.SetShadowIndex(int32(count))
		count++
	}

	changed := count != s.slotCount
	if !changed {
		for i := 0; i < count; i++ {
			if next[i] != s.slots[i] {
				changed = true
				break
			}
		}
	}

	s.slots = next
	s.slotCount = count
	return count, changed
}

func (s *shadowScheduler) Slots() [MaxShadowSlots]ShadowSlot {
	return s.slots
}

func (s *shadowScheduler) SlotCount() int {
	return s.slotCount
}
