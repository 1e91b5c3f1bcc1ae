package resource

import (
	"sync"

	vk "github.com/goki/vulkan"
)

// Handle is a resolved physical GPU resource. Exactly one of the image or
// buffer fields is populated depending on the kind's Class. Handles are
// created and owned by external pools; this package only stores and returns
// them.
type Handle struct {
	// Image is the image object for image-backed kinds.
	Image vk.Image
	// View is the full-image view for image-backed kinds.
	View vk.ImageView
	// Buffer is the buffer object for buffer-backed kinds.
	Buffer vk.Buffer
	// Size is the buffer size in bytes for buffer-backed kinds.
	Size vk.DeviceSize
	// Width and Height are the image extent for image-backed kinds.
	Width, Height uint32
	// MipLevels is the mip chain length for image-backed kinds.
	MipLevels uint32
	// RenderPass and Framebuffer are set for attachment kinds so render
	// pass bodies need no side lookups.
	RenderPass  vk.RenderPass
	Framebuffer vk.Framebuffer
}

// Resolver maps a symbolic (kind, frame slot, scope index) key to the
// physical GPU handle registered for it. Resolution happens at execute time,
// once per pass per frame, and never at compile time — so resizing or
// recreating a backing resource never forces a graph rebuild.
type Resolver interface {
	// Resolve looks up the handle for a symbolic key. A miss (scope index
	// transiently out of the active range, or the backing resource not yet
	// created for that slot) is an expected steady-state condition, not an
	// error: the executor skips the affected pass body for the frame.
	//
	// Parameters:
	//   - kind: the resource kind
	//   - frameIndex: the frame slot (0..framesInFlight-1)
	//   - scopeIndex: the scope instance (camera index, shadow slot, or 0 for global)
	//
	// Returns:
	//   - Handle: the registered handle (zero value on a miss)
	//   - bool: false when no handle is registered for the key
	Resolve(kind Kind, frameIndex, scopeIndex uint32) (Handle, bool)
}

// table is the implementation of the Table interface.
type table struct {
	mu sync.RWMutex
	// store[kind][frameIndex][scopeIndex]; inner slices grow on Register,
	// Resolve never allocates.
	store [kindCount][][]entry
}

type entry struct {
	handle Handle
	live   bool
}

// Table is the registration side of the Resolver: external subsystems that
// own GPU memory (swapchain, shadow atlas, buffer pools) deposit handles
// here and withdraw them when the backing resource is destroyed. The table
// itself never allocates, frees, or resizes GPU resources.
type Table interface {
	Resolver

	// Register deposits a handle for a symbolic key, replacing any previous
	// registration. The caller retains ownership of the GPU resource.
	//
	// Parameters:
	//   - kind: the resource kind
	//   - frameIndex: the frame slot
	//   - scopeIndex: the scope instance
	//   - h: the physical handle
	Register(kind Kind, frameIndex, scopeIndex uint32, h Handle)

	// Unregister removes the handle for a symbolic key. Subsequent Resolve
	// calls for the key miss until a new handle is registered. Unregistering
	// an absent key is a no-op.
	//
	// Parameters:
	//   - kind: the resource kind
	//   - frameIndex: the frame slot
	//   - scopeIndex: the scope instance
	Unregister(kind Kind, frameIndex, scopeIndex uint32)
}

var _ Table = &table{}

// NewTable creates an empty resource Table.
//
// Returns:
//   - Table: the newly created table
func NewTable() Table {
	return &table{}
}

func (t *table) Resolve(kind Kind, frameIndex, scopeIndex uint32) (Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if kind < 0 || kind >= kindCount {
		return Handle{}, false
	}
	frames := t.store[kind]
	if int(frameIndex) >= len(frames) {
		return Handle{}, false
	}
	scopes := frames[frameIndex]
	if int(scopeIndex) >= len(scopes) {
		return Handle{}, false
	}
	e := scopes[scopeIndex]
	if !e.live {
		return Handle{}, false
	}
	return e.handle, true
}

func (t *table) Register(kind Kind, frameIndex, scopeIndex uint32, h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if kind < 0 || kind >= kindCount {
		return
	}
	for int(frameIndex) >= len(t.store[kind]) {
		t.store[kind] = append(t.store[kind], nil)
	}
	scopes := t.store[kind][frameIndex]
	for int(scopeIndex) >= len(scopes) {
		scopes = append(scopes, entry{})
	}
	scopes[scopeIndex] = entry{handle: h, live: true}
	t.store[kind][frameIndex] = scopes
}

func (t *table) Unregister(kind Kind, frameIndex, scopeIndex uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if kind < 0 || kind >= kindCount {
		return
	}
	frames := t.store[kind]
	if int(frameIndex) >= len(frames) {
		return
	}
	scopes := frames[frameIndex]
	if int(scopeIndex) >= len(scopes) {
		return
	}
	scopes[scopeIndex] = entry{}
}
