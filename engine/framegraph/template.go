package framegraph

import (
	"sync"

	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

// Scope is the instancing granularity of a pass template: once globally,
// once per active camera, or once per assigned shadow slot.
type Scope int

const (
	// ScopeGlobal instantiates a template exactly once.
	ScopeGlobal Scope = iota
	// ScopePerCamera instantiates a template once per active camera.
	ScopePerCamera
	// ScopePerLight instantiates a template once per assigned shadow slot.
	ScopePerLight
)

// String returns the scope's lower-case name.
//
// Returns:
//   - string: "global", "per_camera" or "per_light"
func (s Scope) String() string {
	switch s {
	case ScopePerCamera:
		return "per_camera"
	case ScopePerLight:
		return "per_light"
	default:
		return "global"
	}
}

// FrameOffset tags a resource reference with which frame slot it touches.
// NextFrame is how a compute pass prepares input for the following frame
// without conflicting with this frame's consumers of the same resource.
type FrameOffset int

const (
	// CurrentFrame addresses the slot being rendered this frame.
	CurrentFrame FrameOffset = iota
	// NextFrame addresses the slot the following frame will render from.
	NextFrame
)

// Role declares how a pass touches a resource.
type Role int

const (
	// RoleRead declares a read-only access.
	RoleRead Role = iota
	// RoleWrite declares a write-only access.
	RoleWrite
	// RoleReadWrite declares a combined access, ordered like a write.
	RoleReadWrite
)

// Addressing selects how a reference's scope index is chosen at expansion.
type Addressing int

const (
	// AddrPassScoped takes the scope index of the expanded pass instance.
	AddrPassScoped Addressing = iota
	// AddrFixed uses an explicit scope index regardless of the pass scope.
	AddrFixed
)

// Ref is one symbolic resource reference of a template. References carry no
// physical handles; they resolve to concrete resources at execute time.
type Ref struct {
	Kind       resource.Kind
	Role       Role
	Offset     FrameOffset
	Addressing Addressing
	FixedIndex uint32
}

// Read builds a pass-scoped read reference of the current frame slot.
//
// Parameters:
//   - kind: the resource kind
//
// Returns:
//   - Ref: the reference
func Read(kind resource.Kind) Ref {
	return Ref{Kind: kind, Role: RoleRead}
}

// Write builds a pass-scoped write reference of the current frame slot.
//
// Parameters:
//   - kind: the resource kind
//
// Returns:
//   - Ref: the reference
func Write(kind resource.Kind) Ref {
	return Ref{Kind: kind, Role: RoleWrite}
}

// ReadWrite builds a pass-scoped read-write reference of the current
// frame slot.
//
// Parameters:
//   - kind: the resource kind
//
// Returns:
//   - Ref: the reference
func ReadWrite(kind resource.Kind) Ref {
	return Ref{Kind: kind, Role: RoleReadWrite}
}

// Next retags the reference to the next frame's slot.
//
// Returns:
//   - Ref: the retagged reference
func (r Ref) Next() Ref {
	r.Offset = NextFrame
	return r
}

// Fixed pins the reference to an explicit scope index instead of the
// expanded pass instance's own index.
//
// Parameters:
//   - index: the scope index to pin
//
// Returns:
//   - Ref: the pinned reference
func (r Ref) Fixed(index uint32) Ref {
	r.Addressing = AddrFixed
	r.FixedIndex = index
	return r
}

// Writes reports whether the reference's role orders like a write.
//
// Returns:
//   - bool: true for write and read-write roles
func (r Ref) Writes() bool {
	return r.Role == RoleWrite || r.Role == RoleReadWrite
}

// Reads reports whether the reference's role includes a read.
//
// Returns:
//   - bool: true for read and read-write roles
func (r Ref) Reads() bool {
	return r.Role == RoleRead || r.Role == RoleReadWrite
}

// Condition gates whether a template instantiates for a given scope
// instance. A nil condition always instantiates.
type Condition func(ctx *CompileContext, scopeIndex uint32) bool

// PassFunc is a pass body. It receives the already-resolved resources and
// a command stream and must emit GPU commands only; it never inserts its
// own barriers and never allocates resources.
type PassFunc func(ctx *ExecContext)

// Template is one immutable pass kind: a scope, a queue, an ordered set of
// symbolic resource references, and a body. Templates are created once and
// expanded into concrete passes at compile time.
type Template struct {
	id        string
	scope     Scope
	queue     device.QueueKind
	refs      []Ref
	condition Condition
	execute   PassFunc
}

// ID returns the template identifier.
//
// Returns:
//   - string: the identifier given at creation
func (t *Template) ID() string {
	return t.id
}

// Scope returns the template's instancing scope.
//
// Returns:
//   - Scope: the scope
func (t *Template) Scope() Scope {
	return t.scope
}

// Queue returns the queue the template's passes run on.
//
// Returns:
//   - device.QueueKind: graphics or compute
func (t *Template) Queue() device.QueueKind {
	return t.queue
}

// Refs returns the template's resource references in declaration order.
//
// Returns:
//   - []Ref: the references, not a copy
func (t *Template) Refs() []Ref {
	return t.refs
}

// TemplateOption configures a template at creation.
type TemplateOption func(*Template)

// WithScope sets the instancing scope. The default is ScopeGlobal.
//
// Parameters:
//   - scope: the scope
//
// Returns:
//   - TemplateOption: the option
func WithScope(scope Scope) TemplateOption {
	return func(t *Template) {
		t.scope = scope
	}
}

// WithQueue sets the execution queue. The default is the graphics queue.
//
// Parameters:
//   - queue: graphics or compute
//
// Returns:
//   - TemplateOption: the option
func WithQueue(queue device.QueueKind) TemplateOption {
	return func(t *Template) {
		t.queue = queue
	}
}

// WithRefs appends resource references in declaration order.
//
// Parameters:
//   - refs: the references to append
//
// Returns:
//   - TemplateOption: the option
func WithRefs(refs ...Ref) TemplateOption {
	return func(t *Template) {
		t.refs = append(t.refs, refs...)
	}
}

// WithCondition gates instantiation per scope instance, e.g. restricting a
// culling pass to cameras that have occlusion culling enabled.
//
// Parameters:
//   - cond: the predicate
//
// Returns:
//   - TemplateOption: the option
func WithCondition(cond Condition) TemplateOption {
	return func(t *Template) {
		t.condition = cond
	}
}

// WithExecute sets the pass body. A template without a body compiles and
// schedules normally but records nothing beyond its barriers.
//
// Parameters:
//   - fn: the pass body
//
// Returns:
//   - TemplateOption: the option
func WithExecute(fn PassFunc) TemplateOption {
	return func(t *Template) {
		t.execute = fn
	}
}

// NewTemplate creates an immutable pass template.
//
// Parameters:
//   - id: the template identifier, unique within one registry
//   - opts: template options
//
// Returns:
//   - *Template: the new template
func NewTemplate(id string, opts ...TemplateOption) *Template {
	t := &Template{id: id}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Registry holds pass templates in registration order. Registration order
// is the tie-break for scheduling, so it is part of the compiled graph's
// determinism contract.
type Registry interface {
	// Register appends a template. Registering a duplicate id replaces
	// nothing; the duplicate is ignored and the first registration wins.
	//
	// Parameters:
	//   - t: the template to register
	Register(t *Template)

	// Templates returns the registered templates in registration order.
	//
	// Returns:
	//   - []*Template: the templates, not a copy
	Templates() []*Template

	// Lookup returns the template with the given id.
	//
	// Parameters:
	//   - id: the template identifier
	//
	// Returns:
	//   - *Template: the template, nil if absent
	Lookup(id string) *Template
}

type registryImpl struct {
	mu        sync.RWMutex
	templates []*Template
	byID      map[string]*Template
}

var _ Registry = &registryImpl{}

// NewRegistry creates an empty template registry.
//
// Returns:
//   - Registry: the new registry
func NewRegistry() Registry {
	return &registryImpl{byID: make(map[string]*Template)}
}

func (r *registryImpl) Register(t *Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[t.id]; exists {
		return
	}
	r.byID[t.id] = t
	r.templates = append(r.templates, t)
}

func (r *registryImpl) Templates() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates
}

func (r *registryImpl) Lookup(id string) *Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}
