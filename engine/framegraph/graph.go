package framegraph

import (
	vk "github.com/goki/vulkan"

	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/light"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

// CameraInfo is the per-camera slice of a topology snapshot.
type CameraInfo struct {
	// OcclusionCulling marks cameras that run the pyramid and cull passes.
	OcclusionCulling bool
}

// LightInfo is the per-shadow-slot slice of a topology snapshot.
type LightInfo struct {
	// Type selects between 2D and cube shadow resources.
	Type light.LightType
}

// CompileContext is an immutable topology snapshot: the active cameras in
// stable handle order, the assigned shadow slots, and the frame ring size.
// A new context is built on every topology change and handed to Compile;
// it is never mutated afterwards.
type CompileContext struct {
	Cameras        []CameraInfo
	Lights         []LightInfo
	FramesInFlight uint32

	// Queue family indices for ownership transfer derivation. Equal
	// families mean no transfers are emitted.
	GraphicsFamily uint32
	ComputeFamily  uint32
}

// instanceCount returns how many scope instances a scope has under this
// topology.
func (ctx *CompileContext) instanceCount(scope Scope) uint32 {
	switch scope {
	case ScopePerCamera:
		return uint32(len(ctx.Cameras))
	case ScopePerLight:
		return uint32(len(ctx.Lights))
	default:
		return 1
	}
}

// ResolvedKey identifies one symbolic resource slot at compile time. The
// frame offset stays symbolic here; the concrete frame index only exists
// at execute time. Two references conflict iff their keys are identical,
// which is exactly what lets a next-frame write coexist with this frame's
// readers of the same resource kind.
type ResolvedKey struct {
	Kind       resource.Kind
	Offset     FrameOffset
	ScopeIndex uint32
}

// BarrierSpec is one precomputed synchronization edge attached to a pass.
// Physical handles are bound at execute time from the resolver; everything
// else is fixed at compile time.
type BarrierSpec struct {
	Key       ResolvedKey
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	OldLayout vk.ImageLayout
	NewLayout vk.ImageLayout

	// Queue family ownership transfer; both QueueFamilyIgnored when the
	// writer and consumer share a family.
	SrcQueueFamily uint32
	DstQueueFamily uint32
}

// Pass is one expanded template instance: a concrete scope index, the
// resolved read/write key sets, and the barriers the compiler derived for
// it. Passes are immutable once compiled.
type Pass struct {
	Template   *Template
	ScopeIndex uint32

	// declIndex is the expansion order, the scheduling tie-break.
	declIndex int

	reads  []ResolvedKey
	writes []ResolvedKey

	// acquireBarriers run on this pass's stream before its body; they
	// cover everything earlier writers produced for this pass.
	acquireBarriers []BarrierSpec

	// releaseBarriers run after the body, only for cross-queue-family
	// ownership transfers that a later consumer acquires.
	releaseBarriers []BarrierSpec
}

// ID returns the pass's template identifier.
//
// Returns:
//   - string: the template id
func (p *Pass) ID() string {
	return p.Template.ID()
}

// Queue returns the queue the pass runs on.
//
// Returns:
//   - device.QueueKind: graphics or compute
func (p *Pass) Queue() device.QueueKind {
	return p.Template.Queue()
}

// Reads returns the pass's resolved read keys.
//
// Returns:
//   - []ResolvedKey: the read set, not a copy
func (p *Pass) Reads() []ResolvedKey {
	return p.reads
}

// Writes returns the pass's resolved write keys.
//
// Returns:
//   - []ResolvedKey: the write set, not a copy
func (p *Pass) Writes() []ResolvedKey {
	return p.writes
}

// AcquireBarriers returns the barriers emitted before the pass body.
//
// Returns:
//   - []BarrierSpec: the barriers, not a copy
func (p *Pass) AcquireBarriers() []BarrierSpec {
	return p.acquireBarriers
}

// Graph is a compiled schedule: the expanded passes in a total order
// consistent with the conflict partial order. A Graph is replaced
// wholesale on topology change and never mutated while in use, so frames
// may read it without locking.
type Graph struct {
	passes         []*Pass
	framesInFlight uint32
}

// Passes returns the sorted passes.
//
// Returns:
//   - []*Pass: the schedule, not a copy
func (g *Graph) Passes() []*Pass {
	return g.passes
}

// FramesInFlight returns the frame ring size the graph was compiled for.
//
// Returns:
//   - uint32: the ring size
func (g *Graph) FramesInFlight() uint32 {
	return g.framesInFlight
}

// ExecContext is what a pass body receives: its resolved resources in the
// template's reference order, the stream for its queue, and the frame
// position.
type ExecContext struct {
	// Resources holds one resolved handle per template reference, in
	// declaration order.
	Resources []resource.Handle

	Stream device.CommandStream

	// PassID is the executing pass's template ID, for bodies shared by
	// several templates.
	PassID     string
	FrameIndex uint32
	ScopeIndex uint32
	UserData   any
}

// Resource returns the resolved handle for the template's i-th reference.
//
// Parameters:
//   - i: the reference index in declaration order
//
// Returns:
//   - resource.Handle: the resolved handle
func (c *ExecContext) Resource(i int) resource.Handle {
	return c.Resources[i]
}
