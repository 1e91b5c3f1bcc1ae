package framegraph

import (
	vk "github.com/goki/vulkan"

	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

// access is the derived synchronization signature of one pass touching one
// resource kind in one role on one queue.
type access struct {
	flags  vk.AccessFlags
	stage  vk.PipelineStageFlags
	layout vk.ImageLayout
}

// deriveAccess maps (kind, role, queue) to access masks, pipeline stages
// and, for images, the layout the pass needs the resource in. This table
// replaces every hand-written barrier the passes would otherwise carry.
func deriveAccess(kind resource.Kind, role Role, queue device.QueueKind) access {
	if kind.Class() == resource.ClassBuffer {
		return deriveBufferAccess(kind, role, queue)
	}
	return deriveImageAccess(kind, role, queue)
}

func deriveBufferAccess(kind resource.Kind, role Role, queue device.QueueKind) access {
	var a access
	switch {
	case role == RoleRead && kind.Indirect() && queue == device.QueueGraphics:
		a.flags = vk.AccessFlags(vk.AccessIndirectCommandReadBit)
		a.stage = vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit)
	case role == RoleRead && queue == device.QueueCompute:
		a.flags = vk.AccessFlags(vk.AccessShaderReadBit)
		a.stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
	case role == RoleRead:
		a.flags = vk.AccessFlags(vk.AccessShaderReadBit)
		a.stage = vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit | vk.PipelineStageFragmentShaderBit)
	default:
		a.flags = vk.AccessFlags(vk.AccessShaderWriteBit)
		if role == RoleReadWrite {
			a.flags |= vk.AccessFlags(vk.AccessShaderReadBit)
		}
		if queue == device.QueueCompute {
			a.stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
		} else {
			a.stage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
		}
	}
	return a
}

func deriveImageAccess(kind resource.Kind, role Role, queue device.QueueKind) access {
	var a access
	if role == RoleRead {
		a.flags = vk.AccessFlags(vk.AccessShaderReadBit)
		a.layout = kind.SampleLayout()
		if queue == device.QueueCompute {
			a.stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
		} else {
			a.stage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
		}
		return a
	}

	a.layout = kind.AttachmentLayout()
	switch kind.AttachmentLayout() {
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		a.flags = vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		a.stage = vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	case vk.ImageLayoutColorAttachmentOptimal:
		a.flags = vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
		a.stage = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	default:
		// Storage images, the depth pyramid among them, stay in the
		// general layout and are written from compute.
		a.flags = vk.AccessFlags(vk.AccessShaderWriteBit)
		a.stage = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
	}
	if role == RoleReadWrite {
		a.flags |= vk.AccessFlags(vk.AccessShaderReadBit)
	}
	return a
}

// writerState tracks, per resolved key, the most recent writer in compiled
// order together with the layout the key is currently in.
type writerState struct {
	pass   *Pass
	acc    access
	layout vk.ImageLayout
}

// deriveBarriers attaches acquire barriers to consumers and, for
// cross-queue-family hazards, matching release barriers to writers. It
// walks the already-sorted schedule once, so "previous writer" is always
// the writer the schedule actually places before the consumer.
func deriveBarriers(sorted []*Pass, ctx *CompileContext) {
	writers := make(map[ResolvedKey]*writerState)
	// synced dedupes identical hazards: once a (key, writer, consumer
	// signature) pair is covered, later identical consumers on the same
	// queue are already ordered by the first barrier.
	type syncKey struct {
		key   ResolvedKey
		decl  int
		acc   access
		queue device.QueueKind
	}
	synced := make(map[syncKey]bool)

	transfer := ctx.GraphicsFamily != ctx.ComputeFamily

	for _, p := range sorted {
		for _, ref := range p.Template.refs {
			key := resolveRefKey(ref, p.ScopeIndex)
			dst := deriveAccess(ref.Kind, ref.Role, p.Queue())

			w := writers[key]
			if w != nil && w.pass != p {
				sk := syncKey{key: key, decl: w.pass.declIndex, acc: dst, queue: p.Queue()}
				sameLayout := ref.Kind.Class() == resource.ClassBuffer || w.layout == dst.layout
				if !synced[sk] || !sameLayout {
					synced[sk] = true
					spec := BarrierSpec{
						Key:            key,
						SrcStage:       w.acc.stage,
						DstStage:       dst.stage,
						SrcAccess:      w.acc.flags,
						DstAccess:      dst.flags,
						OldLayout:      w.layout,
						NewLayout:      dst.layout,
						SrcQueueFamily: vk.QueueFamilyIgnored,
						DstQueueFamily: vk.QueueFamilyIgnored,
					}
					if transfer && w.pass.Queue() != p.Queue() {
						spec.SrcQueueFamily = familyFor(w.pass.Queue(), ctx)
						spec.DstQueueFamily = familyFor(p.Queue(), ctx)
						w.pass.releaseBarriers = append(w.pass.releaseBarriers, spec)
					}
					p.acquireBarriers = append(p.acquireBarriers, spec)
					if ref.Kind.Class() == resource.ClassImage {
						w.layout = dst.layout
					}
				}
			} else if w == nil && ref.Writes() {
				if spec, ok := frameBoundaryBarrier(ref, key, dst, p.Queue()); ok {
					p.acquireBarriers = append(p.acquireBarriers, spec)
				}
			}

			if ref.Writes() {
				writers[key] = &writerState{pass: p, acc: dst, layout: dst.layout}
			}
		}
	}
}

// frameBoundaryBarrier guards a key's first writer of the frame against
// the previous frame's consumers of the same slot. The schedule repeats
// every frame, so in steady state an image sits in its sample layout when
// its writer comes around again.
func frameBoundaryBarrier(ref Ref, key ResolvedKey, dst access, queue device.QueueKind) (BarrierSpec, bool) {
	spec := BarrierSpec{
		Key:            key,
		DstStage:       dst.stage,
		DstAccess:      dst.flags,
		SrcQueueFamily: vk.QueueFamilyIgnored,
		DstQueueFamily: vk.QueueFamilyIgnored,
	}
	if ref.Kind.Class() == resource.ClassImage {
		if ref.Kind.SampleLayout() == dst.layout {
			// General-layout storage images need no transition and the
			// per-frame execution barrier comes from the buffer hazards
			// around them.
			return BarrierSpec{}, false
		}
		prev := deriveImageAccess(ref.Kind, RoleRead, device.QueueGraphics)
		spec.SrcStage = prev.stage | vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
		spec.SrcAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		spec.OldLayout = ref.Kind.SampleLayout()
		spec.NewLayout = dst.layout
		return spec, true
	}
	prevQueue := device.QueueGraphics
	if queue == device.QueueGraphics {
		prevQueue = device.QueueCompute
	}
	prev := deriveBufferAccess(ref.Kind, RoleRead, prevQueue)
	spec.SrcStage = prev.stage
	spec.SrcAccess = prev.flags
	return spec, true
}

func familyFor(queue device.QueueKind, ctx *CompileContext) uint32 {
	if queue == device.QueueCompute {
		return ctx.ComputeFamily
	}
	return ctx.GraphicsFamily
}

func resolveRefKey(ref Ref, scopeIndex uint32) ResolvedKey {
	key := ResolvedKey{Kind: ref.Kind, Offset: ref.Offset, ScopeIndex: scopeIndex}
	if ref.Addressing == AddrFixed {
		key.ScopeIndex = ref.FixedIndex
	}
	return key
}
