package framegraph

import (
	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

// ExecStats summarizes one frame's walk over the schedule.
type ExecStats struct {
	// Executed counts passes whose bodies ran.
	Executed int
	// Skipped counts passes dropped because a resource failed to resolve.
	Skipped int
	// Barriers counts pipeline barriers emitted, acquire and release.
	Barriers int
}

// Executor walks a compiled graph once per frame. It owns no threads: each
// queue's stream is recorded in schedule order on the calling goroutine,
// and cross-queue ordering is exactly what the compiled barriers express.
type Executor interface {
	// Execute resolves and runs every pass of the graph for one frame.
	//
	// A pass whose resources do not all resolve is skipped for this frame;
	// topology churn makes transient misses expected, so a miss is not an
	// error. Barriers for a skipped pass are also withheld, because the
	// hazard they guard cannot occur without the pass's commands.
	//
	// Parameters:
	//   - graph: the compiled schedule
	//   - frameIndex: the frame ring position being recorded
	//   - userData: opaque value handed to every pass body
	//
	// Returns:
	//   - ExecStats: counts for the frame
	Execute(graph *Graph, frameIndex uint32, userData any) ExecStats
}

type executorImpl struct {
	resolver resource.Resolver
	graphics device.CommandStream
	compute  device.CommandStream
}

var _ Executor = &executorImpl{}

// NewExecutor creates an executor bound to a resolver and the two
// per-frame command streams.
//
// Parameters:
//   - resolver: the symbolic-to-physical resource lookup
//   - graphics: the graphics queue's stream
//   - compute: the compute queue's stream
//
// Returns:
//   - Executor: the new executor
func NewExecutor(resolver resource.Resolver, graphics, compute device.CommandStream) Executor {
	return &executorImpl{resolver: resolver, graphics: graphics, compute: compute}
}

func (e *executorImpl) Execute(graph *Graph, frameIndex uint32, userData any) ExecStats {
	var stats ExecStats
	framesInFlight := graph.FramesInFlight()

	for _, pass := range graph.Passes() {
		stream := e.graphics
		if pass.Queue() == device.QueueCompute {
			stream = e.compute
		}

		resources, ok := e.resolvePass(pass, frameIndex, framesInFlight)
		if !ok {
			stats.Skipped++
			continue
		}

		stats.Barriers += e.emitBarriers(stream, pass.acquireBarriers, frameIndex, framesInFlight)

		if pass.Template.execute != nil {
			pass.Template.execute(&ExecContext{
				Resources:  resources,
				Stream:     stream,
				PassID:     pass.Template.id,
				FrameIndex: frameIndex,
				ScopeIndex: pass.ScopeIndex,
				UserData:   userData,
			})
		}
		stats.Executed++

		stats.Barriers += e.emitBarriers(stream, pass.releaseBarriers, frameIndex, framesInFlight)
	}
	return stats
}

// resolvePass looks up every reference of the pass for this frame. The
// frame slot is the only place the symbolic frame offset turns into a
// concrete ring index.
func (e *executorImpl) resolvePass(pass *Pass, frameIndex, framesInFlight uint32) ([]resource.Handle, bool) {
	refs := pass.Template.Refs()
	if len(refs) == 0 {
		return nil, true
	}
	resources := make([]resource.Handle, len(refs))
	for i, ref := range refs {
		key := resolveRefKey(ref, pass.ScopeIndex)
		slot := frameSlot(frameIndex, ref.Offset, framesInFlight)
		handle, ok := e.resolver.Resolve(ref.Kind, slot, key.ScopeIndex)
		if !ok {
			return nil, false
		}
		resources[i] = handle
	}
	return resources, true
}

// emitBarriers binds the precomputed barrier specs to physical handles and
// records one pipeline barrier per spec. A spec whose key fails to resolve
// is dropped, matching the pass-skip rule.
func (e *executorImpl) emitBarriers(stream device.CommandStream, specs []BarrierSpec, frameIndex, framesInFlight uint32) int {
	emitted := 0
	for _, spec := range specs {
		slot := frameSlot(frameIndex, spec.Key.Offset, framesInFlight)
		handle, ok := e.resolver.Resolve(spec.Key.Kind, slot, spec.Key.ScopeIndex)
		if !ok {
			continue
		}
		if spec.Key.Kind.Class() == resource.ClassBuffer {
			stream.PipelineBarrier(spec.SrcStage, spec.DstStage, []device.BufferBarrier{{
				Buffer:         handle.Buffer,
				SrcAccess:      spec.SrcAccess,
				DstAccess:      spec.DstAccess,
				SrcQueueFamily: spec.SrcQueueFamily,
				DstQueueFamily: spec.DstQueueFamily,
				Size:           handle.Size,
			}}, nil)
		} else {
			stream.PipelineBarrier(spec.SrcStage, spec.DstStage, nil, []device.ImageBarrier{{
				Image:          handle.Image,
				SrcAccess:      spec.SrcAccess,
				DstAccess:      spec.DstAccess,
				OldLayout:      spec.OldLayout,
				NewLayout:      spec.NewLayout,
				SrcQueueFamily: spec.SrcQueueFamily,
				DstQueueFamily: spec.DstQueueFamily,
				Aspect:         spec.Key.Kind.Aspect(),
			}})
		}
		emitted++
	}
	return emitted
}

// frameSlot turns a symbolic offset into a concrete frame ring index.
func frameSlot(frameIndex uint32, offset FrameOffset, framesInFlight uint32) uint32 {
	if offset == NextFrame {
		return (frameIndex + 1) % framesInFlight
	}
	return frameIndex % framesInFlight
}
