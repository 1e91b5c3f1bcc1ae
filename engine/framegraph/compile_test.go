package framegraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/light"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

func testContext(cameras, lights int) *CompileContext {
	ctx := &CompileContext{FramesInFlight: 2}
	for i := 0; i < cameras; i++ {
		ctx.Cameras = append(ctx.Cameras, CameraInfo{})
	}
	for i := 0; i < lights; i++ {
		ctx.Lights = append(ctx.Lights, LightInfo{Type: light.LightTypeSpot})
	}
	return ctx
}

func passIDs(g *Graph) []string {
	ids := make([]string, len(g.Passes()))
	for i, p := range g.Passes() {
		ids[i] = p.ID()
	}
	return ids
}

func TestCompileDeterminism(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("cull",
		WithScope(ScopePerCamera),
		WithQueue(device.QueueCompute),
		WithRefs(
			Read(resource.KindNodeData).Fixed(0),
			Write(resource.KindDrawCommands),
		),
	))
	reg.Register(NewTemplate("draw",
		WithScope(ScopePerCamera),
		WithRefs(
			Read(resource.KindDrawCommands),
			Write(resource.KindColorTarget),
		),
	))

	ctx := testContext(3, 0)
	first, err := Compile(reg, ctx)
	require.NoError(t, err)
	second, err := Compile(reg, ctx)
	require.NoError(t, err)

	want := []string{"cull", "cull", "cull", "draw", "draw", "draw"}
	assert.Equal(t, want, passIDs(first))
	assert.Equal(t, passIDs(first), passIDs(second), "identical inputs must give identical schedules")
	for i := range first.Passes() {
		assert.Equal(t, first.Passes()[i].ScopeIndex, second.Passes()[i].ScopeIndex)
	}
}

func TestCompileWriterPrecedesReader(t *testing.T) {
	reg := NewRegistry()
	// Reader registered before its writer: the conflict order must still
	// place the writer first.
	reg.Register(NewTemplate("consume",
		WithRefs(Read(resource.KindDrawCounts)),
	))
	reg.Register(NewTemplate("produce",
		WithQueue(device.QueueCompute),
		WithRefs(Write(resource.KindDrawCounts)),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"produce", "consume"}, passIDs(g))

	// The consumer carries a barrier covering the shared key.
	consumer := g.Passes()[1]
	require.Len(t, consumer.AcquireBarriers(), 1)
	assert.Equal(t, resource.KindDrawCounts, consumer.AcquireBarriers()[0].Key.Kind)
}

func TestCompileNoFalseConflicts(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("a", WithRefs(Write(resource.KindDepthBuffer))))
	reg.Register(NewTemplate("b", WithRefs(Write(resource.KindColorTarget))))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)
	require.Len(t, g.Passes(), 2)
	// Barriers may guard a pass's own writes across frames, but nothing
	// may synchronize one pass against the other's disjoint key.
	for _, p := range g.Passes() {
		for _, b := range p.AcquireBarriers() {
			assert.Equal(t, p.Writes()[0].Kind, b.Key.Kind)
		}
	}
	// With no conflict, expansion order is kept.
	assert.Equal(t, []string{"a", "b"}, passIDs(g))
}

func TestCompileScopeInstanceIsolation(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("depth",
		WithScope(ScopePerCamera),
		WithRefs(Write(resource.KindDepthBuffer)),
	))
	reg.Register(NewTemplate("sample",
		WithScope(ScopePerCamera),
		WithRefs(Read(resource.KindDepthBuffer)),
	))

	g, err := Compile(reg, testContext(2, 0))
	require.NoError(t, err)

	// Each camera's reader conflicts only with its own camera's writer.
	for _, p := range g.Passes() {
		for _, b := range p.AcquireBarriers() {
			assert.Equal(t, p.ScopeIndex, b.Key.ScopeIndex)
		}
	}
}

func TestCompileNextOffsetDoesNotConflict(t *testing.T) {
	reg := NewRegistry()
	// The one-frame-ahead contract: this frame's consumer of a slot and
	// the compute pass producing the next frame's slot share a kind but
	// not a key, so they must stay unordered relative to each other.
	reg.Register(NewTemplate("render",
		WithRefs(Read(resource.KindDrawCommands)),
	))
	reg.Register(NewTemplate("cull_ahead",
		WithQueue(device.QueueCompute),
		WithRefs(Write(resource.KindDrawCommands).Next()),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)
	render := g.Passes()[0]
	assert.Empty(t, render.AcquireBarriers(), "the consumer has no writer to wait for")
	for _, b := range g.Passes()[1].AcquireBarriers() {
		assert.Equal(t, NextFrame, b.Key.Offset, "the producer only guards its own next-frame slot")
	}
	assert.Equal(t, []string{"render", "cull_ahead"}, passIDs(g), "no edge means registration order survives")
}

func TestCompileTopologyScaling(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("per_camera",
		WithScope(ScopePerCamera),
		WithRefs(Write(resource.KindDepthBuffer)),
	))
	reg.Register(NewTemplate("per_light",
		WithScope(ScopePerLight),
		WithRefs(Write(resource.KindShadowMap2D)),
	))
	reg.Register(NewTemplate("global", WithRefs(Write(resource.KindNodeData))))

	for _, tc := range []struct {
		cameras, lights int
	}{
		{1, 0}, {3, 2}, {2, 16},
	} {
		g, err := Compile(reg, testContext(tc.cameras, tc.lights))
		require.NoError(t, err)
		counts := map[string]int{}
		for _, p := range g.Passes() {
			counts[p.ID()]++
		}
		assert.Equal(t, tc.cameras, counts["per_camera"])
		assert.Equal(t, tc.lights, counts["per_light"])
		assert.Equal(t, 1, counts["global"])
	}
}

func TestCompileConditionFiltersInstances(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("hiz_only",
		WithScope(ScopePerCamera),
		WithCondition(func(ctx *CompileContext, i uint32) bool {
			return ctx.Cameras[i].OcclusionCulling
		}),
		WithRefs(Write(resource.KindDepthPyramid)),
	))

	ctx := testContext(3, 0)
	ctx.Cameras[1].OcclusionCulling = true

	g, err := Compile(reg, ctx)
	require.NoError(t, err)
	require.Len(t, g.Passes(), 1)
	assert.Equal(t, uint32(1), g.Passes()[0].ScopeIndex)
}

func TestCompileCycleIsFatal(t *testing.T) {
	reg := NewRegistry()
	// a reads X writes Y, b reads Y writes X: unschedulable.
	reg.Register(NewTemplate("a",
		WithRefs(Read(resource.KindDrawCommands), Write(resource.KindDrawCounts)),
	))
	reg.Register(NewTemplate("b",
		WithRefs(Read(resource.KindDrawCounts), Write(resource.KindDrawCommands)),
	))

	g, err := Compile(reg, testContext(0, 0))
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, ErrCyclicGraph))
}

func TestCompileWriteWriteCycleWithReadBack(t *testing.T) {
	reg := NewRegistry()
	// a and b contend on the same written key, which orders a before b by
	// registration, while b's other write feeds a read of a. Both edges
	// must survive so the contradiction surfaces as a cycle instead of a
	// schedule that runs the reader before its writer.
	reg.Register(NewTemplate("a",
		WithRefs(Write(resource.KindNodeData), Read(resource.KindDrawCounts)),
	))
	reg.Register(NewTemplate("b",
		WithRefs(Write(resource.KindNodeData), Write(resource.KindDrawCounts)),
	))

	g, err := Compile(reg, testContext(0, 0))
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, ErrCyclicGraph))
}

func TestCompileWriteWriteOrdersByRegistration(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("first_writer", WithRefs(Write(resource.KindNodeData))))
	reg.Register(NewTemplate("second_writer", WithRefs(Write(resource.KindNodeData))))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"first_writer", "second_writer"}, passIDs(g))
	// The later writer synchronizes against the earlier one.
	assert.NotEmpty(t, g.Passes()[1].AcquireBarriers())
}

func TestCompileCrossQueueTransfer(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("produce",
		WithQueue(device.QueueCompute),
		WithRefs(Write(resource.KindDrawCommands)),
	))
	reg.Register(NewTemplate("consume",
		WithRefs(Read(resource.KindDrawCommands)),
	))

	ctx := testContext(0, 0)
	ctx.GraphicsFamily = 0
	ctx.ComputeFamily = 1

	g, err := Compile(reg, ctx)
	require.NoError(t, err)

	consumer := g.Passes()[1]
	require.Len(t, consumer.AcquireBarriers(), 1)
	acquire := consumer.AcquireBarriers()[0]
	assert.Equal(t, uint32(1), acquire.SrcQueueFamily)
	assert.Equal(t, uint32(0), acquire.DstQueueFamily)

	// The writer releases ownership with the matching spec.
	producer := g.Passes()[0]
	require.Len(t, producer.releaseBarriers, 1)
	assert.Equal(t, acquire.Key, producer.releaseBarriers[0].Key)
}

func TestCompileSameFamilyNoTransfer(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("produce",
		WithQueue(device.QueueCompute),
		WithRefs(Write(resource.KindDrawCommands)),
	))
	reg.Register(NewTemplate("consume",
		WithRefs(Read(resource.KindDrawCommands)),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)

	consumer := g.Passes()[1]
	require.Len(t, consumer.AcquireBarriers(), 1)
	assert.Empty(t, g.Passes()[0].releaseBarriers, "shared family needs no ownership release")
}

func TestCompileImageLayoutTransition(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("depth",
		WithScope(ScopePerCamera),
		WithRefs(Write(resource.KindDepthBuffer)),
	))
	reg.Register(NewTemplate("pyramid",
		WithScope(ScopePerCamera),
		WithQueue(device.QueueCompute),
		WithRefs(Read(resource.KindDepthBuffer)),
	))

	g, err := Compile(reg, testContext(1, 0))
	require.NoError(t, err)

	reader := g.Passes()[1]
	require.Len(t, reader.AcquireBarriers(), 1)
	b := reader.AcquireBarriers()[0]
	assert.Equal(t, resource.KindDepthBuffer.AttachmentLayout(), b.OldLayout)
	assert.Equal(t, resource.KindDepthBuffer.SampleLayout(), b.NewLayout)
}

func TestCompilePyramidStaysGeneral(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTemplate("build",
		WithScope(ScopePerCamera),
		WithQueue(device.QueueCompute),
		WithRefs(ReadWrite(resource.KindDepthPyramid)),
	))
	reg.Register(NewTemplate("sample",
		WithScope(ScopePerCamera),
		WithQueue(device.QueueCompute),
		WithRefs(Read(resource.KindDepthPyramid)),
	))

	g, err := Compile(reg, testContext(1, 0))
	require.NoError(t, err)

	reader := g.Passes()[1]
	require.Len(t, reader.AcquireBarriers(), 1)
	b := reader.AcquireBarriers()[0]
	assert.Equal(t, b.OldLayout, b.NewLayout, "the pyramid never leaves the general layout")
}

func TestRegistryDuplicateIgnored(t *testing.T) {
	reg := NewRegistry()
	first := NewTemplate("x", WithQueue(device.QueueCompute))
	reg.Register(first)
	reg.Register(NewTemplate("x"))
	assert.Len(t, reg.Templates(), 1)
	assert.Same(t, first, reg.Lookup("x"))
}
