package framegraph

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

func vkSize(n uint64) vk.DeviceSize {
	return vk.DeviceSize(n)
}

func testExecutorSetup() (resource.Table, *device.RecordingCommandStream, *device.RecordingCommandStream, Executor) {
	table := resource.NewTable()
	graphics := device.NewRecordingCommandStream(device.QueueGraphics)
	compute := device.NewRecordingCommandStream(device.QueueCompute)
	return table, graphics, compute, NewExecutor(table, graphics, compute)
}

func TestExecuteRunsPassesOnTheirQueues(t *testing.T) {
	table, graphics, compute, exec := testExecutorSetup()
	table.Register(resource.KindDrawCommands, 0, 0, resource.Handle{Size: 64})

	var ranOn []device.QueueKind
	reg := NewRegistry()
	reg.Register(NewTemplate("produce",
		WithQueue(device.QueueCompute),
		WithRefs(Write(resource.KindDrawCommands)),
		WithExecute(func(ctx *ExecContext) {
			ranOn = append(ranOn, ctx.Stream.Queue())
			ctx.Stream.Dispatch(1, 1, 1)
		}),
	))
	reg.Register(NewTemplate("consume",
		WithRefs(Read(resource.KindDrawCommands)),
		WithExecute(func(ctx *ExecContext) {
			ranOn = append(ranOn, ctx.Stream.Queue())
		}),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)

	stats := exec.Execute(g, 0, nil)
	assert.Equal(t, 2, stats.Executed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, []device.QueueKind{device.QueueCompute, device.QueueGraphics}, ranOn)
	assert.Equal(t, 1, compute.CountOp(device.OpDispatch))
	// The consumer's acquire barrier lands on the graphics stream.
	assert.Equal(t, 1, graphics.CountOp(device.OpPipelineBarrier))
}

func TestExecuteSkipsOnResolverMiss(t *testing.T) {
	_, graphics, _, exec := testExecutorSetup()

	ran := false
	reg := NewRegistry()
	reg.Register(NewTemplate("orphan",
		WithRefs(Read(resource.KindDepthBuffer)),
		WithExecute(func(ctx *ExecContext) { ran = true }),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)

	stats := exec.Execute(g, 0, nil)
	assert.False(t, ran, "a pass with unresolved resources must not run")
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Executed)
	assert.Empty(t, graphics.Commands(), "a skipped pass emits nothing, barriers included")
}

func TestExecuteMissIsTransient(t *testing.T) {
	table, _, _, exec := testExecutorSetup()

	ran := 0
	reg := NewRegistry()
	reg.Register(NewTemplate("p",
		WithRefs(Read(resource.KindLightData)),
		WithExecute(func(ctx *ExecContext) { ran++ }),
	))
	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)

	stats := exec.Execute(g, 0, nil)
	assert.Equal(t, 1, stats.Skipped)

	// The backing resource appears next frame; no recompile needed.
	table.Register(resource.KindLightData, 1, 0, resource.Handle{Size: 16})
	stats = exec.Execute(g, 1, nil)
	assert.Equal(t, 1, stats.Executed)
	assert.Equal(t, 1, ran)
}

func TestExecuteNextOffsetTargetsFollowingSlot(t *testing.T) {
	table, _, _, exec := testExecutorSetup()

	// Distinct handles per frame slot make the resolved slot observable.
	table.Register(resource.KindDrawCommands, 0, 0, resource.Handle{Size: 100})
	table.Register(resource.KindDrawCommands, 1, 0, resource.Handle{Size: 200})

	var seen []uint64
	reg := NewRegistry()
	reg.Register(NewTemplate("cull_ahead",
		WithQueue(device.QueueCompute),
		WithRefs(Write(resource.KindDrawCommands).Next()),
		WithExecute(func(ctx *ExecContext) {
			seen = append(seen, uint64(ctx.Resource(0).Size))
		}),
	))
	reg.Register(NewTemplate("render",
		WithRefs(Read(resource.KindDrawCommands)),
		WithExecute(func(ctx *ExecContext) {
			seen = append(seen, uint64(ctx.Resource(0).Size))
		}),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)

	// Frame 0: the cull writes slot 1, render reads slot 0.
	exec.Execute(g, 0, nil)
	// Frame 1: the cull writes slot 0, render reads slot 1.
	exec.Execute(g, 1, nil)

	assert.Equal(t, []uint64{200, 100, 100, 200}, seen)
}

func TestExecuteResourcesInDeclarationOrder(t *testing.T) {
	table, _, _, exec := testExecutorSetup()
	table.Register(resource.KindNodeData, 0, 0, resource.Handle{Size: 1})
	table.Register(resource.KindCameraUniform, 0, 0, resource.Handle{Size: 2})
	table.Register(resource.KindDrawCounts, 0, 0, resource.Handle{Size: 3})

	reg := NewRegistry()
	reg.Register(NewTemplate("p",
		WithQueue(device.QueueCompute),
		WithRefs(
			Read(resource.KindNodeData),
			Read(resource.KindCameraUniform),
			Write(resource.KindDrawCounts),
		),
		WithExecute(func(ctx *ExecContext) {
			assert.Equal(t, vkSize(1), ctx.Resource(0).Size)
			assert.Equal(t, vkSize(2), ctx.Resource(1).Size)
			assert.Equal(t, vkSize(3), ctx.Resource(2).Size)
		}),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)
	stats := exec.Execute(g, 0, nil)
	assert.Equal(t, 1, stats.Executed)
}

func TestExecuteUserDataReachesBody(t *testing.T) {
	table, _, _, exec := testExecutorSetup()
	table.Register(resource.KindNodeData, 0, 0, resource.Handle{Size: 1})

	reg := NewRegistry()
	var got any
	reg.Register(NewTemplate("p",
		WithRefs(Read(resource.KindNodeData)),
		WithExecute(func(ctx *ExecContext) { got = ctx.UserData }),
	))
	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)

	exec.Execute(g, 0, "payload")
	assert.Equal(t, "payload", got)
}

func TestExecuteEmitsImageBarrierForDepthHandoff(t *testing.T) {
	table, graphics, compute, exec := testExecutorSetup()
	table.Register(resource.KindDepthBuffer, 0, 0, resource.Handle{Width: 64, Height: 64})

	reg := NewRegistry()
	reg.Register(NewTemplate("depth_write",
		WithScope(ScopePerCamera),
		WithRefs(Write(resource.KindDepthBuffer)),
	))
	reg.Register(NewTemplate("depth_sample",
		WithScope(ScopePerCamera),
		WithQueue(device.QueueCompute),
		WithRefs(Read(resource.KindDepthBuffer)),
	))

	g, err := Compile(reg, testContext(1, 0))
	require.NoError(t, err)
	exec.Execute(g, 0, nil)

	found := false
	for _, stream := range []*device.RecordingCommandStream{graphics, compute} {
		for _, cmd := range stream.Commands() {
			if cmd.Op != device.OpPipelineBarrier || len(cmd.Images) == 0 {
				continue
			}
			found = true
			require.Len(t, cmd.Images, 1)
			assert.Empty(t, cmd.Buffers, "image kinds emit image barriers only")
			assert.NotEqual(t, cmd.Images[0].OldLayout, cmd.Images[0].NewLayout,
				"attachment to sampled handoff transitions the layout")
		}
	}
	assert.True(t, found, "depth write then sample must emit an image barrier")
}

func TestExecuteBarrierCarriesHandles(t *testing.T) {
	table, graphics, compute, exec := testExecutorSetup()
	table.Register(resource.KindDrawCounts, 0, 0, resource.Handle{Size: 24})

	reg := NewRegistry()
	reg.Register(NewTemplate("produce",
		WithQueue(device.QueueCompute),
		WithRefs(Write(resource.KindDrawCounts)),
	))
	reg.Register(NewTemplate("consume",
		WithRefs(Read(resource.KindDrawCounts)),
	))

	g, err := Compile(reg, testContext(0, 0))
	require.NoError(t, err)
	exec.Execute(g, 0, nil)

	// Producer's frame-boundary guard lands on compute, the consumer's
	// acquire on graphics; both carry the resolved buffer size.
	require.Equal(t, 1, compute.CountOp(device.OpPipelineBarrier))
	require.Equal(t, 1, graphics.CountOp(device.OpPipelineBarrier))
	for _, stream := range []*device.RecordingCommandStream{graphics, compute} {
		for _, cmd := range stream.Commands() {
			if cmd.Op != device.OpPipelineBarrier {
				continue
			}
			require.Len(t, cmd.Buffers, 1)
			assert.Equal(t, vkSize(24), cmd.Buffers[0].Size)
		}
	}
}
