package cull

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucancode/mjolnir-sub007/common"
	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/framegraph"
	"github.com/hucancode/mjolnir-sub007/engine/light"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

func testCameraState(occlusion bool) CameraState {
	var view, proj, viewProj [16]float32
	common.LookAt(view[:], 0, 0, 10, 0, 0, 0, 0, 1, 0)
	common.Perspective(proj[:], 1.5708, 1, 0.1, 100)
	common.Mul4(viewProj[:], proj[:], view[:])
	return CameraState{
		View:             view,
		Proj:             proj,
		ViewProj:         viewProj,
		Frustum:          common.ExtractFrustumFromMatrix(viewProj[:]),
		Width:            64,
		Height:           64,
		NearPlane:        0.1,
		FarPlane:         100,
		OcclusionCulling: occlusion,
	}
}

// registerCullResources registers every buffer and image the cull passes
// resolve, for both frame slots of one camera and the shadow slots.
func registerCullResources(table resource.Table, cameras, shadowSlots uint32) {
	for slot := uint32(0); slot < 2; slot++ {
		table.Register(resource.KindNodeData, slot, 0, resource.Handle{Size: 1 << 20})
		table.Register(resource.KindLightData, slot, 0, resource.Handle{Size: 1 << 16})
		for cam := uint32(0); cam < cameras; cam++ {
			table.Register(resource.KindDepthBuffer, slot, cam, resource.Handle{Width: 64, Height: 64})
			table.Register(resource.KindDepthPyramid, slot, cam, resource.Handle{Width: 64, Height: 64, MipLevels: 7})
			table.Register(resource.KindDrawCommands, slot, cam, resource.Handle{Size: 1 << 20})
			table.Register(resource.KindDrawCounts, slot, cam, resource.Handle{Size: 4 * vk.DeviceSize(CategoryCount)})
			table.Register(resource.KindCameraUniform, slot, cam, resource.Handle{Size: 160})
			table.Register(resource.KindColorTarget, slot, cam, resource.Handle{Width: 64, Height: 64})
		}
		for s := uint32(0); s < shadowSlots; s++ {
			table.Register(resource.KindShadowDrawCommands, slot, s, resource.Handle{Size: 1 << 20})
			table.Register(resource.KindShadowDrawCounts, slot, s, resource.Handle{Size: 4 * vk.DeviceSize(CategoryCount)})
			table.Register(resource.KindShadowMap2D, slot, s, resource.Handle{Width: 2048, Height: 2048})
			table.Register(resource.KindShadowMapCube, slot, s, resource.Handle{Width: 2048, Height: 2048})
		}
	}
}

func TestScenarioTwoCamerasThreeLights(t *testing.T) {
	engine := NewEngine()
	reg := framegraph.NewRegistry()
	engine.RegisterTemplates(reg)

	ctx := &framegraph.CompileContext{
		FramesInFlight: 2,
		Cameras: []framegraph.CameraInfo{
			{OcclusionCulling: true},
			{OcclusionCulling: false},
		},
		Lights: []framegraph.LightInfo{
			{Type: light.LightTypeSpot},
			{Type: light.LightTypeSpot},
			{Type: light.LightTypePoint},
		},
	}

	g, err := framegraph.Compile(reg, ctx)
	require.NoError(t, err)

	counts := map[string]int{}
	shadowTargets := map[string][]resource.Kind{}
	for _, p := range g.Passes() {
		counts[p.ID()]++
		if p.ID() == PassShadowRender2D || p.ID() == PassShadowRenderCube {
			for _, w := range p.Writes() {
				shadowTargets[p.ID()] = append(shadowTargets[p.ID()], w.Kind)
			}
		}
	}

	// Only the culling-enabled camera gets the pyramid and hi-z cull.
	assert.Equal(t, 1, counts[PassDepthPyramid])
	assert.Equal(t, 1, counts[PassVisibilityHiZ])
	assert.Equal(t, 1, counts[PassVisibility], "the second camera culls frustum-only")
	assert.Equal(t, 2, counts[PassDepthPrepass])

	// All three casting lights cull and render.
	assert.Equal(t, 3, counts[PassShadowCull])
	assert.Equal(t, 2, counts[PassShadowRender2D])
	assert.Equal(t, 1, counts[PassShadowRenderCube])
	assert.Equal(t, []resource.Kind{resource.KindShadowMap2D, resource.KindShadowMap2D}, shadowTargets[PassShadowRender2D])
	assert.Equal(t, []resource.Kind{resource.KindShadowMapCube}, shadowTargets[PassShadowRenderCube])
}

func TestSeventeenthLightDoesNotGrowGraph(t *testing.T) {
	engine := NewEngine()
	reg := framegraph.NewRegistry()
	engine.RegisterTemplates(reg)

	lightReg := light.NewRegistry()
	scheduler := light.NewShadowScheduler()
	for i := 0; i < light.MaxShadowSlots+1; i++ {
		lightReg.Add(light.NewLight(light.LightTypeSpot, light.WithCastsShadows(true)))
	}
	slotCount, _ := scheduler.Assign(lightReg)
	require.Equal(t, light.MaxShadowSlots, slotCount)

	ctx := &framegraph.CompileContext{FramesInFlight: 2}
	slots := scheduler.Slots()
	for i := 0; i < slotCount; i++ {
		ctx.Lights = append(ctx.Lights, framegraph.LightInfo{Type: slots[i].Kind})
	}

	g, err := framegraph.Compile(reg, ctx)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, p := range g.Passes() {
		counts[p.ID()]++
	}
	assert.Equal(t, light.MaxShadowSlots, counts[PassShadowCull], "the 17th light adds no pass instance")
}

func TestZeroNodesSkipsDispatch(t *testing.T) {
	engine := NewEngine()
	reg := framegraph.NewRegistry()
	engine.RegisterTemplates(reg)

	table := resource.NewTable()
	registerCullResources(table, 1, 0)

	graphics := device.NewRecordingCommandStream(device.QueueGraphics)
	compute := device.NewRecordingCommandStream(device.QueueCompute)
	exec := framegraph.NewExecutor(table, graphics, compute)

	ctx := &framegraph.CompileContext{
		FramesInFlight: 2,
		Cameras:        []framegraph.CameraInfo{{OcclusionCulling: false}},
	}
	g, err := framegraph.Compile(reg, ctx)
	require.NoError(t, err)

	engine.BeginFrame(0, []CameraState{testCameraState(false)}, nil)
	exec.Execute(g, 0, nil)

	assert.Equal(t, 0, compute.CountOp(device.OpDispatch), "zero nodes issue zero compute invocations")
	assert.Equal(t, 2, compute.CountOp(device.OpFillBuffer), "bucket counts and command slots are still zeroed")
}

func TestShadowRenderBindsPerPassDescriptors(t *testing.T) {
	var bound []string
	engine := NewEngine(WithDescriptorProvider(
		func(passID string, scopeIndex, frameSlot, mip uint32) []vk.DescriptorSet {
			bound = append(bound, passID)
			return nil
		}))
	reg := framegraph.NewRegistry()
	engine.RegisterTemplates(reg)

	table := resource.NewTable()
	registerCullResources(table, 0, 2)

	graphics := device.NewRecordingCommandStream(device.QueueGraphics)
	compute := device.NewRecordingCommandStream(device.QueueCompute)
	exec := framegraph.NewExecutor(table, graphics, compute)

	ctx := &framegraph.CompileContext{
		FramesInFlight: 2,
		Lights: []framegraph.LightInfo{
			{Type: light.LightTypeSpot},
			{Type: light.LightTypePoint},
		},
	}
	g, err := framegraph.Compile(reg, ctx)
	require.NoError(t, err)
	exec.Execute(g, 0, nil)

	// The shared render body must identify itself by the executing pass,
	// so the cube slot looks up cube-map descriptors, not the 2D set.
	assert.Contains(t, bound, PassShadowRender2D)
	assert.Contains(t, bound, PassShadowRenderCube)
}

func TestCullClearsCommandSlots(t *testing.T) {
	engine := NewEngine()
	reg := framegraph.NewRegistry()
	engine.RegisterTemplates(reg)

	table := resource.NewTable()
	registerCullResources(table, 1, 0)

	graphics := device.NewRecordingCommandStream(device.QueueGraphics)
	compute := device.NewRecordingCommandStream(device.QueueCompute)
	exec := framegraph.NewExecutor(table, graphics, compute)

	ctx := &framegraph.CompileContext{
		FramesInFlight: 2,
		Cameras:        []framegraph.CameraInfo{{OcclusionCulling: false}},
	}
	g, err := framegraph.Compile(reg, ctx)
	require.NoError(t, err)

	engine.SetNodes([]Node{{Center: [3]float32{0, 0, 0}, Radius: 1}})
	engine.BeginFrame(0, []CameraState{testCameraState(false)}, nil)
	exec.Execute(g, 0, nil)

	// The draw-command buffer is cleared over its full extent so slots
	// past the bucket counter carry instanceCount zero, and the clear is
	// covered by a transfer-to-compute barrier naming both buffers.
	var fills []device.Command
	for _, cmd := range compute.Commands() {
		if cmd.Op == device.OpFillBuffer {
			fills = append(fills, cmd)
		}
	}
	require.Len(t, fills, 2)
	assert.Equal(t, 4*vk.DeviceSize(CategoryCount), fills[0].FillSize)
	assert.Equal(t, vk.DeviceSize(1<<20), fills[1].FillSize)

	barriered := false
	for _, cmd := range compute.Commands() {
		if cmd.Op == device.OpPipelineBarrier && len(cmd.Buffers) == 2 {
			barriered = true
		}
	}
	assert.True(t, barriered, "both clears are fenced before the cull dispatch")
}

func TestCullDispatchShape(t *testing.T) {
	engine := NewEngine()
	reg := framegraph.NewRegistry()
	engine.RegisterTemplates(reg)

	table := resource.NewTable()
	registerCullResources(table, 1, 0)

	graphics := device.NewRecordingCommandStream(device.QueueGraphics)
	compute := device.NewRecordingCommandStream(device.QueueCompute)
	exec := framegraph.NewExecutor(table, graphics, compute)

	ctx := &framegraph.CompileContext{
		FramesInFlight: 2,
		Cameras:        []framegraph.CameraInfo{{OcclusionCulling: false}},
	}
	g, err := framegraph.Compile(reg, ctx)
	require.NoError(t, err)

	nodes := make([]Node, 130)
	for i := range nodes {
		nodes[i] = Node{Center: [3]float32{0, 0, 0}, Radius: 1}
	}
	engine.SetNodes(nodes)
	engine.BeginFrame(0, []CameraState{testCameraState(false)}, nil)
	exec.Execute(g, 0, nil)

	var dispatches []device.Command
	for _, cmd := range compute.Commands() {
		if cmd.Op == device.OpDispatch {
			dispatches = append(dispatches, cmd)
		}
	}
	require.Len(t, dispatches, 1)
	// ceil(130/64) = 3 groups.
	assert.Equal(t, uint32(3), dispatches[0].GroupsX)
	assert.Equal(t, uint32(1), dispatches[0].GroupsY)
}

func TestPyramidDispatchPerMip(t *testing.T) {
	engine := NewEngine()
	reg := framegraph.NewRegistry()
	engine.RegisterTemplates(reg)

	table := resource.NewTable()
	registerCullResources(table, 1, 0)

	graphics := device.NewRecordingCommandStream(device.QueueGraphics)
	compute := device.NewRecordingCommandStream(device.QueueCompute)
	exec := framegraph.NewExecutor(table, graphics, compute)

	ctx := &framegraph.CompileContext{
		FramesInFlight: 2,
		Cameras:        []framegraph.CameraInfo{{OcclusionCulling: true}},
	}
	g, err := framegraph.Compile(reg, ctx)
	require.NoError(t, err)

	engine.SetNodes([]Node{{Center: [3]float32{0, 0, 0}, Radius: 1}})
	engine.BeginFrame(0, []CameraState{testCameraState(true)}, nil)
	exec.Execute(g, 0, nil)

	// 64x64 pyramid has 7 mips: 7 reduction dispatches plus the cull
	// dispatch itself.
	assert.Equal(t, 8, compute.CountOp(device.OpDispatch))
	// 6 intra-pass mip barriers, between consecutive mip dispatches.
	mipBarriers := 0
	for _, cmd := range compute.Commands() {
		if cmd.Op == device.OpPipelineBarrier && len(cmd.Images) == 1 && cmd.Images[0].MipCount == 1 {
			mipBarriers++
		}
	}
	assert.Equal(t, 6, mipBarriers)
}

func TestPipelinedCullingSettlesAfterWarmup(t *testing.T) {
	engine := NewEngine(WithCPUReference(), WithCullWorkers(2))
	nodes := []Node{
		{Center: [3]float32{0, 0, 0}, Radius: 1, Category: CategoryOpaque, IndexCount: 6},
		{Center: [3]float32{0, 0, 300}, Radius: 1, Category: CategoryOpaque, IndexCount: 6},
	}
	engine.SetNodes(nodes)

	cam := testCameraState(false)

	// Frame 0's results slot was never written: empty draw lists.
	assert.Equal(t, uint32(0), engine.Results(0, 0).Counts[CategoryOpaque])

	engine.BeginFrame(0, []CameraState{cam}, nil)
	engine.BeginFrame(1, []CameraState{cam}, nil)

	// From frame 1 on, a static scene and camera yield exactly the
	// frustum survivors, every frame.
	for frame := uint32(1); frame < 4; frame++ {
		res := engine.Results(frame, 0)
		assert.Equal(t, uint32(1), res.Counts[CategoryOpaque], "frame %d", frame)
		engine.BeginFrame(frame+1, []CameraState{cam}, nil)
	}
}

func TestShadowCullingIgnoresCameraOcclusion(t *testing.T) {
	engine := NewEngine(WithCPUReference(), WithCullWorkers(1))

	// A node the main camera cannot see must still reach the shadow
	// caster list when the light sees it.
	behind := Node{Center: [3]float32{0, 0, 50}, Radius: 1, Category: CategoryOpaque, IndexCount: 6}
	engine.SetNodes([]Node{behind})

	ls := LightState{
		Sphere:       true,
		SphereCenter: [3]float32{0, 0, 48},
		SphereRadius: 10,
	}
	engine.BeginFrame(0, nil, []LightState{ls})

	res := engine.ShadowResults(1, 0)
	assert.Equal(t, uint32(1), res.Counts[CategoryOpaque])
}

func TestShadowSphereCullRejectsOutOfRange(t *testing.T) {
	engine := NewEngine(WithCPUReference(), WithCullWorkers(1))
	engine.SetNodes([]Node{{Center: [3]float32{100, 0, 0}, Radius: 1}})

	ls := LightState{Sphere: true, SphereRadius: 10}
	engine.BeginFrame(0, nil, []LightState{ls})
	assert.Equal(t, uint32(0), engine.ShadowResults(1, 0).Counts[CategoryOpaque])
}
