package cull

import (
	"encoding/binary"

	vk "github.com/goki/vulkan"

	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/framegraph"
	"github.com/hucancode/mjolnir-sub007/engine/light"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
)

// countsBufferSize is the byte size of a per-bucket draw count buffer,
// one uint32 counter per category.
const countsBufferSize = 4 * vk.DeviceSize(CategoryCount)

// RegisterTemplates registers the visibility pass templates. Registration
// order is the scheduling tie-break, so the camera pipeline registers
// before the shadow passes and writers before their consumers.
func (e *engineImpl) RegisterTemplates(reg framegraph.Registry) {
	reg.Register(framegraph.NewTemplate(PassDepthPrepass,
		framegraph.WithScope(framegraph.ScopePerCamera),
		framegraph.WithRefs(
			framegraph.Read(resource.KindDrawCommands),
			framegraph.Read(resource.KindDrawCounts),
			framegraph.Read(resource.KindCameraUniform),
			framegraph.Write(resource.KindDepthBuffer),
		),
		framegraph.WithExecute(e.recordDepthPrepass),
	))

	reg.Register(framegraph.NewTemplate(PassDepthPyramid,
		framegraph.WithScope(framegraph.ScopePerCamera),
		framegraph.WithQueue(device.QueueCompute),
		framegraph.WithCondition(cameraHasOcclusion),
		framegraph.WithRefs(
			framegraph.Read(resource.KindDepthBuffer),
			framegraph.ReadWrite(resource.KindDepthPyramid),
		),
		framegraph.WithExecute(e.recordPyramid),
	))

	reg.Register(framegraph.NewTemplate(PassVisibilityHiZ,
		framegraph.WithScope(framegraph.ScopePerCamera),
		framegraph.WithQueue(device.QueueCompute),
		framegraph.WithCondition(cameraHasOcclusion),
		framegraph.WithRefs(
			framegraph.Read(resource.KindDepthPyramid),
			framegraph.Read(resource.KindNodeData).Fixed(0),
			framegraph.Read(resource.KindCameraUniform),
			framegraph.Write(resource.KindDrawCommands).Next(),
			framegraph.Write(resource.KindDrawCounts).Next(),
		),
		framegraph.WithExecute(func(ctx *framegraph.ExecContext) {
			e.recordCull(ctx, true, 4)
		}),
	))

	reg.Register(framegraph.NewTemplate(PassVisibility,
		framegraph.WithScope(framegraph.ScopePerCamera),
		framegraph.WithQueue(device.QueueCompute),
		framegraph.WithCondition(cameraLacksOcclusion),
		framegraph.WithRefs(
			framegraph.Read(resource.KindNodeData).Fixed(0),
			framegraph.Read(resource.KindCameraUniform),
			framegraph.Write(resource.KindDrawCommands).Next(),
			framegraph.Write(resource.KindDrawCounts).Next(),
		),
		framegraph.WithExecute(func(ctx *framegraph.ExecContext) {
			e.recordCull(ctx, false, 3)
		}),
	))

	reg.Register(framegraph.NewTemplate(PassGeometryOpaque,
		framegraph.WithScope(framegraph.ScopePerCamera),
		framegraph.WithRefs(
			framegraph.Read(resource.KindDrawCommands),
			framegraph.Read(resource.KindDrawCounts),
			framegraph.Read(resource.KindCameraUniform),
			framegraph.Read(resource.KindDepthBuffer),
			framegraph.Write(resource.KindColorTarget),
		),
		framegraph.WithExecute(e.recordGeometry),
	))

	reg.Register(framegraph.NewTemplate(PassShadowCull,
		framegraph.WithScope(framegraph.ScopePerLight),
		framegraph.WithQueue(device.QueueCompute),
		framegraph.WithRefs(
			framegraph.Read(resource.KindNodeData).Fixed(0),
			framegraph.Read(resource.KindLightData).Fixed(0),
			framegraph.Write(resource.KindShadowDrawCommands).Next(),
			framegraph.Write(resource.KindShadowDrawCounts).Next(),
		),
		framegraph.WithExecute(e.recordShadowCull),
	))

	reg.Register(framegraph.NewTemplate(PassShadowRender2D,
		framegraph.WithScope(framegraph.ScopePerLight),
		framegraph.WithCondition(lightIs2D),
		framegraph.WithRefs(
			framegraph.Read(resource.KindShadowDrawCommands),
			framegraph.Read(resource.KindShadowDrawCounts),
			framegraph.Read(resource.KindLightData).Fixed(0),
			framegraph.Write(resource.KindShadowMap2D),
		),
		framegraph.WithExecute(e.recordShadowRender),
	))

	reg.Register(framegraph.NewTemplate(PassShadowRenderCube,
		framegraph.WithScope(framegraph.ScopePerLight),
		framegraph.WithCondition(lightIsCube),
		framegraph.WithRefs(
			framegraph.Read(resource.KindShadowDrawCommands),
			framegraph.Read(resource.KindShadowDrawCounts),
			framegraph.Read(resource.KindLightData).Fixed(0),
			framegraph.Write(resource.KindShadowMapCube),
		),
		framegraph.WithExecute(e.recordShadowRender),
	))
}

func cameraHasOcclusion(ctx *framegraph.CompileContext, scopeIndex uint32) bool {
	return ctx.Cameras[scopeIndex].OcclusionCulling
}

func cameraLacksOcclusion(ctx *framegraph.CompileContext, scopeIndex uint32) bool {
	return !ctx.Cameras[scopeIndex].OcclusionCulling
}

func lightIs2D(ctx *framegraph.CompileContext, scopeIndex uint32) bool {
	return ctx.Lights[scopeIndex].Type != light.LightTypePoint
}

func lightIsCube(ctx *framegraph.CompileContext, scopeIndex uint32) bool {
	return ctx.Lights[scopeIndex].Type == light.LightTypePoint
}

// recordDepthPrepass renders the opaque bucket of the draw list written a
// frame earlier into the camera's depth attachment.
func (e *engineImpl) recordDepthPrepass(ctx *framegraph.ExecContext) {
	commands := ctx.Resource(0)
	counts := ctx.Resource(1)
	depth := ctx.Resource(3)

	ctx.Stream.BeginRenderPass(depth.RenderPass, depth.Framebuffer, depth.Width, depth.Height, 1.0)
	if e.pipelines.DepthPrepass != vk.NullPipeline {
		ctx.Stream.BindGraphicsPipeline(e.pipelines.DepthPrepass)
	}
	e.bindSets(ctx, PassDepthPrepass, vk.PipelineBindPointGraphics, e.pipelines.GraphicsLayout, 0)
	ctx.Stream.DrawIndexedIndirectCount(
		commands.Buffer, vk.DeviceSize(BucketOffset(CategoryOpaque, e.capacity)),
		counts.Buffer, vk.DeviceSize(CountOffset(CategoryOpaque)),
		e.capacity, DrawCommandSize)
	ctx.Stream.EndRenderPass()
}

// recordPyramid max-reduces the depth buffer into the pyramid mip chain,
// one dispatch per destination mip with a compute-to-compute barrier
// between mips. The image stays in the general layout throughout; the
// per-mip barriers are internal to this pass, not graph edges, because
// they synchronize sub-resources of a single logical write.
func (e *engineImpl) recordPyramid(ctx *framegraph.ExecContext) {
	pyramid := ctx.Resource(1)
	mips := pyramid.MipLevels
	if mips == 0 {
		mips = MipLevels(pyramid.Width, pyramid.Height)
	}

	if e.pipelines.Pyramid != vk.NullPipeline {
		ctx.Stream.BindComputePipeline(e.pipelines.Pyramid)
	}
	for mip := uint32(0); mip < mips; mip++ {
		if mip > 0 {
			ctx.Stream.PipelineBarrier(
				vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
				vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
				nil, []device.ImageBarrier{{
					Image:          pyramid.Image,
					SrcAccess:      vk.AccessFlags(vk.AccessShaderWriteBit),
					DstAccess:      vk.AccessFlags(vk.AccessShaderReadBit),
					OldLayout:      vk.ImageLayoutGeneral,
					NewLayout:      vk.ImageLayoutGeneral,
					SrcQueueFamily: vk.QueueFamilyIgnored,
					DstQueueFamily: vk.QueueFamilyIgnored,
					Aspect:         vk.ImageAspectColorBit,
					BaseMip:        mip - 1,
					MipCount:       1,
				}})
		}
		e.bindSets(ctx, PassDepthPyramid, vk.PipelineBindPointCompute, e.pipelines.PyramidLayout, mip)

		w := MipExtent(pyramid.Width, mip)
		h := MipExtent(pyramid.Height, mip)
		var push [8]byte
		binary.LittleEndian.PutUint32(push[0:], w)
		binary.LittleEndian.PutUint32(push[4:], h)
		ctx.Stream.PushConstants(e.pipelines.PyramidLayout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, push[:])

		ctx.Stream.Dispatch(groups(w, PyramidGroupSize), groups(h, PyramidGroupSize), 1)
	}
}

// recordCull zeroes the bucket counters and command slots, then
// dispatches the visibility test into the next frame's draw-list slot.
// Zero nodes still clear the buffers but skip the dispatch entirely.
// Clearing the commands matters for render backends that cannot read
// the counter on the GPU: a cleared slot has instanceCount zero, so a
// full-capacity indirect draw skips it.
func (e *engineImpl) recordCull(ctx *framegraph.ExecContext, occlusion bool, countsRef int) {
	counts := ctx.Resource(countsRef)
	commands := ctx.Resource(countsRef - 1)

	ctx.Stream.FillBuffer(counts.Buffer, 0, countsBufferSize, 0)
	ctx.Stream.FillBuffer(commands.Buffer, 0, commands.Size, 0)
	ctx.Stream.PipelineBarrier(
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		[]device.BufferBarrier{{
			Buffer:         counts.Buffer,
			SrcAccess:      vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccess:      vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit),
			SrcQueueFamily: vk.QueueFamilyIgnored,
			DstQueueFamily: vk.QueueFamilyIgnored,
			Size:           countsBufferSize,
		}, {
			Buffer:         commands.Buffer,
			SrcAccess:      vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccess:      vk.AccessFlags(vk.AccessShaderWriteBit),
			SrcQueueFamily: vk.QueueFamilyIgnored,
			DstQueueFamily: vk.QueueFamilyIgnored,
			Size:           commands.Size,
		}}, nil)

	nodeCount := uint32(e.NodeCount())
	if nodeCount == 0 {
		return
	}
	cam, ok := e.camera(ctx.ScopeIndex)
	if !ok {
		return
	}

	if e.pipelines.Cull != vk.NullPipeline {
		ctx.Stream.BindComputePipeline(e.pipelines.Cull)
	}
	passID := PassVisibility
	if occlusion {
		passID = PassVisibilityHiZ
	}
	e.bindSets(ctx, passID, vk.PipelineBindPointCompute, e.pipelines.CullLayout, 0)

	mips := uint32(1)
	if occlusion {
		mips = MipLevels(cam.Width, cam.Height)
	}
	push := e.cullPushConstants(cam.Frustum, nodeCount, occlusion, mips, float32(cam.Height), cam.Proj[5])
	ctx.Stream.PushConstants(e.pipelines.CullLayout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, push)

	ctx.Stream.Dispatch(groups(nodeCount, CullGroupSize), 1, 1)
}

// recordShadowCull is the per-light variant: frustum or sphere test only,
// never the pyramid.
func (e *engineImpl) recordShadowCull(ctx *framegraph.ExecContext) {
	counts := ctx.Resource(3)
	commands := ctx.Resource(2)

	ctx.Stream.FillBuffer(counts.Buffer, 0, countsBufferSize, 0)
	ctx.Stream.FillBuffer(commands.Buffer, 0, commands.Size, 0)
	ctx.Stream.PipelineBarrier(
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		[]device.BufferBarrier{{
			Buffer:         counts.Buffer,
			SrcAccess:      vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccess:      vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit),
			SrcQueueFamily: vk.QueueFamilyIgnored,
			DstQueueFamily: vk.QueueFamilyIgnored,
			Size:           countsBufferSize,
		}, {
			Buffer:         commands.Buffer,
			SrcAccess:      vk.AccessFlags(vk.AccessTransferWriteBit),
			DstAccess:      vk.AccessFlags(vk.AccessShaderWriteBit),
			SrcQueueFamily: vk.QueueFamilyIgnored,
			DstQueueFamily: vk.QueueFamilyIgnored,
			Size:           commands.Size,
		}}, nil)

	nodeCount := uint32(e.NodeCount())
	if nodeCount == 0 {
		return
	}
	ls, ok := e.light(ctx.ScopeIndex)
	if !ok {
		return
	}

	if e.pipelines.Cull != vk.NullPipeline {
		ctx.Stream.BindComputePipeline(e.pipelines.Cull)
	}
	e.bindSets(ctx, PassShadowCull, vk.PipelineBindPointCompute, e.pipelines.CullLayout, 0)

	push := e.cullPushConstants(ls.Frustum, nodeCount, false, 1, 0, 0)
	ctx.Stream.PushConstants(e.pipelines.CullLayout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, push)

	ctx.Stream.Dispatch(groups(nodeCount, CullGroupSize), 1, 1)
}

// recordGeometry draws every bucket of the frame's draw list into the
// camera's color target, one indirect-with-count call per bucket.
func (e *engineImpl) recordGeometry(ctx *framegraph.ExecContext) {
	commands := ctx.Resource(0)
	counts := ctx.Resource(1)
	color := ctx.Resource(4)

	ctx.Stream.BeginRenderPass(color.RenderPass, color.Framebuffer, color.Width, color.Height, 1.0)
	if e.pipelines.Geometry != vk.NullPipeline {
		ctx.Stream.BindGraphicsPipeline(e.pipelines.Geometry)
	}
	e.bindSets(ctx, PassGeometryOpaque, vk.PipelineBindPointGraphics, e.pipelines.GraphicsLayout, 0)
	for c := Category(0); c < CategoryCount; c++ {
		ctx.Stream.DrawIndexedIndirectCount(
			commands.Buffer, vk.DeviceSize(BucketOffset(c, e.capacity)),
			counts.Buffer, vk.DeviceSize(CountOffset(c)),
			e.capacity, DrawCommandSize)
	}
	ctx.Stream.EndRenderPass()
}

// recordShadowRender draws the slot's caster list into its shadow map.
func (e *engineImpl) recordShadowRender(ctx *framegraph.ExecContext) {
	commands := ctx.Resource(0)
	counts := ctx.Resource(1)
	target := ctx.Resource(3)

	ctx.Stream.BeginRenderPass(target.RenderPass, target.Framebuffer, target.Width, target.Height, 1.0)
	if e.pipelines.Shadow != vk.NullPipeline {
		ctx.Stream.BindGraphicsPipeline(e.pipelines.Shadow)
	}
	e.bindSets(ctx, ctx.PassID, vk.PipelineBindPointGraphics, e.pipelines.GraphicsLayout, 0)
	ctx.Stream.DrawIndexedIndirectCount(
		commands.Buffer, vk.DeviceSize(BucketOffset(CategoryOpaque, e.capacity)),
		counts.Buffer, vk.DeviceSize(CountOffset(CategoryOpaque)),
		e.capacity, DrawCommandSize)
	ctx.Stream.EndRenderPass()
}

func (e *engineImpl) bindSets(ctx *framegraph.ExecContext, passID string, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, mip uint32) {
	if e.descSets == nil {
		return
	}
	slot := ctx.FrameIndex % e.framesInFlight
	if sets := e.descSets(passID, ctx.ScopeIndex, slot, mip); len(sets) > 0 {
		ctx.Stream.BindDescriptorSets(bindPoint, layout, 0, sets)
	}
}

// groups returns ceil(n / size) dispatch groups.
func groups(n, size uint32) uint32 {
	return (n + size - 1) / size
}
