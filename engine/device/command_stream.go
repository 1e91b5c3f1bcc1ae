package device

import (
	vk "github.com/goki/vulkan"
)

// QueueKind selects which of the two per-frame command streams a pass
// records into.
type QueueKind int

const (
	// QueueGraphics is the graphics queue's command stream.
	QueueGraphics QueueKind = iota
	// QueueCompute is the compute queue's command stream.
	QueueCompute
)

// String returns the queue kind's lower-case name.
//
// Returns:
//   - string: "graphics" or "compute"
func (q QueueKind) String() string {
	if q == QueueCompute {
		return "compute"
	}
	return "graphics"
}

// BufferBarrier is one buffer memory barrier: an access-mask pair plus an
// optional queue family ownership transfer. Emitted between a writer and a
// reader of the same buffer key.
type BufferBarrier struct {
	Buffer         vk.Buffer
	SrcAccess      vk.AccessFlags
	DstAccess      vk.AccessFlags
	SrcQueueFamily uint32
	DstQueueFamily uint32
	Offset         vk.DeviceSize
	Size           vk.DeviceSize
}

// ImageBarrier is one image memory barrier: an access-mask pair, a layout
// transition, and an optional queue family ownership transfer.
type ImageBarrier struct {
	Image          vk.Image
	SrcAccess      vk.AccessFlags
	DstAccess      vk.AccessFlags
	OldLayout      vk.ImageLayout
	NewLayout      vk.ImageLayout
	SrcQueueFamily uint32
	DstQueueFamily uint32
	Aspect         vk.ImageAspectFlagBits
	BaseMip        uint32
	MipCount       uint32
}

// CommandStream abstracts the subset of command buffer recording the pass
// executor and the visibility passes need. Two implementations exist: the
// Vulkan stream records into a vk.CommandBuffer, and the recording stream
// captures typed command records for headless execution and tests.
//
// Pass bodies receive a CommandStream and must emit GPU commands only; they
// never insert their own barriers and never allocate resources.
type CommandStream interface {
	// Queue returns which queue this stream submits to.
	//
	// Returns:
	//   - QueueKind: the stream's queue
	Queue() QueueKind

	// PipelineBarrier records a pipeline barrier with the given buffer and
	// image barriers between the two pipeline stage masks.
	//
	// Parameters:
	//   - srcStage: pipeline stages that must complete before the barrier
	//   - dstStage: pipeline stages that wait on the barrier
	//   - buffers: buffer memory barriers to emit
	//   - images: image memory barriers to emit
	PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, buffers []BufferBarrier, images []ImageBarrier)

	// BindComputePipeline binds a compute pipeline for subsequent dispatches.
	//
	// Parameters:
	//   - p: the compute pipeline
	BindComputePipeline(p vk.Pipeline)

	// BindDescriptorSets binds descriptor sets for the given bind point.
	//
	// Parameters:
	//   - bindPoint: graphics or compute bind point
	//   - layout: the pipeline layout the sets were allocated against
	//   - firstSet: index of the first set to bind
	//   - sets: the descriptor sets to bind
	BindDescriptorSets(bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet)

	// PushConstants records a push constant update.
	//
	// Parameters:
	//   - layout: the pipeline layout declaring the push constant range
	//   - stages: shader stages that read the constants
	//   - offset: byte offset within the push constant block
	//   - data: the raw constant bytes
	PushConstants(layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte)

	// Dispatch records a compute dispatch.
	//
	// Parameters:
	//   - x, y, z: workgroup counts in each dimension
	Dispatch(x, y, z uint32)

	// BeginRenderPass starts a render pass instance over the full target extent.
	//
	// Parameters:
	//   - rp: the render pass
	//   - fb: the framebuffer to render into
	//   - width, height: the render area extent in pixels
	//   - clearDepth: the depth clear value for depth attachments
	BeginRenderPass(rp vk.RenderPass, fb vk.Framebuffer, width, height uint32, clearDepth float32)

	// EndRenderPass ends the current render pass instance.
	EndRenderPass()

	// BindGraphicsPipeline binds a graphics pipeline for subsequent draws.
	//
	// Parameters:
	//   - p: the graphics pipeline
	BindGraphicsPipeline(p vk.Pipeline)

	// BindIndexBuffer binds the index buffer for indexed draws.
	//
	// Parameters:
	//   - buffer: the index buffer
	//   - offset: byte offset into the buffer
	//   - indexType: the index element type
	BindIndexBuffer(buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType)

	// BindVertexBuffers binds vertex buffers starting at the given binding.
	//
	// Parameters:
	//   - firstBinding: the first vertex input binding
	//   - buffers: the vertex buffers
	//   - offsets: byte offsets, one per buffer
	BindVertexBuffers(firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize)

	// FillBuffer fills a buffer range with a repeated 32-bit value. Used
	// to zero the per-bucket draw counters before a cull dispatch.
	//
	// Parameters:
	//   - buffer: the destination buffer
	//   - offset: byte offset, 4-byte aligned
	//   - size: byte count, 4-byte aligned
	//   - value: the 32-bit fill value
	FillBuffer(buffer vk.Buffer, offset, size vk.DeviceSize, value uint32)

	// DrawIndexedIndirectCount records an indirect indexed draw whose draw
	// count is read from countBuffer on the GPU. This is the only draw path
	// for culled geometry: the CPU never learns how many draws survived.
	//
	// Parameters:
	//   - commands: buffer of DrawIndexedIndirectCommand entries
	//   - commandsOffset: byte offset of the first command
	//   - countBuffer: buffer holding the u32 draw count
	//   - countOffset: byte offset of the count
	//   - maxDrawCount: upper bound on draws (the bucket capacity)
	//   - stride: byte stride between commands
	DrawIndexedIndirectCount(commands vk.Buffer, commandsOffset vk.DeviceSize, countBuffer vk.Buffer, countOffset vk.DeviceSize, maxDrawCount, stride uint32)
}
