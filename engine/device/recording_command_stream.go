package device

import (
	vk "github.com/goki/vulkan"
)

// Op identifies one recorded command kind.
type Op int

const (
	OpPipelineBarrier Op = iota
	OpBindComputePipeline
	OpBindGraphicsPipeline
	OpBindDescriptorSets
	OpPushConstants
	OpDispatch
	OpBeginRenderPass
	OpEndRenderPass
	OpFillBuffer
	OpBindIndexBuffer
	OpBindVertexBuffers
	OpDrawIndexedIndirectCount
)

// Command is one recorded command with the arguments relevant to that op.
// Only the fields for the matching Op are populated.
type Command struct {
	Op Op

	// OpPipelineBarrier
	SrcStage vk.PipelineStageFlags
	DstStage vk.PipelineStageFlags
	Buffers  []BufferBarrier
	Images   []ImageBarrier

	// OpDispatch
	GroupsX, GroupsY, GroupsZ uint32

	// OpBeginRenderPass
	Width, Height uint32
	ClearDepth    float32

	// OpDrawIndexedIndirectCount
	MaxDrawCount uint32
	Stride       uint32

	// OpFillBuffer
	FillSize vk.DeviceSize

	// OpPushConstants
	Data []byte
}

// RecordingCommandStream captures commands as typed records instead of
// talking to a device. It backs headless execution and the tests that
// assert on barrier placement and dispatch shapes.
type RecordingCommandStream struct {
	queue    QueueKind
	commands []Command
}

var _ CommandStream = &RecordingCommandStream{}

// NewRecordingCommandStream creates an empty recording stream for the
// given queue.
//
// Parameters:
//   - queue: which queue the stream stands in for
//
// Returns:
//   - *RecordingCommandStream: the new stream
func NewRecordingCommandStream(queue QueueKind) *RecordingCommandStream {
	return &RecordingCommandStream{queue: queue}
}

// Commands returns the recorded commands in recording order.
//
// Returns:
//   - []Command: the recorded commands, not a copy
func (s *RecordingCommandStream) Commands() []Command {
	return s.commands
}

// Reset discards all recorded commands.
func (s *RecordingCommandStream) Reset() {
	s.commands = s.commands[:0]
}

// CountOp returns how many recorded commands have the given op.
//
// Parameters:
//   - op: the op to count
//
// Returns:
//   - int: the number of matching commands
func (s *RecordingCommandStream) CountOp(op Op) int {
	n := 0
	for _, c := range s.commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (s *RecordingCommandStream) Queue() QueueKind {
	return s.queue
}

func (s *RecordingCommandStream) PipelineBarrier(srcStage, dstStage vk.PipelineStageFlags, buffers []BufferBarrier, images []ImageBarrier) {
	if len(buffers) == 0 && len(images) == 0 {
		return
	}
	s.commands = append(s.commands, Command{
		Op:       OpPipelineBarrier,
		SrcStage: srcStage,
		DstStage: dstStage,
		Buffers:  append([]BufferBarrier(nil), buffers...),
		Images:   append([]ImageBarrier(nil), images...),
	})
}

func (s *RecordingCommandStream) BindComputePipeline(p vk.Pipeline) {
	s.commands = append(s.commands, Command{Op: OpBindComputePipeline})
}

func (s *RecordingCommandStream) BindDescriptorSets(bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	s.commands = append(s.commands, Command{Op: OpBindDescriptorSets})
}

func (s *RecordingCommandStream) PushConstants(layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	s.commands = append(s.commands, Command{Op: OpPushConstants, Data: append([]byte(nil), data...)})
}

func (s *RecordingCommandStream) Dispatch(x, y, z uint32) {
	s.commands = append(s.commands, Command{Op: OpDispatch, GroupsX: x, GroupsY: y, GroupsZ: z})
}

func (s *RecordingCommandStream) BeginRenderPass(rp vk.RenderPass, fb vk.Framebuffer, width, height uint32, clearDepth float32) {
	s.commands = append(s.commands, Command{Op: OpBeginRenderPass, Width: width, Height: height, ClearDepth: clearDepth})
}

func (s *RecordingCommandStream) EndRenderPass() {
	s.commands = append(s.commands, Command{Op: OpEndRenderPass})
}

func (s *RecordingCommandStream) BindGraphicsPipeline(p vk.Pipeline) {
	s.commands = append(s.commands, Command{Op: OpBindGraphicsPipeline})
}

func (s *RecordingCommandStream) BindIndexBuffer(buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	s.commands = append(s.commands, Command{Op: OpBindIndexBuffer})
}

func (s *RecordingCommandStream) BindVertexBuffers(firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	s.commands = append(s.commands, Command{Op: OpBindVertexBuffers})
}

func (s *RecordingCommandStream) FillBuffer(buffer vk.Buffer, offset, size vk.DeviceSize, value uint32) {
	s.commands = append(s.commands, Command{Op: OpFillBuffer, FillSize: size})
}

func (s *RecordingCommandStream) DrawIndexedIndirectCount(commands vk.Buffer, commandsOffset vk.DeviceSize, countBuffer vk.Buffer, countOffset vk.DeviceSize, maxDrawCount, stride uint32) {
	s.commands = append(s.commands, Command{Op: OpDrawIndexedIndirectCount, MaxDrawCount: maxDrawCount, Stride: stride})
}
