package cull

import (
	"encoding/binary"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	vk "github.com/goki/vulkan"

	"github.com/hucancode/mjolnir-sub007/common"
	"github.com/hucancode/mjolnir-sub007/engine/framegraph"
)

// Template identifiers the engine registers.
const (
	PassDepthPrepass     = "depth_prepass"
	PassDepthPyramid     = "depth_pyramid"
	PassVisibilityHiZ    = "visibility_cull_hiz"
	PassVisibility       = "visibility_cull"
	PassGeometryOpaque   = "geometry_opaque"
	PassShadowCull       = "shadow_cull"
	PassShadowRender2D   = "shadow_render_2d"
	PassShadowRenderCube = "shadow_render_cube"
)

// CameraState is one camera's per-frame input to the visibility passes.
type CameraState struct {
	View             [16]float32
	Proj             [16]float32
	ViewProj         [16]float32
	Frustum          common.Frustum
	Width            uint32
	Height           uint32
	NearPlane        float32
	FarPlane         float32
	OcclusionCulling bool

	// Depth optionally carries last frame's depth values for the CPU
	// reference pyramid; nil disables the occlusion half on the CPU path.
	Depth []float32
}

// LightState is one shadow slot's per-frame culling input. Point lights
// test casters against a sphere, every other type against a frustum.
type LightState struct {
	Frustum      common.Frustum
	SphereCenter [3]float32
	SphereRadius float32
	Sphere       bool
}

// Pipelines carries the host-compiled visibility pipelines. Zero handles
// are legal for headless runs; bodies still record their dispatch shapes
// and barriers.
type Pipelines struct {
	Pyramid        vk.Pipeline
	PyramidLayout  vk.PipelineLayout
	Cull           vk.Pipeline
	CullLayout     vk.PipelineLayout
	DepthPrepass   vk.Pipeline
	Geometry       vk.Pipeline
	Shadow         vk.Pipeline
	GraphicsLayout vk.PipelineLayout
}

// DescriptorProvider returns the descriptor sets a pass instance binds,
// keyed by template id, scope index, frame slot and, for the per-mip
// pyramid dispatches, the destination mip. The engine never allocates
// descriptors itself.
type DescriptorProvider func(passID string, scopeIndex, frameSlot, mip uint32) []vk.DescriptorSet

// Engine supplies the visibility pass kinds: the depth prepass, the
// max-depth pyramid build, the bucket-routing cull dispatch pipelined one
// frame ahead, and the per-light shadow culling. It registers its pass
// templates into a graph registry and keeps the per-frame camera and
// light state the pass bodies read.
type Engine interface {
	// RegisterTemplates registers the visibility pass templates. Call
	// once before the first Compile.
	//
	// Parameters:
	//   - reg: the template registry
	RegisterTemplates(reg framegraph.Registry)

	// SetNodes replaces the cullable node set.
	//
	// Parameters:
	//   - nodes: the scene nodes
	SetNodes(nodes []Node)

	// NodeCount returns the current cullable node count.
	//
	// Returns:
	//   - int: the node count
	NodeCount() int

	// NodeBytes returns the shader-ready packed node buffer contents.
	//
	// Returns:
	//   - []byte: the packed nodes
	NodeBytes() []byte

	// BeginFrame stores the frame's camera and light states and, when the
	// CPU reference is enabled, culls every camera in parallel into the
	// next frame's result slot.
	//
	// Parameters:
	//   - frameIndex: the frame ring position being recorded
	//   - cameras: per-camera state in compile scope order
	//   - lights: per-shadow-slot state in slot order
	BeginFrame(frameIndex uint32, cameras []CameraState, lights []LightState)

	// Results returns the CPU reference draw lists a frame renders from:
	// the slot the previous frame's BeginFrame wrote.
	//
	// Parameters:
	//   - frameIndex: the frame being rendered
	//   - cameraIndex: the camera scope index
	//
	// Returns:
	//   - CullResult: the draw lists, zero-valued before warm-up
	Results(frameIndex, cameraIndex uint32) CullResult

	// ShadowResults is Results for a shadow slot's caster list.
	//
	// Parameters:
	//   - frameIndex: the frame being rendered
	//   - slot: the shadow slot index
	//
	// Returns:
	//   - CullResult: the caster draw lists
	ShadowResults(frameIndex uint32, slot uint32) CullResult
}

type engineImpl struct {
	mu sync.RWMutex

	nodes     []Node
	nodeBytes []byte

	capacity       uint32
	depthBias      float32
	framesInFlight uint32

	pipelines Pipelines
	descSets  DescriptorProvider

	cameras []CameraState
	lights  []LightState

	cpuReference bool
	// cullPool parallelizes the per-camera CPU prep; workers persist
	// across frames.
	cullPool    worker.DynamicWorkerPool
	cullWorkers int

	// results[slot][cameraIndex], shadowResults[slot][slotIndex]; frame N
	// writes slot (N+1) mod framesInFlight and renders from slot N mod
	// framesInFlight, so draw lists are always one frame old.
	results       [][]CullResult
	shadowResults [][]CullResult
}

var _ Engine = &engineImpl{}

// EngineOption configures the cull engine at creation.
type EngineOption func(*engineImpl)

// WithBucketCapacity overrides the per-bucket draw command capacity.
//
// Parameters:
//   - capacity: commands per bucket
//
// Returns:
//   - EngineOption: the option
func WithBucketCapacity(capacity uint32) EngineOption {
	return func(e *engineImpl) {
		e.capacity = capacity
	}
}

// WithDepthBias overrides the occlusion comparison epsilon.
//
// Parameters:
//   - bias: the depth bias
//
// Returns:
//   - EngineOption: the option
func WithDepthBias(bias float32) EngineOption {
	return func(e *engineImpl) {
		e.depthBias = bias
	}
}

// WithFramesInFlight sets the frame ring size. The default is 2.
//
// Parameters:
//   - frames: the ring size, at least 2 for pipelined culling
//
// Returns:
//   - EngineOption: the option
func WithFramesInFlight(frames uint32) EngineOption {
	return func(e *engineImpl) {
		e.framesInFlight = frames
	}
}

// WithPipelines hands the engine its host-compiled pipelines.
//
// Parameters:
//   - p: the pipeline set
//
// Returns:
//   - EngineOption: the option
func WithPipelines(p Pipelines) EngineOption {
	return func(e *engineImpl) {
		e.pipelines = p
	}
}

// WithDescriptorProvider sets the descriptor set lookup.
//
// Parameters:
//   - provider: the provider
//
// Returns:
//   - EngineOption: the option
func WithDescriptorProvider(provider DescriptorProvider) EngineOption {
	return func(e *engineImpl) {
		e.descSets = provider
	}
}

// WithCPUReference enables the host-side reference culler so Results and
// ShadowResults return populated draw lists without a device.
//
// Returns:
//   - EngineOption: the option
func WithCPUReference() EngineOption {
	return func(e *engineImpl) {
		e.cpuReference = true
	}
}

// WithCullWorkers overrides the CPU prep worker count.
//
// Parameters:
//   - workers: the worker count, at least 1
//
// Returns:
//   - EngineOption: the option
func WithCullWorkers(workers int) EngineOption {
	return func(e *engineImpl) {
		if workers > 0 {
			e.cullWorkers = workers
		}
	}
}

// NewEngine creates a cull engine.
//
// Parameters:
//   - opts: engine options
//
// Returns:
//   - Engine: the new engine
func NewEngine(opts ...EngineOption) Engine {
	e := &engineImpl{
		capacity:       DefaultBucketCapacity,
		depthBias:      DefaultDepthBias,
		framesInFlight: 2,
		cullWorkers:    max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.framesInFlight < 2 {
		e.framesInFlight = 2
	}
	// Queue size covers one task per camera and per shadow slot with
	// headroom for topology spikes.
	e.cullPool = worker.NewDynamicWorkerPool(e.cullWorkers, 64, 1*time.Second)
	e.results = make([][]CullResult, e.framesInFlight)
	e.shadowResults = make([][]CullResult, e.framesInFlight)
	return e
}

func (e *engineImpl) SetNodes(nodes []Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = nodes
	e.nodeBytes = MarshalNodes(nodes)
}

func (e *engineImpl) NodeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.nodes)
}

func (e *engineImpl) NodeBytes() []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodeBytes
}

func (e *engineImpl) BeginFrame(frameIndex uint32, cameras []CameraState, lights []LightState) {
	e.mu.Lock()
	e.cameras = cameras
	e.lights = lights
	nodes := e.nodes
	e.mu.Unlock()

	if !e.cpuReference {
		return
	}

	writeSlot := (frameIndex + 1) % e.framesInFlight
	camResults := make([]CullResult, len(cameras))
	shadowRes := make([]CullResult, len(lights))

	var wg sync.WaitGroup
	taskID := 0
	for i := range cameras {
		wg.Add(1)
		idx := i
		id := taskID
		taskID++
		e.cullPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				camResults[idx] = e.cullCamera(nodes, &cameras[idx])
				return nil, nil
			},
		})
	}
	for i := range lights {
		wg.Add(1)
		idx := i
		id := taskID
		taskID++
		e.cullPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				shadowRes[idx] = e.cullShadow(nodes, &lights[idx])
				return nil, nil
			},
		})
	}
	wg.Wait()

	e.mu.Lock()
	e.results[writeSlot] = camResults
	e.shadowResults[writeSlot] = shadowRes
	e.mu.Unlock()
}

func (e *engineImpl) cullCamera(nodes []Node, cam *CameraState) CullResult {
	params := CullParams{
		View:         cam.View,
		Proj:         cam.Proj,
		Frustum:      cam.Frustum,
		ScreenWidth:  cam.Width,
		ScreenHeight: cam.Height,
		DepthBias:    e.depthBias,
		Capacity:     e.capacity,
	}
	if cam.OcclusionCulling && cam.Depth != nil {
		params.Pyramid = BuildCPUPyramid(cam.Depth, cam.Width, cam.Height)
	}
	return CullCPU(nodes, params)
}

// cullShadow is frustum/sphere-only: shadow casters must not vanish just
// because the main camera cannot see them, so no occlusion test runs here.
func (e *engineImpl) cullShadow(nodes []Node, ls *LightState) CullResult {
	var result CullResult
	for _, n := range nodes {
		visible := false
		if ls.Sphere {
			dx := n.Center[0] - ls.SphereCenter[0]
			dy := n.Center[1] - ls.SphereCenter[1]
			dz := n.Center[2] - ls.SphereCenter[2]
			reach := ls.SphereRadius + n.Radius
			visible = dx*dx+dy*dy+dz*dz <= reach*reach
		} else {
			visible = ls.Frustum.IntersectsSphere(n.Center, n.Radius)
		}
		if !visible {
			continue
		}
		c := n.Category
		if c < 0 || c >= CategoryCount {
			c = CategoryOpaque
		}
		if result.Counts[c] >= e.capacity {
			result.Dropped++
			continue
		}
		result.Commands[c] = append(result.Commands[c], DrawCommand{
			IndexCount:    n.IndexCount,
			InstanceCount: 1,
			FirstIndex:    n.FirstIndex,
			VertexOffset:  n.VertexOffset,
			FirstInstance: n.InstanceID,
		})
		result.Counts[c]++
	}
	return result
}

func (e *engineImpl) Results(frameIndex, cameraIndex uint32) CullResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	slot := frameIndex % e.framesInFlight
	if res := e.results[slot]; int(cameraIndex) < len(res) {
		return res[cameraIndex]
	}
	return CullResult{}
}

func (e *engineImpl) ShadowResults(frameIndex, slot uint32) CullResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ring := frameIndex % e.framesInFlight
	if res := e.shadowResults[ring]; int(slot) < len(res) {
		return res[slot]
	}
	return CullResult{}
}

// cullPushConstants packs the cull dispatch's push block: six frustum
// planes followed by the scalar parameters, 128 bytes total.
func (e *engineImpl) cullPushConstants(frustum common.Frustum, nodeCount uint32, occlusion bool, mips uint32, screenHeight float32, projScaleY float32) []byte {
	out := make([]byte, 128)
	le := binary.LittleEndian
	for i, p := range frustum.Planes {
		base := i * 16
		le.PutUint32(out[base:], math.Float32bits(p.Normal[0]))
		le.PutUint32(out[base+4:], math.Float32bits(p.Normal[1]))
		le.PutUint32(out[base+8:], math.Float32bits(p.Normal[2]))
		le.PutUint32(out[base+12:], math.Float32bits(p.Distance))
	}
	le.PutUint32(out[96:], nodeCount)
	le.PutUint32(out[100:], e.capacity)
	if occlusion {
		le.PutUint32(out[104:], 1)
	}
	le.PutUint32(out[108:], mips)
	le.PutUint32(out[112:], math.Float32bits(e.depthBias))
	le.PutUint32(out[116:], math.Float32bits(screenHeight))
	le.PutUint32(out[120:], math.Float32bits(projScaleY))
	return out
}

func (e *engineImpl) camera(index uint32) (CameraState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if int(index) >= len(e.cameras) {
		return CameraState{}, false
	}
	return e.cameras[index], true
}

func (e *engineImpl) light(index uint32) (LightState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if int(index) >= len(e.lights) {
		return LightState{}, false
	}
	return e.lights[index], true
}
