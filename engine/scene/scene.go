package scene

import (
	"sync"

	"github.com/hucancode/mjolnir-sub007/engine/camera"
	"github.com/hucancode/mjolnir-sub007/engine/cull"
	"github.com/hucancode/mjolnir-sub007/engine/framegraph"
	"github.com/hucancode/mjolnir-sub007/engine/game_object"
	"github.com/hucancode/mjolnir-sub007/engine/light"
	"github.com/hucancode/mjolnir-sub007/engine/registry"
)

// Snapshot is one frame's immutable view of the scene: the compile
// topology, the per-camera and per-shadow-slot visibility inputs, and
// the flattened cull node list in stable handle order. Changed reports
// whether the topology differs from the previous snapshot, which is the
// signal to recompile the pass graph.
type Snapshot struct {
	Context   *framegraph.CompileContext
	Cameras   []cull.CameraState
	Lights    []cull.LightState
	Nodes     []cull.Node
	SlotCount int
	Changed   bool

	// CameraUniforms holds one upload-ready uniform buffer per camera,
	// in the same order as Cameras.
	CameraUniforms [][]byte
	// LightData is the upload-ready light storage buffer for the frame,
	// covering every active light up to MaxGPULights.
	LightData []byte
}

// Scene manages the registries that define a frame's topology: the active
// cameras, the lights and their shadow-slot assignment, and the renderable
// objects. Scenes can be hot-swapped via the Active flag to switch between
// different views or levels. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Cameras returns the scene's camera registry.
	//
	// Returns:
	//   - camera.Registry: the camera registry
	Cameras() camera.Registry

	// Lights returns the scene's light registry.
	//
	// Returns:
	//   - light.Registry: the light registry
	Lights() light.Registry

	// Scheduler returns the shadow-slot scheduler driven by Snapshot.
	//
	// Returns:
	//   - light.ShadowScheduler: the scheduler
	Scheduler() light.ShadowScheduler

	// SetViewport sets the pixel size of the render surface. Camera aspect
	// ratios are updated to match. Called on window resize.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	SetViewport(width, height uint32)

	// Add inserts an object into the scene. If the object carries a light,
	// the light is registered as well.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - registry.Handle: the object's handle
	Add(obj game_object.GameObject) registry.Handle

	// Get retrieves an object by handle.
	//
	// Parameters:
	//   - h: the object's handle
	//
	// Returns:
	//   - game_object.GameObject: the object, or nil if the handle is stale
	Get(h registry.Handle) game_object.GameObject

	// Remove deletes an object from the scene. The object's attached light,
	// if any, is removed from the light registry as well.
	//
	// Parameters:
	//   - h: the object's handle
	//
	// Returns:
	//   - bool: true if an object was removed
	Remove(h registry.Handle) bool

	// Count returns the number of objects in the scene.
	Count() int

	// Clear removes all objects, cameras, and lights.
	Clear()

	// Snapshot captures the frame's topology and visibility inputs. It
	// updates every active camera's matrices, runs the shadow-slot
	// assignment, syncs attached light positions from their owning
	// objects, and flattens enabled objects into cull nodes in stable
	// handle order. The returned snapshot is detached from the scene;
	// later mutations do not affect it.
	//
	// Returns:
	//   - *Snapshot: the frame's topology and visibility inputs
	Snapshot() *Snapshot
}

type scene struct {
	mu sync.Mutex

	name   string
	active bool

	cameras   camera.Registry
	lights    light.Registry
	scheduler light.ShadowScheduler
	objects   registry.Arena[game_object.GameObject]

	// Attached lights removed together with their owner.
	objectLights map[registry.Handle]light.Handle

	viewportWidth  uint32
	viewportHeight uint32

	framesInFlight uint32

	// Previous snapshot's camera topology, for change detection. Slot
	// changes are reported by the scheduler itself.
	prevCameras  []cameraTopology
	snapshotOnce bool
}

type cameraTopology struct {
	handle    camera.Handle
	occlusion bool
}

var _ Scene = &scene{}

// NewScene creates a scene with the given options applied. Defaults: a
// 1280x720 viewport, two frames in flight, inactive until SetActive or
// WithActive.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		cameras:        camera.NewRegistry(),
		lights:         light.NewRegistry(),
		scheduler:      light.NewShadowScheduler(),
		objects:        registry.NewArena[game_object.GameObject](),
		objectLights:   make(map[registry.Handle]light.Handle),
		viewportWidth:  1280,
		viewportHeight: 720,
		framesInFlight: 2,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Cameras() camera.Registry {
	return s.cameras
}

func (s *scene) Lights() light.Registry {
	return s.lights
}

func (s *scene) Scheduler() light.ShadowScheduler {
	return s.scheduler
}

func (s *scene) SetViewport(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	s.mu.Lock()
	s.viewportWidth = width
	s.viewportHeight = height
	s.mu.Unlock()

	aspect := float32(width) / float32(height)
	for _, h := range s.cameras.ActiveHandles() {
		if cam := s.cameras.Get(h); cam != nil {
			cam.SetAspect(aspect)
		}
	}
}

func (s *scene) Add(obj game_object.GameObject) registry.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.objects.Insert(obj)
	if l := obj.Light(); l != nil {
		s.objectLights[h] = s.lights.Add(l)
	}
	return h
}

func (s *scene) Get(h registry.Handle) game_object.GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects.Get(h)
	if !ok {
		return nil
	}
	return obj
}

func (s *scene) Remove(h registry.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lh, ok := s.objectLights[h]; ok {
		s.lights.Remove(lh)
		delete(s.objectLights, h)
	}
	return s.objects.Remove(h)
}

func (s *scene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects.Len()
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.objects.Handles() {
		s.objects.Remove(h)
	}
	for _, h := range s.lights.ActiveHandles() {
		s.lights.Remove(h)
	}
	for _, h := range s.cameras.ActiveHandles() {
		s.cameras.Remove(h)
	}
	s.objectLights = make(map[registry.Handle]light.Handle)
	s.prevCameras = nil
	s.snapshotOnce = false
}

func (s *scene) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Attached lights follow their owning object before slot assignment
	// and frustum extraction see them.
	for objHandle, lightHandle := range s.objectLights {
		obj, ok := s.objects.Get(objHandle)
		if !ok {
			continue
		}
		if l := s.lights.Get(lightHandle); l != nil {
			x, y, z := obj.Position()
			l.SetPosition(x, y, z)
		}
	}

	camHandles := s.cameras.ActiveHandles()
	camTopo := make([]cameraTopology, 0, len(camHandles))
	camStates := make([]cull.CameraState, 0, len(camHandles))
	camInfos := make([]framegraph.CameraInfo, 0, len(camHandles))
	camUniforms := make([][]byte, 0, len(camHandles))
	focus := [3]float32{}
	for i, h := range camHandles {
		cam := s.cameras.Get(h)
		if cam == nil {
			continue
		}
		cam.Update()
		if i == 0 {
			focus = cam.Target()
		}
		occlusion := cam.OcclusionCullingEnabled()
		camTopo = append(camTopo, cameraTopology{handle: h, occlusion: occlusion})
		camStates = append(camStates, cull.CameraState{
			View:             cam.ViewMatrix(),
			Proj:             cam.ProjectionMatrix(),
			ViewProj:         cam.ViewProjectionMatrix(),
			Frustum:          cam.Frustum(),
			Width:            s.viewportWidth,
			Height:           s.viewportHeight,
			NearPlane:        cam.Near(),
			FarPlane:         cam.Far(),
			OcclusionCulling: occlusion,
		})
		camInfos = append(camInfos, framegraph.CameraInfo{OcclusionCulling: occlusion})
		uniform := camera.GPUCameraUniform{
			ViewProj:       cam.ViewProjectionMatrix(),
			View:           cam.ViewMatrix(),
			CameraPosition: cam.Position(),
			NearPlane:      cam.Near(),
			FarPlane:       cam.Far(),
		}
		camUniforms = append(camUniforms, uniform.Marshal())
	}

	slotCount, slotsChanged := s.scheduler.Assign(s.lights)
	slots := s.scheduler.Slots()
	lightStates := make([]cull.LightState, 0, slotCount)
	lightInfos := make([]framegraph.LightInfo, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		slot := slots[i]
		if !slot.Active {
			continue
		}
		l := s.lights.Get(slot.Light)
		if l == nil {
			continue
		}
		state := cull.LightState{}
		if frustum, ok := light.ShadowFrustum(l, focus); ok {
			state.Frustum = frustum
		} else {
			state.Sphere = true
			state.SphereCenter = l.Position()
			state.SphereRadius = l.Range()
		}
		lightStates = append(lightStates, state)
		lightInfos = append(lightInfos, framegraph.LightInfo{Type: slot.Kind})
	}

	lightHandles := s.lights.ActiveHandles()
	if len(lightHandles) > light.MaxGPULights {
		lightHandles = lightHandles[:light.MaxGPULights]
	}
	lightData := make([]byte, 0, len(lightHandles)*64)
	for _, h := range lightHandles {
		l := s.lights.Get(h)
		if l == nil || !l.Enabled() {
			continue
		}
		gpu := light.FromLight(l)
		lightData = append(lightData, gpu.Marshal()...)
	}

	nodes := make([]cull.Node, 0, s.objects.Len())
	for _, h := range s.objects.Handles() {
		obj, ok := s.objects.Get(h)
		if !ok {
			continue
		}
		node, ok := obj.CullNode(uint32(len(nodes)))
		if !ok {
			continue
		}
		nodes = append(nodes, node)
	}

	changed := slotsChanged || !s.snapshotOnce || !camerasEqual(s.prevCameras, camTopo)
	s.prevCameras = camTopo
	s.snapshotOnce = true

	return &Snapshot{
		Context: &framegraph.CompileContext{
			Cameras:        camInfos,
			Lights:         lightInfos,
			FramesInFlight: s.framesInFlight,
		},
		Cameras:        camStates,
		Lights:         lightStates,
		Nodes:          nodes,
		SlotCount:      slotCount,
		Changed:        changed,
		CameraUniforms: camUniforms,
		LightData:      lightData,
	}
}

func camerasEqual(a, b []cameraTopology) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
