package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucancode/mjolnir-sub007/engine/camera"
	"github.com/hucancode/mjolnir-sub007/engine/game_object"
	"github.com/hucancode/mjolnir-sub007/engine/light"
	"github.com/hucancode/mjolnir-sub007/engine/material"
	"github.com/hucancode/mjolnir-sub007/engine/model"
)

func testCamera(occlusion bool) camera.Camera {
	return camera.NewCamera(
		camera.WithPosition(0, 0, 10),
		camera.WithTarget(0, 0, 0),
		camera.WithPerspective(1.0472, 16.0/9.0, 0.1, 100),
		camera.WithOcclusionCulling(occlusion),
	)
}

func testObject(x, y, z float32) game_object.GameObject {
	mdl := model.NewModel(
		model.WithBoundingSphere([3]float32{0, 0, 0}, 1),
		model.WithMeshRange(0, 36, 0),
		model.WithMaterial(material.NewMaterial()),
	)
	return game_object.NewGameObject(
		game_object.WithModel(mdl),
		game_object.WithPosition(x, y, z),
	)
}

func TestSnapshotTopologyChangeDetection(t *testing.T) {
	s := NewScene(WithActive(true))
	s.Cameras().Add(testCamera(true))

	snap := s.Snapshot()
	assert.True(t, snap.Changed, "first snapshot always reports a change")
	require.Len(t, snap.Context.Cameras, 1)
	assert.True(t, snap.Context.Cameras[0].OcclusionCulling)

	snap = s.Snapshot()
	assert.False(t, snap.Changed, "unchanged topology must not trigger recompile")

	h := s.Cameras().Add(testCamera(false))
	snap = s.Snapshot()
	assert.True(t, snap.Changed, "adding a camera changes topology")
	require.Len(t, snap.Context.Cameras, 2)
	assert.False(t, snap.Context.Cameras[1].OcclusionCulling)

	s.Cameras().Remove(h)
	snap = s.Snapshot()
	assert.True(t, snap.Changed, "removing a camera changes topology")
	assert.Len(t, snap.Context.Cameras, 1)
}

func TestSnapshotOcclusionToggleChangesTopology(t *testing.T) {
	s := NewScene()
	h := s.Cameras().Add(testCamera(false))
	s.Snapshot()

	s.Cameras().Get(h).SetOcclusionCullingEnabled(true)
	snap := s.Snapshot()
	assert.True(t, snap.Changed)
	assert.True(t, snap.Context.Cameras[0].OcclusionCulling)
}

func TestSnapshotShadowSlots(t *testing.T) {
	s := NewScene()
	s.Cameras().Add(testCamera(false))
	s.Lights().Add(light.NewLight(light.LightTypeSpot,
		light.WithCastsShadows(true), light.WithRange(30)))
	s.Lights().Add(light.NewLight(light.LightTypePoint,
		light.WithCastsShadows(true), light.WithPosition(2, 0, 0), light.WithRange(15)))
	s.Lights().Add(light.NewLight(light.LightTypePoint)) // no shadows, no slot

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.SlotCount)
	require.Len(t, snap.Context.Lights, 2)
	assert.Equal(t, light.LightTypeSpot, snap.Context.Lights[0].Type)
	assert.Equal(t, light.LightTypePoint, snap.Context.Lights[1].Type)

	require.Len(t, snap.Lights, 2)
	assert.False(t, snap.Lights[0].Sphere, "spot lights cull by frustum")
	assert.True(t, snap.Lights[1].Sphere, "point lights cull by range sphere")
	assert.Equal(t, [3]float32{2, 0, 0}, snap.Lights[1].SphereCenter)
	assert.Equal(t, float32(15), snap.Lights[1].SphereRadius)

	snap = s.Snapshot()
	assert.False(t, snap.Changed, "stable slot assignment is not a topology change")
}

func TestSnapshotGPUBuffers(t *testing.T) {
	s := NewScene()
	s.Cameras().Add(testCamera(true))
	s.Cameras().Add(testCamera(false))
	s.Lights().Add(light.NewLight(light.LightTypePoint, light.WithRange(10)))
	s.Lights().Add(light.NewLight(light.LightTypeSpot,
		light.WithCastsShadows(true), light.WithRange(40)))

	snap := s.Snapshot()
	require.Len(t, snap.CameraUniforms, 2)
	assert.Len(t, snap.CameraUniforms[0], 160, "one std430 camera uniform per camera")
	assert.Len(t, snap.LightData, 2*64, "64 bytes per active light")
}

func TestSnapshotNodesDenseInstanceIDs(t *testing.T) {
	s := NewScene()
	s.Add(testObject(1, 0, 0))
	disabled := s.Add(testObject(2, 0, 0))
	s.Add(testObject(3, 0, 0))
	s.Get(disabled).SetEnabled(false)

	snap := s.Snapshot()
	require.Len(t, snap.Nodes, 2, "disabled objects produce no node")
	assert.Equal(t, uint32(0), snap.Nodes[0].InstanceID)
	assert.Equal(t, uint32(1), snap.Nodes[1].InstanceID)
	assert.Equal(t, float32(1), snap.Nodes[0].Center[0])
	assert.Equal(t, float32(3), snap.Nodes[1].Center[0])
}

func TestAttachedLightFollowsObject(t *testing.T) {
	s := NewScene()
	s.Cameras().Add(testCamera(false))

	l := light.NewLight(light.LightTypePoint,
		light.WithCastsShadows(true), light.WithRange(10))
	obj := game_object.NewGameObject(
		game_object.WithPosition(5, 1, -2),
		game_object.WithLight(l),
	)
	h := s.Add(obj)
	assert.Equal(t, 1, s.Lights().Len())

	snap := s.Snapshot()
	require.Len(t, snap.Lights, 1)
	assert.Equal(t, [3]float32{5, 1, -2}, snap.Lights[0].SphereCenter)

	obj.SetPosition(6, 1, -2)
	snap = s.Snapshot()
	assert.Equal(t, [3]float32{6, 1, -2}, snap.Lights[0].SphereCenter)

	s.Remove(h)
	assert.Equal(t, 0, s.Lights().Len(), "attached light removed with its owner")
	snap = s.Snapshot()
	assert.True(t, snap.Changed, "losing a shadow slot changes topology")
	assert.Empty(t, snap.Lights)
}

func TestSetViewportUpdatesCameraAspect(t *testing.T) {
	s := NewScene()
	h := s.Cameras().Add(testCamera(false))

	s.SetViewport(1920, 1080)
	assert.InDelta(t, 1920.0/1080.0, s.Cameras().Get(h).Aspect(), 1e-6)

	snap := s.Snapshot()
	require.Len(t, snap.Cameras, 1)
	assert.Equal(t, uint32(1920), snap.Cameras[0].Width)
	assert.Equal(t, uint32(1080), snap.Cameras[0].Height)

	s.SetViewport(0, 1080)
	assert.Equal(t, uint32(1920), snap.Cameras[0].Width, "zero sizes are ignored")
}

func TestClearResetsTopology(t *testing.T) {
	s := NewScene(WithObjects(testObject(0, 0, 0)), WithCameras(testCamera(false)))
	require.Equal(t, 1, s.Count())

	s.Clear()
	assert.Equal(t, 0, s.Count())
	snap := s.Snapshot()
	assert.True(t, snap.Changed, "first snapshot after Clear reports a change")
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Context.Cameras)
}
