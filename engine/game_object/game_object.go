package game_object

import (
	"sync/atomic"

	"github.com/hucancode/mjolnir-sub007/engine/cull"
	"github.com/hucancode/mjolnir-sub007/engine/light"
	"github.com/hucancode/mjolnir-sub007/engine/model"
)

type gameObject struct {
	id            uint64
	enabled       atomic.Bool
	mdl           model.Model
	attachedLight light.Light

	position [3]float32
	scale    [3]float32
	rotation [3]float32
}

// GameObject defines the interface for a scene entity: a transform, an
// optional mesh model, and an optional attached light. Objects with a model
// contribute one visibility node per frame; the scene derives the node from
// the model's bounding sphere and the object's transform.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// Position returns the object's world-space position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Rotation returns the object's rotation as Euler angles.
	//
	// Returns:
	//   - rx, ry, rz: rotation angles in radians
	Rotation() (rx, ry, rz float32)

	// Scale returns the object's scale factors.
	//
	// Returns:
	//   - sx, sy, sz: scale components
	Scale() (sx, sy, sz float32)

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetModel assigns a Model to this object.
	//
	// Parameters:
	//   - m: the Model to associate
	SetModel(m model.Model)

	// SetPosition sets the object's world-space position.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation sets the object's rotation as Euler angles.
	//
	// Parameters:
	//   - rx, ry, rz: rotation angles in radians
	SetRotation(rx, ry, rz float32)

	// SetScale sets the object's scale factors.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)

	// CullNode derives the visibility node for this object: the model's
	// bounding sphere carried to world space (center offset by position,
	// radius scaled by the largest scale axis) plus the model's index range
	// and the material's bucket. Returns false for disabled objects and
	// objects without a model.
	//
	// Parameters:
	//   - instanceID: the per-draw instance index to stamp into the node
	//
	// Returns:
	//   - cull.Node: the visibility node
	//   - bool: false if the object contributes no node
	CullNode(instanceID uint32) (cull.Node, bool)

	// Light returns the Light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a Light to this object. When the object is added to
	// a scene the light joins the scene's light registry, and the scene
	// syncs the light's position from the object's transform. Pass nil to
	// detach.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: [3]float32{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) Position() (x, y, z float32) {
	return g.position[0], g.position[1], g.position[2]
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	return g.rotation[0], g.rotation[1], g.rotation[2]
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	return g.scale[0], g.scale[1], g.scale[2]
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetModel(m model.Model) {
	g.mdl = m
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.position = [3]float32{x, y, z}
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.rotation = [3]float32{rx, ry, rz}
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.scale = [3]float32{sx, sy, sz}
}

func (g *gameObject) CullNode(instanceID uint32) (cull.Node, bool) {
	if !g.enabled.Load() || g.mdl == nil {
		return cull.Node{}, false
	}

	// The largest scale axis bounds the sphere under any rotation.
	maxScale := g.scale[0]
	if g.scale[1] > maxScale {
		maxScale = g.scale[1]
	}
	if g.scale[2] > maxScale {
		maxScale = g.scale[2]
	}

	center := g.mdl.BoundingCenter()
	node := cull.Node{
		Center: [3]float32{
			g.position[0] + center[0]*maxScale,
			g.position[1] + center[1]*maxScale,
			g.position[2] + center[2]*maxScale,
		},
		Radius:       g.mdl.BoundingRadius() * maxScale,
		IndexCount:   g.mdl.IndexCount(),
		FirstIndex:   g.mdl.FirstIndex(),
		VertexOffset: g.mdl.VertexOffset(),
		InstanceID:   instanceID,
	}
	if mat := g.mdl.Material(); mat != nil {
		node.Category = mat.Category()
	}
	return node, true
}

func (g *gameObject) Light() light.Light {
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.attachedLight = l
}
