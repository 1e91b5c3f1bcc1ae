package material

import (
	"github.com/hucancode/mjolnir-sub007/engine/cull"
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	baseColor   [4]float32
	metallic    float32
	roughness   float32
	transparent bool
	wireframe   bool
	randomColor bool
	lineStrip   bool
	sprite      bool
}

// Material defines the interface for a render material. Surface properties
// (base color, metallic, roughness) feed the shading passes; the render-mode
// flags route every node using this material into exactly one visibility
// bucket via Category().
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Transparent reports whether this material requires alpha blending.
	//
	// Returns:
	//   - bool: true if the material is transparent
	Transparent() bool

	// Wireframe reports whether this material renders as wireframe.
	//
	// Returns:
	//   - bool: true if the material is wireframe
	Wireframe() bool

	// Category returns the visibility bucket this material routes draws
	// into. Exactly one bucket per material: sprite, line strip, wireframe,
	// and random-color modes take precedence over transparency, and opaque
	// is the default.
	//
	// Returns:
	//   - cull.Category: the draw bucket
	Category() cull.Category
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		metallic:  0.0,
		roughness: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) Wireframe() bool {
	return m.wireframe
}

func (m *material) Category() cull.Category {
	switch {
	case m.sprite:
		return cull.CategorySprite
	case m.lineStrip:
		return cull.CategoryLineStrip
	case m.wireframe:
		return cull.CategoryWireframe
	case m.randomColor:
		return cull.CategoryRandomColor
	case m.transparent:
		return cull.CategoryTransparent
	default:
		return cull.CategoryOpaque
	}
}
