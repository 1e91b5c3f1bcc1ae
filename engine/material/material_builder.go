package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithTransparent is an option builder that marks the material as alpha-blended.
// Transparent draws route into the transparent bucket.
//
// Parameters:
//   - transparent: true to enable alpha blending
//
// Returns:
//   - MaterialBuilderOption: a function that applies the transparency option to a material
func WithTransparent(transparent bool) MaterialBuilderOption {
	return func(m *material) {
		m.transparent = transparent
	}
}

// WithWireframe is an option builder that marks the material as wireframe.
//
// Parameters:
//   - wireframe: true to render as wireframe
//
// Returns:
//   - MaterialBuilderOption: a function that applies the wireframe option to a material
func WithWireframe(wireframe bool) MaterialBuilderOption {
	return func(m *material) {
		m.wireframe = wireframe
	}
}

// WithRandomColor is an option builder that routes draws into the
// random-color debug bucket.
//
// Parameters:
//   - randomColor: true to use the random-color debug mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the random-color option to a material
func WithRandomColor(randomColor bool) MaterialBuilderOption {
	return func(m *material) {
		m.randomColor = randomColor
	}
}

// WithLineStrip is an option builder that marks the material as line-strip geometry.
//
// Parameters:
//   - lineStrip: true to render as a line strip
//
// Returns:
//   - MaterialBuilderOption: a function that applies the line-strip option to a material
func WithLineStrip(lineStrip bool) MaterialBuilderOption {
	return func(m *material) {
		m.lineStrip = lineStrip
	}
}

// WithSprite is an option builder that marks the material as a screen-facing sprite.
//
// Parameters:
//   - sprite: true to render as a sprite
//
// Returns:
//   - MaterialBuilderOption: a function that applies the sprite option to a material
func WithSprite(sprite bool) MaterialBuilderOption {
	return func(m *material) {
		m.sprite = sprite
	}
}
