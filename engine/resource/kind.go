package resource

import (
	vk "github.com/goki/vulkan"
)

// Kind is the typed identity of a GPU resource class. Together with a frame
// slot and a scope index it fully identifies one physical resource; no
// string-formatted resource names exist anywhere in the scheduling layer.
type Kind int

const (
	// KindDepthBuffer is a camera's depth attachment for one frame slot.
	KindDepthBuffer Kind = iota
	// KindDepthPyramid is a camera's hierarchical max-depth mip chain built
	// from the previous frame's depth buffer.
	KindDepthPyramid
	// KindDrawCommands is a camera's indirect draw command buffer, holding
	// all material category buckets for one frame slot.
	KindDrawCommands
	// KindDrawCounts is a camera's per-bucket draw count buffer, written by
	// the cull dispatch's atomic counters.
	KindDrawCounts
	// KindNodeData is the global scene node buffer: bounding spheres,
	// material flags, and draw parameters for every node.
	KindNodeData
	// KindCameraUniform is a camera's per-frame uniform buffer.
	KindCameraUniform
	// KindLightData is the global light storage buffer for one frame slot.
	KindLightData
	// KindShadowMap2D is a 2D shadow map slot (spot and directional lights).
	KindShadowMap2D
	// KindShadowMapCube is a cube shadow map slot (point lights).
	KindShadowMapCube
	// KindShadowDrawCommands is a shadow slot's indirect draw command
	// buffer, populated by the per-light culling dispatch.
	KindShadowDrawCommands
	// KindShadowDrawCounts is a shadow slot's draw count buffer.
	KindShadowDrawCounts
	// KindColorTarget is a camera's color attachment for one frame slot.
	KindColorTarget

	kindCount
)

// Class distinguishes buffer-backed from image-backed resource kinds, which
// determines the barrier form (access-mask pair vs layout transition).
type Class int

const (
	// ClassBuffer marks kinds backed by vk.Buffer.
	ClassBuffer Class = iota
	// ClassImage marks kinds backed by vk.Image.
	ClassImage
)

// kindInfo is the static classification table for each Kind.
type kindInfo struct {
	name         string
	class        Class
	aspect       vk.ImageAspectFlagBits
	indirect     bool // buffer consumed by indirect draw commands
	attachLayout vk.ImageLayout
	sampleLayout vk.ImageLayout
}

var kinds = [kindCount]kindInfo{
	KindDepthBuffer: {
		name:         "depth_buffer",
		class:        ClassImage,
		aspect:       vk.ImageAspectDepthBit,
		attachLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		sampleLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	},
	KindDepthPyramid: {
		name:   "depth_pyramid",
		class:  ClassImage,
		aspect: vk.ImageAspectColorBit,
		// The pyramid is written per-mip by compute and sampled by the cull
		// dispatch in the same submission; it lives in the general layout
		// for its whole lifetime.
		attachLayout: vk.ImageLayoutGeneral,
		sampleLayout: vk.ImageLayoutGeneral,
	},
	KindDrawCommands: {
		name:     "draw_commands",
		class:    ClassBuffer,
		indirect: true,
	},
	KindDrawCounts: {
		name:     "draw_counts",
		class:    ClassBuffer,
		indirect: true,
	},
	KindNodeData: {
		name:  "node_data",
		class: ClassBuffer,
	},
	KindCameraUniform: {
		name:  "camera_uniform",
		class: ClassBuffer,
	},
	KindLightData: {
		name:  "light_data",
		class: ClassBuffer,
	},
	KindShadowMap2D: {
		name:         "shadow_map_2d",
		class:        ClassImage,
		aspect:       vk.ImageAspectDepthBit,
		attachLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		sampleLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	},
	KindShadowMapCube: {
		name:         "shadow_map_cube",
		class:        ClassImage,
		aspect:       vk.ImageAspectDepthBit,
		attachLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		sampleLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	},
	KindShadowDrawCommands: {
		name:     "shadow_draw_commands",
		class:    ClassBuffer,
		indirect: true,
	},
	KindShadowDrawCounts: {
		name:     "shadow_draw_counts",
		class:    ClassBuffer,
		indirect: true,
	},
	KindColorTarget: {
		name:         "color_target",
		class:        ClassImage,
		aspect:       vk.ImageAspectColorBit,
		attachLayout: vk.ImageLayoutColorAttachmentOptimal,
		sampleLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	},
}

// String returns the kind's lower-case name for logs and errors.
//
// Returns:
//   - string: the kind name
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kinds[k].name
}

// Class returns whether the kind is buffer- or image-backed.
//
// Returns:
//   - Class: ClassBuffer or ClassImage
func (k Kind) Class() Class {
	return kinds[k].class
}

// Aspect returns the image aspect for image-backed kinds.
//
// Returns:
//   - vk.ImageAspectFlagBits: the aspect bit (depth or color)
func (k Kind) Aspect() vk.ImageAspectFlagBits {
	return kinds[k].aspect
}

// Indirect reports whether a buffer kind is consumed by indirect draw
// commands, which changes the read side of its barriers to the draw-indirect
// pipeline stage.
//
// Returns:
//   - bool: true for indirect-consumed buffer kinds
func (k Kind) Indirect() bool {
	return kinds[k].indirect
}

// AttachmentLayout returns the image layout the kind is written in.
//
// Returns:
//   - vk.ImageLayout: the write-side layout
func (k Kind) AttachmentLayout() vk.ImageLayout {
	return kinds[k].attachLayout
}

// SampleLayout returns the image layout the kind is read in.
//
// Returns:
//   - vk.ImageLayout: the read-side layout
func (k Kind) SampleLayout() vk.ImageLayout {
	return kinds[k].sampleLayout
}

// KindCount returns the number of resource kinds.
//
// Returns:
//   - int: the kind count
func KindCount() int {
	return int(kindCount)
}
