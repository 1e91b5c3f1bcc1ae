package engine

import (
	"time"

	"github.com/hucancode/mjolnir-sub007/engine/cull"
	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
	"github.com/hucancode/mjolnir-sub007/engine/scene"
	"github.com/hucancode/mjolnir-sub007/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice binds a Vulkan device to the engine. Its queue family
// indices feed ownership-transfer derivation during graph compiles.
// Without a device the engine runs headless on recording streams.
//
// Parameters:
//   - d: the device from device.Setup
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(d device.Device) EngineBuilderOption {
	return func(e *engine) {
		e.gpu = d
	}
}

// WithCommandStreams sets the two per-queue command streams pass bodies
// record into. Defaults to in-memory recording streams.
//
// Parameters:
//   - graphics: the graphics queue's stream
//   - compute: the compute queue's stream
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCommandStreams(graphics, compute device.CommandStream) EngineBuilderOption {
	return func(e *engine) {
		e.graphicsStream = graphics
		e.computeStream = compute
	}
}

// WithCullEngine sets a pre-configured visibility engine, for callers
// that need custom capacity, worker count, or GPU pipelines.
//
// Parameters:
//   - c: the visibility engine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCullEngine(c cull.Engine) EngineBuilderOption {
	return func(e *engine) {
		e.cullEngine = c
	}
}

// WithResourceTable sets a pre-populated resource table. Defaults to an
// empty table; passes over unregistered resources are skipped, not
// failed, so registration may also happen after construction.
//
// Parameters:
//   - t: the resource table
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithResourceTable(t resource.Table) EngineBuilderOption {
	return func(e *engine) {
		e.resources = t
	}
}

// WithScene registers a scene at the given z-index key during engine construction.
// Scenes are rendered in ascending key order during the render loop.
//
// Parameters:
//   - key: the z-index determining render order (lower renders first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
