package engine

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/hucancode/mjolnir-sub007/engine/cull"
	"github.com/hucancode/mjolnir-sub007/engine/device"
	"github.com/hucancode/mjolnir-sub007/engine/framegraph"
	"github.com/hucancode/mjolnir-sub007/engine/profiler"
	"github.com/hucancode/mjolnir-sub007/engine/resource"
	"github.com/hucancode/mjolnir-sub007/engine/scene"
	"github.com/hucancode/mjolnir-sub007/engine/window"
)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	gpu        device.Device // nil in headless runs
	resources  resource.Table
	templates  framegraph.Registry
	executor   framegraph.Executor
	cullEngine cull.Engine

	graphicsStream device.CommandStream
	computeStream  device.CommandStream

	// Compiled graphs keyed by scene z-index. A graph survives frames
	// until its scene's topology changes.
	graphs     map[int]*framegraph.Graph
	frameIndex uint32
}

// Engine is the main entry point for the engine.
// It orchestrates the frame loop: snapshot the active scenes, recompile
// the pass graph on topology changes, kick the visibility pipeline, and
// walk the compiled schedule into the command streams.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Resources returns the resource table that pass execution resolves
	// against. Callers register per-frame images and buffers here.
	//
	// Returns:
	//   - resource.Table: the resource table
	Resources() resource.Table

	// Culling returns the visibility engine, for reading back per-camera
	// and per-shadow-slot cull results.
	//
	// Returns:
	//   - cull.Engine: the visibility engine
	Culling() cull.Engine

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic, physics, and input processing.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame,
	// after the frame's graph has executed.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// RenderFrame runs one frame of the render lifecycle synchronously:
	// snapshot, compile on change, cull, execute. Useful for headless
	// runs and tests; Run calls this continuously.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	RenderFrame(deltaTime float32)

	// Run starts the main engine loop (blocks until window closes).
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Without a device option the engine records into in-memory command
// streams, which keeps the whole frame lifecycle runnable headless.
//
// Parameters:
//   - options: functional options for engine configuration (device, window, scenes, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		scenes:           make(map[int]scene.Scene),
		graphs:           make(map[int]*framegraph.Graph),
		running:          false,
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.resources == nil {
		e.resources = resource.NewTable()
	}
	if e.graphicsStream == nil {
		e.graphicsStream = device.NewRecordingCommandStream(device.QueueGraphics)
	}
	if e.computeStream == nil {
		e.computeStream = device.NewRecordingCommandStream(device.QueueCompute)
	}
	if e.cullEngine == nil {
		e.cullEngine = cull.NewEngine()
	}
	e.templates = framegraph.NewRegistry()
	e.cullEngine.RegisterTemplates(e.templates)
	e.executor = framegraph.NewExecutor(e.resources, e.graphicsStream, e.computeStream)

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			for _, s := range e.scenes {
				s.SetViewport(uint32(width), uint32(height))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Resources() resource.Table {
	return e.resources
}

func (e *engine) Culling() cull.Engine {
	return e.cullEngine
}

func (e *engine) Run() {
	e.handle()
	e.window.ProcessMessages()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.RenderFrame(dt)

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// RenderFrame executes one frame for every active scene in ascending
// z-index order, then advances the frame ring.
func (e *engine) RenderFrame(dt float32) {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, k := range keys {
		s := e.scenes[k]
		if !s.Active() {
			continue
		}
		e.renderScene(k, s)
	}

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	e.frameIndex++
}

// renderScene runs the frame lifecycle for one scene: snapshot the
// topology, recompile the graph if it changed, submit the CPU visibility
// work, and walk the schedule into the command streams. A compile failure
// keeps the previous graph so a bad topology degrades instead of
// blanking the frame.
func (e *engine) renderScene(key int, s scene.Scene) {
	snap := s.Snapshot()

	if snap.Changed || e.graphs[key] == nil {
		ctx := snap.Context
		if e.gpu != nil {
			ctx.GraphicsFamily = e.gpu.QueueFamily(device.QueueGraphics)
			ctx.ComputeFamily = e.gpu.QueueFamily(device.QueueCompute)
		}
		graph, err := framegraph.Compile(e.templates, ctx)
		if err != nil {
			log.Printf("scene %q: graph compile failed: %v; keeping previous schedule", s.Name(), err)
		} else {
			e.graphs[key] = graph
		}
	}

	e.cullEngine.SetNodes(snap.Nodes)
	e.cullEngine.BeginFrame(e.frameIndex, snap.Cameras, snap.Lights)

	if graph := e.graphs[key]; graph != nil {
		stats := e.executor.Execute(graph, e.frameIndex, nil)
		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Observe(stats)
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Send to channel for immediate update in running engine loop
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			// Channel has a pending update, drain and send new value
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		// Engine not running, just update the field
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	delete(e.scenes, key)
	delete(e.graphs, key)
}

func (e *engine) Scene(key int) scene.Scene {
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
