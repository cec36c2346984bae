package engine

import (
	"time"

	"github.com/Carmen-Shannon/wisp/common"
	"github.com/Carmen-Shannon/wisp/engine/profiler"
	"github.com/Carmen-Shannon/wisp/engine/renderer"
	"github.com/Carmen-Shannon/wisp/engine/window"
)

// engine implements the Engine interface.
// Owns the window and renderer and drives the single-threaded main loop.
type engine struct {
	window   window.Window
	renderer renderer.Renderer

	updateCallback func(deltaTime float32)
	drawCallback   func()

	running bool

	profiler         *profiler.Profiler
	profilingEnabled bool

	// Pre-creation config collected from builder options
	backendType     renderer.BackendType
	windowOptions   []window.WindowBuilderOption
	rendererOptions []renderer.RendererBuilderOption
}

// Engine is the main entry point: it owns the window and renderer and drives
// the main loop. Everything runs on the calling goroutine; the update and
// draw callbacks, the frame brackets and event polling all happen in
// sequence, once per loop iteration. There is no parallel rendering.
//
// Typical host flow: NewEngine, LoadImage for every sprite image,
// FinalizeSetup, build and inscribe sprite groups against Renderer(), set
// callbacks, Run.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the underlying renderer. Sprite groups inscribe
	// against it.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// LoadImage registers an image file for the sprite atlas. Must be called
	// before FinalizeSetup.
	//
	// Parameters:
	//   - filename: path to the image file
	//
	// Returns:
	//   - common.ImageHandle: the image's handle
	//   - error: a decode or lifecycle error
	LoadImage(filename string) (common.ImageHandle, error)

	// SetClearColor sets the color each frame is cleared to. Components are
	// clamped to [0, 1].
	//
	// Parameters:
	//   - r, g, b, a: the clear color components
	SetClearColor(r, g, b, a float32)

	// SetTitle updates the window title.
	//
	// Parameters:
	//   - title: the new title text
	SetTitle(title string)

	// KeyPressed reports whether the given key is currently held down.
	//
	// Parameters:
	//   - keyCode: the virtual key code (see common key constants)
	//
	// Returns:
	//   - bool: true while the key is held
	KeyPressed(keyCode uint32) bool

	// FinalizeSetup uploads the atlas and builds the render pipeline. The
	// image set is frozen afterward; calling it again is a no-op.
	//
	// Returns:
	//   - error: a decode or GPU resource creation error
	FinalizeSetup() error

	// EnableProfiler enables per-interval frame and memory stats on the
	// shared logger.
	EnableProfiler()

	// DisableProfiler disables frame and memory stats output.
	DisableProfiler()

	// SetUpdateCallback registers the function called once per loop
	// iteration before the frame is drawn. Use it for game logic and input.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds (or nil to disable)
	SetUpdateCallback(callback func(deltaTime float32))

	// SetDrawCallback registers the function called between StartDrawing and
	// FinishDrawing each frame. Issue sprite group draws here.
	//
	// Parameters:
	//   - callback: function to call inside the frame (or nil to disable)
	SetDrawCallback(callback func())

	// Run drives the main loop until the window is closed or Quit is called:
	// poll events, check for close, update callback, start frame, draw
	// callback, finish frame. Blocks the calling goroutine.
	//
	// Returns:
	//   - error: the first frame error encountered, or nil on a clean close
	Run() error

	// Quit requests the loop stop at the next iteration boundary. Safe to
	// call from the update or draw callback.
	Quit()

	// Close releases the renderer's GPU resources and the window.
	//
	// Returns:
	//   - error: an error if release fails
	Close() error
}

var _ Engine = &engine{}

// NewEngine creates an Engine with the provided options, building a window
// and renderer unless pre-built ones are injected.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: a window or GPU context creation error
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		backendType: renderer.BackendInstanced,
		profiler:    profiler.NewProfiler(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		e.window = window.NewWindow(e.windowOptions...)
	}

	if e.renderer == nil {
		r, err := renderer.NewRenderer(e.backendType, e.window, e.rendererOptions...)
		if err != nil {
			return nil, err
		}
		e.renderer = r
	}

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) LoadImage(filename string) (common.ImageHandle, error) {
	return e.renderer.LoadImage(filename)
}

func (e *engine) SetClearColor(r, g, b, a float32) {
	e.renderer.SetClearColor(common.Clamp01(r), common.Clamp01(g), common.Clamp01(b), common.Clamp01(a))
}

func (e *engine) SetTitle(title string) {
	e.window.SetTitle(title)
}

func (e *engine) KeyPressed(keyCode uint32) bool {
	return e.window.KeyPressed(keyCode)
}

func (e *engine) FinalizeSetup() error {
	return e.renderer.FinalizeSetup()
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetUpdateCallback(callback func(deltaTime float32)) {
	e.updateCallback = callback
}

func (e *engine) SetDrawCallback(callback func()) {
	e.drawCallback = callback
}

func (e *engine) Run() error {
	e.running = true
	lastFrame := time.Now()

	for e.running {
		e.window.PollEvents()
		if e.window.ShouldClose() {
			break
		}

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now

		if e.updateCallback != nil {
			e.updateCallback(dt)
		}
		// Quit from the update callback stops before another frame is drawn.
		if !e.running {
			break
		}

		if err := e.renderer.StartDrawing(); err != nil {
			e.running = false
			return err
		}
		if e.drawCallback != nil {
			e.drawCallback()
		}
		if err := e.renderer.FinishDrawing(); err != nil {
			e.running = false
			return err
		}

		if e.profilingEnabled {
			e.profiler.Tick()
		}
	}

	e.running = false
	return nil
}

func (e *engine) Quit() {
	e.running = false
	e.window.RequestClose()
}

func (e *engine) Close() error {
	if err := e.renderer.Close(); err != nil {
		return err
	}
	return e.window.Close()
}
