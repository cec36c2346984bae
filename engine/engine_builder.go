package engine

import (
	"github.com/Carmen-Shannon/wisp/engine/renderer"
	"github.com/Carmen-Shannon/wisp/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables frame and memory stats output.
//
// Parameters:
//   - enabled: if true, enables per-interval stats on the shared logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
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

// WithWindowOptions collects window builder options for the window the engine
// creates. Ignored when WithWindow injects a pre-built window.
//
// Parameters:
//   - options: window options to apply at window creation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithRenderer sets a custom configured renderer for the engine to use rather
// than allowing the engine to create one internally.
//
// Parameters:
//   - r: a pre-configured Renderer instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithBackendType selects the renderer backend variant the engine creates.
// The default is BackendInstanced. Ignored when WithRenderer injects a
// pre-built renderer.
//
// Parameters:
//   - t: the backend variant to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackendType(t renderer.BackendType) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = t
	}
}

// WithRendererOptions collects renderer builder options for the renderer the
// engine creates. Ignored when WithRenderer injects a pre-built renderer.
//
// Parameters:
//   - options: renderer options to apply at renderer creation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}
