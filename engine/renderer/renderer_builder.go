package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackend injects a pre-built SpriteBackend, skipping GPU context
// creation entirely. The backendType and window arguments to NewRenderer are
// ignored. Intended for tests that substitute a recording fake.
//
// Parameters:
//   - backend: the backend to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend SpriteBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
	}
}

// WithRenderBehavior sets the renderer's redraw policy. Only RenderEveryFrame
// is implemented; NewRenderer fails with ErrUnsupportedBehavior for anything
// else.
//
// Parameters:
//   - behavior: the RenderBehavior to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the behavior option to a renderer
func WithRenderBehavior(behavior RenderBehavior) RendererBuilderOption {
	return func(r *renderer) {
		r.behavior = behavior
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for running on machines without a GPU.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
