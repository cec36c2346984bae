package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/wisp/common"
	"github.com/Carmen-Shannon/wisp/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend  SpriteBackend
	behavior RenderBehavior

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer is the host-facing rendering API. It delegates to a SpriteBackend
// selected at construction time and enforces the renderer-level policy
// choices (render behavior); the lifecycle rules themselves live in the
// backend.
//
// A Renderer satisfies the sprite package's Inscriber interface, so sprite
// groups inscribe directly against it.
type Renderer interface {
	// Name returns the active backend variant's identifier.
	//
	// Returns:
	//   - string: the variant name
	Name() string

	// Behavior returns the renderer's redraw policy.
	//
	// Returns:
	//   - RenderBehavior: the configured behavior
	Behavior() RenderBehavior

	// SetClearColor sets the color each frame is cleared to.
	//
	// Parameters:
	//   - r, g, b, a: the clear color components in [0, 1]
	SetClearColor(r, g, b, a float32)

	// LoadImage registers an image file for the sprite atlas. Must be called
	// before FinalizeSetup. Registering the same filename twice returns the
	// same handle.
	//
	// Parameters:
	//   - filename: path to the image file
	//
	// Returns:
	//   - common.ImageHandle: the image's handle (its atlas layer)
	//   - error: a decode or lifecycle error
	LoadImage(filename string) (common.ImageHandle, error)

	// ImageSize reports the pixel dimensions of a registered image.
	//
	// Parameters:
	//   - h: the image handle
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	//   - error: an error if h is not registered
	ImageSize(h common.ImageHandle) (uint32, uint32, error)

	// FinalizeSetup uploads the atlas and builds the pipeline. The image set
	// is frozen afterward; calling it again is a no-op.
	//
	// Returns:
	//   - error: a decode or GPU resource creation error
	FinalizeSetup() error

	// StartDrawing begins a frame cleared to the clear color.
	//
	// Returns:
	//   - error: a lifecycle or surface error
	StartDrawing() error

	// FinishDrawing submits and presents the current frame.
	//
	// Returns:
	//   - error: ErrNoFrame if no frame is in progress
	FinishDrawing() error

	// RegisterSpriteGroup uploads a GPU instance buffer for the given sprite
	// data. Satisfies sprite.Inscriber.
	//
	// Parameters:
	//   - objectTypes: one image handle per sprite
	//   - transforms: 4 floats (x, y, scale, rotation) per sprite
	//   - size: the number of sprites
	//
	// Returns:
	//   - common.GroupHandle: the handle referencing the GPU resources
	//   - error: ErrNotReady before FinalizeSetup, or an upload error
	RegisterSpriteGroup(objectTypes []uint32, transforms []float32, size int) (common.GroupHandle, error)

	// DrawSpriteGroup encodes one instanced draw call for a registered group.
	// Satisfies sprite.Inscriber.
	//
	// Parameters:
	//   - handle: the handle returned by RegisterSpriteGroup
	//
	// Returns:
	//   - error: ErrUnknownGroup or ErrNoFrame
	DrawSpriteGroup(handle common.GroupHandle) error

	// Close releases all GPU resources held by the renderer.
	//
	// Returns:
	//   - error: an error if release fails
	Close() error
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer over the requested backend variant, bound to
// the given window's surface. The window's size fixes the surface size.
//
// Parameters:
//   - backendType: the backend variant to use (BackendInstanced or BackendPulled)
//   - win: the window providing the surface (ignored when WithBackend injects one)
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: ErrUnsupportedBehavior, or a GPU context creation error
func NewRenderer(backendType BackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		behavior: RenderEveryFrame,
	}
	for _, opt := range options {
		opt(r)
	}

	if r.behavior != RenderEveryFrame {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBehavior, r.behavior)
	}

	if r.backend == nil {
		presentMode := wgpu.PresentModeImmediate
		if r.pendingPresentMode != nil && *r.pendingPresentMode == PresentModeVSync {
			presentMode = wgpu.PresentModeFifo
		}

		var variant backendVariant
		switch backendType {
		case BackendPulled:
			variant = &pulledVariant{}
		case BackendInstanced:
			fallthrough
		default:
			variant = instancedVariant{}
		}

		backend, err := newWGPUSpriteBackend(win, variant, r.forceFallbackAdapter, presentMode)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	}

	return r, nil
}

func (r *renderer) Name() string {
	return r.backend.Name()
}

func (r *renderer) Behavior() RenderBehavior {
	return r.behavior
}

func (r *renderer) SetClearColor(red, green, blue, alpha float32) {
	r.backend.SetClearColor(red, green, blue, alpha)
}

func (r *renderer) LoadImage(filename string) (common.ImageHandle, error) {
	return r.backend.LoadImage(filename)
}

func (r *renderer) ImageSize(h common.ImageHandle) (uint32, uint32, error) {
	return r.backend.ImageSize(h)
}

func (r *renderer) FinalizeSetup() error {
	return r.backend.FinalizeSetup()
}

func (r *renderer) StartDrawing() error {
	return r.backend.StartDrawing()
}

func (r *renderer) FinishDrawing() error {
	return r.backend.FinishDrawing()
}

func (r *renderer) RegisterSpriteGroup(objectTypes []uint32, transforms []float32, size int) (common.GroupHandle, error) {
	return r.backend.RegisterSpriteGroup(objectTypes, transforms, size)
}

func (r *renderer) DrawSpriteGroup(handle common.GroupHandle) error {
	return r.backend.DrawSpriteGroup(handle)
}

func (r *renderer) Close() error {
	return r.backend.Close()
}
