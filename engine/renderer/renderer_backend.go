package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/wisp/common"
)

// BackendType identifies the GPU backend implementation used by the Renderer.
type BackendType int

const (
	// BackendInstanced selects the baseline backend: per-group instance data
	// lives in a vertex buffer advanced per instance. Works within the
	// WebGPU default device limits.
	BackendInstanced BackendType = iota

	// BackendPulled selects the vertex-pulling backend: per-group instance
	// data lives in a read-only storage buffer indexed by instance index in
	// the vertex stage. Requires storage buffer access from the vertex stage,
	// which not every adapter grants. Produces pixel-equivalent output to
	// BackendInstanced for identical scenes.
	BackendPulled
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RenderBehavior controls when the renderer redraws.
type RenderBehavior int

const (
	// RenderEveryFrame redraws unconditionally every loop iteration.
	RenderEveryFrame RenderBehavior = iota

	// RenderConservative would redraw only when the scene changes. Not
	// implemented; selecting it fails with ErrUnsupportedBehavior.
	RenderConservative
)

// Backend lifecycle and usage-order errors.
var (
	// ErrNotReady is returned when an operation requires FinalizeSetup to
	// have completed first.
	ErrNotReady = errors.New("renderer: setup not finalized")

	// ErrUnknownGroup is returned when a GroupHandle does not reference a
	// registered sprite group.
	ErrUnknownGroup = errors.New("renderer: unknown sprite group handle")

	// ErrNoFrame is returned when a draw is issued outside a
	// StartDrawing/FinishDrawing bracket.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrFrameInProgress is returned when StartDrawing is called while the
	// previous frame has not been finished.
	ErrFrameInProgress = errors.New("renderer: frame already in progress")

	// ErrClosed is returned for operations on a closed backend.
	ErrClosed = errors.New("renderer: backend closed")

	// ErrUnsupportedBehavior is returned when an unimplemented
	// RenderBehavior is selected.
	ErrUnsupportedBehavior = errors.New("renderer: unsupported render behavior")
)

// SpriteBackend is the contract both backend variants implement. The backend
// owns all GPU state: the device, the image atlas, per-group instance
// buffers, and the frame lifecycle.
//
// The lifecycle is strict: images load before FinalizeSetup; sprite groups
// register after FinalizeSetup; draws happen only between StartDrawing and
// FinishDrawing. Violations fail with the sentinel errors above rather than
// leaving the GPU in an undefined state.
type SpriteBackend interface {
	// Name returns a short identifier for the backend variant.
	//
	// Returns:
	//   - string: the variant name
	Name() string

	// SetClearColor sets the color the frame is cleared to at StartDrawing.
	// Components are expected in [0, 1].
	//
	// Parameters:
	//   - r, g, b, a: the clear color components
	SetClearColor(r, g, b, a float32)

	// LoadImage registers an image file for inclusion in the atlas. Only the
	// header is read here; pixels are decoded during FinalizeSetup.
	// Registering the same filename twice returns the same handle.
	//
	// Parameters:
	//   - filename: path to the image file
	//
	// Returns:
	//   - common.ImageHandle: the image's handle (its atlas layer)
	//   - error: a decode error, or ErrClosed / registry errors
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

	// FinalizeSetup decodes all registered images, uploads the atlas texture
	// and builds the render pipeline. The image set is frozen afterward.
	// Calling it again is a no-op.
	//
	// Returns:
	//   - error: a decode or GPU resource creation error
	FinalizeSetup() error

	// StartDrawing acquires the next surface texture and begins a render
	// pass cleared to the clear color.
	//
	// Returns:
	//   - error: ErrNotReady before FinalizeSetup, ErrFrameInProgress if the
	//     previous frame is still open, or a surface error
	StartDrawing() error

	// FinishDrawing ends the render pass, submits the command buffer and
	// presents the frame.
	//
	// Returns:
	//   - error: ErrNoFrame if no frame is in progress
	FinishDrawing() error

	// RegisterSpriteGroup uploads one GPU instance buffer for the given
	// sprite data and returns a handle for drawing it.
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

	// DrawSpriteGroup encodes one instanced draw call for a registered group
	// within the current frame.
	//
	// Parameters:
	//   - handle: the handle returned by RegisterSpriteGroup
	//
	// Returns:
	//   - error: ErrUnknownGroup or ErrNoFrame
	DrawSpriteGroup(handle common.GroupHandle) error

	// Close releases all GPU resources held by the backend.
	//
	// Returns:
	//   - error: an error if release fails
	Close() error
}
