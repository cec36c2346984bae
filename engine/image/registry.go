package image

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/wisp/common"
)

// Registry errors.
var (
	// ErrFrozen is returned when Register is called after the registry has been
	// frozen by the atlas upload. Images can only be registered during the
	// setup phase.
	ErrFrozen = errors.New("image: registry is frozen, register images before finalizing setup")

	// ErrUnknownHandle is returned when a handle does not reference a
	// registered image.
	ErrUnknownHandle = errors.New("image: unknown image handle")
)

// record stores one registered image: its filename and header dimensions.
// Pixels are not held here; they are decoded again at atlas-upload time.
type record struct {
	filename string
	width    uint32
	height   uint32
}

// registry is the implementation of the Registry interface.
type registry struct {
	decoder Decoder

	handles map[string]common.ImageHandle
	records []record

	maxWidth  uint32
	maxHeight uint32

	frozen bool
}

// Registry is a deduplicating store of images to be packed into the atlas.
// Registering the same filename twice returns the same handle. The registry
// tracks the maximum width and height seen across all records, which determine
// the atlas slice dimensions. It is populated during the setup phase only and
// frozen once the atlas has been uploaded.
type Registry interface {
	// Register registers an image file and returns its handle. Registering a
	// filename that was seen before returns the existing handle without
	// touching the registry. New files are probed for their dimensions via the
	// decoder; a probe failure is fatal to setup.
	//
	// Parameters:
	//   - filename: full filepath to the image
	//
	// Returns:
	//   - common.ImageHandle: the stable handle for this image
	//   - error: ErrFrozen after the atlas upload, or a wrapped ErrDecode
	Register(filename string) (common.ImageHandle, error)

	// Size reports the stored dimensions of a registered image.
	//
	// Parameters:
	//   - h: the image handle
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	//   - error: ErrUnknownHandle if h is not registered
	Size(h common.ImageHandle) (uint32, uint32, error)

	// MaxSize reports the running per-axis maxima across all records. These are
	// the atlas slice dimensions.
	//
	// Returns:
	//   - uint32: maximum width in pixels
	//   - uint32: maximum height in pixels
	MaxSize() (uint32, uint32)

	// Count returns the number of distinct registered images.
	//
	// Returns:
	//   - int: the record count
	Count() int

	// Filename returns the file path registered under a handle.
	//
	// Parameters:
	//   - h: the image handle
	//
	// Returns:
	//   - string: the filename
	//   - error: ErrUnknownHandle if h is not registered
	Filename(h common.ImageHandle) (string, error)

	// Freeze marks the registry read-only. Called by the backend once the atlas
	// has been uploaded; subsequent Register calls fail with ErrFrozen.
	Freeze()

	// Frozen reports whether Freeze has been called.
	//
	// Returns:
	//   - bool: true once the registry is frozen
	Frozen() bool

	// Decoder returns the decoder this registry probes images with, so the
	// atlas upload can reuse it for the full pixel decode.
	//
	// Returns:
	//   - Decoder: the registry's decoder
	Decoder() Decoder
}

var _ Registry = &registry{}

// RegistryOption is a functional option applied to a registry during
// construction via NewRegistry.
type RegistryOption func(*registry)

// WithDecoder replaces the default standard-library decoder.
//
// Parameters:
//   - d: the decoder to use
//
// Returns:
//   - RegistryOption: option function to apply
func WithDecoder(d Decoder) RegistryOption {
	return func(r *registry) {
		r.decoder = d
	}
}

// NewRegistry creates an empty image registry.
//
// Parameters:
//   - options: functional options for registry configuration
//
// Returns:
//   - Registry: the new registry
func NewRegistry(options ...RegistryOption) Registry {
	r := &registry{
		decoder: NewStdDecoder(),
		handles: make(map[string]common.ImageHandle),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *registry) Register(filename string) (common.ImageHandle, error) {
	if h, ok := r.handles[filename]; ok {
		return h, nil
	}
	if r.frozen {
		return 0, ErrFrozen
	}

	w, h, err := r.decoder.DecodeConfig(filename)
	if err != nil {
		return 0, err
	}

	handle := common.ImageHandle(len(r.records))
	r.handles[filename] = handle
	r.records = append(r.records, record{filename: filename, width: w, height: h})

	r.maxWidth = max(r.maxWidth, w)
	r.maxHeight = max(r.maxHeight, h)

	common.Logger().Debug("image registered",
		"handle", uint32(handle), "file", filename, "w", w, "h", h)

	return handle, nil
}

func (r *registry) Size(h common.ImageHandle) (uint32, uint32, error) {
	if int(h) >= len(r.records) {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	rec := r.records[h]
	return rec.width, rec.height, nil
}

func (r *registry) MaxSize() (uint32, uint32) {
	return r.maxWidth, r.maxHeight
}

func (r *registry) Count() int {
	return len(r.records)
}

func (r *registry) Filename(h common.ImageHandle) (string, error) {
	if int(h) >= len(r.records) {
		return "", fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return r.records[h].filename, nil
}

func (r *registry) Freeze() {
	r.frozen = true
}

func (r *registry) Frozen() bool {
	return r.frozen
}

func (r *registry) Decoder() Decoder {
	return r.decoder
}
