// Package image provides the sprite engine's image registry and decoding.
// The registry assigns stable handles to image files during the setup phase;
// the decoder turns those files into RGBA pixel data for the atlas upload.
package image

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned (wrapped) when an image file cannot be read or decoded.
// Decode failures during setup are fatal: the caller should abort initialization
// rather than attempt partial recovery.
var ErrDecode = errors.New("image: decode failed")

// Decoder reads image files from disk. It is the registry's collaborator for
// both the cheap size probe at registration time and the full pixel decode at
// atlas-upload time.
type Decoder interface {
	// DecodeConfig reads only the image header and reports its dimensions.
	//
	// Parameters:
	//   - path: full filepath of the image
	//
	// Returns:
	//   - uint32: image width in pixels
	//   - uint32: image height in pixels
	//   - error: a wrapped ErrDecode if the file cannot be read or parsed
	DecodeConfig(path string) (uint32, uint32, error)

	// Decode reads the full image and converts it to RGBA pixel data.
	//
	// Parameters:
	//   - path: full filepath of the image
	//
	// Returns:
	//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
	//   - uint32: image width in pixels
	//   - uint32: image height in pixels
	//   - error: a wrapped ErrDecode if the file cannot be read or parsed
	Decode(path string) ([]byte, uint32, uint32, error)
}

// stdDecoder decodes via the standard library image package. PNG, JPEG, BMP,
// TIFF and WebP decoders are registered through blank imports.
type stdDecoder struct{}

var _ Decoder = stdDecoder{}

// NewStdDecoder creates the default Decoder backed by the standard library
// image package.
//
// Returns:
//   - Decoder: the decoder
func NewStdDecoder() Decoder {
	return stdDecoder{}
}

func (stdDecoder) DecodeConfig(path string) (uint32, uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: open %s: %v", ErrDecode, path, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: read header of %s: %v", ErrDecode, path, err)
	}
	return uint32(cfg.Width), uint32(cfg.Height), nil
}

func (stdDecoder) Decode(path string) ([]byte, uint32, uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: open %s: %v", ErrDecode, path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: decode %s: %v", ErrDecode, path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return rgba.Pix, uint32(bounds.Dx()), uint32(bounds.Dy()), nil
}
