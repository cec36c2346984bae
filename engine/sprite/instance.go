package sprite

import (
	"fmt"

	"github.com/Carmen-Shannon/wisp/common"
)

// ImageSizer reports the registered dimensions of an image handle. The image
// registry satisfies this; tests substitute fixed tables.
type ImageSizer interface {
	// Size reports the stored dimensions of a registered image.
	//
	// Parameters:
	//   - h: the image handle
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	//   - error: an error if h is not registered
	Size(h common.ImageHandle) (uint32, uint32, error)
}

// BuildInstanceRecords flattens sprite group data into one interleaved GPU
// instance record per live sprite. Each record is common.InstanceStride floats:
//
//	half width, half height, object type, x, y, scale, rotation
//
// Image dimensions are stored as half extents because the shaders expand a
// unit quad spanning [-1, 1] around the sprite center; half extents make the
// scale step a single multiply. The same convention makes the UV scale factors
// (halfW / halfMaxW, halfH / halfMaxH) equal to the full-size ratios, keeping
// samples inside the image's valid sub-rectangle of its atlas layer.
//
// Parameters:
//   - objectTypes: one image handle per live sprite
//   - transforms: common.TransformStride floats (x, y, scale, rotation) per sprite
//   - size: the number of live sprites
//   - sizer: source of registered image dimensions
//
// Returns:
//   - []float32: size × common.InstanceStride interleaved floats
//   - error: an error if size is inconsistent with the arrays or a handle is unknown
func BuildInstanceRecords(objectTypes []uint32, transforms []float32, size int, sizer ImageSizer) ([]float32, error) {
	if size < 0 || size > len(objectTypes) || common.TransformStride*size > len(transforms) {
		return nil, fmt.Errorf("sprite: instance build size %d exceeds arrays (%d types, %d transform floats)",
			size, len(objectTypes), len(transforms))
	}

	records := make([]float32, common.InstanceStride*size)
	for i := 0; i < size; i++ {
		objectType := objectTypes[i]
		w, h, err := sizer.Size(common.ImageHandle(objectType))
		if err != nil {
			return nil, fmt.Errorf("sprite: instance %d: %w", i, err)
		}

		r := common.InstanceStride * i
		t := common.TransformStride * i
		records[r] = float32(w) / 2
		records[r+1] = float32(h) / 2
		records[r+2] = float32(objectType)
		records[r+3] = transforms[t]   // center x
		records[r+4] = transforms[t+1] // center y
		records[r+5] = transforms[t+2] // scale
		records[r+6] = transforms[t+3] // rotation
	}
	return records, nil
}
