// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain handle and
// helper types that express commonly used data.
package common

// ImageHandle identifies a registered image. Handles are small sequential integers,
// assigned in first-registration order, and double as the array-texture layer index
// for the image's pixels once the atlas has been uploaded.
type ImageHandle uint32

// GroupHandle identifies a sprite group's GPU resources on the backend that
// registered it. Handles are only meaningful on the backend instance that issued
// them; destroying the backend invalidates every handle it issued.
type GroupHandle int

// TransformStride is the number of floats a single sprite transform occupies in a
// sprite group's transform array: x, y, scale, rotation (degrees).
const TransformStride = 4

// InstanceStride is the number of floats in one GPU instance record:
// half width, half height, object type, x, y, scale, rotation.
const InstanceStride = 7
