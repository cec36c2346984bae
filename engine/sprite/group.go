// Package sprite provides the CPU-side sprite group: a growable batch of
// (image, transform) pairs that is uploaded once to the GPU and then drawn
// with a single instanced draw call per frame.
package sprite

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/wisp/common"
)

// Group errors.
var (
	// ErrInscribed is returned when a group is mutated or inscribed again after
	// its one-shot Inscribe call. The GPU buffer is write-once; mutating the
	// CPU arrays afterward would silently diverge from what is drawn, so the
	// group rejects it instead.
	ErrInscribed = errors.New("sprite: group already inscribed")

	// ErrNotInscribed is returned when Draw is called before Inscribe.
	ErrNotInscribed = errors.New("sprite: group not inscribed")

	// ErrUnknownSprite is returned when a SpriteID does not reference a live
	// sprite in the group.
	ErrUnknownSprite = errors.New("sprite: unknown sprite id")
)

// SpriteID is a stable identifier for one sprite within a group. Unlike a raw
// array index, a SpriteID survives removals of other sprites: the group keeps
// an indirection table from id to physical slot, so holders of an id are
// insulated from the order-preserving compaction Remove performs.
type SpriteID int

// Sprite is the logical record for one sprite in a group.
type Sprite struct {
	// ObjectType is the image handle drawn for this sprite; it selects the
	// atlas layer.
	ObjectType common.ImageHandle

	// X, Y is the sprite's center position in pixels.
	X, Y float32

	// Scale is the uniform scale factor applied to the image's dimensions.
	Scale float32

	// Rotation is the sprite's rotation about its center, in degrees.
	Rotation float32
}

// SpriteOption configures one sprite as it is added to a group.
type SpriteOption func(*Sprite)

// WithPosition sets the sprite's center position. The default is (0, 0).
//
// Parameters:
//   - x, y: center position in pixels
//
// Returns:
//   - SpriteOption: option function to apply
func WithPosition(x, y float32) SpriteOption {
	return func(s *Sprite) {
		s.X = x
		s.Y = y
	}
}

// WithScale sets the sprite's uniform scale. The default is 1.0.
//
// Parameters:
//   - scale: the scale factor
//
// Returns:
//   - SpriteOption: option function to apply
func WithScale(scale float32) SpriteOption {
	return func(s *Sprite) {
		s.Scale = scale
	}
}

// WithRotation sets the sprite's rotation in degrees. The default is 0.
//
// Parameters:
//   - degrees: rotation about the sprite center
//
// Returns:
//   - SpriteOption: option function to apply
func WithRotation(degrees float32) SpriteOption {
	return func(s *Sprite) {
		s.Rotation = degrees
	}
}

// Inscriber is the backend-facing contract a group needs: it can turn the
// group's arrays into GPU resources once, and issue an instanced draw for the
// resulting handle each frame. The engine's Renderer satisfies this.
type Inscriber interface {
	// RegisterSpriteGroup builds the GPU instance buffer for the given sprite
	// data and returns a handle for drawing it.
	//
	// Parameters:
	//   - objectTypes: one image handle per live sprite
	//   - transforms: 4 floats (x, y, scale, rotation) per live sprite
	//   - size: the number of live sprites
	//
	// Returns:
	//   - common.GroupHandle: the handle referencing the GPU resources
	//   - error: an error if the backend is not ready or upload fails
	RegisterSpriteGroup(objectTypes []uint32, transforms []float32, size int) (common.GroupHandle, error)

	// DrawSpriteGroup issues one instanced draw call for a registered group.
	//
	// Parameters:
	//   - handle: the handle returned by RegisterSpriteGroup
	//
	// Returns:
	//   - error: an error if the handle is unknown or no frame is active
	DrawSpriteGroup(handle common.GroupHandle) error
}

// group is the implementation of the Group interface. Sprites live in two
// parallel arrays sized to capacity: objectTypes has one entry per slot and
// transforms has common.TransformStride entries per slot. Slots [0, size) are
// live; the tail is unused padding.
type group struct {
	objectTypes []uint32
	transforms  []float32
	size        int
	capacity    int

	// ids maps physical slot -> SpriteID; index is the inverse. Both are
	// maintained through the shift-down compaction Remove performs.
	ids    []SpriteID
	index  map[SpriteID]int
	nextID SpriteID

	inscriber Inscriber
	handle    common.GroupHandle
	inscribed bool
}

// Group holds an arbitrary number of sprites of different types. It is freely
// mutable via Add and Remove until its one Inscribe call uploads a snapshot to
// the GPU; after that, mutation is rejected with ErrInscribed.
type Group interface {
	// Add appends a sprite and returns its stable id. Capacity doubles when
	// full, preserving existing entries. Ids are assigned sequentially, so in
	// the absence of removals the id equals the sprite's slot index.
	//
	// Parameters:
	//   - objectType: the image handle for the sprite
	//   - options: position, scale and rotation (defaults 0,0 / 1.0 / 0)
	//
	// Returns:
	//   - SpriteID: the new sprite's stable id
	//   - error: ErrInscribed if the group was already inscribed
	Add(objectType common.ImageHandle, options ...SpriteOption) (SpriteID, error)

	// Remove deletes the sprite with the given id, shifting all sprites in
	// higher slots down by one so the remaining order is preserved.
	//
	// Parameters:
	//   - id: the sprite's stable id
	//
	// Returns:
	//   - error: ErrUnknownSprite for stale ids, ErrInscribed after Inscribe
	Remove(id SpriteID) error

	// Size returns the number of live sprites.
	//
	// Returns:
	//   - int: the live sprite count
	Size() int

	// Capacity returns the current slot capacity of the backing arrays.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// At returns the sprite in physical slot i.
	//
	// Parameters:
	//   - i: the slot index, in [0, Size())
	//
	// Returns:
	//   - Sprite: the sprite record
	//   - error: ErrUnknownSprite if i is out of range
	At(i int) (Sprite, error)

	// Lookup returns the sprite with the given stable id.
	//
	// Parameters:
	//   - id: the sprite's stable id
	//
	// Returns:
	//   - Sprite: the sprite record
	//   - error: ErrUnknownSprite for stale ids
	Lookup(id SpriteID) (Sprite, error)

	// SlotOf returns the current physical slot of the sprite with the given
	// id. The slot changes when sprites in lower slots are removed.
	//
	// Parameters:
	//   - id: the sprite's stable id
	//
	// Returns:
	//   - int: the slot index
	//   - error: ErrUnknownSprite for stale ids
	SlotOf(id SpriteID) (int, error)

	// Inscribe snapshots the live sprites and registers them with the backend
	// as a GPU instance buffer. One-shot: a second call fails with
	// ErrInscribed. The group must be drawn through the same backend.
	//
	// Parameters:
	//   - backend: the Inscriber that will own the GPU resources
	//
	// Returns:
	//   - error: ErrInscribed on repeat calls, or the backend's error
	Inscribe(backend Inscriber) error

	// Draw issues this group's instanced draw call for the current frame.
	//
	// Returns:
	//   - error: ErrNotInscribed before Inscribe, or the backend's error
	Draw() error
}

var _ Group = &group{}

// GroupOption is a functional option applied to a group during construction
// via NewGroup.
type GroupOption func(*group)

// WithCapacity pre-allocates slots for the expected sprite count, avoiding
// doubling steps during setup. Values < 1 are ignored.
//
// Parameters:
//   - n: the initial capacity in sprites
//
// Returns:
//   - GroupOption: option function to apply
func WithCapacity(n int) GroupOption {
	return func(g *group) {
		if n < 1 {
			return
		}
		g.capacity = n
	}
}

// NewGroup creates an empty sprite group with capacity for one sprite unless
// WithCapacity says otherwise.
//
// Parameters:
//   - options: functional options for group configuration
//
// Returns:
//   - Group: the new group
func NewGroup(options ...GroupOption) Group {
	g := &group{
		capacity: 1,
		index:    make(map[SpriteID]int),
	}
	for _, opt := range options {
		opt(g)
	}
	g.objectTypes = make([]uint32, g.capacity)
	g.transforms = make([]float32, common.TransformStride*g.capacity)
	g.ids = make([]SpriteID, g.capacity)
	return g
}

func (g *group) Add(objectType common.ImageHandle, options ...SpriteOption) (SpriteID, error) {
	if g.inscribed {
		return 0, ErrInscribed
	}

	s := Sprite{ObjectType: objectType, Scale: 1.0}
	for _, opt := range options {
		opt(&s)
	}

	if g.size >= g.capacity {
		g.grow()
	}

	i := g.size
	g.objectTypes[i] = uint32(s.ObjectType)
	t := common.TransformStride * i
	g.transforms[t] = s.X
	g.transforms[t+1] = s.Y
	g.transforms[t+2] = s.Scale
	g.transforms[t+3] = s.Rotation

	id := g.nextID
	g.nextID++
	g.ids[i] = id
	g.index[id] = i
	g.size++

	return id, nil
}

// grow doubles the backing arrays, preserving live entries. Minimum capacity
// is 1, so doubling always makes progress.
func (g *group) grow() {
	newCap := g.capacity * 2

	objectTypes := make([]uint32, newCap)
	copy(objectTypes, g.objectTypes[:g.size])
	g.objectTypes = objectTypes

	transforms := make([]float32, common.TransformStride*newCap)
	copy(transforms, g.transforms[:common.TransformStride*g.size])
	g.transforms = transforms

	ids := make([]SpriteID, newCap)
	copy(ids, g.ids[:g.size])
	g.ids = ids

	g.capacity = newCap
}

func (g *group) Remove(id SpriteID) error {
	if g.inscribed {
		return ErrInscribed
	}
	i, ok := g.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSprite, id)
	}

	// Shift everything above slot i down by one, keeping order.
	copy(g.objectTypes[i:g.size-1], g.objectTypes[i+1:g.size])
	t := common.TransformStride
	copy(g.transforms[t*i:t*(g.size-1)], g.transforms[t*(i+1):t*g.size])
	copy(g.ids[i:g.size-1], g.ids[i+1:g.size])

	delete(g.index, id)
	for slot := i; slot < g.size-1; slot++ {
		g.index[g.ids[slot]] = slot
	}
	g.size--

	return nil
}

func (g *group) Size() int {
	return g.size
}

func (g *group) Capacity() int {
	return g.capacity
}

func (g *group) At(i int) (Sprite, error) {
	if i < 0 || i >= g.size {
		return Sprite{}, fmt.Errorf("%w: slot %d of %d", ErrUnknownSprite, i, g.size)
	}
	t := common.TransformStride * i
	return Sprite{
		ObjectType: common.ImageHandle(g.objectTypes[i]),
		X:          g.transforms[t],
		Y:          g.transforms[t+1],
		Scale:      g.transforms[t+2],
		Rotation:   g.transforms[t+3],
	}, nil
}

func (g *group) Lookup(id SpriteID) (Sprite, error) {
	i, ok := g.index[id]
	if !ok {
		return Sprite{}, fmt.Errorf("%w: %d", ErrUnknownSprite, id)
	}
	return g.At(i)
}

func (g *group) SlotOf(id SpriteID) (int, error) {
	i, ok := g.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSprite, id)
	}
	return i, nil
}

func (g *group) Inscribe(backend Inscriber) error {
	if g.inscribed {
		return ErrInscribed
	}

	// Snapshot the live entries; the GPU buffer will not follow later edits,
	// and the group rejects them anyway.
	objectTypes := make([]uint32, g.size)
	copy(objectTypes, g.objectTypes[:g.size])
	transforms := make([]float32, common.TransformStride*g.size)
	copy(transforms, g.transforms[:common.TransformStride*g.size])

	handle, err := backend.RegisterSpriteGroup(objectTypes, transforms, g.size)
	if err != nil {
		return err
	}

	g.inscriber = backend
	g.handle = handle
	g.inscribed = true
	return nil
}

func (g *group) Draw() error {
	if !g.inscribed {
		return ErrNotInscribed
	}
	return g.inscriber.DrawSpriteGroup(g.handle)
}
