package sprite

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/wisp/common"
)

// fakeInscriber records the single registration a group performs and counts
// draw calls per handle.
type fakeInscriber struct {
	objectTypes []uint32
	transforms  []float32
	size        int
	registered  int
	draws       map[common.GroupHandle]int
	registerErr error
}

func newFakeInscriber() *fakeInscriber {
	return &fakeInscriber{draws: make(map[common.GroupHandle]int)}
}

func (f *fakeInscriber) RegisterSpriteGroup(objectTypes []uint32, transforms []float32, size int) (common.GroupHandle, error) {
	if f.registerErr != nil {
		return 0, f.registerErr
	}
	f.objectTypes = objectTypes
	f.transforms = transforms
	f.size = size
	f.registered++
	return common.GroupHandle(f.registered - 1), nil
}

func (f *fakeInscriber) DrawSpriteGroup(handle common.GroupHandle) error {
	f.draws[handle]++
	return nil
}

func TestAddReturnsSequentialIDs(t *testing.T) {
	g := NewGroup()

	for want := 0; want < 5; want++ {
		id, err := g.Add(0)
		if err != nil {
			t.Fatalf("Add error = %v", err)
		}
		if id != SpriteID(want) {
			t.Errorf("Add #%d = %d, want %d", want, id, want)
		}
	}
	if g.Size() != 5 {
		t.Errorf("Size() = %d, want 5", g.Size())
	}
}

func TestAddAppliesOptionsAndDefaults(t *testing.T) {
	g := NewGroup()

	id, err := g.Add(3, WithPosition(10, -4), WithScale(2), WithRotation(90))
	if err != nil {
		t.Fatalf("Add error = %v", err)
	}
	s, err := g.Lookup(id)
	if err != nil {
		t.Fatalf("Lookup error = %v", err)
	}
	want := Sprite{ObjectType: 3, X: 10, Y: -4, Scale: 2, Rotation: 90}
	if s != want {
		t.Errorf("Lookup(%d) = %+v, want %+v", id, s, want)
	}

	// Defaults: origin position, unit scale, no rotation.
	id2, err := g.Add(1)
	if err != nil {
		t.Fatalf("Add error = %v", err)
	}
	s2, err := g.Lookup(id2)
	if err != nil {
		t.Fatalf("Lookup error = %v", err)
	}
	wantDefault := Sprite{ObjectType: 1, Scale: 1}
	if s2 != wantDefault {
		t.Errorf("Lookup(%d) = %+v, want %+v", id2, s2, wantDefault)
	}
}

func TestGrowthPreservesEntries(t *testing.T) {
	g := NewGroup() // capacity 1, so adds cross several doubling boundaries

	want := make([]Sprite, 0, 9)
	for i := 0; i < 9; i++ {
		s := Sprite{ObjectType: common.ImageHandle(i % 3), X: float32(i), Y: float32(-i), Scale: 1 + float32(i)/10, Rotation: float32(i * 40)}
		if _, err := g.Add(s.ObjectType, WithPosition(s.X, s.Y), WithScale(s.Scale), WithRotation(s.Rotation)); err != nil {
			t.Fatalf("Add #%d error = %v", i, err)
		}
		want = append(want, s)
	}

	if g.Capacity() < 9 {
		t.Errorf("Capacity() = %d, want >= 9", g.Capacity())
	}
	if g.Capacity() != 16 {
		t.Errorf("Capacity() = %d, want 16 after doubling from 1", g.Capacity())
	}

	for i, w := range want {
		got, err := g.At(i)
		if err != nil {
			t.Fatalf("At(%d) error = %v", i, err)
		}
		if got != w {
			t.Errorf("At(%d) = %+v, want %+v", i, got, w)
		}
	}
}

func TestRemoveShiftsDownPreservingOrder(t *testing.T) {
	g := NewGroup()

	ids := make([]SpriteID, 3)
	for i := range ids {
		id, err := g.Add(common.ImageHandle(i), WithPosition(float32(10*i), float32(10*i+1)))
		if err != nil {
			t.Fatalf("Add error = %v", err)
		}
		ids[i] = id
	}

	before1, _ := g.At(1)
	before2, _ := g.At(2)

	if err := g.Remove(ids[0]); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	if g.Size() != 2 {
		t.Fatalf("Size() = %d after Remove, want 2", g.Size())
	}

	// The sprites formerly in slots 1 and 2 are now in slots 0 and 1, with
	// identical field values.
	got0, _ := g.At(0)
	got1, _ := g.At(1)
	if got0 != before1 {
		t.Errorf("At(0) = %+v, want %+v", got0, before1)
	}
	if got1 != before2 {
		t.Errorf("At(1) = %+v, want %+v", got1, before2)
	}
}

func TestRemoveMiddleKeepsLowerSlotsUntouched(t *testing.T) {
	g := NewGroup()

	var ids []SpriteID
	for i := 0; i < 4; i++ {
		id, err := g.Add(common.ImageHandle(i), WithPosition(float32(i), 0))
		if err != nil {
			t.Fatalf("Add error = %v", err)
		}
		ids = append(ids, id)
	}

	before0, _ := g.At(0)
	before3, _ := g.At(3)

	if err := g.Remove(ids[1]); err != nil {
		t.Fatalf("Remove error = %v", err)
	}

	after0, _ := g.At(0)
	if after0 != before0 {
		t.Errorf("At(0) changed across Remove(1): %+v -> %+v", before0, after0)
	}
	after2, _ := g.At(2)
	if after2 != before3 {
		t.Errorf("At(2) = %+v, want former slot 3 %+v", after2, before3)
	}
}

func TestSpriteIDsSurviveRemovals(t *testing.T) {
	g := NewGroup()

	first, _ := g.Add(0, WithPosition(1, 1))
	second, _ := g.Add(1, WithPosition(2, 2))
	third, _ := g.Add(2, WithPosition(3, 3))

	if err := g.Remove(first); err != nil {
		t.Fatalf("Remove error = %v", err)
	}

	// Ids still resolve after the physical shuffle.
	if slot, err := g.SlotOf(second); err != nil || slot != 0 {
		t.Errorf("SlotOf(second) = (%d, %v), want (0, nil)", slot, err)
	}
	if slot, err := g.SlotOf(third); err != nil || slot != 1 {
		t.Errorf("SlotOf(third) = (%d, %v), want (1, nil)", slot, err)
	}
	s, err := g.Lookup(third)
	if err != nil || s.X != 3 {
		t.Errorf("Lookup(third) = (%+v, %v), want X=3", s, err)
	}

	// The removed id is stale.
	if _, err := g.Lookup(first); !errors.Is(err, ErrUnknownSprite) {
		t.Errorf("Lookup(removed) error = %v, want ErrUnknownSprite", err)
	}
	if err := g.Remove(first); !errors.Is(err, ErrUnknownSprite) {
		t.Errorf("Remove(removed) error = %v, want ErrUnknownSprite", err)
	}
}

func TestInscribeSnapshotsLiveEntries(t *testing.T) {
	g := NewGroup()
	f := newFakeInscriber()

	if _, err := g.Add(0, WithPosition(10, 10)); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if _, err := g.Add(1, WithPosition(-5, 0), WithScale(2), WithRotation(90)); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	if err := g.Inscribe(f); err != nil {
		t.Fatalf("Inscribe error = %v", err)
	}
	if f.registered != 1 {
		t.Fatalf("backend registrations = %d, want 1", f.registered)
	}
	if f.size != 2 {
		t.Errorf("registered size = %d, want 2", f.size)
	}
	wantTypes := []uint32{0, 1}
	for i, w := range wantTypes {
		if f.objectTypes[i] != w {
			t.Errorf("objectTypes[%d] = %d, want %d", i, f.objectTypes[i], w)
		}
	}
	wantTransforms := []float32{10, 10, 1, 0, -5, 0, 2, 90}
	if len(f.transforms) != len(wantTransforms) {
		t.Fatalf("len(transforms) = %d, want %d", len(f.transforms), len(wantTransforms))
	}
	for i, w := range wantTransforms {
		if f.transforms[i] != w {
			t.Errorf("transforms[%d] = %v, want %v", i, f.transforms[i], w)
		}
	}
}

func TestInscribeIsOneShot(t *testing.T) {
	g := NewGroup()
	f := newFakeInscriber()

	if _, err := g.Add(0); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := g.Inscribe(f); err != nil {
		t.Fatalf("Inscribe error = %v", err)
	}
	if err := g.Inscribe(f); !errors.Is(err, ErrInscribed) {
		t.Errorf("second Inscribe error = %v, want ErrInscribed", err)
	}
	if f.registered != 1 {
		t.Errorf("backend registrations = %d, want 1", f.registered)
	}
}

func TestMutationAfterInscribeIsRejected(t *testing.T) {
	g := NewGroup()
	f := newFakeInscriber()

	id, err := g.Add(0)
	if err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := g.Inscribe(f); err != nil {
		t.Fatalf("Inscribe error = %v", err)
	}

	if _, err := g.Add(1); !errors.Is(err, ErrInscribed) {
		t.Errorf("Add after Inscribe error = %v, want ErrInscribed", err)
	}
	if err := g.Remove(id); !errors.Is(err, ErrInscribed) {
		t.Errorf("Remove after Inscribe error = %v, want ErrInscribed", err)
	}
}

func TestDrawRequiresInscribe(t *testing.T) {
	g := NewGroup()
	if err := g.Draw(); !errors.Is(err, ErrNotInscribed) {
		t.Errorf("Draw before Inscribe error = %v, want ErrNotInscribed", err)
	}
}

func TestDrawDelegatesToBackend(t *testing.T) {
	g := NewGroup()
	f := newFakeInscriber()

	if _, err := g.Add(0); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := g.Inscribe(f); err != nil {
		t.Fatalf("Inscribe error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := g.Draw(); err != nil {
			t.Fatalf("Draw error = %v", err)
		}
	}
	if f.draws[0] != 3 {
		t.Errorf("draws for handle 0 = %d, want 3", f.draws[0])
	}
}

func TestInscribeFailureLeavesGroupMutable(t *testing.T) {
	g := NewGroup()
	f := newFakeInscriber()
	f.registerErr = errors.New("backend not ready")

	if _, err := g.Add(0); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := g.Inscribe(f); err == nil {
		t.Fatal("Inscribe with failing backend succeeded, want error")
	}

	// The failed inscribe does not latch the group.
	if _, err := g.Add(1); err != nil {
		t.Errorf("Add after failed Inscribe error = %v", err)
	}
	if err := g.Draw(); !errors.Is(err, ErrNotInscribed) {
		t.Errorf("Draw after failed Inscribe error = %v, want ErrNotInscribed", err)
	}
}

func TestWithCapacityPreallocates(t *testing.T) {
	g := NewGroup(WithCapacity(64))
	if g.Capacity() != 64 {
		t.Errorf("Capacity() = %d, want 64", g.Capacity())
	}
	for i := 0; i < 64; i++ {
		if _, err := g.Add(0); err != nil {
			t.Fatalf("Add #%d error = %v", i, err)
		}
	}
	if g.Capacity() != 64 {
		t.Errorf("Capacity() = %d after filling, want still 64", g.Capacity())
	}
}
