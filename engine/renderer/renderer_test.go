package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/wisp/common"
	"github.com/Carmen-Shannon/wisp/engine/sprite"
)

// fakeBackend is a call-recording SpriteBackend with no GPU behind it. It
// mirrors the real lifecycle rules so facade tests exercise the same error
// paths hosts see.
type fakeBackend struct {
	images     map[string]common.ImageHandle
	sizes      map[common.ImageHandle][2]uint32
	finalized  int
	frameOpen  bool
	clearColor [4]float32

	registrations []int // sizes passed to RegisterSpriteGroup
	draws         []common.GroupHandle
	closed        bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		images: make(map[string]common.ImageHandle),
		sizes:  make(map[common.ImageHandle][2]uint32),
	}
}

// addImage registers a fixed-size fake image without touching the filesystem.
func (f *fakeBackend) addImage(filename string, w, h uint32) common.ImageHandle {
	handle := common.ImageHandle(len(f.images))
	f.images[filename] = handle
	f.sizes[handle] = [2]uint32{w, h}
	return handle
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) SetClearColor(r, g, b, a float32) {
	f.clearColor = [4]float32{r, g, b, a}
}

func (f *fakeBackend) LoadImage(filename string) (common.ImageHandle, error) {
	if h, ok := f.images[filename]; ok {
		return h, nil
	}
	return f.addImage(filename, 8, 8), nil
}

func (f *fakeBackend) ImageSize(h common.ImageHandle) (uint32, uint32, error) {
	s, ok := f.sizes[h]
	if !ok {
		return 0, 0, errors.New("unknown image handle")
	}
	return s[0], s[1], nil
}

func (f *fakeBackend) FinalizeSetup() error {
	f.finalized++
	return nil
}

func (f *fakeBackend) StartDrawing() error {
	if f.finalized == 0 {
		return ErrNotReady
	}
	if f.frameOpen {
		return ErrFrameInProgress
	}
	f.frameOpen = true
	return nil
}

func (f *fakeBackend) FinishDrawing() error {
	if !f.frameOpen {
		return ErrNoFrame
	}
	f.frameOpen = false
	return nil
}

func (f *fakeBackend) RegisterSpriteGroup(objectTypes []uint32, transforms []float32, size int) (common.GroupHandle, error) {
	if f.finalized == 0 {
		return 0, ErrNotReady
	}
	f.registrations = append(f.registrations, size)
	return common.GroupHandle(len(f.registrations) - 1), nil
}

func (f *fakeBackend) DrawSpriteGroup(handle common.GroupHandle) error {
	if !f.frameOpen {
		return ErrNoFrame
	}
	if int(handle) >= len(f.registrations) {
		return ErrUnknownGroup
	}
	f.draws = append(f.draws, handle)
	return nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func newTestRenderer(t *testing.T, f *fakeBackend) Renderer {
	t.Helper()
	r, err := NewRenderer(BackendInstanced, nil, WithBackend(f))
	if err != nil {
		t.Fatalf("NewRenderer error = %v", err)
	}
	return r
}

func TestRendererSatisfiesInscriber(t *testing.T) {
	var _ sprite.Inscriber = newTestRenderer(t, newFakeBackend())
}

func TestConservativeBehaviorRejected(t *testing.T) {
	_, err := NewRenderer(BackendInstanced, nil,
		WithBackend(newFakeBackend()),
		WithRenderBehavior(RenderConservative),
	)
	if !errors.Is(err, ErrUnsupportedBehavior) {
		t.Errorf("NewRenderer error = %v, want ErrUnsupportedBehavior", err)
	}
}

func TestDefaultBehaviorIsEveryFrame(t *testing.T) {
	r := newTestRenderer(t, newFakeBackend())
	if r.Behavior() != RenderEveryFrame {
		t.Errorf("Behavior() = %d, want RenderEveryFrame", r.Behavior())
	}
}

// Two images, one group of two sprites, one frame: the group registers
// exactly once and its draw reaches the backend as a single call covering
// both instances.
func TestSpriteGroupScenario(t *testing.T) {
	f := newFakeBackend()
	f.addImage("ship.png", 64, 32)
	f.addImage("rock.png", 32, 32)
	r := newTestRenderer(t, f)

	ship, err := r.LoadImage("ship.png")
	if err != nil {
		t.Fatalf("LoadImage error = %v", err)
	}
	rock, err := r.LoadImage("rock.png")
	if err != nil {
		t.Fatalf("LoadImage error = %v", err)
	}
	if err := r.FinalizeSetup(); err != nil {
		t.Fatalf("FinalizeSetup error = %v", err)
	}

	g := sprite.NewGroup()
	if _, err := g.Add(ship, sprite.WithPosition(320, 240)); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if _, err := g.Add(rock, sprite.WithPosition(100, 100), sprite.WithScale(2)); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := g.Inscribe(r); err != nil {
		t.Fatalf("Inscribe error = %v", err)
	}

	if len(f.registrations) != 1 {
		t.Fatalf("registrations = %d, want 1", len(f.registrations))
	}
	if f.registrations[0] != 2 {
		t.Errorf("registered group size = %d, want 2", f.registrations[0])
	}

	if err := r.StartDrawing(); err != nil {
		t.Fatalf("StartDrawing error = %v", err)
	}
	if err := g.Draw(); err != nil {
		t.Fatalf("Draw error = %v", err)
	}
	if err := r.FinishDrawing(); err != nil {
		t.Fatalf("FinishDrawing error = %v", err)
	}

	if len(f.draws) != 1 {
		t.Fatalf("draw calls = %d, want 1", len(f.draws))
	}
	if f.draws[0] != 0 {
		t.Errorf("drawn handle = %d, want 0", f.draws[0])
	}
}

func TestLifecycleViolationsSurface(t *testing.T) {
	f := newFakeBackend()
	r := newTestRenderer(t, f)

	if _, err := r.RegisterSpriteGroup(nil, nil, 0); !errors.Is(err, ErrNotReady) {
		t.Errorf("RegisterSpriteGroup before FinalizeSetup error = %v, want ErrNotReady", err)
	}
	if err := r.StartDrawing(); !errors.Is(err, ErrNotReady) {
		t.Errorf("StartDrawing before FinalizeSetup error = %v, want ErrNotReady", err)
	}
	if err := r.FinishDrawing(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("FinishDrawing without frame error = %v, want ErrNoFrame", err)
	}

	if err := r.FinalizeSetup(); err != nil {
		t.Fatalf("FinalizeSetup error = %v", err)
	}
	if err := r.DrawSpriteGroup(0); !errors.Is(err, ErrNoFrame) {
		t.Errorf("DrawSpriteGroup outside frame error = %v, want ErrNoFrame", err)
	}

	if err := r.StartDrawing(); err != nil {
		t.Fatalf("StartDrawing error = %v", err)
	}
	if err := r.StartDrawing(); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("nested StartDrawing error = %v, want ErrFrameInProgress", err)
	}
	if err := r.DrawSpriteGroup(5); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("DrawSpriteGroup(unknown) error = %v, want ErrUnknownGroup", err)
	}
}

func TestFacadeDelegation(t *testing.T) {
	f := newFakeBackend()
	r := newTestRenderer(t, f)

	if r.Name() != "fake" {
		t.Errorf("Name() = %q, want %q", r.Name(), "fake")
	}

	r.SetClearColor(0.1, 0.2, 0.3, 1)
	if f.clearColor != [4]float32{0.1, 0.2, 0.3, 1} {
		t.Errorf("clearColor = %v, want [0.1 0.2 0.3 1]", f.clearColor)
	}

	h := f.addImage("tile.png", 16, 48)
	w, ht, err := r.ImageSize(h)
	if err != nil || w != 16 || ht != 48 {
		t.Errorf("ImageSize = (%d, %d, %v), want (16, 48, nil)", w, ht, err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if !f.closed {
		t.Error("Close did not reach the backend")
	}
}

func TestFinalizeSetupIdempotentThroughFacade(t *testing.T) {
	f := newFakeBackend()
	r := newTestRenderer(t, f)

	for i := 0; i < 3; i++ {
		if err := r.FinalizeSetup(); err != nil {
			t.Fatalf("FinalizeSetup #%d error = %v", i, err)
		}
	}
	// The facade forwards every call; collapsing repeats is the backend's
	// contract, which the real core implements with a finalized flag.
	if f.finalized != 3 {
		t.Errorf("backend FinalizeSetup calls = %d, want 3", f.finalized)
	}
}
