package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/wisp/common"
	"github.com/Carmen-Shannon/wisp/engine/renderer"
	"github.com/Carmen-Shannon/wisp/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeWindow is an in-memory Window that closes itself after a fixed number
// of polls. Events are appended to the shared log to assert loop ordering.
type fakeWindow struct {
	log        *[]string
	polls      int
	closeAfter int
	closed     bool
	title      string
}

func (w *fakeWindow) SetKeyDownCallback(func(uint32)) {}
func (w *fakeWindow) SetKeyUpCallback(func(uint32))   {}
func (w *fakeWindow) KeyPressed(uint32) bool          { return false }

func (w *fakeWindow) PollEvents() {
	w.polls++
	*w.log = append(*w.log, "poll")
}

func (w *fakeWindow) ShouldClose() bool {
	return w.closed || (w.closeAfter > 0 && w.polls > w.closeAfter)
}

func (w *fakeWindow) RequestClose() { w.closed = true }

func (w *fakeWindow) SetTitle(title string) { w.title = title }

func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }

func (w *fakeWindow) Close() error { return nil }

func (w *fakeWindow) Width() int  { return 640 }
func (w *fakeWindow) Height() int { return 480 }

var _ window.Window = &fakeWindow{}

// fakeRenderer records frame brackets into the shared log.
type fakeRenderer struct {
	log        *[]string
	clearColor [4]float32
	startErr   error
	closed     bool
}

func (r *fakeRenderer) Name() string                      { return "fake" }
func (r *fakeRenderer) Behavior() renderer.RenderBehavior { return renderer.RenderEveryFrame }

func (r *fakeRenderer) SetClearColor(red, g, b, a float32) {
	r.clearColor = [4]float32{red, g, b, a}
}

func (r *fakeRenderer) LoadImage(string) (common.ImageHandle, error) { return 0, nil }

func (r *fakeRenderer) ImageSize(common.ImageHandle) (uint32, uint32, error) { return 8, 8, nil }

func (r *fakeRenderer) FinalizeSetup() error { return nil }

func (r *fakeRenderer) StartDrawing() error {
	if r.startErr != nil {
		return r.startErr
	}
	*r.log = append(*r.log, "start")
	return nil
}

func (r *fakeRenderer) FinishDrawing() error {
	*r.log = append(*r.log, "finish")
	return nil
}

func (r *fakeRenderer) RegisterSpriteGroup([]uint32, []float32, int) (common.GroupHandle, error) {
	return 0, nil
}

func (r *fakeRenderer) DrawSpriteGroup(common.GroupHandle) error { return nil }

func (r *fakeRenderer) Close() error {
	r.closed = true
	return nil
}

var _ renderer.Renderer = &fakeRenderer{}

func newTestEngine(t *testing.T, log *[]string, closeAfter int) (Engine, *fakeWindow, *fakeRenderer) {
	t.Helper()
	w := &fakeWindow{log: log, closeAfter: closeAfter}
	r := &fakeRenderer{log: log}
	e, err := NewEngine(WithWindow(w), WithRenderer(r))
	if err != nil {
		t.Fatalf("NewEngine error = %v", err)
	}
	return e, w, r
}

func TestRunLoopOrder(t *testing.T) {
	var log []string
	e, _, _ := newTestEngine(t, &log, 2)

	e.SetUpdateCallback(func(dt float32) {
		log = append(log, "update")
	})
	e.SetDrawCallback(func() {
		log = append(log, "draw")
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run error = %v", err)
	}

	// Two full frames, then the third poll observes the close request.
	want := []string{
		"poll", "update", "start", "draw", "finish",
		"poll", "update", "start", "draw", "finish",
		"poll",
	}
	if len(log) != len(want) {
		t.Fatalf("event log = %v, want %v", log, want)
	}
	for i, w := range want {
		if log[i] != w {
			t.Fatalf("event log = %v, want %v", log, want)
		}
	}
}

func TestQuitFromUpdateSkipsFrame(t *testing.T) {
	var log []string
	e, w, _ := newTestEngine(t, &log, 0)

	e.SetUpdateCallback(func(dt float32) {
		log = append(log, "update")
		e.Quit()
	})
	e.SetDrawCallback(func() {
		log = append(log, "draw")
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run error = %v", err)
	}

	want := []string{"poll", "update"}
	if len(log) != len(want) || log[0] != "poll" || log[1] != "update" {
		t.Fatalf("event log = %v, want %v", log, want)
	}
	if !w.closed {
		t.Error("Quit did not request window close")
	}
}

func TestRunSurfacesFrameErrors(t *testing.T) {
	var log []string
	e, _, r := newTestEngine(t, &log, 0)

	wantErr := errors.New("surface lost")
	r.startErr = wantErr

	if err := e.Run(); !errors.Is(err, wantErr) {
		t.Errorf("Run error = %v, want %v", err, wantErr)
	}
}

func TestSetClearColorClamps(t *testing.T) {
	var log []string
	e, _, r := newTestEngine(t, &log, 0)

	e.SetClearColor(1.5, -0.25, 0.5, 2)
	if r.clearColor != [4]float32{1, 0, 0.5, 1} {
		t.Errorf("clearColor = %v, want [1 0 0.5 1]", r.clearColor)
	}
}

func TestSetTitleReachesWindow(t *testing.T) {
	var log []string
	e, w, _ := newTestEngine(t, &log, 0)

	e.SetTitle("wisp demo")
	if w.title != "wisp demo" {
		t.Errorf("window title = %q, want %q", w.title, "wisp demo")
	}
}

func TestCloseReleasesRenderer(t *testing.T) {
	var log []string
	e, _, r := newTestEngine(t, &log, 0)

	if err := e.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if !r.closed {
		t.Error("Close did not reach the renderer")
	}
}
