package wm

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

const epsilon = 1e-9

// fakeBackend records native calls and serves scripted monitors.
type fakeBackend struct {
	monitors  []platform.NativeMonitor
	windows   []platform.Window
	minimized map[platform.WindowID]bool

	minimizeCalls []platform.WindowID
	moves         map[platform.WindowID]platform.Rect
	moveErr       map[platform.WindowID]error
	visible       map[platform.WindowID]bool
	restacks      [][]platform.WindowID
}

func newFakeBackend(monitors ...platform.NativeMonitor) *fakeBackend {
	return &fakeBackend{
		monitors:  monitors,
		minimized: make(map[platform.WindowID]bool),
		moves:     make(map[platform.WindowID]platform.Rect),
		moveErr:   make(map[platform.WindowID]error),
		visible:   make(map[platform.WindowID]bool),
	}
}

func (f *fakeBackend) SortedMonitors() ([]platform.NativeMonitor, error) {
	out := append([]platform.NativeMonitor(nil), f.monitors...)
	platform.SortMonitors(out)
	return out, nil
}

func (f *fakeBackend) Windows() ([]platform.Window, error) {
	return append([]platform.Window(nil), f.windows...), nil
}

func (f *fakeBackend) IsMinimized(id platform.WindowID) (bool, error) {
	return f.minimized[id], nil
}

func (f *fakeBackend) Minimize(id platform.WindowID) error {
	f.minimizeCalls = append(f.minimizeCalls, id)
	return nil
}

func (f *fakeBackend) MoveResize(id platform.WindowID, bounds platform.Rect) error {
	if err := f.moveErr[id]; err != nil {
		return err
	}
	f.moves[id] = bounds
	return nil
}

func (f *fakeBackend) SetVisible(id platform.WindowID, visible bool) error {
	f.visible[id] = visible
	return nil
}

func (f *fakeBackend) Restack(ids []platform.WindowID) error {
	f.restacks = append(f.restacks, append([]platform.WindowID(nil), ids...))
	return nil
}

var errWindowGone = errors.New("window gone")

func monitorAt(handle uint32, x int) platform.NativeMonitor {
	return platform.NativeMonitor{
		Handle:     platform.MonitorHandle(handle),
		DeviceName: "DP-" + string(rune('0'+handle)),
		DevicePath: "/dev/dri/card0-DP-" + string(rune('0'+handle)),
		Bounds:     platform.Rect{X: x, Y: 0, Width: 1920, Height: 1080},
	}
}

func windowOn(id uint32, x int) platform.Window {
	return platform.Window{
		ID:     platform.WindowID(id),
		Title:  "window",
		AppID:  "xterm",
		Bounds: platform.Rect{X: x + 100, Y: 100, Width: 800, Height: 600},
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Gaps.InnerGap = 0
	cfg.Gaps.OuterGap = config.Margins{}
	return cfg
}

// newTestState builds a populated state with empty pending work and no
// buffered events.
func newTestState(t *testing.T, backend *fakeBackend, cfg *config.Config) *State {
	t.Helper()
	s := NewState(backend, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := Populate(s, cfg); err != nil {
		t.Fatalf("Populate() error = %v", err)
	}
	Flush(s, cfg)
	s.DrainEvents()
	return s
}

func manage(t *testing.T, s *State, native platform.Window, cfg *config.Config) container.WindowContainer {
	t.Helper()
	w, err := ManageWindow(s, native, cfg)
	if err != nil {
		t.Fatalf("ManageWindow(%d) error = %v", native.ID, err)
	}
	return w
}

func assertSizesSumToOne(t *testing.T, s *State, parent container.Container) {
	t.Helper()
	children := s.Tree.TilingChildren(parent)
	if len(children) == 0 {
		return
	}
	var sum float64
	for _, c := range children {
		sum += c.TilingSize()
	}
	if math.Abs(sum-1) > epsilon {
		t.Fatalf("tiling sizes under %s sum to %v, want 1", parent.Kind(), sum)
	}
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func countEvents(events []Event, et EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == et {
			n++
		}
	}
	return n
}

func advanceClock(s *State, d time.Duration) {
	base := s.now()
	s.now = func() time.Time { return base.Add(d) }
}
