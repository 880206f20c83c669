package wm

import (
	"testing"

	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

func TestPendingSyncDeduplicates(t *testing.T) {
	ps := NewPendingSync()
	ws := container.NewWorkspace("1", "", false, container.Horizontal)
	w := container.NewTilingWindow(platform.Window{ID: 1})

	ps.QueueContainerToRedraw(w).QueueContainerToRedraw(w).QueueContainerToRedraw(ws)
	ps.QueueWorkspaceToReorder(ws).QueueWorkspaceToReorder(ws)

	if got := ps.ContainersToRedraw(); len(got) != 2 || got[0] != w.ID() || got[1] != ws.ID() {
		t.Fatalf("ContainersToRedraw() = %v, want [%s %s]", got, w.ID(), ws.ID())
	}
	if got := ps.WorkspacesToReorder(); len(got) != 1 {
		t.Fatalf("WorkspacesToReorder() = %v, want one entry", got)
	}
	ps.Clear()
	if !ps.IsEmpty() {
		t.Fatalf("IsEmpty() = false after Clear")
	}
}

func TestFlushLaysOutTiledWindows(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	manage(t, s, windowOn(1, 0), cfg)
	manage(t, s, windowOn(2, 0), cfg)

	Flush(s, cfg)

	want := map[platform.WindowID]platform.Rect{
		1: {X: 0, Y: 0, Width: 960, Height: 1080},
		2: {X: 960, Y: 0, Width: 960, Height: 1080},
	}
	for id, rect := range want {
		if got := backend.moves[id]; got != rect {
			t.Fatalf("window %d rect = %+v, want %+v", id, got, rect)
		}
		if !backend.visible[id] {
			t.Fatalf("window %d not shown", id)
		}
	}
	if !s.PendingSync.IsEmpty() {
		t.Fatalf("pending sync not cleared")
	}
}

func TestFlushAppliesGaps(t *testing.T) {
	cfg := testConfig()
	cfg.Gaps.InnerGap = 10
	cfg.Gaps.OuterGap.Top = 20
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	manage(t, s, windowOn(1, 0), cfg)
	manage(t, s, windowOn(2, 0), cfg)

	Flush(s, cfg)

	if got, want := backend.moves[1], (platform.Rect{X: 0, Y: 20, Width: 955, Height: 1060}); got != want {
		t.Fatalf("window 1 rect = %+v, want %+v", got, want)
	}
	if got, want := backend.moves[2], (platform.Rect{X: 965, Y: 20, Width: 955, Height: 1060}); got != want {
		t.Fatalf("window 2 rect = %+v, want %+v", got, want)
	}
}

func TestFlushContinuesAfterFailure(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	backend.moveErr[1] = errWindowGone
	s := newTestState(t, backend, cfg)
	manage(t, s, windowOn(1, 0), cfg)
	manage(t, s, windowOn(2, 0), cfg)

	Flush(s, cfg)

	if _, ok := backend.moves[1]; ok {
		t.Fatalf("failed window recorded a move")
	}
	if _, ok := backend.moves[2]; !ok {
		t.Fatalf("window 2 not redrawn after window 1 failed")
	}
	if !s.PendingSync.IsEmpty() {
		t.Fatalf("pending sync not cleared")
	}
}

func TestFlushHidesWindowsOnHiddenWorkspace(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	manage(t, s, windowOn(1, 0), cfg)
	Flush(s, cfg)

	if _, err := FocusWorkspace(s, "3", cfg); err != nil {
		t.Fatalf("FocusWorkspace() error = %v", err)
	}
	Flush(s, cfg)

	if backend.visible[1] {
		t.Fatalf("window on hidden workspace is still visible")
	}

	if _, err := FocusWorkspace(s, "1", cfg); err != nil {
		t.Fatalf("FocusWorkspace() error = %v", err)
	}
	Flush(s, cfg)
	if !backend.visible[1] {
		t.Fatalf("window not shown after its workspace is displayed again")
	}
	if s.Tree.WorkspaceByName("3") != nil {
		t.Fatalf("empty workspace 3 still active after focusing away")
	}
}

func TestFlushRestacksByState(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	w1 := manage(t, s, windowOn(1, 0), cfg)
	w2 := manage(t, s, windowOn(2, 0), cfg)
	manage(t, s, windowOn(3, 0), cfg)

	if _, err := RunCommand(s, Command{Name: "set-fullscreen"}, w1, cfg); err != nil {
		t.Fatalf("set-fullscreen: %v", err)
	}
	if _, err := RunCommand(s, Command{Name: "set-floating"}, w2, cfg); err != nil {
		t.Fatalf("set-floating: %v", err)
	}
	Flush(s, cfg)

	if len(backend.restacks) == 0 {
		t.Fatalf("no restack issued")
	}
	got := backend.restacks[len(backend.restacks)-1]
	want := []platform.WindowID{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("restack = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("restack = %v, want %v", got, want)
		}
	}
	if rect := backend.moves[1]; rect != (platform.Rect{Width: 1920, Height: 1080}) {
		t.Fatalf("fullscreen rect = %+v, want monitor bounds", rect)
	}
}

func TestFlushClearsDPIFlag(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	w := manage(t, s, windowOn(1, 0), cfg)
	Flush(s, cfg)

	if err := HandleDisplaySettingsChanged(s, cfg); err != nil {
		t.Fatalf("HandleDisplaySettingsChanged() error = %v", err)
	}
	if !w.Window().PendingDPIAdjustment {
		t.Fatalf("DPI flag not set by display change")
	}
	Flush(s, cfg)
	if w.Window().PendingDPIAdjustment {
		t.Fatalf("DPI flag not cleared by redraw")
	}
}
