package wm

import (
	"errors"
	"testing"

	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

func TestPopulateBindsOneWorkspacePerMonitor(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(2, 1920), monitorAt(1, 0))
	backend.windows = []platform.Window{windowOn(1, 0), windowOn(2, 1920)}
	s := newTestState(t, backend, cfg)

	monitors := s.Tree.Monitors()
	if len(monitors) != 2 {
		t.Fatalf("monitors = %d, want 2", len(monitors))
	}
	if monitors[0].Native.Bounds.X != 0 || monitors[1].Native.Bounds.X != 1920 {
		t.Fatalf("monitors not sorted by position")
	}
	for i, name := range []string{"1", "2"} {
		ws := s.Tree.DisplayedWorkspace(monitors[i])
		if ws == nil || ws.Name != name {
			t.Fatalf("monitor %d displays %v, want workspace %s", i, ws, name)
		}
		if got := len(s.Tree.Windows(ws)); got != 1 {
			t.Fatalf("workspace %s holds %d windows, want 1", name, got)
		}
	}
}

func TestPopulateHonorsBindToMonitor(t *testing.T) {
	cfg := testConfig()
	second := 1
	cfg.Workspaces[4].BindToMonitor = &second
	cfg.Workspaces[5].BindToMonitor = &second

	s := newTestState(t, newFakeBackend(monitorAt(1, 0), monitorAt(2, 1920)), cfg)
	m := s.Tree.Monitors()[1]
	var names []string
	for _, ws := range s.Tree.WorkspacesOf(m) {
		names = append(names, ws.Name)
	}
	if len(names) != 2 || names[0] != "5" || names[1] != "6" {
		t.Fatalf("workspaces on second monitor = %v, want [5 6]", names)
	}
	if ws := s.Tree.DisplayedWorkspace(m); ws == nil || ws.Name != "5" {
		t.Fatalf("displayed workspace = %v, want 5", ws)
	}
}

func TestRemoveLastMonitorFails(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	if err := RemoveMonitor(s, s.Tree.Monitors()[0], cfg); !errors.Is(err, ErrLastMonitor) {
		t.Fatalf("RemoveMonitor() error = %v, want ErrLastMonitor", err)
	}
}

func TestFocusWorkspaceKeepsAliveWorkspaces(t *testing.T) {
	cfg := testConfig()
	cfg.Workspaces[0].KeepAlive = true
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)

	if _, err := FocusWorkspace(s, "2", cfg); err != nil {
		t.Fatalf("FocusWorkspace() error = %v", err)
	}
	if s.Tree.WorkspaceByName("1") == nil {
		t.Fatalf("keep-alive workspace 1 was deactivated")
	}
	if _, err := FocusWorkspace(s, "3", cfg); err != nil {
		t.Fatalf("FocusWorkspace() error = %v", err)
	}
	if s.Tree.WorkspaceByName("2") != nil {
		t.Fatalf("empty workspace 2 still active")
	}
	if ws := FocusedWorkspace(s); ws == nil || ws.Name != "3" {
		t.Fatalf("focused workspace = %v, want 3", ws)
	}
}

func TestSortWorkspacesFollowsConfig(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	m := s.Tree.Monitors()[0]

	for _, name := range []string{"scratch", "7", "3"} {
		if _, err := ActivateWorkspace(s, name, m, cfg); err != nil {
			t.Fatalf("ActivateWorkspace(%q) error = %v", name, err)
		}
	}
	var names []string
	for _, ws := range s.Tree.WorkspacesOf(m) {
		names = append(names, ws.Name)
	}
	want := []string{"1", "3", "7", "scratch"}
	if len(names) != len(want) {
		t.Fatalf("workspaces = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("workspaces = %v, want %v", names, want)
		}
	}
}

func TestUnmanageWindowRenormalizes(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w1 := manage(t, s, windowOn(1, 0), cfg)
	manage(t, s, windowOn(2, 0), cfg)
	manage(t, s, windowOn(3, 0), cfg)
	ws := s.Tree.Workspace(w1)
	s.DrainEvents()

	if err := HandleWindowDestroyed(s, windowOn(2, 0)); err != nil {
		t.Fatalf("HandleWindowDestroyed() error = %v", err)
	}
	if s.Tree.WindowByNative(2) != nil {
		t.Fatalf("window 2 still managed")
	}
	assertSizesSumToOne(t, s, ws)
	events := s.DrainEvents()
	if len(events) != 1 || events[0].Type != EventWindowUnmanaged || *events[0].UnmanagedHandle != 2 {
		t.Fatalf("events = %v, want one WindowUnmanaged for 2", eventTypes(events))
	}
}

func TestUnmanageDeactivatesHiddenEmptyWorkspace(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	manage(t, s, windowOn(1, 0), cfg)
	if _, err := FocusWorkspace(s, "2", cfg); err != nil {
		t.Fatalf("FocusWorkspace() error = %v", err)
	}

	if err := HandleWindowDestroyed(s, windowOn(1, 0)); err != nil {
		t.Fatalf("HandleWindowDestroyed() error = %v", err)
	}
	if s.Tree.WorkspaceByName("1") != nil {
		t.Fatalf("hidden empty workspace 1 still active")
	}
}

func TestHandleWindowFocusedDisplaysWorkspace(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)
	if _, err := FocusWorkspace(s, "2", cfg); err != nil {
		t.Fatalf("FocusWorkspace() error = %v", err)
	}

	if err := HandleWindowFocused(s, windowOn(1, 0), cfg); err != nil {
		t.Fatalf("HandleWindowFocused() error = %v", err)
	}
	ws := s.Tree.Workspace(w)
	if !s.Tree.IsDisplayed(ws) {
		t.Fatalf("workspace of focused window not displayed")
	}
	if focused := s.Tree.Focused(); focused == nil || focused.ID() != w.ID() {
		t.Fatalf("focused = %v, want window", focused)
	}
}

func TestManageWindowIsIdempotent(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	first := manage(t, s, windowOn(1, 0), cfg)
	second := manage(t, s, windowOn(1, 0), cfg)
	if first != second {
		t.Fatalf("managing a window twice created a second container")
	}
	if got := len(s.Tree.Windows(s.Tree.Root())); got != 1 {
		t.Fatalf("windows = %d, want 1", got)
	}
}

func TestManageWindowFloatingInitialState(t *testing.T) {
	cfg := testConfig()
	cfg.WindowBehavior.InitialState = "floating"
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)

	nw, ok := w.(*container.NonTilingWindow)
	if !ok {
		t.Fatalf("window is %T, want *NonTilingWindow", w)
	}
	want := platform.Rect{X: 560, Y: 240, Width: 800, Height: 600}
	if got := nw.Window().State.Placement; got != want {
		t.Fatalf("placement = %+v, want centered %+v", got, want)
	}
}

func TestSyncWindowsReconcilesDrift(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	manage(t, s, windowOn(1, 0), cfg)
	manage(t, s, windowOn(2, 0), cfg)

	backend.windows = []platform.Window{windowOn(2, 0), windowOn(3, 0)}
	if err := SyncWindows(s, cfg); err != nil {
		t.Fatalf("SyncWindows() error = %v", err)
	}
	if s.Tree.WindowByNative(1) != nil {
		t.Fatalf("stale window 1 still managed")
	}
	if s.Tree.WindowByNative(3) == nil {
		t.Fatalf("new window 3 not managed")
	}
	assertSizesSumToOne(t, s, FocusedWorkspace(s))
}
