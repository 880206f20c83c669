package wm

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

func TestUpdateWindowStateSameStateIsNoop(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)
	Flush(s, cfg)
	s.DrainEvents()
	nodes := s.Tree.Len()

	got, err := UpdateWindowState(s, w, container.WindowState{Kind: container.StateTiling})
	if err != nil {
		t.Fatalf("UpdateWindowState() error = %v", err)
	}
	if got != w {
		t.Fatalf("UpdateWindowState() returned a different container")
	}
	if !s.PendingSync.IsEmpty() {
		t.Fatalf("pending sync not empty after self-transition")
	}
	if events := s.DrainEvents(); len(events) != 0 {
		t.Fatalf("events = %v, want none", eventTypes(events))
	}
	if s.Tree.Len() != nodes {
		t.Fatalf("tree size = %d, want %d", s.Tree.Len(), nodes)
	}
}

func TestFloatingRoundTripRestoresSize(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w1 := manage(t, s, windowOn(1, 0), cfg)
	w2 := manage(t, s, windowOn(2, 0), cfg)
	w3 := manage(t, s, windowOn(3, 0), cfg)
	ws := s.Tree.Workspace(w2)

	if err := ResizeWindow(s, w2, 0.5, false); err != nil {
		t.Fatalf("ResizeWindow() error = %v", err)
	}

	floating, err := UpdateWindowState(s, w2, defaultState(w2, container.StateFloating))
	if err != nil {
		t.Fatalf("set floating: %v", err)
	}
	if floating.ID() != w2.ID() {
		t.Fatalf("floating window ID changed")
	}
	if _, ok := floating.(*container.NonTilingWindow); !ok {
		t.Fatalf("floating window is %T, want *NonTilingWindow", floating)
	}
	assertSizesSumToOne(t, s, ws)
	for _, w := range []container.WindowContainer{w1, w3} {
		if got := w.(container.TilingContainer).TilingSize(); math.Abs(got-0.5) > epsilon {
			t.Fatalf("sibling size = %v, want 0.5", got)
		}
	}

	tiled, err := UpdateWindowState(s, floating, container.WindowState{Kind: container.StateTiling})
	if err != nil {
		t.Fatalf("set tiling: %v", err)
	}
	tw, ok := tiled.(*container.TilingWindow)
	if !ok {
		t.Fatalf("tiled window is %T, want *TilingWindow", tiled)
	}
	if got := tw.TilingSize(); math.Abs(got-0.5) > epsilon {
		t.Fatalf("restored size = %v, want 0.5", got)
	}
	if got := s.Tree.Index(tw); got != 1 {
		t.Fatalf("restored index = %d, want 1", got)
	}
	if prev := tw.Window().PrevState; prev == nil || prev.Kind != container.StateFloating {
		t.Fatalf("PrevState = %v, want floating", prev)
	}
	assertSizesSumToOne(t, s, ws)
}

func TestRestoreScalesWithSiblingCount(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w1 := manage(t, s, windowOn(1, 0), cfg)
	manage(t, s, windowOn(2, 0), cfg)
	manage(t, s, windowOn(3, 0), cfg)
	ws := s.Tree.Workspace(w1)

	if err := ResizeWindow(s, w1, 0.4, false); err != nil {
		t.Fatalf("ResizeWindow() error = %v", err)
	}
	floating, err := UpdateWindowState(s, w1, defaultState(w1, container.StateFloating))
	if err != nil {
		t.Fatalf("set floating: %v", err)
	}

	// Two siblings when the window left, three when it comes back.
	manage(t, s, windowOn(4, 0), cfg)

	tiled, err := UpdateWindowState(s, floating, container.WindowState{Kind: container.StateTiling})
	if err != nil {
		t.Fatalf("set tiling: %v", err)
	}
	want := 0.4 * 3 / 4
	if got := tiled.(container.TilingContainer).TilingSize(); math.Abs(got-want) > epsilon {
		t.Fatalf("restored size = %v, want %v", got, want)
	}
	if got := s.Tree.Index(tiled); got != 0 {
		t.Fatalf("restored index = %d, want 0", got)
	}
	assertSizesSumToOne(t, s, ws)
}

func TestSetTilingWithoutInsertionTargetFollowsFocus(t *testing.T) {
	cfg := testConfig()
	cfg.WindowBehavior.InitialState = "floating"
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	f := manage(t, s, windowOn(1, 0), cfg)

	cfg.WindowBehavior.InitialState = "tiling"
	w2 := manage(t, s, windowOn(2, 0), cfg)
	manage(t, s, windowOn(3, 0), cfg)
	if err := SetFocused(s, w2); err != nil {
		t.Fatalf("SetFocused() error = %v", err)
	}

	tiled, err := UpdateWindowState(s, f, container.WindowState{Kind: container.StateTiling})
	if err != nil {
		t.Fatalf("set tiling: %v", err)
	}
	if got, want := s.Tree.Index(tiled), s.Tree.Index(w2)+1; got != want {
		t.Fatalf("index = %d, want %d (after focused window)", got, want)
	}
	assertSizesSumToOne(t, s, s.Tree.Workspace(tiled))
}

func TestSetNonTilingRemovesEmptySplit(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	other := manage(t, s, windowOn(1, 0), cfg)
	ws := s.Tree.Workspace(other)

	split := container.NewSplit(container.Vertical)
	if err := s.Tree.Attach(split, ws, s.Tree.ChildCount(ws)); err != nil {
		t.Fatalf("attach split: %v", err)
	}
	nested := container.NewTilingWindow(windowOn(2, 0))
	if err := s.Tree.Attach(nested, split, 0); err != nil {
		t.Fatalf("attach nested window: %v", err)
	}

	floating, err := UpdateWindowState(s, nested, container.WindowState{Kind: container.StateFloating})
	if err != nil {
		t.Fatalf("set floating: %v", err)
	}
	if _, ok := s.Tree.Get(split.ID()); ok {
		t.Fatalf("empty split still in tree")
	}
	if parent := s.Tree.Parent(floating); parent == nil || parent.ID() != ws.ID() {
		t.Fatalf("floating window parent = %v, want workspace", parent)
	}
	it := floating.(*container.NonTilingWindow).InsertionTarget
	if it == nil || it.ParentID != split.ID() {
		t.Fatalf("InsertionTarget = %+v, want parent %s", it, split.ID())
	}
	assertSizesSumToOne(t, s, ws)

	// The split is gone, so going back to tiling falls back to focus.
	tiled, err := UpdateWindowState(s, floating, container.WindowState{Kind: container.StateTiling})
	if err != nil {
		t.Fatalf("set tiling: %v", err)
	}
	if parent := s.Tree.Parent(tiled); parent == nil || parent.ID() != ws.ID() {
		t.Fatalf("tiled window parent = %v, want workspace", parent)
	}
	assertSizesSumToOne(t, s, ws)
}

func TestSetMinimizedWaitsForPlatform(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	w := manage(t, s, windowOn(1, 0), cfg)
	Flush(s, cfg)
	s.DrainEvents()

	got, err := UpdateWindowState(s, w, container.WindowState{Kind: container.StateMinimized})
	if err != nil {
		t.Fatalf("UpdateWindowState() error = %v", err)
	}
	if got != w || w.Window().State.Kind != container.StateTiling {
		t.Fatalf("window changed before the platform minimized it")
	}
	if len(backend.minimizeCalls) != 1 || backend.minimizeCalls[0] != 1 {
		t.Fatalf("minimize calls = %v, want [1]", backend.minimizeCalls)
	}
	if !s.PendingSync.IsEmpty() {
		t.Fatalf("pending sync not empty")
	}

	backend.minimized[1] = true
	if err := HandleWindowMinimized(s, windowOn(1, 0)); err != nil {
		t.Fatalf("HandleWindowMinimized() error = %v", err)
	}
	minimized := s.Tree.WindowByNative(1)
	if minimized.Window().State.Kind != container.StateMinimized {
		t.Fatalf("state = %v, want minimized", minimized.Window().State.Kind)
	}
	if len(backend.minimizeCalls) != 1 {
		t.Fatalf("minimize called again: %v", backend.minimizeCalls)
	}

	backend.minimized[1] = false
	if err := HandleWindowMinimizeEnded(s, windowOn(1, 0)); err != nil {
		t.Fatalf("HandleWindowMinimizeEnded() error = %v", err)
	}
	if restored := s.Tree.WindowByNative(1); restored.Window().State.Kind != container.StateTiling {
		t.Fatalf("state = %v, want tiling", restored.Window().State.Kind)
	}
}

func TestFullscreenCooldownSuppressesLocationChanges(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)

	if _, err := RunCommand(s, Command{Name: "set-fullscreen"}, w, cfg); err != nil {
		t.Fatalf("set-fullscreen: %v", err)
	}
	if _, ok := s.FullscreenCooldowns[1]; !ok {
		t.Fatalf("no cooldown entry after entering fullscreen")
	}

	moved := windowOn(1, 0)
	if err := HandleWindowLocationChanged(s, moved, cfg); err != nil {
		t.Fatalf("HandleWindowLocationChanged() error = %v", err)
	}
	if got := s.Tree.WindowByNative(1).Window().State.Kind; got != container.StateFullscreen {
		t.Fatalf("state during cooldown = %v, want fullscreen", got)
	}

	advanceClock(s, time.Second)
	if err := HandleWindowLocationChanged(s, moved, cfg); err != nil {
		t.Fatalf("HandleWindowLocationChanged() error = %v", err)
	}
	if got := s.Tree.WindowByNative(1).Window().State.Kind; got != container.StateTiling {
		t.Fatalf("state after cooldown = %v, want tiling", got)
	}
}

func TestLocationChangeCoveringMonitorEntersFullscreen(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	manage(t, s, windowOn(1, 0), cfg)

	native := windowOn(1, 0)
	native.Bounds = platform.Rect{Width: 1920, Height: 1080}
	if err := HandleWindowLocationChanged(s, native, cfg); err != nil {
		t.Fatalf("HandleWindowLocationChanged() error = %v", err)
	}
	if got := s.Tree.WindowByNative(1).Window().State.Kind; got != container.StateFullscreen {
		t.Fatalf("state = %v, want fullscreen", got)
	}
}

func TestFloatingMoveRecordsCustomPlacement(t *testing.T) {
	cfg := testConfig()
	cfg.WindowBehavior.InitialState = "floating"
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	manage(t, s, windowOn(1, 0), cfg)

	native := windowOn(1, 0)
	native.Bounds = platform.Rect{X: 10, Y: 20, Width: 300, Height: 200}
	if err := HandleWindowLocationChanged(s, native, cfg); err != nil {
		t.Fatalf("HandleWindowLocationChanged() error = %v", err)
	}
	data := s.Tree.WindowByNative(1).Window()
	if !data.HasCustomFloatingPlacement || data.FloatingPlacement != native.Bounds {
		t.Fatalf("floating placement = %+v (custom %v), want %+v", data.FloatingPlacement, data.HasCustomFloatingPlacement, native.Bounds)
	}
}

func TestToggledState(t *testing.T) {
	placement := platform.Rect{X: 1, Y: 2, Width: 3, Height: 4}
	floating := container.WindowState{Kind: container.StateFloating, Placement: placement}

	tests := []struct {
		name  string
		state container.WindowState
		prev  *container.WindowState
		kind  container.StateKind
		want  container.WindowState
	}{
		{
			name:  "tiling to floating",
			state: container.WindowState{Kind: container.StateTiling},
			kind:  container.StateFloating,
			want:  floating,
		},
		{
			name:  "floating back to tiling",
			state: floating,
			prev:  &container.WindowState{Kind: container.StateTiling},
			kind:  container.StateFloating,
			want:  container.WindowState{Kind: container.StateTiling},
		},
		{
			name:  "fullscreen back to floating",
			state: container.WindowState{Kind: container.StateFullscreen},
			prev:  &floating,
			kind:  container.StateFullscreen,
			want:  floating,
		},
		{
			name:  "fullscreen without history",
			state: container.WindowState{Kind: container.StateFullscreen},
			kind:  container.StateFullscreen,
			want:  container.WindowState{Kind: container.StateTiling},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := container.NewNonTilingWindow(platform.Window{ID: 1}, tt.state)
			w.Window().PrevState = tt.prev
			w.Window().FloatingPlacement = placement
			if got := ToggledState(w, tt.kind); got != tt.want {
				t.Fatalf("ToggledState() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWindowStateTransitionQueuesSync(t *testing.T) {
	floatingAt := func(x int) container.WindowState {
		return container.WindowState{Kind: container.StateFloating, Placement: platform.Rect{X: x, Y: 10, Width: 400, Height: 300}}
	}
	fullscreenAt := func(x int) container.WindowState {
		return container.WindowState{Kind: container.StateFullscreen, Placement: platform.Rect{X: x, Width: 1920, Height: 1080}}
	}
	tiling := container.WindowState{Kind: container.StateTiling}

	tests := []struct {
		name string
		// from is applied to the middle of three tiling windows first.
		from         container.WindowState
		to           container.WindowState
		wantPrev     container.StateKind
		wantReorder  bool
		wantSiblings bool
	}{
		{"tiling to floating", tiling, floatingAt(10), container.StateTiling, true, true},
		{"tiling to fullscreen", tiling, fullscreenAt(0), container.StateTiling, true, true},
		{"floating to tiling", floatingAt(10), tiling, container.StateFloating, true, true},
		{"floating to fullscreen", floatingAt(10), fullscreenAt(0), container.StateFloating, true, false},
		{"fullscreen to floating", fullscreenAt(0), floatingAt(10), container.StateFullscreen, true, false},
		{"floating to floating", floatingAt(10), floatingAt(50), container.StateTiling, false, false},
		{"fullscreen to fullscreen", fullscreenAt(0), fullscreenAt(1), container.StateTiling, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
			w1 := manage(t, s, windowOn(1, 0), cfg)
			w := manage(t, s, windowOn(2, 0), cfg)
			w3 := manage(t, s, windowOn(3, 0), cfg)
			ws := s.Tree.Workspace(w)
			if tt.from != tiling {
				var err error
				if w, err = UpdateWindowState(s, w, tt.from); err != nil {
					t.Fatalf("setup transition: %v", err)
				}
			}
			s.PendingSync.Clear()

			got, err := UpdateWindowState(s, w, tt.to)
			if err != nil {
				t.Fatalf("UpdateWindowState() error = %v", err)
			}

			data := got.Window()
			if data.State != tt.to {
				t.Fatalf("state = %+v, want %+v", data.State, tt.to)
			}
			if data.PrevState == nil || data.PrevState.Kind != tt.wantPrev {
				t.Fatalf("previous state = %v, want %v", data.PrevState, tt.wantPrev)
			}

			reorder := s.PendingSync.WorkspacesToReorder()
			if tt.wantReorder && (len(reorder) != 1 || reorder[0] != ws.ID()) || !tt.wantReorder && len(reorder) != 0 {
				t.Fatalf("workspaces to reorder = %v, want reorder %v", reorder, tt.wantReorder)
			}

			want := map[uuid.UUID]bool{got.ID(): true}
			if tt.wantSiblings {
				want[w1.ID()] = true
				want[w3.ID()] = true
			}
			redraw := s.PendingSync.ContainersToRedraw()
			if len(redraw) != len(want) {
				t.Fatalf("containers to redraw = %v, want %d entries", redraw, len(want))
			}
			for _, id := range redraw {
				if !want[id] {
					t.Fatalf("unexpected container %s queued for redraw", id)
				}
			}
		})
	}
}
