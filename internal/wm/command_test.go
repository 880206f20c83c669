package wm

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		want    Command
		wantErr bool
	}{
		{text: "set-floating", want: Command{Name: "set-floating", Args: []string{}}},
		{text: "  resize   +0.05 ", want: Command{Name: "resize", Args: []string{"+0.05"}}},
		{text: "resize 0.5", want: Command{Name: "resize", Args: []string{"0.5"}}},
		{text: "focus-workspace 3", want: Command{Name: "focus-workspace", Args: []string{"3"}}},
		{text: "", wantErr: true},
		{text: "close-window", wantErr: true},
		{text: "resize", wantErr: true},
		{text: "resize wide", wantErr: true},
		{text: "resize 1.5", wantErr: true},
		{text: "set-tiling now", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseCommand(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCommand(%q) = %v, want error", tt.text, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand(%q) error = %v", tt.text, err)
			}
			if got.String() != tt.want.String() {
				t.Fatalf("ParseCommand(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseCommandUnknownIsSentinel(t *testing.T) {
	if _, err := ParseCommand("frobnicate"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("error = %v, want ErrUnknownCommand", err)
	}
}

func TestRunCommandWhilePaused(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)
	s.DrainEvents()

	if _, err := RunCommand(s, Command{Name: "wm-toggle-pause"}, w, cfg); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !s.Paused {
		t.Fatalf("Paused = false after toggle")
	}
	if _, err := RunCommand(s, Command{Name: "set-floating"}, w, cfg); !errors.Is(err, ErrPaused) {
		t.Fatalf("set-floating while paused error = %v, want ErrPaused", err)
	}
	if _, err := RunCommand(s, Command{Name: "wm-toggle-pause"}, w, cfg); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if countEvents(s.DrainEvents(), EventPauseChanged) != 2 {
		t.Fatalf("want two PauseChanged events")
	}
	if _, err := RunCommand(s, Command{Name: "set-floating"}, w, cfg); err != nil {
		t.Fatalf("set-floating after unpause: %v", err)
	}
}

func TestRunCommandSetStateKeepsSubjectID(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)

	id, err := RunCommand(s, Command{Name: "toggle-floating"}, w, cfg)
	if err != nil {
		t.Fatalf("toggle-floating: %v", err)
	}
	if id != w.ID() {
		t.Fatalf("subject id = %s, want %s", id, w.ID())
	}
	if got := s.Tree.WindowByNative(1).Window().State.Kind; got != container.StateFloating {
		t.Fatalf("state = %v, want floating", got)
	}

	floating := s.Tree.WindowByNative(1)
	if _, err := RunCommand(s, Command{Name: "toggle-floating"}, floating, cfg); err != nil {
		t.Fatalf("toggle-floating back: %v", err)
	}
	if got := s.Tree.WindowByNative(1).Window().State.Kind; got != container.StateTiling {
		t.Fatalf("state = %v, want tiling", got)
	}
}

func TestRunCommandNeedsWindowSubject(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	ws := FocusedWorkspace(s)

	if _, err := RunCommand(s, Command{Name: "set-floating"}, ws, cfg); err == nil {
		t.Fatalf("set-floating on a workspace succeeded")
	}
}

func TestRunCommandResize(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w1 := manage(t, s, windowOn(1, 0), cfg)
	manage(t, s, windowOn(2, 0), cfg)

	cmd, err := ParseCommand("resize +0.1")
	if err != nil {
		t.Fatalf("ParseCommand() error = %v", err)
	}
	if _, err := RunCommand(s, cmd, w1, cfg); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if got := w1.(container.TilingContainer).TilingSize(); math.Abs(got-0.6) > epsilon {
		t.Fatalf("size = %v, want 0.6", got)
	}
	assertSizesSumToOne(t, s, s.Tree.Workspace(w1))
}

func TestToggleTilingDirection(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)
	ws := s.Tree.Workspace(w)
	s.DrainEvents()

	if ws.TilingDirection != container.Horizontal {
		t.Fatalf("initial direction = %v, want horizontal", ws.TilingDirection)
	}
	if _, err := RunCommand(s, Command{Name: "toggle-tiling-direction"}, w, cfg); err != nil {
		t.Fatalf("toggle-tiling-direction: %v", err)
	}
	if ws.TilingDirection != container.Vertical {
		t.Fatalf("direction = %v, want vertical", ws.TilingDirection)
	}
	events := s.DrainEvents()
	if len(events) != 1 || events[0].Type != EventTilingDirectionChanged {
		t.Fatalf("events = %v, want one TilingDirectionChanged", eventTypes(events))
	}
	if events[0].DirectionContainer == nil || events[0].DirectionContainer.ID != ws.ID() {
		t.Fatalf("direction container is not the workspace")
	}

	direction, dto, err := TilingDirection(s, w)
	if err != nil || direction != container.Vertical || dto.ID != ws.ID() {
		t.Fatalf("TilingDirection() = %v %s %v", direction, dto.ID, err)
	}
}

func TestToggleTilingDirectionWrapsWindowWithSiblings(t *testing.T) {
	cfg := testConfig()
	backend := newFakeBackend(monitorAt(1, 0))
	s := newTestState(t, backend, cfg)
	manage(t, s, windowOn(1, 0), cfg)
	w2 := manage(t, s, windowOn(2, 0), cfg)
	ws := s.Tree.Workspace(w2)
	s.DrainEvents()

	if _, err := RunCommand(s, Command{Name: "toggle-tiling-direction"}, w2, cfg); err != nil {
		t.Fatalf("toggle-tiling-direction: %v", err)
	}
	split, ok := s.Tree.Parent(w2).(*container.Split)
	if !ok {
		t.Fatalf("window parent is %s, want split", s.Tree.Parent(w2).Kind())
	}
	if split.Direction != container.Vertical || ws.TilingDirection != container.Horizontal {
		t.Fatalf("split = %v, workspace = %v; want vertical split in horizontal workspace", split.Direction, ws.TilingDirection)
	}
	if s.Tree.Index(split) != 1 || math.Abs(split.TilingSize()-0.5) > epsilon {
		t.Fatalf("split index = %d size = %v, want 1 and 0.5", s.Tree.Index(split), split.TilingSize())
	}
	events := s.DrainEvents()
	if len(events) != 1 || events[0].DirectionContainer == nil || events[0].DirectionContainer.ID != split.ID() {
		t.Fatalf("events = %v, want one TilingDirectionChanged for the split", eventTypes(events))
	}

	// As the only child of the split, toggling flips the split itself.
	if _, err := RunCommand(s, Command{Name: "toggle-tiling-direction"}, w2, cfg); err != nil {
		t.Fatalf("toggle-tiling-direction: %v", err)
	}
	if s.Tree.Parent(w2).ID() != split.ID() || split.Direction != container.Horizontal {
		t.Fatalf("only child was wrapped again or split not flipped")
	}
	if _, err := RunCommand(s, Command{Name: "toggle-tiling-direction"}, w2, cfg); err != nil {
		t.Fatalf("toggle-tiling-direction: %v", err)
	}

	// New windows go after the focused window, inside the split.
	w3 := manage(t, s, windowOn(3, 0), cfg)
	if s.Tree.Parent(w3).ID() != split.ID() {
		t.Fatalf("new window not placed in the split")
	}
	Flush(s, cfg)
	want := map[platform.WindowID]platform.Rect{
		1: {X: 0, Y: 0, Width: 960, Height: 1080},
		2: {X: 960, Y: 0, Width: 960, Height: 540},
		3: {X: 960, Y: 540, Width: 960, Height: 540},
	}
	for id, rect := range want {
		if got := backend.moves[id]; got != rect {
			t.Fatalf("window %d rect = %+v, want %+v", id, got, rect)
		}
	}
}

func TestSplitSurvivesFloatingRoundTrip(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	manage(t, s, windowOn(1, 0), cfg)
	w2 := manage(t, s, windowOn(2, 0), cfg)
	if _, err := RunCommand(s, Command{Name: "toggle-tiling-direction"}, w2, cfg); err != nil {
		t.Fatalf("toggle-tiling-direction: %v", err)
	}
	split := s.Tree.Parent(w2)
	w3 := manage(t, s, windowOn(3, 0), cfg)
	ws := s.Tree.Workspace(w3)

	floating, err := UpdateWindowState(s, w3, defaultState(w3, container.StateFloating))
	if err != nil {
		t.Fatalf("set floating: %v", err)
	}
	if s.Tree.Parent(floating).ID() != ws.ID() {
		t.Fatalf("floating window not moved under the workspace")
	}
	if _, ok := s.Tree.Get(split.ID()); !ok {
		t.Fatalf("split with a remaining child was removed")
	}
	assertSizesSumToOne(t, s, split)

	tiled, err := UpdateWindowState(s, floating, container.WindowState{Kind: container.StateTiling})
	if err != nil {
		t.Fatalf("set tiling: %v", err)
	}
	if s.Tree.Parent(tiled).ID() != split.ID() || s.Tree.Index(tiled) != 1 {
		t.Fatalf("window restored to %s index %d, want split index 1", s.Tree.Parent(tiled).Kind(), s.Tree.Index(tiled))
	}
	if got := tiled.(container.TilingContainer).TilingSize(); math.Abs(got-0.5) > epsilon {
		t.Fatalf("restored size = %v, want 0.5", got)
	}
	assertSizesSumToOne(t, s, split)
	assertSizesSumToOne(t, s, ws)

	// Floating the last window in the split removes the split.
	if _, err := UpdateWindowState(s, tiled, container.WindowState{Kind: container.StateFloating}); err != nil {
		t.Fatalf("set floating: %v", err)
	}
	last := s.Tree.WindowByNative(2)
	if _, err := UpdateWindowState(s, last, container.WindowState{Kind: container.StateFloating}); err != nil {
		t.Fatalf("set floating: %v", err)
	}
	if _, ok := s.Tree.Get(split.ID()); ok {
		t.Fatalf("empty split still in the tree")
	}
	assertSizesSumToOne(t, s, ws)
}

func TestBindingModes(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	subject := FocusedWorkspace(s)

	if _, err := RunCommand(s, Command{Name: "wm-enable-binding-mode", Args: []string{"resize"}}, subject, cfg); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := RunCommand(s, Command{Name: "wm-enable-binding-mode", Args: []string{"resize"}}, subject, cfg); err != nil {
		t.Fatalf("enable twice: %v", err)
	}
	if len(s.BindingModes) != 1 || s.BindingModes[0].Name != "resize" {
		t.Fatalf("BindingModes = %v, want [resize]", s.BindingModes)
	}
	if _, err := RunCommand(s, Command{Name: "wm-enable-binding-mode", Args: []string{"missing"}}, subject, cfg); err == nil {
		t.Fatalf("enabling an unknown mode succeeded")
	}
	if _, err := RunCommand(s, Command{Name: "wm-disable-binding-mode", Args: []string{"resize"}}, subject, cfg); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if len(s.BindingModes) != 0 {
		t.Fatalf("BindingModes = %v, want none", s.BindingModes)
	}
	events := s.DrainEvents()
	if got := countEvents(events, EventBindingModesChanged); got != 2 {
		t.Fatalf("BindingModesChanged events = %d, want 2", got)
	}

	// Disabling the last mode still reports the (empty) list.
	data, err := json.Marshal(events[len(events)-1])
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if !strings.Contains(string(data), `"newBindingModes":[]`) {
		t.Fatalf("event JSON = %s, want an empty newBindingModes list", data)
	}
	data, err = json.Marshal(UserConfigChanged())
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if strings.Contains(string(data), "newBindingModes") {
		t.Fatalf("unrelated event JSON = %s carries newBindingModes", data)
	}
}

func TestRunCommandReloadConfig(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	subject := FocusedWorkspace(s)

	if _, err := RunCommand(s, Command{Name: "wm-reload-config"}, subject, cfg); err == nil {
		t.Fatalf("reload without a reloader succeeded")
	}
	called := false
	s.ReloadConfig = func() error {
		called = true
		return nil
	}
	if _, err := RunCommand(s, Command{Name: "wm-reload-config"}, subject, cfg); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !called {
		t.Fatalf("ReloadConfig not called")
	}
}

func TestResolveSubject(t *testing.T) {
	cfg := testConfig()
	s := newTestState(t, newFakeBackend(monitorAt(1, 0)), cfg)
	w := manage(t, s, windowOn(1, 0), cfg)

	got, err := ResolveSubject(s, nil)
	if err != nil || got.ID() != w.ID() {
		t.Fatalf("ResolveSubject(nil) = %v, %v; want focused window", got, err)
	}
	id := uuid.New()
	if _, err := ResolveSubject(s, &id); !errors.Is(err, container.ErrNotFound) {
		t.Fatalf("ResolveSubject(unknown) error = %v, want ErrNotFound", err)
	}
}
