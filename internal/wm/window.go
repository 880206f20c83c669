package wm

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

// ManageWindow adds native to the tree. Already managed windows are
// returned as they are.
func ManageWindow(s *State, native platform.Window, cfg *config.Config) (container.WindowContainer, error) {
	if existing := s.Tree.WindowByNative(native.ID); existing != nil {
		return existing, nil
	}

	ws := workspaceForWindow(s, native)
	if ws == nil {
		return nil, fmt.Errorf("manage window %d: %w", native.ID, ErrNoWorkspace)
	}

	var w container.WindowContainer
	if cfg.WindowBehavior.InitialState == "floating" {
		placement := native.Bounds
		if cfg.WindowBehavior.Floating.Centered {
			if rect, err := WorkspaceRect(s, ws, cfg); err == nil {
				placement = placement.TranslateToCenter(rect)
			}
		}
		nw := container.NewNonTilingWindow(native, container.WindowState{Kind: container.StateFloating, Placement: placement})
		nw.Window().FloatingPlacement = placement
		if err := s.Tree.Attach(nw, ws, s.Tree.ChildCount(ws)); err != nil {
			return nil, err
		}
		s.PendingSync.QueueContainerToRedraw(nw)
		w = nw
	} else {
		tw := container.NewTilingWindow(native)
		tw.Window().FloatingPlacement = native.Bounds
		parent, index := container.Container(ws), s.Tree.ChildCount(ws)
		for _, c := range s.Tree.FocusOrder(ws) {
			if focused, ok := c.(*container.TilingWindow); ok {
				parent, index = s.Tree.Parent(focused), s.Tree.Index(focused)+1
				break
			}
		}
		if err := s.Tree.Attach(tw, parent, index); err != nil {
			return nil, err
		}
		s.PendingSync.QueueContainersToRedraw(s.Tree.TilingChildren(parent))
		w = tw
	}
	s.PendingSync.QueueWorkspaceToReorder(ws)

	if err := s.Tree.SetFocused(w); err != nil {
		return nil, err
	}
	s.logger.Info("window managed", "window", native.ID, "title", native.Title, "workspace", ws.Name)
	s.EmitEvent(windowManaged(ToDTO(s.Tree, w)))
	return w, nil
}

// workspaceForWindow picks the displayed workspace of the monitor under
// the window's center, then the focused workspace.
func workspaceForWindow(s *State, native platform.Window) *container.Workspace {
	cx := native.Bounds.X + native.Bounds.Width/2
	cy := native.Bounds.Y + native.Bounds.Height/2
	for _, m := range s.Tree.Monitors() {
		b := m.Native.Bounds
		if cx >= b.X && cx < b.X+b.Width && cy >= b.Y && cy < b.Y+b.Height {
			if ws := s.Tree.DisplayedWorkspace(m); ws != nil {
				return ws
			}
		}
	}
	return FocusedWorkspace(s)
}

// UnmanageWindow removes w from the tree and renormalizes what it leaves
// behind. An empty, hidden workspace that is not kept alive is deactivated.
func UnmanageWindow(s *State, w container.WindowContainer) error {
	parent := s.Tree.Parent(w)
	if parent == nil {
		return fmt.Errorf("unmanage %s: %w", w.ID(), container.ErrNoParent)
	}
	ws := s.Tree.Workspace(w)

	if err := s.Tree.Detach(w); err != nil {
		return err
	}
	if err := s.Tree.Release(w); err != nil {
		return err
	}
	if container.IsTiling(w) {
		s.Tree.Normalize(parent)
		s.PendingSync.QueueContainersToRedraw(s.Tree.TilingChildren(parent))
		if err := removeEmptySplit(s, parent); err != nil {
			return err
		}
	}
	native := w.Window().Native.ID
	delete(s.FullscreenCooldowns, native)

	s.logger.Info("window unmanaged", "window", native)
	s.EmitEvent(windowUnmanaged(w.ID(), native))

	if ws != nil {
		s.PendingSync.QueueWorkspaceToReorder(ws)
		if s.Tree.ChildCount(ws) == 0 && !ws.KeepAlive && !s.Tree.IsDisplayed(ws) {
			return DeactivateWorkspace(s, ws)
		}
	}
	return nil
}

// SetFocused records w as focused and announces it.
func SetFocused(s *State, c container.Container) error {
	if focused := s.Tree.Focused(); focused != nil && focused.ID() == c.ID() {
		return nil
	}
	if err := s.Tree.SetFocused(c); err != nil {
		return err
	}
	s.EmitEvent(focusChanged(ToDTO(s.Tree, c)))
	return nil
}

// ToggleWindowState switches w to kind, or back out of kind if it is
// already there.
func ToggleWindowState(s *State, w container.WindowContainer, kind container.StateKind) (container.WindowContainer, error) {
	return UpdateWindowState(s, w, ToggledState(w, kind))
}

// ResizeWindow sets the tiling share of w. When relative is set, value is
// added to the current share.
func ResizeWindow(s *State, w container.WindowContainer, value float64, relative bool) error {
	tc, ok := w.(container.TilingContainer)
	if !ok {
		return fmt.Errorf("resize %s: %w", w.Kind(), ErrInvalidState)
	}
	target := value
	if relative {
		target = tc.TilingSize() + value
	}
	s.Tree.ResizeTilingContainer(tc, target)
	if parent := s.Tree.Parent(tc); parent != nil {
		s.PendingSync.QueueContainersToRedraw(s.Tree.TilingChildren(parent))
	}
	return nil
}

// HandleWindowShown manages a newly visible window.
func HandleWindowShown(s *State, native platform.Window, cfg *config.Config) error {
	_, err := ManageWindow(s, native, cfg)
	return err
}

// HandleWindowDestroyed unmanages a window that no longer exists.
func HandleWindowDestroyed(s *State, native platform.Window) error {
	w := s.Tree.WindowByNative(native.ID)
	if w == nil {
		return nil
	}
	return UnmanageWindow(s, w)
}

// HandleWindowFocused records native focus. Focusing a window on a
// hidden workspace displays that workspace.
func HandleWindowFocused(s *State, native platform.Window, cfg *config.Config) error {
	w := s.Tree.WindowByNative(native.ID)
	if w == nil {
		return nil
	}
	if ws := s.Tree.Workspace(w); ws != nil && !s.Tree.IsDisplayed(ws) {
		if _, err := FocusWorkspace(s, ws.Name, cfg); err != nil {
			return err
		}
	}
	return SetFocused(s, w)
}

// HandleWindowMinimized applies a native minimize.
func HandleWindowMinimized(s *State, native platform.Window) error {
	w := s.Tree.WindowByNative(native.ID)
	if w == nil {
		return nil
	}
	_, err := UpdateWindowState(s, w, container.WindowState{Kind: container.StateMinimized})
	return err
}

// HandleWindowMinimizeEnded restores a window to the state it had before
// it was minimized.
func HandleWindowMinimizeEnded(s *State, native platform.Window) error {
	w := s.Tree.WindowByNative(native.ID)
	if w == nil || w.Window().State.Kind != container.StateMinimized {
		return nil
	}
	target := container.WindowState{Kind: container.StateTiling}
	if prev := w.Window().PrevState; prev != nil && prev.Kind != container.StateMinimized {
		target = *prev
	}
	_, err := UpdateWindowState(s, w, target)
	return err
}

// HandleWindowLocationChanged reacts to a window being moved or resized by
// the user or the application.
func HandleWindowLocationChanged(s *State, native platform.Window, cfg *config.Config) error {
	w := s.Tree.WindowByNative(native.ID)
	if w == nil {
		return nil
	}
	if InFullscreenCooldown(s, native.ID, cfg) {
		return nil
	}

	data := w.Window()
	data.Native.Bounds = native.Bounds
	m := s.Tree.Monitor(w)
	if m == nil {
		return nil
	}
	coversMonitor := native.Bounds == m.Native.Bounds

	switch {
	case coversMonitor && data.State.Kind != container.StateFullscreen:
		_, err := UpdateWindowState(s, w, container.WindowState{Kind: container.StateFullscreen})
		return err
	case !coversMonitor && data.State.Kind == container.StateFullscreen:
		target := container.WindowState{Kind: container.StateTiling}
		if prev := data.PrevState; prev != nil && prev.Kind != container.StateFullscreen {
			target = *prev
		}
		if target.Kind == container.StateFloating {
			target.Placement = native.Bounds
		}
		_, err := UpdateWindowState(s, w, target)
		return err
	case data.State.Kind == container.StateFloating:
		data.FloatingPlacement = native.Bounds
		data.HasCustomFloatingPlacement = true
		data.State.Placement = native.Bounds
	}
	return nil
}

// InFullscreenCooldown reports whether native entered or left fullscreen
// too recently for its location to be trusted. Expired entries are pruned.
func InFullscreenCooldown(s *State, native platform.WindowID, cfg *config.Config) bool {
	started, ok := s.FullscreenCooldowns[native]
	if !ok {
		return false
	}
	if s.now().Sub(started) < cfg.FullscreenCooldown() {
		return true
	}
	delete(s.FullscreenCooldowns, native)
	return false
}

// SyncWindows reconciles managed windows against the platform's window
// list, for windows whose notifications were missed.
func SyncWindows(s *State, cfg *config.Config) error {
	natives, err := s.backend.Windows()
	if err != nil {
		return err
	}
	present := make(map[platform.WindowID]platform.Window, len(natives))
	for _, native := range natives {
		present[native.ID] = native
	}

	for _, w := range s.Tree.Windows(s.Tree.Root()) {
		if _, ok := present[w.Window().Native.ID]; ok {
			continue
		}
		// Minimized windows are often dropped from the platform list.
		if w.Window().State.Kind == container.StateMinimized {
			continue
		}
		if err := UnmanageWindow(s, w); err != nil {
			s.logger.Warn("failed to unmanage stale window", "window", w.Window().Native.ID, "error", err)
		}
	}
	for _, native := range natives {
		if s.Tree.WindowByNative(native.ID) != nil {
			continue
		}
		if _, err := ManageWindow(s, native, cfg); err != nil {
			s.logger.Warn("failed to manage window", "window", native.ID, "error", err)
		}
	}
	return nil
}
