package wm

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/container"
)

// UpdateWindowState moves w into target and returns the window after the
// change. The returned container may be a different variant with the same
// ID. When target equals the current state, w is returned untouched.
func UpdateWindowState(s *State, w container.WindowContainer, target container.WindowState) (container.WindowContainer, error) {
	current := w.Window().State
	if current == target {
		return w, nil
	}

	// Entering or leaving fullscreen moves the window through intermediate
	// geometries; location changes during the cooldown are ignored.
	if current.Kind == container.StateFullscreen || target.Kind == container.StateFullscreen {
		s.FullscreenCooldowns[w.Window().Native.ID] = s.now()
	}

	s.logger.Info("updating window state", "window", w.Window().Native.ID, "from", current.Kind, "to", target.Kind)

	if target.Kind == container.StateTiling {
		return setTiling(s, w)
	}
	return setNonTiling(s, w, target)
}

func setTiling(s *State, w container.WindowContainer) (container.WindowContainer, error) {
	nw, ok := w.(*container.NonTilingWindow)
	if !ok {
		return nil, fmt.Errorf("set tiling on %s: %w", w.Kind(), ErrInvalidState)
	}
	tree := s.Tree

	ws := tree.Workspace(nw)
	if ws == nil {
		return nil, fmt.Errorf("set tiling %s: %w", nw.ID(), ErrNoWorkspace)
	}
	parent := tree.Parent(nw)
	if parent == nil {
		return nil, fmt.Errorf("set tiling %s: %w", nw.ID(), container.ErrNoParent)
	}

	insertion := validInsertionTarget(s, nw)
	var (
		targetParent container.Container
		targetIndex  int
		afterFocused container.Container
	)
	switch {
	case insertion != nil:
		targetParent, _ = tree.Get(insertion.ParentID)
		targetIndex = insertion.Index
	default:
		for _, c := range tree.FocusOrder(ws) {
			if tw, ok := c.(*container.TilingWindow); ok {
				afterFocused = tw
				break
			}
		}
		if afterFocused == nil {
			targetParent = ws
			targetIndex = tree.ChildCount(ws)
		}
	}

	tw := nw.ToTiling()
	if err := tree.Replace(tw, parent, tree.Index(nw)); err != nil {
		return nil, err
	}

	// Resolve the slot after the replacement so removing the window from
	// its current position does not shift it.
	if afterFocused != nil {
		targetParent = tree.Parent(afterFocused)
		targetIndex = tree.Index(afterFocused) + 1
		if targetParent.ID() == parent.ID() && tree.Index(tw) < targetIndex {
			targetIndex--
		}
	}

	if err := tree.MoveWithinTree(tw, targetParent, targetIndex); err != nil {
		return nil, err
	}

	if insertion != nil {
		// Keep the same proportional share even if the sibling count
		// changed while the window was out of the layout.
		scale := float64(insertion.PrevSiblingCount+1) / float64(len(tree.TilingSiblings(tw))+1)
		tree.ResizeTilingContainer(tw, insertion.PrevTilingSize*scale)
	}

	s.PendingSync.
		QueueContainersToRedraw(tree.TilingChildren(targetParent)).
		QueueWorkspaceToReorder(ws)
	return tw, nil
}

// validInsertionTarget returns w's remembered tiling slot if its parent is
// still in the tree and on a displayed workspace.
func validInsertionTarget(s *State, w *container.NonTilingWindow) *container.InsertionTarget {
	it := w.InsertionTarget
	if it == nil {
		return nil
	}
	parent, ok := s.Tree.Get(it.ParentID)
	if !ok || !s.Tree.IsAttached(parent) {
		return nil
	}
	if parent.Kind() != container.KindWorkspace && parent.Kind() != container.KindSplit {
		return nil
	}
	ws := s.Tree.Workspace(parent)
	if ws == nil || !s.Tree.IsDisplayed(ws) {
		return nil
	}
	return it
}

func setNonTiling(s *State, w container.WindowContainer, target container.WindowState) (container.WindowContainer, error) {
	tree := s.Tree
	native := w.Window().Native.ID

	// Minimized is only entered once the platform confirms it.
	if target.Kind == container.StateMinimized {
		minimized, err := s.backend.IsMinimized(native)
		if err != nil {
			s.logger.Warn("failed to query minimized state", "window", native, "error", err)
		}
		if !minimized {
			s.logger.Info("no window state update, minimizing window", "window", native)
			if err := s.backend.Minimize(native); err != nil {
				s.logger.Warn("failed to minimize window", "window", native, "error", err)
			}
			return w, nil
		}
	}

	ws := tree.Workspace(w)
	if ws == nil {
		return nil, fmt.Errorf("set %s on %s: %w", target.Kind, w.ID(), ErrNoWorkspace)
	}

	switch v := w.(type) {
	case *container.NonTilingWindow:
		data := v.Window()
		if !data.State.SameKind(target) {
			prev := data.State
			data.PrevState = &prev
			s.PendingSync.QueueWorkspaceToReorder(ws)
		}
		data.State = target
		s.PendingSync.QueueContainerToRedraw(v)
		return v, nil

	case *container.TilingWindow:
		parent := tree.Parent(v)
		if parent == nil {
			return nil, fmt.Errorf("set %s on %s: %w", target.Kind, v.ID(), container.ErrNoParent)
		}
		nw := v.ToNonTiling(target, &container.InsertionTarget{
			ParentID:         parent.ID(),
			Index:            tree.Index(v),
			PrevTilingSize:   v.TilingSize(),
			PrevSiblingCount: len(tree.TilingSiblings(v)),
		})

		// Non-tiling windows always sit directly under the workspace.
		if parent.ID() != ws.ID() {
			if err := tree.MoveWithinTree(v, ws, tree.ChildCount(ws)); err != nil {
				return nil, err
			}
			s.PendingSync.QueueContainersToRedraw(tree.TilingChildren(parent))
			if err := removeEmptySplit(s, parent); err != nil {
				return nil, err
			}
		}

		if err := tree.Replace(nw, ws, tree.Index(v)); err != nil {
			return nil, err
		}

		s.PendingSync.
			QueueContainerToRedraw(nw).
			QueueContainersToRedraw(tree.TilingChildren(ws)).
			QueueWorkspaceToReorder(ws)
		return nw, nil

	default:
		return nil, fmt.Errorf("set %s on %s: %w", target.Kind, w.Kind(), ErrInvalidState)
	}
}

// removeEmptySplit drops split containers left without children, walking
// up while parents become empty too.
func removeEmptySplit(s *State, c container.Container) error {
	for {
		split, ok := c.(*container.Split)
		if !ok || s.Tree.ChildCount(split) > 0 {
			return nil
		}
		parent := s.Tree.Parent(split)
		if parent == nil {
			return nil
		}
		if err := s.Tree.Detach(split); err != nil {
			return err
		}
		if err := s.Tree.Release(split); err != nil {
			return err
		}
		s.Tree.Normalize(parent)
		s.PendingSync.QueueContainersToRedraw(s.Tree.TilingChildren(parent))
		c = parent
	}
}

// ToggledState is the state a toggle toward kind resolves to: kind itself,
// or the previous state when w is already in kind.
func ToggledState(w container.WindowContainer, kind container.StateKind) container.WindowState {
	data := w.Window()
	if data.State.Kind != kind {
		return defaultState(w, kind)
	}
	if data.PrevState != nil && data.PrevState.Kind != kind {
		return *data.PrevState
	}
	if kind == container.StateTiling {
		return defaultState(w, container.StateFloating)
	}
	return container.WindowState{Kind: container.StateTiling}
}

func defaultState(w container.WindowContainer, kind container.StateKind) container.WindowState {
	state := container.WindowState{Kind: kind}
	if kind == container.StateFloating {
		state.Placement = w.Window().FloatingPlacement
	}
	return state
}
