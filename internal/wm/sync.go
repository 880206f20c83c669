package wm

import (
	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/tiling"
)

// Flush applies the queued redraw and reorder work to the platform and
// clears the queue. A failing native call is logged and the rest of the
// batch still runs.
func Flush(s *State, cfg *config.Config) {
	ps := s.PendingSync
	if ps.IsEmpty() {
		return
	}
	defer ps.Clear()

	tree := s.Tree
	layouts := make(map[uuid.UUID]map[uuid.UUID]platform.Rect)
	layoutFor := func(ws *container.Workspace) map[uuid.UUID]platform.Rect {
		if l, ok := layouts[ws.ID()]; ok {
			return l
		}
		rect, err := WorkspaceRect(s, ws, cfg)
		if err != nil {
			return nil
		}
		l := tiling.Layout(tree, ws, rect, cfg.Gaps.InnerGap)
		layouts[ws.ID()] = l
		return l
	}

	for _, w := range windowsToRedraw(tree, ps.ContainersToRedraw()) {
		data := w.Window()
		native := data.Native.ID
		ws := tree.Workspace(w)
		m := tree.Monitor(w)
		if ws == nil || m == nil {
			continue
		}

		if !tree.IsDisplayed(ws) {
			if err := s.backend.SetVisible(native, false); err != nil {
				s.logger.Warn("failed to hide window", "window", native, "error", err)
			}
			continue
		}

		var rect platform.Rect
		switch data.State.Kind {
		case container.StateMinimized:
			continue
		case container.StateTiling:
			r, ok := layoutFor(ws)[w.ID()]
			if !ok {
				continue
			}
			rect = r
		case container.StateFloating:
			rect = data.State.Placement
			if rect.IsZero() {
				rect = data.FloatingPlacement
			}
			if rect.IsZero() {
				rect = data.Native.Bounds
			}
		case container.StateFullscreen:
			rect = data.State.Placement
			if rect.IsZero() {
				rect = m.Native.Bounds
			}
		}

		if err := s.backend.SetVisible(native, true); err != nil {
			s.logger.Warn("failed to show window", "window", native, "error", err)
		}
		if err := s.backend.MoveResize(native, rect); err != nil {
			s.logger.Warn("failed to redraw window", "window", native, "error", err)
			continue
		}
		s.logger.Debug("redrew window", "window", native, "state", data.State.Kind, "rect", rect)
		data.Native.Bounds = rect
		data.PendingDPIAdjustment = false
	}

	for _, id := range ps.WorkspacesToReorder() {
		c, ok := tree.Get(id)
		if !ok {
			continue
		}
		ws, ok := c.(*container.Workspace)
		if !ok || !tree.IsAttached(ws) || !tree.IsDisplayed(ws) {
			continue
		}
		if err := s.backend.Restack(stackingOrder(tree, ws)); err != nil {
			s.logger.Warn("failed to reorder workspace", "workspace", ws.Name, "error", err)
		}
	}
}

// windowsToRedraw expands queued containers into the windows below them,
// once each, skipping containers that have left the tree.
func windowsToRedraw(tree *container.Tree, ids []uuid.UUID) []container.WindowContainer {
	seen := make(map[uuid.UUID]bool)
	var out []container.WindowContainer
	add := func(w container.WindowContainer) {
		if !seen[w.ID()] {
			seen[w.ID()] = true
			out = append(out, w)
		}
	}
	for _, id := range ids {
		c, ok := tree.Get(id)
		if !ok || !tree.IsAttached(c) {
			continue
		}
		if w, ok := c.(container.WindowContainer); ok {
			add(w)
			continue
		}
		for _, w := range tree.Windows(c) {
			add(w)
		}
	}
	return out
}

// stackingOrder lists ws's windows bottom to top: tiling, then floating,
// then fullscreen. Minimized windows are left out.
func stackingOrder(tree *container.Tree, ws *container.Workspace) []platform.WindowID {
	var tiled, floating, fullscreen []platform.WindowID
	for _, w := range tree.Windows(ws) {
		data := w.Window()
		switch data.State.Kind {
		case container.StateTiling:
			tiled = append(tiled, data.Native.ID)
		case container.StateFloating:
			floating = append(floating, data.Native.ID)
		case container.StateFullscreen:
			fullscreen = append(fullscreen, data.Native.ID)
		}
	}
	order := append(tiled, floating...)
	return append(order, fullscreen...)
}
