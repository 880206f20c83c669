package wm

import (
	"fmt"
	"sort"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/tiling"
)

// AddMonitor creates a monitor container for native at the end of the
// root. Workspaces are bound separately, once monitor order is final.
func AddMonitor(s *State, native platform.NativeMonitor) (*container.Monitor, error) {
	m := container.NewMonitor(native)
	root := s.Tree.Root()
	if err := s.Tree.Attach(m, root, s.Tree.ChildCount(root)); err != nil {
		return nil, fmt.Errorf("add monitor %s: %w", native.DeviceName, err)
	}
	s.logger.Info("monitor added", "monitor", m.ID(), "device", native.DeviceName, "handle", native.Handle)
	s.EmitEvent(monitorAdded(ToDTO(s.Tree, m)))
	return m, nil
}

// UpdateMonitor records a new native identity and geometry for m.
func UpdateMonitor(s *State, m *container.Monitor, native platform.NativeMonitor) {
	m.Native = native
	s.logger.Debug("monitor updated", "monitor", m.ID(), "device", native.DeviceName, "handle", native.Handle)
	s.PendingSync.QueueContainerToRedraw(m)
	s.EmitEvent(monitorUpdated(ToDTO(s.Tree, m)))
}

// SortMonitors orders monitors by position so index-based addressing
// matches the physical layout.
func SortMonitors(s *State) {
	monitors := s.Tree.Monitors()
	sort.SliceStable(monitors, func(i, j int) bool {
		a, b := monitors[i].Native.Bounds, monitors[j].Native.Bounds
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	root := s.Tree.Root()
	for i, m := range monitors {
		if s.Tree.Index(m) == i {
			continue
		}
		// Monitors are not tiling containers, so no sizes change.
		_ = s.Tree.MoveWithinTree(m, root, i)
	}
}

// MonitorIndex returns m's position among the monitors, or -1.
func MonitorIndex(s *State, m *container.Monitor) int {
	for i, candidate := range s.Tree.Monitors() {
		if candidate.ID() == m.ID() {
			return i
		}
	}
	return -1
}

// RemoveMonitor moves m's non-empty and keep-alive workspaces to another
// monitor, deactivates the rest, and drops m from the tree. The last
// monitor is never removed.
func RemoveMonitor(s *State, m *container.Monitor, cfg *config.Config) error {
	var target *container.Monitor
	for _, candidate := range s.Tree.Monitors() {
		if candidate.ID() != m.ID() {
			target = candidate
			break
		}
	}
	if target == nil {
		return fmt.Errorf("remove monitor %s: %w", m.ID(), ErrLastMonitor)
	}

	s.logger.Info("removing monitor", "monitor", m.ID(), "device", m.Native.DeviceName, "target", target.ID())

	for _, ws := range s.Tree.WorkspacesOf(m) {
		if s.Tree.ChildCount(ws) == 0 && !ws.KeepAlive {
			continue
		}
		if err := s.Tree.MoveWithinTree(ws, target, s.Tree.ChildCount(target)); err != nil {
			return fmt.Errorf("move workspace %s: %w", ws.Name, err)
		}
		if s.Tree.DisplayedWorkspace(target) == nil {
			target.DisplayedWorkspace = ws.ID()
		}
		SortWorkspaces(s, target, cfg)

		s.PendingSync.QueueContainerToRedraw(ws)
		for _, sibling := range s.Tree.WorkspacesOf(target) {
			s.PendingSync.QueueWorkspaceToReorder(sibling)
		}
		s.EmitEvent(workspaceUpdated(ToDTO(s.Tree, ws)))
	}

	// Deactivate the leftovers before the monitor goes away so subscribers
	// see them disappear first.
	for _, ws := range s.Tree.WorkspacesOf(m) {
		if err := DeactivateWorkspace(s, ws); err != nil {
			return err
		}
	}

	if err := s.Tree.Detach(m); err != nil {
		return err
	}
	if err := s.Tree.Release(m); err != nil {
		return err
	}
	s.EmitEvent(monitorRemoved(m.ID(), m.Native.DeviceName))
	return nil
}

// MonitorRect returns the area of m that workspaces may use.
func MonitorRect(m *container.Monitor) platform.Rect {
	if m.Native.WorkArea.IsZero() {
		return m.Native.Bounds
	}
	return m.Native.WorkArea
}

// WorkspaceRect returns the area tiled windows of ws are laid out in.
func WorkspaceRect(s *State, ws *container.Workspace, cfg *config.Config) (platform.Rect, error) {
	m := s.Tree.Monitor(ws)
	if m == nil {
		return platform.Rect{}, fmt.Errorf("workspace %s: %w", ws.Name, container.ErrNoParent)
	}
	return tiling.WorkspaceRect(MonitorRect(m), cfg.Gaps.OuterGap), nil
}
