package wm

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
)

// ActivateWorkspace creates the workspace name on m. An empty name picks
// the first configured workspace that is not active yet. The workspace is
// displayed if m shows nothing.
func ActivateWorkspace(s *State, name string, m *container.Monitor, cfg *config.Config) (*container.Workspace, error) {
	if name == "" {
		name = nextInactiveWorkspaceName(s, cfg)
	}
	if existing := s.Tree.WorkspaceByName(name); existing != nil {
		return nil, fmt.Errorf("workspace %q is already active", name)
	}

	wsCfg, _ := cfg.Workspace(name)
	direction := container.Horizontal
	if r := MonitorRect(m); r.Height > r.Width {
		direction = container.Vertical
	}

	ws := container.NewWorkspace(name, wsCfg.DisplayName, wsCfg.KeepAlive, direction)
	if err := s.Tree.Attach(ws, m, s.Tree.ChildCount(m)); err != nil {
		return nil, fmt.Errorf("activate workspace %q: %w", name, err)
	}
	SortWorkspaces(s, m, cfg)
	if s.Tree.DisplayedWorkspace(m) == nil {
		m.DisplayedWorkspace = ws.ID()
	}

	s.logger.Info("workspace activated", "workspace", name, "monitor", m.ID())
	s.EmitEvent(workspaceActivated(ToDTO(s.Tree, ws)))
	return ws, nil
}

func nextInactiveWorkspaceName(s *State, cfg *config.Config) string {
	for _, wsCfg := range cfg.Workspaces {
		if s.Tree.WorkspaceByName(wsCfg.Name) == nil {
			return wsCfg.Name
		}
	}
	for i := len(cfg.Workspaces) + 1; ; i++ {
		name := strconv.Itoa(i)
		if s.Tree.WorkspaceByName(name) == nil {
			return name
		}
	}
}

// DeactivateWorkspace removes ws from the tree. If it was displayed, its
// monitor falls back to another of its workspaces.
func DeactivateWorkspace(s *State, ws *container.Workspace) error {
	m, _ := s.Tree.Parent(ws).(*container.Monitor)
	if err := s.Tree.Detach(ws); err != nil {
		return fmt.Errorf("deactivate workspace %q: %w", ws.Name, err)
	}
	if err := s.Tree.Release(ws); err != nil {
		return fmt.Errorf("deactivate workspace %q: %w", ws.Name, err)
	}

	if m != nil && m.DisplayedWorkspace == ws.ID() {
		m.DisplayedWorkspace = uuid.Nil
		if remaining := s.Tree.WorkspacesOf(m); len(remaining) > 0 {
			m.DisplayedWorkspace = remaining[0].ID()
			s.PendingSync.QueueContainerToRedraw(remaining[0])
		}
	}

	s.logger.Info("workspace deactivated", "workspace", ws.Name)
	s.EmitEvent(workspaceDeactivated(ws.ID(), ws.Name))
	return nil
}

// SortWorkspaces orders m's workspaces by their position in the config.
// Workspaces not in the config go last, by name.
func SortWorkspaces(s *State, m *container.Monitor, cfg *config.Config) {
	workspaces := s.Tree.WorkspacesOf(m)
	sort.SliceStable(workspaces, func(i, j int) bool {
		a, b := cfg.WorkspaceIndex(workspaces[i].Name), cfg.WorkspaceIndex(workspaces[j].Name)
		switch {
		case a >= 0 && b >= 0:
			return a < b
		case a >= 0:
			return true
		case b >= 0:
			return false
		default:
			return workspaces[i].Name < workspaces[j].Name
		}
	})
	for i, ws := range workspaces {
		if s.Tree.Index(ws) != i {
			// Reordering under the same parent cannot fail.
			_ = s.Tree.MoveWithinTree(ws, m, i)
		}
	}
}

// BindWorkspacesToMonitor activates the workspaces configured for m's
// index. A monitor left without workspaces gets the next inactive one.
func BindWorkspacesToMonitor(s *State, m *container.Monitor, cfg *config.Config) error {
	index := MonitorIndex(s, m)
	for _, wsCfg := range cfg.Workspaces {
		if wsCfg.BindToMonitor == nil || *wsCfg.BindToMonitor != index {
			continue
		}
		if s.Tree.WorkspaceByName(wsCfg.Name) != nil {
			continue
		}
		if _, err := ActivateWorkspace(s, wsCfg.Name, m, cfg); err != nil {
			return err
		}
	}

	if len(s.Tree.WorkspacesOf(m)) == 0 {
		if _, err := ActivateWorkspace(s, nextUnboundWorkspaceName(s, cfg), m, cfg); err != nil {
			return err
		}
	}
	return nil
}

// nextUnboundWorkspaceName prefers workspaces not pinned to a monitor.
func nextUnboundWorkspaceName(s *State, cfg *config.Config) string {
	for _, wsCfg := range cfg.Workspaces {
		if wsCfg.BindToMonitor == nil && s.Tree.WorkspaceByName(wsCfg.Name) == nil {
			return wsCfg.Name
		}
	}
	return nextInactiveWorkspaceName(s, cfg)
}

// FocusWorkspace displays the named workspace, activating it on the
// focused monitor if needed.
func FocusWorkspace(s *State, name string, cfg *config.Config) (*container.Workspace, error) {
	ws := s.Tree.WorkspaceByName(name)
	if ws == nil {
		m := focusedMonitor(s)
		if m == nil {
			return nil, fmt.Errorf("focus workspace %q: no monitor", name)
		}
		var err error
		ws, err = ActivateWorkspace(s, name, m, cfg)
		if err != nil {
			return nil, err
		}
	}

	m := s.Tree.Monitor(ws)
	previous := s.Tree.DisplayedWorkspace(m)
	m.DisplayedWorkspace = ws.ID()
	s.PendingSync.QueueContainerToRedraw(ws).QueueWorkspaceToReorder(ws)

	focusTarget := container.Container(ws)
	for _, c := range s.Tree.FocusOrder(ws) {
		if _, ok := c.(container.WindowContainer); ok {
			focusTarget = c
			break
		}
	}
	if err := s.Tree.SetFocused(focusTarget); err != nil {
		return nil, err
	}
	s.EmitEvent(focusChanged(ToDTO(s.Tree, focusTarget)))

	if previous != nil && previous.ID() != ws.ID() {
		s.PendingSync.QueueContainerToRedraw(previous)
		if s.Tree.ChildCount(previous) == 0 && !previous.KeepAlive {
			if err := DeactivateWorkspace(s, previous); err != nil {
				return nil, err
			}
		}
	}
	return ws, nil
}

// FocusedWorkspace returns the workspace holding focus, falling back to
// the displayed workspace of the first monitor.
func FocusedWorkspace(s *State) *container.Workspace {
	if focused := s.Tree.Focused(); focused != nil {
		if ws := s.Tree.Workspace(focused); ws != nil && s.Tree.IsAttached(ws) {
			return ws
		}
	}
	for _, m := range s.Tree.Monitors() {
		if ws := s.Tree.DisplayedWorkspace(m); ws != nil {
			return ws
		}
	}
	return nil
}

func focusedMonitor(s *State) *container.Monitor {
	if ws := FocusedWorkspace(s); ws != nil {
		return s.Tree.Monitor(ws)
	}
	if monitors := s.Tree.Monitors(); len(monitors) > 0 {
		return monitors[0]
	}
	return nil
}
