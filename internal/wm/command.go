package wm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
)

// ErrUnknownCommand is returned for command text that names no command.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a parsed text command such as "resize +0.05".
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

var commandArgs = map[string]int{
	"set-tiling":              0,
	"set-floating":            0,
	"set-fullscreen":          0,
	"set-minimized":           0,
	"toggle-floating":         0,
	"toggle-fullscreen":       0,
	"toggle-tiling-direction": 0,
	"resize":                  1,
	"focus-workspace":         1,
	"wm-redraw":               0,
	"wm-toggle-pause":         0,
	"wm-enable-binding-mode":  1,
	"wm-disable-binding-mode": 1,
	"wm-reload-config":        0,
}

// ParseCommand splits text into a command and checks its arity.
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command: %w", ErrUnknownCommand)
	}
	cmd := Command{Name: fields[0], Args: fields[1:]}
	want, ok := commandArgs[cmd.Name]
	if !ok {
		return Command{}, fmt.Errorf("%q: %w", cmd.Name, ErrUnknownCommand)
	}
	if len(cmd.Args) != want {
		return Command{}, fmt.Errorf("%s expects %d argument(s), got %d", cmd.Name, want, len(cmd.Args))
	}
	if cmd.Name == "resize" {
		if _, _, err := parseResize(cmd.Args[0]); err != nil {
			return Command{}, err
		}
	}
	return cmd, nil
}

// parseResize accepts "+0.05" and "-0.05" as relative changes and "0.5"
// as an absolute share.
func parseResize(arg string) (float64, bool, error) {
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, false, fmt.Errorf("resize: invalid fraction %q", arg)
	}
	if !relative && (v <= 0 || v > 1) {
		return 0, false, fmt.Errorf("resize: fraction %q out of range (0, 1]", arg)
	}
	return v, relative, nil
}

// ResolveSubject returns the container with id, or the focused container
// when id is nil.
func ResolveSubject(s *State, id *uuid.UUID) (container.Container, error) {
	if id != nil {
		c, ok := s.Tree.Get(*id)
		if !ok || !s.Tree.IsAttached(c) {
			return nil, fmt.Errorf("container %s: %w", id, container.ErrNotFound)
		}
		return c, nil
	}
	if focused := s.Tree.Focused(); focused != nil {
		return focused, nil
	}
	if ws := FocusedWorkspace(s); ws != nil {
		return ws, nil
	}
	return nil, fmt.Errorf("no focused container: %w", container.ErrNotFound)
}

// RunCommand executes cmd against subject and returns the ID of the
// subject after the command, which is unchanged unless the subject was
// replaced.
func RunCommand(s *State, cmd Command, subject container.Container, cfg *config.Config) (uuid.UUID, error) {
	if s.Paused && cmd.Name != "wm-toggle-pause" {
		return uuid.Nil, ErrPaused
	}
	s.logger.Debug("running command", "command", cmd.String(), "subject", subject.ID())

	switch cmd.Name {
	case "set-tiling", "set-floating", "set-fullscreen", "set-minimized":
		w, err := subjectWindow(subject, cmd)
		if err != nil {
			return uuid.Nil, err
		}
		kind, _ := container.ParseStateKind(strings.TrimPrefix(cmd.Name, "set-"))
		next, err := UpdateWindowState(s, w, defaultState(w, kind))
		if err != nil {
			return uuid.Nil, err
		}
		return next.ID(), nil

	case "toggle-floating", "toggle-fullscreen":
		w, err := subjectWindow(subject, cmd)
		if err != nil {
			return uuid.Nil, err
		}
		kind, _ := container.ParseStateKind(strings.TrimPrefix(cmd.Name, "toggle-"))
		next, err := ToggleWindowState(s, w, kind)
		if err != nil {
			return uuid.Nil, err
		}
		return next.ID(), nil

	case "toggle-tiling-direction":
		if err := ToggleTilingDirection(s, subject); err != nil {
			return uuid.Nil, err
		}

	case "resize":
		w, err := subjectWindow(subject, cmd)
		if err != nil {
			return uuid.Nil, err
		}
		value, relative, err := parseResize(cmd.Args[0])
		if err != nil {
			return uuid.Nil, err
		}
		if err := ResizeWindow(s, w, value, relative); err != nil {
			return uuid.Nil, err
		}

	case "focus-workspace":
		if _, err := FocusWorkspace(s, cmd.Args[0], cfg); err != nil {
			return uuid.Nil, err
		}

	case "wm-redraw":
		s.PendingSync.QueueContainerToRedraw(s.Tree.Root())
		for _, ws := range s.Tree.Workspaces() {
			s.PendingSync.QueueWorkspaceToReorder(ws)
		}

	case "wm-toggle-pause":
		s.Paused = !s.Paused
		s.logger.Info("pause toggled", "paused", s.Paused)
		s.EmitEvent(pauseChanged(s.Paused))

	case "wm-enable-binding-mode":
		if err := EnableBindingMode(s, cmd.Args[0], cfg); err != nil {
			return uuid.Nil, err
		}

	case "wm-disable-binding-mode":
		DisableBindingMode(s, cmd.Args[0])

	case "wm-reload-config":
		if s.ReloadConfig == nil {
			return uuid.Nil, errors.New("config reload is not available")
		}
		if err := s.ReloadConfig(); err != nil {
			return uuid.Nil, fmt.Errorf("reload config: %w", err)
		}

	default:
		return uuid.Nil, fmt.Errorf("%q: %w", cmd.Name, ErrUnknownCommand)
	}
	return subject.ID(), nil
}

func subjectWindow(subject container.Container, cmd Command) (container.WindowContainer, error) {
	w, ok := subject.(container.WindowContainer)
	if !ok {
		return nil, fmt.Errorf("%s needs a window, got %s", cmd.Name, subject.Kind())
	}
	return w, nil
}

// ToggleTilingDirection flips the direction children of c's direction
// container are laid out in. A tiling window with siblings is instead
// wrapped in a new split running the other way, so only it changes.
func ToggleTilingDirection(s *State, c container.Container) error {
	if tw, ok := c.(*container.TilingWindow); ok && len(s.Tree.TilingSiblings(tw)) > 0 {
		return wrapInSplit(s, tw)
	}

	dc := directionContainer(s.Tree, c)
	var direction container.Direction
	switch v := dc.(type) {
	case *container.Workspace:
		v.TilingDirection = v.TilingDirection.Inverse()
		direction = v.TilingDirection
	case *container.Split:
		v.Direction = v.Direction.Inverse()
		direction = v.Direction
	default:
		return fmt.Errorf("toggle tiling direction on %s: %w", c.Kind(), ErrNoWorkspace)
	}

	s.PendingSync.QueueContainersToRedraw(s.Tree.TilingChildren(dc))
	s.EmitEvent(tilingDirectionChanged(direction, ToDTO(s.Tree, dc)))
	return nil
}

func wrapInSplit(s *State, tw *container.TilingWindow) error {
	direction, parent, err := TilingDirectionOf(s, tw)
	if err != nil {
		return err
	}
	split := container.NewSplit(direction.Inverse())
	if err := s.Tree.Wrap(tw, split); err != nil {
		return fmt.Errorf("wrap %s: %w", tw.ID(), err)
	}

	s.PendingSync.QueueContainersToRedraw(s.Tree.TilingChildren(parent))
	s.EmitEvent(tilingDirectionChanged(split.Direction, ToDTO(s.Tree, split)))
	return nil
}

// directionContainer is the nearest split or workspace at or above c.
func directionContainer(tree *container.Tree, c container.Container) container.Container {
	switch c.(type) {
	case *container.Split, *container.Workspace:
		return c
	case *container.NonTilingWindow:
		if ws := tree.Workspace(c); ws != nil {
			return ws
		}
		return nil
	}
	for _, a := range tree.Ancestors(c) {
		switch a.(type) {
		case *container.Split, *container.Workspace:
			return a
		}
	}
	if m, ok := c.(*container.Monitor); ok {
		if ws := tree.DisplayedWorkspace(m); ws != nil {
			return ws
		}
	}
	return nil
}

// TilingDirectionOf returns the direction container for c and its
// direction.
func TilingDirectionOf(s *State, c container.Container) (container.Direction, container.Container, error) {
	switch v := directionContainer(s.Tree, c).(type) {
	case *container.Workspace:
		return v.TilingDirection, v, nil
	case *container.Split:
		return v.Direction, v, nil
	default:
		return container.Horizontal, nil, fmt.Errorf("tiling direction of %s: %w", c.Kind(), ErrNoWorkspace)
	}
}

// EnableBindingMode activates the configured binding mode name, placing
// it ahead of already active modes.
func EnableBindingMode(s *State, name string, cfg *config.Config) error {
	mode, ok := cfg.BindingMode(name)
	if !ok {
		return fmt.Errorf("binding mode %q is not configured", name)
	}
	for _, active := range s.BindingModes {
		if active.Name == name {
			return nil
		}
	}
	s.BindingModes = append([]config.BindingModeConfig{mode}, s.BindingModes...)
	s.EmitEvent(bindingModesChanged(s.BindingModes))
	return nil
}

// DisableBindingMode deactivates name. Disabling an inactive mode is a
// no-op.
func DisableBindingMode(s *State, name string) {
	for i, active := range s.BindingModes {
		if active.Name == name {
			s.BindingModes = append(s.BindingModes[:i:i], s.BindingModes[i+1:]...)
			s.EmitEvent(bindingModesChanged(s.BindingModes))
			return
		}
	}
}
