package wm

import (
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/container"
	"github.com/1broseidon/tilewm/internal/platform"
)

var (
	// ErrLastMonitor is returned when removing the only remaining monitor.
	ErrLastMonitor = errors.New("cannot remove the last monitor")
	// ErrInvalidState is returned when a window is not in a state the
	// operation accepts.
	ErrInvalidState = errors.New("invalid window state")
	// ErrNoWorkspace is returned when a container has no workspace.
	ErrNoWorkspace = errors.New("container has no workspace")
	// ErrPaused is returned for commands issued while the WM is paused.
	ErrPaused = errors.New("window manager is paused")
)

// State is the single mutable state of the window manager. It is owned by
// one goroutine at a time; callers serialize access.
type State struct {
	Tree        *container.Tree
	PendingSync *PendingSync

	// FullscreenCooldowns holds the time each window last entered or left
	// fullscreen.
	FullscreenCooldowns map[platform.WindowID]time.Time

	Paused       bool
	BindingModes []config.BindingModeConfig

	// ReloadConfig is invoked by the wm-reload-config command.
	ReloadConfig func() error

	backend platform.Backend
	logger  *slog.Logger
	events  []Event
	now     func() time.Time
}

// NewState returns a state holding an empty tree.
func NewState(backend platform.Backend, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		Tree:                container.NewTree(),
		PendingSync:         NewPendingSync(),
		FullscreenCooldowns: make(map[platform.WindowID]time.Time),
		backend:             backend,
		logger:              logger,
		now:                 time.Now,
	}
}

// Backend returns the platform backend the state issues native calls to.
func (s *State) Backend() platform.Backend {
	return s.backend
}

// Logger returns the state's logger.
func (s *State) Logger() *slog.Logger {
	return s.logger
}

// EmitEvent buffers ev until the current operation completes.
func (s *State) EmitEvent(ev Event) {
	s.events = append(s.events, ev)
}

// DrainEvents returns and clears the buffered events.
func (s *State) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

// Populate builds the initial tree from the connected monitors and the
// windows that already exist.
func Populate(s *State, cfg *config.Config) error {
	natives, err := s.backend.SortedMonitors()
	if err != nil {
		return err
	}
	if len(natives) == 0 {
		return errors.New("no monitors detected")
	}

	for _, native := range natives {
		if _, err := AddMonitor(s, native); err != nil {
			return err
		}
	}
	SortMonitors(s)
	for _, m := range s.Tree.Monitors() {
		if err := BindWorkspacesToMonitor(s, m, cfg); err != nil {
			return err
		}
	}

	windows, err := s.backend.Windows()
	if err != nil {
		return err
	}
	for _, native := range windows {
		if _, err := ManageWindow(s, native, cfg); err != nil {
			s.logger.Warn("failed to manage window", "window", native.ID, "error", err)
		}
	}

	s.PendingSync.QueueContainerToRedraw(s.Tree.Root())
	return nil
}
