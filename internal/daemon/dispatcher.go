package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

// ErrStopped is returned by Do once the dispatcher loop has exited.
var ErrStopped = errors.New("dispatcher stopped")

// Operation reads or mutates the window manager state. It runs on the
// dispatcher goroutine, so it has exclusive access to s and cfg.
type Operation func(s *wm.State, cfg *config.Config) (any, error)

type result struct {
	value any
	err   error
}

type request struct {
	name  string
	op    Operation
	reply chan result
}

// Options configures a Dispatcher.
type Options struct {
	// ConfigPath is reloaded by the wm-reload-config command. Reloading is
	// unavailable when empty.
	ConfigPath string
	Logger     *slog.Logger
}

// Dispatcher serializes every access to the window manager state. Native
// events and client requests are handled one at a time, each followed by
// a single flush of pending native changes and delivery of the events it
// produced.
type Dispatcher struct {
	state      *wm.State
	cfg        *config.Config
	hub        *Hub
	configPath string
	logger     *slog.Logger

	requests chan request
	done     chan struct{}
}

func NewDispatcher(state *wm.State, cfg *config.Config, hub *Hub, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		state:      state,
		cfg:        cfg,
		hub:        hub,
		configPath: opts.ConfigPath,
		logger:     logger,
		requests:   make(chan request),
		done:       make(chan struct{}),
	}
	if d.configPath != "" {
		state.ReloadConfig = d.reloadFromDisk
	}
	return d
}

// Hub returns the hub events are published to.
func (d *Dispatcher) Hub() *Hub {
	return d.hub
}

// Run populates the state from the backend and then handles events and
// requests until ctx is done. It must be called exactly once.
func (d *Dispatcher) Run(ctx context.Context, events <-chan platform.Event) error {
	defer close(d.done)
	defer d.hub.Close()

	if _, err := d.execute("populate", func(s *wm.State, cfg *config.Config) (any, error) {
		return nil, wm.Populate(s, cfg)
	}); err != nil {
		return fmt.Errorf("populate state: %w", err)
	}
	d.logger.Info("dispatcher started",
		"monitors", len(d.state.Tree.Monitors()),
		"windows", len(d.state.Tree.Windows(d.state.Tree.Root())))

	for {
		select {
		case <-ctx.Done():
			d.hub.Publish(wm.ApplicationExiting())
			d.logger.Info("dispatcher stopped")
			return nil
		case req := <-d.requests:
			value, err := d.execute(req.name, req.op)
			req.reply <- result{value: value, err: err}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			d.handleEvent(ev)
		}
	}
}

// Do runs op on the dispatcher goroutine and waits for its result.
func (d *Dispatcher) Do(ctx context.Context, name string, op Operation) (any, error) {
	req := request{name: name, op: op, reply: make(chan result, 1)}
	select {
	case d.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, ErrStopped
	}

	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		select {
		case r := <-req.reply:
			return r.value, r.err
		default:
			return nil, ErrStopped
		}
	}
}

// ApplyConfig replaces the active config with res.Config.
func (d *Dispatcher) ApplyConfig(ctx context.Context, res *config.LoadResult) error {
	_, err := d.Do(ctx, "apply-config", func(*wm.State, *config.Config) (any, error) {
		d.applyConfig(res.Config)
		return nil, nil
	})
	return err
}

func (d *Dispatcher) execute(name string, op Operation) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("operation panic recovered", "operation", name, "panic", r)
			err = fmt.Errorf("%s: internal error: %v", name, r)
		}
		wm.Flush(d.state, d.cfg)
		for _, ev := range d.state.DrainEvents() {
			d.hub.Publish(ev)
		}
	}()
	return op(d.state, d.cfg)
}

func (d *Dispatcher) handleEvent(ev platform.Event) {
	if d.state.Paused && ev.Kind != platform.EventDisplaySettingsChanged {
		d.logger.Debug("paused, ignoring event", "event", ev.Kind, "window", ev.Window.ID)
		return
	}
	_, err := d.execute(ev.Kind.String(), func(s *wm.State, cfg *config.Config) (any, error) {
		return nil, applyEvent(s, cfg, ev)
	})
	if err != nil {
		d.logger.Warn("failed to handle event", "event", ev.Kind, "window", ev.Window.ID, "error", err)
	}
}

func applyEvent(s *wm.State, cfg *config.Config, ev platform.Event) error {
	switch ev.Kind {
	case platform.EventDisplaySettingsChanged:
		return wm.HandleDisplaySettingsChanged(s, cfg)
	case platform.EventWindowShown:
		return wm.HandleWindowShown(s, ev.Window, cfg)
	case platform.EventWindowDestroyed:
		return wm.HandleWindowDestroyed(s, ev.Window)
	case platform.EventWindowFocused:
		return wm.HandleWindowFocused(s, ev.Window, cfg)
	case platform.EventWindowMinimized:
		return wm.HandleWindowMinimized(s, ev.Window)
	case platform.EventWindowMinimizeEnded:
		return wm.HandleWindowMinimizeEnded(s, ev.Window)
	case platform.EventWindowLocationChanged:
		return wm.HandleWindowLocationChanged(s, ev.Window, cfg)
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

// applyConfig must run on the dispatcher goroutine.
func (d *Dispatcher) applyConfig(cfg *config.Config) {
	d.cfg = cfg
	s := d.state
	for _, mode := range append([]config.BindingModeConfig(nil), s.BindingModes...) {
		if _, ok := cfg.BindingMode(mode.Name); !ok {
			wm.DisableBindingMode(s, mode.Name)
		}
	}
	for _, m := range s.Tree.Monitors() {
		wm.SortWorkspaces(s, m, cfg)
	}
	s.PendingSync.QueueContainerToRedraw(s.Tree.Root())
	for _, ws := range s.Tree.Workspaces() {
		s.PendingSync.QueueWorkspaceToReorder(ws)
	}
	s.EmitEvent(wm.UserConfigChanged())
	d.logger.Info("config applied", "log_level", cfg.General.LogLevel)
}

func (d *Dispatcher) reloadFromDisk() error {
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		return err
	}
	d.applyConfig(res.Config)
	return nil
}
