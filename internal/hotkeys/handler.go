package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/wm"
)

const commandTimeout = 5 * time.Second

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts. The grabbed keys follow the
// active binding mode.
type Handler struct {
	xu         *xgbutil.XUtil
	root       xproto.Window
	dispatcher *daemon.Dispatcher
	logger     *slog.Logger

	mu sync.Mutex
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. It fails for backends without
// an X connection.
func NewHandler(backend platform.Backend, d *daemon.Dispatcher, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok {
		return nil, fmt.Errorf("hotkeys need an X11 backend, got %T", backend)
	}
	if logger == nil {
		logger = slog.Default()
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:         xu,
		root:       accessor.RootWindow(),
		dispatcher: d,
		logger:     logger,
	}, nil
}

// Run grabs the active keybindings and regrabs them whenever the binding
// modes or the config change. Blocks until ctx is done.
func (h *Handler) Run(ctx context.Context) error {
	sub := h.dispatcher.Hub().Subscribe([]wm.EventType{
		wm.EventBindingModesChanged,
		wm.EventUserConfigChanged,
	}, 8)
	defer h.dispatcher.Hub().Unsubscribe(sub.ID)

	if err := h.refresh(ctx); err != nil {
		return err
	}
	defer keybind.Detach(h.xu, h.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := h.refresh(ctx); err != nil {
				h.logger.Warn("failed to update keybindings", "error", err)
			}
		}
	}
}

func (h *Handler) refresh(ctx context.Context) error {
	v, err := h.dispatcher.Do(ctx, "keybindings", func(s *wm.State, cfg *config.Config) (any, error) {
		return ActiveKeybindings(cfg, s.BindingModes), nil
	})
	if err != nil {
		return err
	}
	return h.Apply(v.([]config.KeybindingConfig))
}

// Apply replaces every grabbed key with bindings. A binding that cannot be
// grabbed is logged and skipped.
func (h *Handler) Apply(bindings []config.KeybindingConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	keybind.Detach(h.xu, h.root)
	registered := 0
	for _, kb := range bindings {
		commands := kb.Commands
		for _, binding := range kb.Bindings {
			seq, err := ParseBinding(binding)
			if err != nil {
				h.logger.Warn("invalid key binding", "binding", binding, "error", err)
				continue
			}
			if err := h.RegisterFunc(seq, func() { h.run(commands) }); err != nil {
				h.logger.Warn("failed to grab key binding", "binding", binding, "error", err)
				continue
			}
			registered++
		}
	}
	h.logger.Debug("keybindings registered", "count", registered)
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func (h *Handler) run(commands []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	_, err := h.dispatcher.Do(ctx, "keybinding", func(s *wm.State, cfg *config.Config) (any, error) {
		return nil, RunCommands(s, cfg, commands)
	})
	if err != nil {
		h.logger.Warn("keybinding command failed", "commands", commands, "error", err)
	}
}

// RunCommands runs commands in order against the focused container. A
// command that replaces its subject passes the replacement on to the
// next command.
func RunCommands(s *wm.State, cfg *config.Config, commands []string) error {
	subject, err := wm.ResolveSubject(s, nil)
	if err != nil {
		return err
	}
	for _, text := range commands {
		cmd, err := wm.ParseCommand(text)
		if err != nil {
			return err
		}
		id, err := wm.RunCommand(s, cmd, subject, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", text, err)
		}
		// The subject may have been detached, e.g. by a workspace switch
		// that deactivated it.
		if subject, err = wm.ResolveSubject(s, &id); err != nil {
			if subject, err = wm.ResolveSubject(s, nil); err != nil {
				return fmt.Errorf("%s: %w", text, err)
			}
		}
	}
	return nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
