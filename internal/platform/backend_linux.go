//go:build linux

package platform

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/tilewm/internal/x11"
)

const (
	eventBuffer = 256
	// moveEcho is how long configure notifications caused by our own
	// MoveResize calls are ignored.
	moveEcho = 250 * time.Millisecond
)

// LinuxBackend wraps an X11 connection behind the platform Backend
// interface. It runs alongside an EWMH window manager and turns X events
// into platform events.
type LinuxBackend struct {
	conn   *x11.Connection
	logger *slog.Logger
	events chan Event
	quit   chan struct{}
	once   sync.Once

	mu sync.Mutex
	// known holds every watched client window and whether it was last
	// seen minimized.
	known map[xproto.Window]bool
	// hidden holds windows unmapped by SetVisible. The WM drops them from
	// its client list, so they must not be reported as destroyed.
	hidden map[xproto.Window]bool
	// moved holds when each window was last moved by MoveResize.
	moved map[xproto.Window]time.Time
	// locations holds the latest geometry of windows whose location
	// change has not reached the feed yet, in arrival order.
	locations     map[WindowID]Window
	locationOrder []WindowID
	locationReady chan struct{}
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinuxBackend{
		conn:   conn,
		logger: logger,
		events: make(chan Event, eventBuffer),
		quit:   make(chan struct{}),
		known:  make(map[xproto.Window]bool),
		hidden: make(map[xproto.Window]bool),
		moved:  make(map[xproto.Window]time.Time),

		locations:     make(map[WindowID]Window),
		locationReady: make(chan struct{}, 1),
	}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, logger), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	return b.conn.Root
}

// Events returns the feed of native notifications. It is filled once
// Watch has been called and the event loop runs.
func (b *LinuxBackend) Events() <-chan Event {
	return b.events
}

// EventLoop runs the X event loop until Quit is called.
func (b *LinuxBackend) EventLoop() {
	b.conn.EventLoop()
}

// Quit stops EventLoop. Events raised after Quit are dropped.
func (b *LinuxBackend) Quit() {
	b.once.Do(func() {
		close(b.quit)
		b.conn.Quit()
	})
}

// SortedMonitors returns the connected monitors ordered by position.
func (b *LinuxBackend) SortedMonitors() ([]NativeMonitor, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	out := make([]NativeMonitor, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, NativeMonitor{
			Handle:     MonitorHandle(m.Output),
			DeviceName: m.Name,
			DevicePath: "randr/" + m.Name,
			HardwareID: m.HardwareID,
			Bounds:     Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
			WorkArea:   rectFromArea(m.Work),
		})
	}
	SortMonitors(out)
	return out, nil
}

// Windows returns the manageable windows, including windows this backend
// has hidden.
func (b *LinuxBackend) Windows() ([]Window, error) {
	clients, err := b.conn.ClientList()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	for win := range b.hidden {
		clients = append(clients, win)
	}
	b.mu.Unlock()

	seen := make(map[xproto.Window]bool, len(clients))
	windows := make([]Window, 0, len(clients))
	for _, win := range clients {
		if seen[win] || !b.manageable(win) {
			continue
		}
		seen[win] = true
		w, err := b.window(win)
		if err != nil {
			continue
		}
		windows = append(windows, w)
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})
	return windows, nil
}

func (b *LinuxBackend) IsMinimized(windowID WindowID) (bool, error) {
	return b.conn.IsIconic(xproto.Window(windowID))
}

// Minimize minimizes a window via WM_CHANGE_STATE.
func (b *LinuxBackend) Minimize(windowID WindowID) error {
	return b.conn.Iconify(xproto.Window(windowID))
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds Rect) error {
	win := xproto.Window(windowID)
	b.mu.Lock()
	b.moved[win] = time.Now()
	b.mu.Unlock()

	return b.conn.MoveResizeWindow(win, bounds.X, bounds.Y, bounds.Width, bounds.Height)
}

// SetVisible maps or unmaps a window.
func (b *LinuxBackend) SetVisible(windowID WindowID, visible bool) error {
	win := xproto.Window(windowID)
	b.mu.Lock()
	wasHidden := b.hidden[win]
	if visible {
		delete(b.hidden, win)
	} else {
		b.hidden[win] = true
	}
	b.mu.Unlock()

	if visible == !wasHidden {
		return nil
	}
	return b.conn.SetMapped(win, visible)
}

// Restack raises the windows in order.
func (b *LinuxBackend) Restack(windowIDs []WindowID) error {
	for _, id := range windowIDs {
		if err := b.conn.Raise(xproto.Window(id)); err != nil {
			return fmt.Errorf("raise window %d: %w", id, err)
		}
	}
	return nil
}

// Watch registers the X event handlers that feed Events. Windows that
// exist when Watch is called are watched without producing events.
func (b *LinuxBackend) Watch() error {
	xu := b.conn.XUtil
	if err := b.conn.SelectRootEvents(); err != nil {
		return err
	}

	xevent.HookFun(func(xu *xgbutil.XUtil, ev interface{}) bool {
		if _, ok := ev.(randr.ScreenChangeNotifyEvent); ok {
			b.emit(Event{Kind: EventDisplaySettingsChanged})
		}
		return true
	}).Connect(xu)

	xevent.PropertyNotifyFun(b.onRootProperty).Connect(xu, b.conn.Root)
	go b.pumpLocations()

	clients, err := b.conn.ClientList()
	if err != nil {
		return fmt.Errorf("read client list: %w", err)
	}
	for _, win := range clients {
		if !b.manageable(win) {
			continue
		}
		minimized, _ := b.conn.IsIconic(win)
		b.watch(win, minimized)
	}
	return nil
}

func (b *LinuxBackend) onRootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_CLIENT_LIST", "_NET_CURRENT_DESKTOP":
		b.syncClients()
	case "_NET_ACTIVE_WINDOW":
		active, err := b.conn.GetActiveWindow()
		if err != nil || active == 0 || !b.isKnown(active) {
			return
		}
		if w, err := b.window(active); err == nil {
			b.emit(Event{Kind: EventWindowFocused, Window: w})
		}
	case "_NET_WORKAREA":
		b.emit(Event{Kind: EventDisplaySettingsChanged})
	}
}

// syncClients diffs the WM's client list against the watched windows.
func (b *LinuxBackend) syncClients() {
	clients, err := b.conn.ClientList()
	if err != nil {
		b.logger.Warn("failed to read client list", "error", err)
		return
	}

	current := make(map[xproto.Window]bool, len(clients))
	for _, win := range clients {
		if b.manageable(win) {
			current[win] = true
		}
	}

	b.mu.Lock()
	var gone []xproto.Window
	for win := range b.known {
		if !current[win] && !b.hidden[win] {
			gone = append(gone, win)
		}
	}
	var added []xproto.Window
	for win := range current {
		if _, ok := b.known[win]; !ok {
			added = append(added, win)
		}
	}
	b.mu.Unlock()

	for _, win := range gone {
		b.forget(win)
		b.emit(Event{Kind: EventWindowDestroyed, Window: Window{ID: WindowID(win)}})
	}
	for _, win := range added {
		w, err := b.window(win)
		if err != nil {
			continue
		}
		minimized, _ := b.conn.IsIconic(win)
		b.watch(win, minimized)
		b.emit(Event{Kind: EventWindowShown, Window: w})
	}
}

func (b *LinuxBackend) watch(win xproto.Window, minimized bool) {
	b.mu.Lock()
	b.known[win] = minimized
	b.mu.Unlock()

	if err := b.conn.WatchWindow(win); err != nil {
		b.logger.Debug("failed to watch window", "window", win, "error", err)
	}
	xu := b.conn.XUtil
	xevent.ConfigureNotifyFun(b.onConfigure).Connect(xu, win)
	xevent.PropertyNotifyFun(b.onWindowProperty).Connect(xu, win)
	xevent.DestroyNotifyFun(b.onDestroy).Connect(xu, win)
}

func (b *LinuxBackend) forget(win xproto.Window) {
	b.mu.Lock()
	delete(b.known, win)
	delete(b.hidden, win)
	delete(b.moved, win)
	delete(b.locations, WindowID(win))
	b.mu.Unlock()
	xevent.Detach(b.conn.XUtil, win)
}

func (b *LinuxBackend) onConfigure(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
	win := ev.Window
	b.mu.Lock()
	echo := time.Since(b.moved[win]) < moveEcho
	hidden := b.hidden[win]
	b.mu.Unlock()
	if echo || hidden {
		return
	}
	if w, err := b.window(win); err == nil {
		b.emitLocation(w)
	}
}

func (b *LinuxBackend) onWindowProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil || (name != "WM_STATE" && name != "_NET_WM_STATE") {
		return
	}
	win := ev.Window
	minimized, err := b.conn.IsIconic(win)
	if err != nil {
		return
	}

	b.mu.Lock()
	was, ok := b.known[win]
	if ok {
		b.known[win] = minimized
	}
	hidden := b.hidden[win]
	b.mu.Unlock()
	if !ok || hidden || was == minimized {
		return
	}

	kind := EventWindowMinimizeEnded
	if minimized {
		kind = EventWindowMinimized
	}
	if w, err := b.window(win); err == nil {
		b.emit(Event{Kind: kind, Window: w})
	}
}

func (b *LinuxBackend) onDestroy(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	win := ev.Window
	if !b.isKnown(win) {
		return
	}
	b.forget(win)
	b.emit(Event{Kind: EventWindowDestroyed, Window: Window{ID: WindowID(win)}})
}

func (b *LinuxBackend) isKnown(win xproto.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.known[win]
	return ok
}

// emitLocation records w's latest geometry for pumpLocations. It never
// blocks, so a drag producing many configure notifications cannot stall
// the X event loop while the dispatcher waits on X replies.
func (b *LinuxBackend) emitLocation(w Window) {
	b.mu.Lock()
	if _, ok := b.locations[w.ID]; !ok {
		b.locationOrder = append(b.locationOrder, w.ID)
	}
	b.locations[w.ID] = w
	b.mu.Unlock()

	select {
	case b.locationReady <- struct{}{}:
	default:
	}
}

// pumpLocations forwards coalesced location changes to the feed until
// Quit.
func (b *LinuxBackend) pumpLocations() {
	for {
		select {
		case <-b.locationReady:
		case <-b.quit:
			return
		}
		for {
			b.mu.Lock()
			if len(b.locationOrder) == 0 {
				b.mu.Unlock()
				break
			}
			id := b.locationOrder[0]
			b.locationOrder = b.locationOrder[1:]
			w, ok := b.locations[id]
			delete(b.locations, id)
			b.mu.Unlock()
			if !ok {
				continue
			}
			b.emit(Event{Kind: EventWindowLocationChanged, Window: w})
			select {
			case <-b.quit:
				return
			default:
			}
		}
	}
}

// emit blocks while the feed is full so no notification is lost.
func (b *LinuxBackend) emit(ev Event) {
	b.logger.Debug("native event", "event", ev.Kind, "window", ev.Window.ID)
	select {
	case b.events <- ev:
	case <-b.quit:
	}
}

func (b *LinuxBackend) manageable(win xproto.Window) bool {
	return b.conn.IsNormalWindow(win) && !b.conn.SkipsTiling(win) && b.conn.OnCurrentDesktop(win)
}

func (b *LinuxBackend) window(win xproto.Window) (Window, error) {
	info, err := b.conn.Info(win)
	if err != nil {
		return Window{}, err
	}
	return Window{
		ID:     WindowID(info.ID),
		PID:    info.PID,
		AppID:  info.Class,
		Title:  info.Title,
		Bounds: rectFromArea(info.Area),
	}, nil
}

func rectFromArea(a x11.Area) Rect {
	return Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
}
