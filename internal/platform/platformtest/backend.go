// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"fmt"
	"sync"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Backend serves scripted monitors and windows and records the native
// calls made against it. It is safe for concurrent use.
type Backend struct {
	mu        sync.Mutex
	monitors  []platform.NativeMonitor
	windows   []platform.Window
	minimized map[platform.WindowID]bool
	moves     map[platform.WindowID]platform.Rect
	visible   map[platform.WindowID]bool
	restacks  int
}

func NewBackend(monitors ...platform.NativeMonitor) *Backend {
	return &Backend{
		monitors:  monitors,
		minimized: make(map[platform.WindowID]bool),
		moves:     make(map[platform.WindowID]platform.Rect),
		visible:   make(map[platform.WindowID]bool),
	}
}

// Monitor returns a 1920x1080 monitor at x with a device name derived
// from handle.
func Monitor(handle uint32, x int) platform.NativeMonitor {
	name := fmt.Sprintf("DP-%d", handle)
	return platform.NativeMonitor{
		Handle:     platform.MonitorHandle(handle),
		DeviceName: name,
		DevicePath: "randr/" + name,
		Bounds:     platform.Rect{X: x, Width: 1920, Height: 1080},
	}
}

// Window returns an 800x600 window near the top-left corner at x.
func Window(id uint32, x int) platform.Window {
	return platform.Window{
		ID:     platform.WindowID(id),
		AppID:  "xterm",
		Title:  fmt.Sprintf("window %d", id),
		Bounds: platform.Rect{X: x + 100, Y: 100, Width: 800, Height: 600},
	}
}

// SetMonitors replaces the connected monitors.
func (b *Backend) SetMonitors(monitors ...platform.NativeMonitor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.monitors = monitors
}

// SetWindows replaces the existing windows.
func (b *Backend) SetWindows(windows ...platform.Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = windows
}

// Move returns the last rect a window was moved to.
func (b *Backend) Move(id platform.WindowID) (platform.Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.moves[id]
	return r, ok
}

// Visible reports whether a window was last shown.
func (b *Backend) Visible(id platform.WindowID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible[id]
}

// Restacks returns the number of restack calls.
func (b *Backend) Restacks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restacks
}

func (b *Backend) SortedMonitors() ([]platform.NativeMonitor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]platform.NativeMonitor(nil), b.monitors...)
	platform.SortMonitors(out)
	return out, nil
}

func (b *Backend) Windows() ([]platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.Window(nil), b.windows...), nil
}

func (b *Backend) IsMinimized(id platform.WindowID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.minimized[id], nil
}

func (b *Backend) Minimize(id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimized[id] = true
	return nil
}

func (b *Backend) MoveResize(id platform.WindowID, bounds platform.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moves[id] = bounds
	return nil
}

func (b *Backend) SetVisible(id platform.WindowID, visible bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visible[id] = visible
	return nil
}

func (b *Backend) Restack([]platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.restacks++
	return nil
}
