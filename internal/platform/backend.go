package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// MonitorHandle is the display server's handle for a monitor. It is only
// stable while the display configuration does not change.
type MonitorHandle uint32

// NativeMonitor describes a connected display as reported by the display
// server. DevicePath and HardwareID are empty when the backend cannot
// determine them.
type NativeMonitor struct {
	Handle     MonitorHandle
	DeviceName string
	DevicePath string
	HardwareID string
	Bounds     Rect
	WorkArea   Rect
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID     WindowID
	PID    int
	AppID  string
	Title  string
	Bounds Rect
}

// EventKind identifies a native notification.
type EventKind int

const (
	EventDisplaySettingsChanged EventKind = iota
	EventWindowShown
	EventWindowDestroyed
	EventWindowFocused
	EventWindowMinimized
	EventWindowMinimizeEnded
	EventWindowLocationChanged
)

func (k EventKind) String() string {
	switch k {
	case EventDisplaySettingsChanged:
		return "display_settings_changed"
	case EventWindowShown:
		return "window_shown"
	case EventWindowDestroyed:
		return "window_destroyed"
	case EventWindowFocused:
		return "window_focused"
	case EventWindowMinimized:
		return "window_minimized"
	case EventWindowMinimizeEnded:
		return "window_minimize_ended"
	case EventWindowLocationChanged:
		return "window_location_changed"
	default:
		return "unknown"
	}
}

// Event is a native notification. Window is zero for display events.
type Event struct {
	Kind   EventKind
	Window Window
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	// SortedMonitors returns connected monitors ordered by position.
	SortedMonitors() ([]NativeMonitor, error)
	// Windows returns the manageable top-level windows.
	Windows() ([]Window, error)
	IsMinimized(windowID WindowID) (bool, error)
	Minimize(windowID WindowID) error
	MoveResize(windowID WindowID, bounds Rect) error
	// SetVisible shows or hides a window without closing it, for windows
	// on workspaces that are not displayed.
	SetVisible(windowID WindowID, visible bool) error
	// Restack raises the given windows in order, so the last one ends on top.
	Restack(windowIDs []WindowID) error
}
