package container

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/platform"
)

// StateKind is the discriminant of a WindowState.
type StateKind int

const (
	StateTiling StateKind = iota
	StateFloating
	StateFullscreen
	StateMinimized
)

func (k StateKind) String() string {
	switch k {
	case StateTiling:
		return "tiling"
	case StateFloating:
		return "floating"
	case StateFullscreen:
		return "fullscreen"
	case StateMinimized:
		return "minimized"
	default:
		return "unknown"
	}
}

// ParseStateKind accepts the lowercase state names.
func ParseStateKind(s string) (StateKind, bool) {
	switch s {
	case "tiling":
		return StateTiling, true
	case "floating":
		return StateFloating, true
	case "fullscreen":
		return StateFullscreen, true
	case "minimized":
		return StateMinimized, true
	default:
		return StateTiling, false
	}
}

// WindowState is the arrangement state of a window. Placement is only
// meaningful for floating and fullscreen states; a zero placement means
// "use the default for this state".
type WindowState struct {
	Kind      StateKind     `json:"type"`
	Placement platform.Rect `json:"placement"`
}

// SameKind reports whether s and o share a discriminant.
func (s WindowState) SameKind(o WindowState) bool {
	return s.Kind == o.Kind
}

// InsertionTarget remembers where a window sat while tiling so it can be
// restored to the same position with a comparable share of space.
type InsertionTarget struct {
	ParentID         uuid.UUID
	Index            int
	PrevTilingSize   float64
	PrevSiblingCount int
}

// WindowData is shared by both window variants and survives variant
// switches.
type WindowData struct {
	Native    platform.Window
	State     WindowState
	PrevState *WindowState

	// FloatingPlacement is where the window is drawn when floating.
	FloatingPlacement platform.Rect
	// HasCustomFloatingPlacement is set once the user moves the window
	// while floating.
	HasCustomFloatingPlacement bool
	// PendingDPIAdjustment asks the next redraw to re-check scaling.
	PendingDPIAdjustment bool
}

func (k StateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *StateKind) UnmarshalText(text []byte) error {
	kind, ok := ParseStateKind(string(text))
	if !ok {
		return fmt.Errorf("unknown window state %q", text)
	}
	*k = kind
	return nil
}
