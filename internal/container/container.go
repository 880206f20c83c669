package container

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Kind identifies a container variant.
type Kind int

const (
	KindRoot Kind = iota
	KindMonitor
	KindWorkspace
	KindSplit
	KindTilingWindow
	KindNonTilingWindow
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindMonitor:
		return "monitor"
	case KindWorkspace:
		return "workspace"
	case KindSplit:
		return "split"
	case KindTilingWindow:
		return "tiling_window"
	case KindNonTilingWindow:
		return "non_tiling_window"
	default:
		return "unknown"
	}
}

// Direction is the axis along which a split or workspace lays out its
// tiling children.
type Direction int

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Inverse returns the other axis.
func (d Direction) Inverse() Direction {
	if d == Vertical {
		return Horizontal
	}
	return Vertical
}

// ParseDirection accepts "horizontal" or "vertical".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "horizontal":
		return Horizontal, true
	case "vertical":
		return Vertical, true
	default:
		return Horizontal, false
	}
}

// Container is a node of the arrangement tree. Navigation goes through
// the owning Tree; containers only hold identifiers.
type Container interface {
	ID() uuid.UUID
	Kind() Kind
	base() *node
}

// TilingContainer is a container that takes a proportional share of its
// parent's layout space.
type TilingContainer interface {
	Container
	TilingSize() float64
	SetTilingSize(size float64)
}

// WindowContainer is either a tiling or a non-tiling window.
type WindowContainer interface {
	Container
	Window() *WindowData
}

type node struct {
	id       uuid.UUID
	parent   uuid.UUID
	children []uuid.UUID
}

func newNode() node {
	return node{id: uuid.New()}
}

func (n *node) ID() uuid.UUID { return n.id }
func (n *node) base() *node   { return n }

type tiling struct {
	size float64
}

func (t *tiling) TilingSize() float64        { return t.size }
func (t *tiling) SetTilingSize(size float64) { t.size = size }

// Root is the single top-level container. Its children are monitors.
type Root struct {
	node
}

func (*Root) Kind() Kind { return KindRoot }

// Monitor wraps a native display. Its children are workspaces, of which
// at most one is displayed.
type Monitor struct {
	node
	Native             platform.NativeMonitor
	DisplayedWorkspace uuid.UUID
}

// NewMonitor returns an unattached monitor container.
func NewMonitor(native platform.NativeMonitor) *Monitor {
	return &Monitor{node: newNode(), Native: native}
}

func (*Monitor) Kind() Kind { return KindMonitor }

// Workspace holds the windows and splits of one virtual desktop.
type Workspace struct {
	node
	Name            string
	DisplayName     string
	KeepAlive       bool
	TilingDirection Direction
}

// NewWorkspace returns an unattached workspace container.
func NewWorkspace(name, displayName string, keepAlive bool, direction Direction) *Workspace {
	return &Workspace{
		node:            newNode(),
		Name:            name,
		DisplayName:     displayName,
		KeepAlive:       keepAlive,
		TilingDirection: direction,
	}
}

func (*Workspace) Kind() Kind { return KindWorkspace }

// Split groups tiling children along one direction.
type Split struct {
	node
	tiling
	Direction Direction
}

// NewSplit returns an unattached split container.
func NewSplit(direction Direction) *Split {
	return &Split{node: newNode(), tiling: tiling{size: 1}, Direction: direction}
}

func (*Split) Kind() Kind { return KindSplit }

// TilingWindow is a window laid out by the tiling engine.
type TilingWindow struct {
	node
	tiling
	data WindowData
}

// NewTilingWindow returns an unattached tiling window with a fresh ID.
func NewTilingWindow(native platform.Window) *TilingWindow {
	return &TilingWindow{
		node:   newNode(),
		tiling: tiling{size: 1},
		data:   WindowData{Native: native, State: WindowState{Kind: StateTiling}},
	}
}

func (*TilingWindow) Kind() Kind            { return KindTilingWindow }
func (w *TilingWindow) Window() *WindowData { return &w.data }

// ToNonTiling builds the non-tiling replacement for w. The replacement
// keeps w's ID and window data and records where w sat in the layout.
func (w *TilingWindow) ToNonTiling(state WindowState, target *InsertionTarget) *NonTilingWindow {
	data := w.data
	data.PrevState = &WindowState{Kind: StateTiling}
	data.State = state
	return &NonTilingWindow{
		node:            node{id: w.id},
		data:            data,
		InsertionTarget: target,
	}
}

// NonTilingWindow is a floating, fullscreen or minimized window. It is
// always a direct child of a workspace.
type NonTilingWindow struct {
	node
	data            WindowData
	InsertionTarget *InsertionTarget
}

// NewNonTilingWindow returns an unattached non-tiling window with a fresh
// ID.
func NewNonTilingWindow(native platform.Window, state WindowState) *NonTilingWindow {
	return &NonTilingWindow{
		node: newNode(),
		data: WindowData{Native: native, State: state},
	}
}

func (*NonTilingWindow) Kind() Kind            { return KindNonTilingWindow }
func (w *NonTilingWindow) Window() *WindowData { return &w.data }

// ToTiling builds the tiling replacement for w. The replacement keeps w's
// ID and window data.
func (w *NonTilingWindow) ToTiling() *TilingWindow {
	data := w.data
	prev := data.State
	data.PrevState = &prev
	data.State = WindowState{Kind: StateTiling}
	return &TilingWindow{
		node:   node{id: w.id},
		tiling: tiling{size: 1},
		data:   data,
	}
}

// IsTiling reports whether c takes part in proportional layout.
func IsTiling(c Container) bool {
	_, ok := c.(TilingContainer)
	return ok
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for candidate := KindRoot; candidate <= KindNonTilingWindow; candidate++ {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown container type %q", text)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "horizontal":
		*d = Horizontal
	case "vertical":
		*d = Vertical
	default:
		return fmt.Errorf("unknown tiling direction %q", text)
	}
	return nil
}
