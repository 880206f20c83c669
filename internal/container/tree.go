package container

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/platform"
)

var (
	// ErrNoParent is returned when an operation needs a parent the
	// container does not have.
	ErrNoParent = errors.New("container has no parent")
	// ErrIndexOutOfRange is returned when a child index is not valid.
	ErrIndexOutOfRange = errors.New("child index out of range")
	// ErrNotFound is returned when an ID is not part of the tree.
	ErrNotFound = errors.New("container not found")
	// ErrAlreadyAttached is returned when attaching a container that
	// already has a parent.
	ErrAlreadyAttached = errors.New("container is already attached")
	// ErrInvalidParent is returned when a container kind may not live
	// under the requested parent, or the move would create a cycle.
	ErrInvalidParent = errors.New("invalid parent for container")
	// ErrHasChildren is returned when replacing a container that still
	// has children.
	ErrHasChildren = errors.New("container has children")
)

// Tree is an arena of containers keyed by ID. Parent and child links are
// ID lookups into the arena.
type Tree struct {
	nodes map[uuid.UUID]Container
	root  *Root
	// focus holds window and workspace IDs, most recently focused first.
	focus []uuid.UUID
}

// NewTree returns a tree holding only a root container.
func NewTree() *Tree {
	root := &Root{node: newNode()}
	return &Tree{
		nodes: map[uuid.UUID]Container{root.id: root},
		root:  root,
	}
}

// Root returns the root container.
func (t *Tree) Root() *Root {
	return t.root
}

// Get looks up a container by ID.
func (t *Tree) Get(id uuid.UUID) (Container, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Len returns the number of containers in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Parent returns c's parent, or nil for the root and detached containers.
func (t *Tree) Parent(c Container) Container {
	parentID := c.base().parent
	if parentID == uuid.Nil {
		return nil
	}
	return t.nodes[parentID]
}

// Children returns c's children in order.
func (t *Tree) Children(c Container) []Container {
	ids := c.base().children
	children := make([]Container, 0, len(ids))
	for _, id := range ids {
		if child, ok := t.nodes[id]; ok {
			children = append(children, child)
		}
	}
	return children
}

// ChildCount returns the number of children of c.
func (t *Tree) ChildCount(c Container) int {
	return len(c.base().children)
}

// Index returns c's position in its parent's children, or -1.
func (t *Tree) Index(c Container) int {
	parent := t.Parent(c)
	if parent == nil {
		return -1
	}
	return indexOf(parent.base().children, c.ID())
}

// Ancestors returns c's ancestors, nearest first.
func (t *Tree) Ancestors(c Container) []Container {
	var ancestors []Container
	for p := t.Parent(c); p != nil; p = t.Parent(p) {
		ancestors = append(ancestors, p)
	}
	return ancestors
}

// Descendants returns every container below c in depth-first pre-order.
func (t *Tree) Descendants(c Container) []Container {
	var out []Container
	var walk func(Container)
	walk = func(n Container) {
		for _, child := range t.Children(n) {
			out = append(out, child)
			walk(child)
		}
	}
	walk(c)
	return out
}

// IsAttached reports whether c is reachable from the root.
func (t *Tree) IsAttached(c Container) bool {
	if c == nil {
		return false
	}
	if c.ID() == t.root.id {
		return true
	}
	if _, ok := t.nodes[c.ID()]; !ok {
		return false
	}
	for p := t.Parent(c); p != nil; p = t.Parent(p) {
		if p.ID() == t.root.id {
			return true
		}
	}
	return false
}

// Workspace returns c itself if it is a workspace, or its nearest
// workspace ancestor.
func (t *Tree) Workspace(c Container) *Workspace {
	for n := c; n != nil; n = t.Parent(n) {
		if ws, ok := n.(*Workspace); ok {
			return ws
		}
	}
	return nil
}

// Monitor returns c itself if it is a monitor, or its nearest monitor
// ancestor.
func (t *Tree) Monitor(c Container) *Monitor {
	for n := c; n != nil; n = t.Parent(n) {
		if m, ok := n.(*Monitor); ok {
			return m
		}
	}
	return nil
}

// Monitors returns the monitors in child order of the root.
func (t *Tree) Monitors() []*Monitor {
	var monitors []*Monitor
	for _, c := range t.Children(t.root) {
		if m, ok := c.(*Monitor); ok {
			monitors = append(monitors, m)
		}
	}
	return monitors
}

// WorkspacesOf returns the workspaces of one monitor in child order.
func (t *Tree) WorkspacesOf(m *Monitor) []*Workspace {
	var workspaces []*Workspace
	for _, c := range t.Children(m) {
		if ws, ok := c.(*Workspace); ok {
			workspaces = append(workspaces, ws)
		}
	}
	return workspaces
}

// Workspaces returns all workspaces, ordered by monitor then position.
func (t *Tree) Workspaces() []*Workspace {
	var workspaces []*Workspace
	for _, m := range t.Monitors() {
		workspaces = append(workspaces, t.WorkspacesOf(m)...)
	}
	return workspaces
}

// WorkspaceByName finds an attached workspace by name.
func (t *Tree) WorkspaceByName(name string) *Workspace {
	for _, ws := range t.Workspaces() {
		if ws.Name == name {
			return ws
		}
	}
	return nil
}

// Windows returns every window below c in depth-first order.
func (t *Tree) Windows(c Container) []WindowContainer {
	var windows []WindowContainer
	for _, d := range t.Descendants(c) {
		if w, ok := d.(WindowContainer); ok {
			windows = append(windows, w)
		}
	}
	return windows
}

// WindowByNative finds an attached window by its native ID.
func (t *Tree) WindowByNative(id platform.WindowID) WindowContainer {
	for _, w := range t.Windows(t.root) {
		if w.Window().Native.ID == id {
			return w
		}
	}
	return nil
}

// TilingChildren returns the tiling children of c in order.
func (t *Tree) TilingChildren(c Container) []TilingContainer {
	var out []TilingContainer
	for _, child := range t.Children(c) {
		if tc, ok := child.(TilingContainer); ok {
			out = append(out, tc)
		}
	}
	return out
}

// TilingSiblings returns the tiling children of c's parent other than c.
func (t *Tree) TilingSiblings(c Container) []TilingContainer {
	parent := t.Parent(c)
	if parent == nil {
		return nil
	}
	var out []TilingContainer
	for _, tc := range t.TilingChildren(parent) {
		if tc.ID() != c.ID() {
			out = append(out, tc)
		}
	}
	return out
}

// IsDisplayed reports whether ws is the displayed workspace of an
// attached monitor.
func (t *Tree) IsDisplayed(ws *Workspace) bool {
	m, ok := t.Parent(ws).(*Monitor)
	if !ok || !t.IsAttached(m) {
		return false
	}
	return m.DisplayedWorkspace == ws.id
}

// DisplayedWorkspace returns the workspace shown on m, if any.
func (t *Tree) DisplayedWorkspace(m *Monitor) *Workspace {
	c, ok := t.nodes[m.DisplayedWorkspace]
	if !ok {
		return nil
	}
	ws, _ := c.(*Workspace)
	return ws
}

// SetFocused records c as the most recently focused container.
func (t *Tree) SetFocused(c Container) error {
	if _, ok := t.nodes[c.ID()]; !ok {
		return fmt.Errorf("focus %s: %w", c.ID(), ErrNotFound)
	}
	t.focus = removeID(t.focus, c.ID())
	t.focus = append([]uuid.UUID{c.ID()}, t.focus...)
	return nil
}

// Focused returns the most recently focused attached container.
func (t *Tree) Focused() Container {
	for _, id := range t.focus {
		if c, ok := t.nodes[id]; ok && t.IsAttached(c) {
			return c
		}
	}
	return nil
}

// FocusOrder returns descendants of within that have been focused, most
// recent first.
func (t *Tree) FocusOrder(within Container) []Container {
	var out []Container
	for _, id := range t.focus {
		c, ok := t.nodes[id]
		if !ok {
			continue
		}
		for p := t.Parent(c); p != nil; p = t.Parent(p) {
			if p.ID() == within.ID() {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func indexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	i := indexOf(ids, id)
	if i < 0 {
		return ids
	}
	return append(ids[:i:i], ids[i+1:]...)
}

func insertID(ids []uuid.UUID, index int, id uuid.UUID) []uuid.UUID {
	ids = append(ids, uuid.Nil)
	copy(ids[index+1:], ids[index:])
	ids[index] = id
	return ids
}
