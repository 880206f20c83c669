package container

import (
	"fmt"

	"github.com/google/uuid"
)

// MinTilingSize is the smallest share a tiling container may be resized to.
const MinTilingSize = 0.01

// Attach inserts an unattached container into parent at index, clamped to
// the valid range. A tiling child receives an equal share and its new
// siblings are scaled down to make room.
func (t *Tree) Attach(child Container, parent Container, index int) error {
	if child.ID() == t.root.id || child.base().parent != uuid.Nil {
		return fmt.Errorf("attach %s: %w", child.ID(), ErrAlreadyAttached)
	}
	if _, ok := t.nodes[parent.ID()]; !ok {
		return fmt.Errorf("attach %s: parent %s: %w", child.ID(), parent.ID(), ErrNotFound)
	}
	if err := t.validateParent(child, parent); err != nil {
		return err
	}

	t.nodes[child.ID()] = child
	t.insertChild(child, parent, index)
	if tc, ok := child.(TilingContainer); ok {
		t.giveEqualShare(tc)
	}
	return nil
}

// Detach unlinks c from its parent and clears its parent reference.
// Sibling sizes are left untouched. The container stays in the arena so
// it can be attached again or released.
func (t *Tree) Detach(c Container) error {
	parent := t.Parent(c)
	if parent == nil {
		return fmt.Errorf("detach %s: %w", c.ID(), ErrNoParent)
	}
	pb := parent.base()
	pb.children = removeID(pb.children, c.ID())
	c.base().parent = uuid.Nil
	return nil
}

// Release drops a detached container and its subtree from the arena.
// Released IDs are never handed out again.
func (t *Tree) Release(c Container) error {
	if c.base().parent != uuid.Nil {
		return fmt.Errorf("release %s: %w", c.ID(), ErrAlreadyAttached)
	}
	for _, d := range append(t.Descendants(c), c) {
		delete(t.nodes, d.ID())
		t.focus = removeID(t.focus, d.ID())
	}
	return nil
}

// MoveWithinTree moves c to newParent at newIndex, clamped to
// [0, len(children)]. When the parent changes, the old parent's tiling
// children are renormalized and a tiling c takes an equal share in the
// new parent.
func (t *Tree) MoveWithinTree(c Container, newParent Container, newIndex int) error {
	oldParent := t.Parent(c)
	if oldParent == nil {
		return fmt.Errorf("move %s: %w", c.ID(), ErrNoParent)
	}
	if _, ok := t.nodes[newParent.ID()]; !ok {
		return fmt.Errorf("move %s: parent %s: %w", c.ID(), newParent.ID(), ErrNotFound)
	}
	if err := t.validateParent(c, newParent); err != nil {
		return err
	}
	for n := Container(newParent); n != nil; n = t.Parent(n) {
		if n.ID() == c.ID() {
			return fmt.Errorf("move %s into its own subtree: %w", c.ID(), ErrInvalidParent)
		}
	}

	if oldParent.ID() == newParent.ID() {
		pb := oldParent.base()
		pb.children = removeID(pb.children, c.ID())
		t.insertChild(c, newParent, newIndex)
		return nil
	}

	if err := t.Detach(c); err != nil {
		return err
	}
	t.insertChild(c, newParent, newIndex)

	if tc, ok := c.(TilingContainer); ok {
		t.normalize(oldParent)
		t.giveEqualShare(tc)
	}
	return nil
}

// Replace puts replacement at index in parent's children, in place of the
// container there. The replacement must be unattached. It may reuse the
// replaced container's ID, which is how a window switches variant
// without losing its identity. Containers with children cannot be
// replaced.
func (t *Tree) Replace(replacement Container, parent Container, index int) error {
	pb := parent.base()
	if index < 0 || index >= len(pb.children) {
		return fmt.Errorf("replace at %d in %s (%d children): %w", index, parent.ID(), len(pb.children), ErrIndexOutOfRange)
	}
	if replacement.base().parent != uuid.Nil {
		return fmt.Errorf("replace with %s: %w", replacement.ID(), ErrAlreadyAttached)
	}
	if err := t.validateParent(replacement, parent); err != nil {
		return err
	}

	old := t.nodes[pb.children[index]]
	if len(old.base().children) > 0 {
		return fmt.Errorf("replace %s: %w", old.ID(), ErrHasChildren)
	}
	oldTiling, wasTiling := old.(TilingContainer)
	newTiling, isTiling := replacement.(TilingContainer)

	pb.children[index] = replacement.ID()
	replacement.base().parent = parent.ID()
	old.base().parent = uuid.Nil
	if old.ID() != replacement.ID() {
		delete(t.nodes, old.ID())
		t.focus = removeID(t.focus, old.ID())
	}
	t.nodes[replacement.ID()] = replacement

	switch {
	case wasTiling && isTiling:
		newTiling.SetTilingSize(oldTiling.TilingSize())
	case wasTiling:
		t.normalize(parent)
	case isTiling:
		t.giveEqualShare(newTiling)
	}
	return nil
}

// Wrap puts split in c's place, with c's share of the parent, and moves c
// inside it as its only child.
func (t *Tree) Wrap(c TilingContainer, split *Split) error {
	parent := t.Parent(c)
	if parent == nil {
		return fmt.Errorf("wrap %s: %w", c.ID(), ErrNoParent)
	}
	if split.parent != uuid.Nil || len(split.children) > 0 {
		return fmt.Errorf("wrap %s in %s: %w", c.ID(), split.ID(), ErrAlreadyAttached)
	}

	pb := parent.base()
	pb.children[t.Index(c)] = split.ID()
	split.parent = parent.ID()
	split.SetTilingSize(c.TilingSize())
	t.nodes[split.ID()] = split

	c.base().parent = uuid.Nil
	t.insertChild(c, split, 0)
	c.SetTilingSize(1)
	return nil
}

// ResizeTilingContainer sets c's share of its parent and scales its tiling
// siblings so the shares still sum to 1. The target is clamped so every
// sibling can keep at least MinTilingSize.
func (t *Tree) ResizeTilingContainer(c TilingContainer, target float64) {
	siblings := t.TilingSiblings(c)
	if len(siblings) == 0 {
		c.SetTilingSize(1)
		return
	}

	upper := 1 - float64(len(siblings))*MinTilingSize
	target = clamp(target, MinTilingSize, upper)
	c.SetTilingSize(target)
	scaleToFill(siblings, 1-target)
}

// Normalize rescales the tiling children of parent to sum to 1.
func (t *Tree) Normalize(parent Container) {
	t.normalize(parent)
}

func (t *Tree) normalize(parent Container) {
	scaleToFill(t.TilingChildren(parent), 1)
}

// giveEqualShare sizes tc as 1/n of its parent and scales the other
// tiling children into the remainder.
func (t *Tree) giveEqualShare(tc TilingContainer) {
	siblings := t.TilingSiblings(tc)
	if len(siblings) == 0 {
		tc.SetTilingSize(1)
		return
	}
	share := 1 / float64(len(siblings)+1)
	tc.SetTilingSize(share)
	scaleToFill(siblings, 1-share)
}

func (t *Tree) insertChild(child Container, parent Container, index int) {
	pb := parent.base()
	index = clampIndex(index, len(pb.children))
	pb.children = insertID(pb.children, index, child.ID())
	child.base().parent = parent.ID()
}

func (t *Tree) validateParent(child Container, parent Container) error {
	ok := false
	switch child.Kind() {
	case KindMonitor:
		ok = parent.Kind() == KindRoot
	case KindWorkspace:
		ok = parent.Kind() == KindMonitor
	case KindSplit, KindTilingWindow:
		ok = parent.Kind() == KindWorkspace || parent.Kind() == KindSplit
	case KindNonTilingWindow:
		ok = parent.Kind() == KindWorkspace
	}
	if !ok {
		return fmt.Errorf("%s under %s: %w", child.Kind(), parent.Kind(), ErrInvalidParent)
	}
	return nil
}

// scaleToFill scales sizes proportionally so they sum to total. Containers
// with no size yet get an equal split.
func scaleToFill(containers []TilingContainer, total float64) {
	if len(containers) == 0 {
		return
	}
	var sum float64
	for _, c := range containers {
		sum += c.TilingSize()
	}
	if sum <= 0 {
		each := total / float64(len(containers))
		for _, c := range containers {
			c.SetTilingSize(each)
		}
		return
	}
	for _, c := range containers {
		c.SetTilingSize(c.TilingSize() * total / sum)
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampIndex(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}
