package wm

import (
	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/container"
)

// PendingSync collects redraw and reorder work during one operation so the
// native calls are issued once, after the operation has finished mutating
// the tree.
type PendingSync struct {
	redraw      map[uuid.UUID]struct{}
	redrawOrder []uuid.UUID

	reorder      map[uuid.UUID]struct{}
	reorderOrder []uuid.UUID
}

func NewPendingSync() *PendingSync {
	return &PendingSync{
		redraw:  make(map[uuid.UUID]struct{}),
		reorder: make(map[uuid.UUID]struct{}),
	}
}

// QueueContainerToRedraw marks c for a geometry redraw.
func (p *PendingSync) QueueContainerToRedraw(c container.Container) *PendingSync {
	if _, ok := p.redraw[c.ID()]; !ok {
		p.redraw[c.ID()] = struct{}{}
		p.redrawOrder = append(p.redrawOrder, c.ID())
	}
	return p
}

// QueueContainersToRedraw marks each tiling container for redraw.
func (p *PendingSync) QueueContainersToRedraw(cs []container.TilingContainer) *PendingSync {
	for _, c := range cs {
		p.QueueContainerToRedraw(c)
	}
	return p
}

// QueueWorkspaceToReorder marks ws for restacking of its windows.
func (p *PendingSync) QueueWorkspaceToReorder(ws *container.Workspace) *PendingSync {
	if _, ok := p.reorder[ws.ID()]; !ok {
		p.reorder[ws.ID()] = struct{}{}
		p.reorderOrder = append(p.reorderOrder, ws.ID())
	}
	return p
}

// ContainersToRedraw returns the queued container IDs in queue order.
func (p *PendingSync) ContainersToRedraw() []uuid.UUID {
	return append([]uuid.UUID(nil), p.redrawOrder...)
}

// WorkspacesToReorder returns the queued workspace IDs in queue order.
func (p *PendingSync) WorkspacesToReorder() []uuid.UUID {
	return append([]uuid.UUID(nil), p.reorderOrder...)
}

// IsEmpty reports whether nothing is queued.
func (p *PendingSync) IsEmpty() bool {
	return len(p.redrawOrder) == 0 && len(p.reorderOrder) == 0
}

// Clear drops all queued work.
func (p *PendingSync) Clear() {
	p.redraw = make(map[uuid.UUID]struct{})
	p.redrawOrder = nil
	p.reorder = make(map[uuid.UUID]struct{})
	p.reorderOrder = nil
}
