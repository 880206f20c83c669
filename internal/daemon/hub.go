package daemon

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/wm"
)

const defaultSubscriptionBuffer = 64

// Subscription receives the events of the types it was created with.
// C is closed when the subscription is removed or the hub shuts down.
type Subscription struct {
	ID    uuid.UUID
	C     <-chan wm.Event
	types map[wm.EventType]bool
	ch    chan wm.Event
}

// Wants reports whether the subscription receives events of type et.
func (s *Subscription) Wants(et wm.EventType) bool {
	return s.types[et]
}

// Hub fans events out to subscribers. Slow subscribers lose events
// rather than stall the dispatcher.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*Subscription
	closed bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[uuid.UUID]*Subscription),
		logger: logger,
	}
}

// Subscribe registers a subscription for types. A buffer of zero or less
// uses the default size.
func (h *Hub) Subscribe(types []wm.EventType, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	ch := make(chan wm.Event, buffer)
	sub := &Subscription{
		ID:    uuid.New(),
		C:     ch,
		types: make(map[wm.EventType]bool, len(types)),
		ch:    ch,
	}
	for _, et := range types {
		sub.types[et] = true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes the subscription with id and reports whether it
// existed.
func (h *Hub) Unsubscribe(id uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return false
	}
	delete(h.subs, id)
	close(sub.ch)
	return true
}

// Publish delivers ev to every interested subscriber without blocking.
func (h *Hub) Publish(ev wm.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		if !sub.types[ev.Type] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("subscriber too slow, dropping event", "subscription", id, "event", ev.Type)
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscription. Later subscriptions are closed
// immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
}
