package daemon

import (
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/tilewm/internal/wm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubFiltersByType(t *testing.T) {
	hub := NewHub(discardLogger())
	sub := hub.Subscribe([]wm.EventType{wm.EventFocusChanged}, 4)

	hub.Publish(wm.Event{Type: wm.EventWindowManaged})
	hub.Publish(wm.Event{Type: wm.EventFocusChanged})

	select {
	case ev := <-sub.C:
		if ev.Type != wm.EventFocusChanged {
			t.Fatalf("received %s, want focus_changed", ev.Type)
		}
	default:
		t.Fatalf("no event delivered")
	}
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(discardLogger())
	sub := hub.Subscribe(wm.AllEventTypes, 1)

	if !hub.Unsubscribe(sub.ID) {
		t.Fatalf("Unsubscribe() = false for live subscription")
	}
	if hub.Unsubscribe(sub.ID) {
		t.Fatalf("Unsubscribe() = true for removed subscription")
	}
	if _, ok := <-sub.C; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
	if hub.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", hub.Len())
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub(discardLogger())
	sub := hub.Subscribe([]wm.EventType{wm.EventPauseChanged}, 1)

	hub.Publish(wm.Event{Type: wm.EventPauseChanged})
	hub.Publish(wm.Event{Type: wm.EventPauseChanged})

	if got := len(sub.C); got != 1 {
		t.Fatalf("buffered events = %d, want 1", got)
	}
}

func TestHubCloseClosesSubscriptions(t *testing.T) {
	hub := NewHub(discardLogger())
	sub := hub.Subscribe(wm.AllEventTypes, 1)
	hub.Close()

	if _, ok := <-sub.C; ok {
		t.Fatalf("channel still open after Close")
	}
	late := hub.Subscribe(wm.AllEventTypes, 1)
	if _, ok := <-late.C; ok {
		t.Fatalf("subscription after Close is open")
	}
}
