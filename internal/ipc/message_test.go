package ipc

import (
	"testing"

	"github.com/google/uuid"

	"github.com/1broseidon/tilewm/internal/wm"
)

func TestParseClientMessage(t *testing.T) {
	id := uuid.MustParse("5a7c3f1e-8d0b-4a52-9e16-0c4f2b7d9a31")

	tests := []struct {
		name    string
		text    string
		check   func(t *testing.T, msg ClientMessage)
		wantErr bool
	}{
		{
			name: "query",
			text: "query windows",
			check: func(t *testing.T, msg ClientMessage) {
				if msg.Kind != KindQuery || msg.Query != "windows" {
					t.Fatalf("got %+v", msg)
				}
			},
		},
		{
			name: "command with id",
			text: "command --id " + id.String() + " set-floating",
			check: func(t *testing.T, msg ClientMessage) {
				if msg.Kind != KindCommand || msg.Command.Name != "set-floating" {
					t.Fatalf("got %+v", msg)
				}
				if msg.SubjectID == nil || *msg.SubjectID != id {
					t.Fatalf("SubjectID = %v, want %s", msg.SubjectID, id)
				}
			},
		},
		{
			name: "negative resize is not a flag",
			text: "command resize -0.1",
			check: func(t *testing.T, msg ClientMessage) {
				if msg.Command.String() != "resize -0.1" || msg.SubjectID != nil {
					t.Fatalf("got %+v", msg)
				}
			},
		},
		{
			name: "sub",
			text: "sub --events window_managed,focus_changed",
			check: func(t *testing.T, msg ClientMessage) {
				if len(msg.Events) != 2 || msg.Events[0] != wm.EventWindowManaged || msg.Events[1] != wm.EventFocusChanged {
					t.Fatalf("Events = %v", msg.Events)
				}
			},
		},
		{
			name: "sub all",
			text: "sub -e all",
			check: func(t *testing.T, msg ClientMessage) {
				if len(msg.Events) != len(wm.AllEventTypes) {
					t.Fatalf("Events = %v, want all", msg.Events)
				}
			},
		},
		{
			name: "unsub",
			text: "unsub --id " + id.String(),
			check: func(t *testing.T, msg ClientMessage) {
				if msg.Kind != KindUnsub || msg.SubscriptionID != id {
					t.Fatalf("got %+v", msg)
				}
			},
		},
		{name: "empty", text: "  ", wantErr: true},
		{name: "unknown verb", text: "frob", wantErr: true},
		{name: "unknown query", text: "query everything", wantErr: true},
		{name: "unknown command", text: "command explode", wantErr: true},
		{name: "bad id", text: "command --id nope set-tiling", wantErr: true},
		{name: "sub without events", text: "sub", wantErr: true},
		{name: "unknown event", text: "sub --events window_exploded", wantErr: true},
		{name: "unsub without id", text: "unsub", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseClientMessage(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClientMessage(%q) = %+v, want error", tt.text, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClientMessage(%q) error = %v", tt.text, err)
			}
			tt.check(t, msg)
		})
	}
}
