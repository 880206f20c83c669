package ipc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/1broseidon/tilewm/internal/wm"
)

// MessageKind is the verb of a client message.
type MessageKind string

const (
	KindQuery   MessageKind = "query"
	KindCommand MessageKind = "command"
	KindSub     MessageKind = "sub"
	KindUnsub   MessageKind = "unsub"
)

// Queries lists the supported "query" targets.
var Queries = []string{
	"monitors",
	"workspaces",
	"windows",
	"focused",
	"app-metadata",
	"binding-modes",
	"tiling-direction",
	"paused",
}

// ClientMessage is a parsed client message.
type ClientMessage struct {
	Kind MessageKind

	Query string

	Command   wm.Command
	SubjectID *uuid.UUID

	Events []wm.EventType

	SubscriptionID uuid.UUID
}

// ParseClientMessage parses the text form of a client message, e.g.
// "query windows", "command --id <uuid> set-floating",
// "sub --events window_managed,focus_changed" or "unsub --id <uuid>".
func ParseClientMessage(text string) (ClientMessage, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ClientMessage{}, errors.New("empty message")
	}
	verb, args := MessageKind(fields[0]), fields[1:]

	switch verb {
	case KindQuery:
		return parseQuery(args)
	case KindCommand:
		return parseCommandMessage(args)
	case KindSub:
		return parseSub(args)
	case KindUnsub:
		return parseUnsub(args)
	default:
		return ClientMessage{}, fmt.Errorf("unknown message %q", verb)
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseQuery(args []string) (ClientMessage, error) {
	if len(args) != 1 {
		return ClientMessage{}, fmt.Errorf("query expects one of: %s", strings.Join(Queries, ", "))
	}
	for _, q := range Queries {
		if q == args[0] {
			return ClientMessage{Kind: KindQuery, Query: q}, nil
		}
	}
	return ClientMessage{}, fmt.Errorf("unknown query %q", args[0])
}

func parseCommandMessage(args []string) (ClientMessage, error) {
	fs := newFlagSet("command")
	// Arguments after the command name belong to it, including negative
	// resize values.
	fs.SetInterspersed(false)
	id := fs.String("id", "", "subject container id")
	if err := fs.Parse(args); err != nil {
		return ClientMessage{}, fmt.Errorf("command: %w", err)
	}

	cmd, err := wm.ParseCommand(strings.Join(fs.Args(), " "))
	if err != nil {
		return ClientMessage{}, err
	}
	msg := ClientMessage{Kind: KindCommand, Command: cmd}
	if *id != "" {
		parsed, err := uuid.Parse(*id)
		if err != nil {
			return ClientMessage{}, fmt.Errorf("command: invalid --id: %w", err)
		}
		msg.SubjectID = &parsed
	}
	return msg, nil
}

func parseSub(args []string) (ClientMessage, error) {
	fs := newFlagSet("sub")
	events := fs.StringSliceP("events", "e", nil, "event types to subscribe to")
	if err := fs.Parse(args); err != nil {
		return ClientMessage{}, fmt.Errorf("sub: %w", err)
	}
	if fs.NArg() > 0 {
		return ClientMessage{}, fmt.Errorf("sub: unexpected arguments %v", fs.Args())
	}
	types, err := wm.ParseEventTypes(*events)
	if err != nil {
		return ClientMessage{}, fmt.Errorf("sub: %w", err)
	}
	return ClientMessage{Kind: KindSub, Events: types}, nil
}

func parseUnsub(args []string) (ClientMessage, error) {
	fs := newFlagSet("unsub")
	id := fs.String("id", "", "subscription id")
	if err := fs.Parse(args); err != nil {
		return ClientMessage{}, fmt.Errorf("unsub: %w", err)
	}
	parsed, err := uuid.Parse(*id)
	if err != nil {
		return ClientMessage{}, fmt.Errorf("unsub: invalid --id: %w", err)
	}
	return ClientMessage{Kind: KindUnsub, SubscriptionID: parsed}, nil
}
