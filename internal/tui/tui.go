package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/tilewm/internal/ipc"
)

const reconnectDelay = 2 * time.Second

// Run shows a live view of the daemon at addr until the user quits or ctx
// ends.
func Run(ctx context.Context, addr string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(addr), tea.WithAltScreen(), tea.WithContext(ctx))
	go watchEvents(ctx, addr, p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// watchEvents forwards the subscription stream into the program,
// reconnecting while ctx is live.
func watchEvents(ctx context.Context, addr string, p *tea.Program) {
	for {
		err := subscribe(ctx, addr, p)
		if ctx.Err() != nil {
			return
		}
		p.Send(disconnectedMsg{err: err})

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func subscribe(ctx context.Context, addr string, p *tea.Program) error {
	client, err := ipc.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Subscribe(ctx, []string{"all"}, func(ipc.EventSubscribeData) {
		p.Send(refreshMsg{})
	}, func(msg *ipc.EventSubscriptionMessage) error {
		if msg.Data != nil {
			p.Send(eventMsg{at: time.Now(), event: *msg.Data})
		}
		return nil
	})
}
