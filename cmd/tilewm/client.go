package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/tilewm/internal/ipc"
)

var (
	subjectID string
	subEvents []string
	unsubID   string
)

var queryCmd = &cobra.Command{
	Use:       "query <" + strings.Join(ipc.Queries, "|") + ">",
	Short:     "Query the state of a running daemon",
	Args:      cobra.ExactArgs(1),
	ValidArgs: ipc.Queries,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAndPrint(cmd.Context(), "query "+args[0])
	},
}

var commandCmd = &cobra.Command{
	Use:   "command [--id <container-id>] <command> [args...]",
	Short: "Run a window manager command",
	Long: `Run a command against the focused container, or against the container
given with --id. Flags must come before the command so that arguments
such as "resize -0.1" are passed through.`,
	Example: `  tilewm command toggle-floating
  tilewm command resize -0.1
  tilewm command --id 6f1c... set-tiling
  tilewm command focus-workspace 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := "command "
		if subjectID != "" {
			message += "--id " + subjectID + " "
		}
		return sendAndPrint(cmd.Context(), message+strings.Join(args, " "))
	},
}

var subCmd = &cobra.Command{
	Use:   "sub --events <event>[,<event>...]",
	Short: "Stream events from a running daemon",
	Long: `Subscribe to events and print one JSON message per line until
interrupted. Use "all" to receive every event type.`,
	Args: cobra.NoArgs,
	RunE: runSub,
}

var unsubCmd = &cobra.Command{
	Use:   "unsub --id <subscription-id>",
	Short: "Cancel an event subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sendAndPrint(cmd.Context(), "unsub --id "+unsubID)
	},
}

func init() {
	commandCmd.Flags().StringVar(&subjectID, "id", "", "container to run the command against")
	commandCmd.Flags().SetInterspersed(false)

	subCmd.Flags().StringSliceVarP(&subEvents, "events", "e", nil, "event types to receive")
	subCmd.MarkFlagRequired("events")

	unsubCmd.Flags().StringVar(&unsubID, "id", "", "subscription id")
	unsubCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(queryCmd, commandCmd, subCmd, unsubCmd)
}

func sendAndPrint(ctx context.Context, message string) error {
	resp, err := ipc.Query(ctx, daemonAddr(), message)
	if err != nil {
		return fmt.Errorf("failed to reach tilewm at %s: %w", daemonAddr(), err)
	}
	if err := printJSON(resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.ErrorMessage())
	}
	return nil
}

func runSub(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ipc.Dial(ctx, daemonAddr())
	if err != nil {
		return fmt.Errorf("failed to reach tilewm at %s: %w", daemonAddr(), err)
	}
	defer client.Close()

	return client.Subscribe(ctx, subEvents, func(data ipc.EventSubscribeData) {
		fmt.Fprintf(os.Stderr, "subscribed: %s\n", data.SubscriptionID)
	}, func(msg *ipc.EventSubscriptionMessage) error {
		return printJSON(msg)
	})
}

// printJSON writes v as indented JSON on a terminal and as one line
// otherwise, so piped output stays line-delimited.
func printJSON(v any) error {
	var (
		data []byte
		err  error
	)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
