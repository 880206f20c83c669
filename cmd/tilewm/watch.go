package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the live container tree and event stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return tui.Run(cmd.Context(), daemonAddr())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
