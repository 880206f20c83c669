package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP tools on stdio backed by a running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// stdout carries the protocol; newLogger writes to stderr.
		logger := newLogger(slog.LevelWarn)
		return mcp.NewServer(daemonAddr(), version, logger).Run(cmd.Context())
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
