package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/ipc"
)

var version = "dev"

var (
	cfgFile  string
	logLevel string
	port     int

	rootCmd = &cobra.Command{
		Use:   "tilewm",
		Short: "tilewm - a tiling window manager state engine for X11",
		Long: `tilewm keeps a tree of monitors, workspaces, splits and windows and
arranges the windows of an EWMH window manager into tiles.

Run "tilewm start" to launch the daemon. The other commands talk to a
running daemon over its websocket API on 127.0.0.1.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/tilewm/config.yaml)")
	rootCmd.PersistentFlags().IntVar(&port, "port", ipc.DefaultPort, "IPC port of the daemon")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides general.log_level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

func newLogger(level slog.Level) *slog.Logger {
	if logLevel != "" {
		level = config.ParseLogLevel(strings.ToLower(logLevel))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func daemonAddr() string {
	return ipc.Addr(port)
}
