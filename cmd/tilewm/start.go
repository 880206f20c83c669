package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/instance"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/runtimepath"
	"github.com/1broseidon/tilewm/internal/wm"
)

var noHotkeys bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tilewm daemon",
	Long: `Start the daemon: connect to the X server, take over window placement,
grab the configured keybindings and serve the IPC API.

The config file is watched and reloaded when it changes.`,
	Example: `  # Start with the default config
  tilewm start

  # Start with a specific config file and debug logging
  tilewm start --config ./config.yaml --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&noHotkeys, "no-hotkeys", false, "do not grab keybindings")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, _ []string) error {
	lockPath, err := runtimepath.LockPath()
	if err != nil {
		return err
	}
	lock, err := instance.Acquire(lockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	path, err := configPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config
	logger := newLogger(cfg.SlogLevel())
	logger.Info("configuration loaded", "path", path, "files", len(res.Files))

	// --port wins over general.ipc_port only when given.
	ipcPort := cfg.General.IPCPort
	if cmd.Flags().Changed("port") {
		ipcPort = port
	}

	backend, err := platform.NewLinuxBackendFromDisplay(logger)
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	defer backend.Disconnect()
	if err := backend.Watch(); err != nil {
		return fmt.Errorf("failed to watch X events: %w", err)
	}

	state := wm.NewState(backend, logger)
	hub := daemon.NewHub(logger)
	dispatcher := daemon.NewDispatcher(state, cfg, hub, daemon.Options{
		ConfigPath: path,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go backend.EventLoop()
	defer backend.Quit()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(ctx, backend.Events())
	})
	g.Go(func() error {
		server := ipc.NewServer(dispatcher, version, logger)
		return server.ListenAndServe(ctx, ipc.Addr(ipcPort))
	})
	g.Go(func() error {
		reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{Logger: logger}, dispatcher)
		reconciler.Run(ctx)
		return nil
	})
	g.Go(func() error {
		err := config.Watch(ctx, path, logger, func(res *config.LoadResult) {
			if err := dispatcher.ApplyConfig(ctx, res); err != nil && !errors.Is(err, daemon.ErrStopped) {
				logger.Warn("failed to apply config", "error", err)
			}
		})
		if err != nil {
			// A missing config directory is not fatal; reload-config still works.
			logger.Warn("config file will not be watched", "path", path, "error", err)
		}
		return nil
	})
	if !noHotkeys {
		handler, err := hotkeys.NewHandler(backend, dispatcher, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := handler.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("hotkeys: %w", err)
			}
			return nil
		})
	}

	logger.Info("tilewm started", "version", version, "addr", ipc.Addr(ipcPort))
	err = g.Wait()
	logger.Info("tilewm stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
