package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 150 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes
// each successfully loaded result to onReload. Editors often write through
// a rename, so the parent directory is watched rather than the file.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger, onReload func(*LoadResult)) error {
	canon, err := canonicalPath(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(canon)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(canon), err)
	}
	logger.Debug("watching config", "path", canon)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != canon {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(reloadDebounce)
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		case <-pending:
			pending = nil
			res, err := LoadFromPath(canon)
			if err != nil {
				logger.Warn("config reload failed, keeping previous config", "path", canon, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", canon)
			onReload(res)
		}
	}
}
