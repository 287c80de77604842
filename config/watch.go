package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	zebar "github.com/glzr-io/zebar-sub000"
)

// ReloadDelay is how long Watch waits for a burst of file events to settle
// before reloading.
var ReloadDelay = 50 * time.Millisecond

// Watch reloads the configuration at path whenever the file changes, and
// passes each result to onReload.  A configuration that fails to load is
// passed along with its error, so the caller may keep using the previous one.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onReload func(*Config, error), opts ...zebar.Option) error {
	var watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err = watcher.Add(path); err != nil {
		return err
	}

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// If it's a rename, then fsnotify has removed the watch.
			// Add it back, after a delay.
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(10 * time.Millisecond)
				if err := watcher.Add(path); err != nil {
					Logger.Error("could not watch config", "path", path, "err", err)
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			reload = time.After(ReloadDelay)

		case <-reload:
			reload = nil
			var cfg, err = Load(path, opts...)
			if err != nil {
				Logger.Error("config reload failed", "path", path, "err", err)
			} else {
				Logger.Info("config reloaded", "path", path, "properties", len(cfg.properties))
			}
			onReload(cfg, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			Logger.Warn("config watcher error", "path", path, "err", err)
		}
	}
}
