package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits for a burst of writes to settle.
const WatchDebounce = 100 * time.Millisecond

// Watch reloads the file at path whenever it is written or replaced and
// passes the result of Load to fn, until ctx is done. fn runs on the
// watcher goroutine. Only setup failures are returned; later read, parse
// and validation errors go to fn with a nil config.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("config watch %s: %w", filepath.Dir(abs), err)
	}

	go watchLoop(ctx, w, abs, fn)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, fn func(*Config, error)) {
	defer w.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(WatchDebounce)
			} else {
				timer.Reset(WatchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			fn(Load(path))

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			fn(nil, err)
		}
	}
}
