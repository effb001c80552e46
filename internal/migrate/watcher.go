package migrate

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs fn whenever the seed file changes, until ctx is cancelled.
// Events are debounced so editors that write in several steps trigger one
// run. Intended for the offline dev loop (`migrate --watch`), never for a
// serving process.
func Watch(ctx context.Context, seedPath string, logger *slog.Logger, fn func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the parent directory: many editors replace the file on save,
	// which would drop a watch on the file itself.
	if err := w.Add(filepath.Dir(seedPath)); err != nil {
		return err
	}
	target := filepath.Clean(seedPath)

	logger.Info("watching seed file", slog.String("path", seedPath))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(500 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(500 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("seed watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			schedule()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("seed watcher error", slog.String("error", err.Error()))

		case <-debounceCh:
			logger.Info("seed changed, re-running migration")
			if err := fn(ctx); err != nil {
				logger.Error("migration run failed", slog.String("error", err.Error()))
			}
		}
	}
}
