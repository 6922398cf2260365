package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a burst of file events must be quiet before a re-run.
const settle = 150 * time.Millisecond

// watch runs fn, then again each time one of files is written, until ctx is
// done. Directories are watched rather than files so that editors replacing
// a file by rename are seen too. Failures of fn are logged, not returned.
func watch(ctx context.Context, files []string, logger *slog.Logger, fn func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	targets := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		targets[abs] = true
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	runOnce := func() {
		if err := fn(); err != nil {
			logger.Error("run failed", slog.Any("error", err))
		}
	}
	runOnce()
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !targets[abs] || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("mapping changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			pending = time.After(settle)
		case <-pending:
			pending = nil
			runOnce()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		}
	}
}
