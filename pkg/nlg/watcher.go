package nlg

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/reel/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a template file into Templates whenever it changes.
type Watcher struct {
	path      string
	templates *Templates
	logger    *slog.Logger
	onReload  func(error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchLogger sets the logger.
func WithWatchLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// OnReload registers a callback run after every reload attempt.
func OnReload(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a watcher swapping path into t.
func NewWatcher(path string, t *Templates, opts ...WatcherOption) *Watcher {
	w := &Watcher{path: path, templates: t, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the template file until ctx is done. The parent directory is
// watched so that editors replacing the file are noticed. A file that fails
// to parse leaves the current templates in place.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.reload()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("template watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	set, err := ReadSet(w.path)
	if err != nil {
		w.logger.Warn("template reload failed", "path", w.path, "err", err)
	} else {
		w.templates.Swap(set)
		w.logger.Info("templates reloaded", "path", w.path, "intents", len(set))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
