package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/coursebuilder/internal/daemon/events"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// ContentWatcher monitors lesson content directories and publishes a
// validation request for every relevant change. The debouncer downstream
// coalesces bursts, so the watcher itself stays dumb: one event per change.
type ContentWatcher struct {
	paths    []string
	bus      *events.Bus
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

// NewContentWatcher creates a watcher over the given directories.
func NewContentWatcher(paths []string, bus *events.Bus) (*ContentWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one watch path is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &ContentWatcher{
		paths:    paths,
		bus:      bus,
		watcher:  watcher,
		stopChan: make(chan struct{}),
	}, nil
}

// Start registers all watch paths recursively and begins monitoring.
func (w *ContentWatcher) Start(ctx context.Context) error {
	for _, root := range w.paths {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("failed to resolve watch path %s: %w", root, err)
		}
		if err := w.addRecursive(absRoot); err != nil {
			return err
		}
		slog.Info("Watching content directory", logfields.Path(absRoot))
	}

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the content watcher.
func (w *ContentWatcher) Stop(ctx context.Context) error {
	close(w.stopChan)
	return w.watcher.Close()
}

// addRecursive walks root and registers every non-hidden directory.
// fsnotify does not watch recursively on its own.
func (w *ContentWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isHiddenDir(d.Name()) && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

func (w *ContentWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Content watcher error", "error", err)
		}
	}
}

func (w *ContentWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// New directories need to be added to the watch set before any files
	// inside them produce events.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !isHiddenDir(filepath.Base(event.Name)) {
				if err := w.addRecursive(event.Name); err != nil {
					slog.Warn("Failed to watch new directory",
						logfields.Path(event.Name), logfields.Error(err))
				}
			}
			return
		}
	}

	if !isRelevantContent(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	slog.Debug("Content change detected",
		logfields.Path(event.Name),
		slog.String("op", event.Op.String()))

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := w.bus.Publish(pubCtx, events.ValidationRequested{
		Source:      "watch",
		Reason:      fmt.Sprintf("%s %s", strings.ToLower(event.Op.String()), filepath.Base(event.Name)),
		RequestedAt: time.Now(),
	}); err != nil {
		slog.Error("Failed to publish content change", logfields.Error(err))
	}
}

func isHiddenDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// isRelevantContent reports whether a changed file can affect validation
// output. Editor swap files and other noise are ignored.
func isRelevantContent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".markdown", ".yaml", ".yml", ".json":
		return true
	}
	return false
}
