// Package watch re-runs a render pass when the documentation source changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docrender/internal/docs"
	"git.home.luguber.info/inful/docrender/internal/logfields"
)

// RebuildFunc runs one pass. Its error is logged; watching continues.
type RebuildFunc func(ctx context.Context) error

// Watcher watches a source tree recursively and calls the rebuild function
// once per burst of changes. A burst that leaves the content hash of the
// tree unchanged (editor saves without edits, touched files) is skipped.
type Watcher struct {
	root     string
	debounce time.Duration
	rebuild  RebuildFunc

	mu       sync.Mutex
	lastHash string
}

// New creates a Watcher for root.
func New(root string, debounce time.Duration, rebuild RebuildFunc) *Watcher {
	return &Watcher{root: root, debounce: debounce, rebuild: rebuild}
}

// Run renders once, then watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := addDirsRecursive(watcher, w.root); err != nil {
		return err
	}

	w.process(ctx)
	slog.Info("Watching for changes", logfields.Source(w.root))

	rebuildReq, trigger := w.setupDebouncer()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.worker(ctx, rebuildReq)
	}()
	defer func() { <-done }()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// setupDebouncer creates the rebuild channel and a trigger that fires it
// once the events have been quiet for the debounce period.
func (w *Watcher) setupDebouncer() (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

// worker serializes passes; requests arriving during a pass coalesce into
// the buffered channel slot.
func (w *Watcher) worker(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			w.process(ctx)
		}
	}
}

func (w *Watcher) process(ctx context.Context) {
	files, err := docs.Discover(w.root)
	if err != nil {
		slog.Warn("Rescan failed", logfields.Source(w.root), logfields.Error(err))
		return
	}
	hash, err := docs.ComputeDocsHash(files)
	if err != nil {
		slog.Warn("Hashing sources failed", logfields.Error(err))
		return
	}

	w.mu.Lock()
	unchanged := hash == w.lastHash
	w.mu.Unlock()
	if unchanged {
		slog.Debug("Sources unchanged; skipping pass", slog.String("hash", hash))
		return
	}

	slog.Info("Change detected; rendering", logfields.Count(len(files)))
	if err := w.rebuild(ctx); err != nil {
		slog.Warn("Render failed", logfields.Error(err))
		return
	}
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()
}

// handleFileEvent processes a filesystem event and triggers a pass if needed.
func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger passes.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
