// Package ingestwatch watches a corpus directory and signals when its
// contents change, so ingestion can be re-run without polling.
package ingestwatch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/reportex-cli/internal/logger"
)

// DefaultDebounce coalesces rapid write bursts into one change signal.
const DefaultDebounce = 2 * time.Second

// Watcher observes a corpus directory tree recursively.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is signalled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the given corpus directory. All
// subdirectories except hidden ones are watched.
func New(root string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until the context is cancelled, sending a signal on the
// returned channel after each debounced burst of corpus changes. The
// channel has capacity one: a change during an ingestion run collapses
// into a single pending signal.
func (w *Watcher) Run(ctx context.Context) <-chan struct{} {
	changes := make(chan struct{}, 1)

	go func() {
		defer close(changes)
		defer w.fsw.Close()

		var timer *time.Timer
		notify := func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if hidden(ev.Name) {
					continue
				}
				// New subdirectories must join the watch set.
				if ev.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := w.addTree(ev.Name); err != nil {
							logger.Warn("Watch new directory %s: %v", ev.Name, err)
						}
					}
				}
				if ev.Op.Has(fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove) {
					logger.Debug("Corpus change: %s (%s)", ev.Name, ev.Op)
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(w.debounce, notify)
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes
}

// addTree registers a directory and its visible subdirectories.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// hidden reports whether the path's base name starts with a dot.
func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
