// Package watcher re-indexes corpus files as they change on disk, using fsnotify with
// per-file debouncing.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives settled file changes. Errors are logged and do not stop the watcher.
type Handler interface {
	IndexFile(ctx context.Context, path string) error
	DeleteFile(ctx context.Context, path string) error
}

// Watcher watches corpus directories recursively.
type Watcher struct {
	roots      []string
	extensions []string
	handler    Handler
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long a file must be quiet before it is re-indexed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over roots. extensions filters which files are passed to the
// handler; an empty list passes all files.
func New(roots, extensions []string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		handler:    handler,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled, then waits for in-flight handler calls.
// Roots that do not exist are skipped with a warning.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()
	defer w.shutdown()

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			w.logger.Warn("watcher cannot watch corpus directory", zap.String("root", root), zap.Error(err))
		}
	}
	w.logger.Info("watching corpus", zap.Strings("roots", w.roots), zap.Strings("extensions", w.extensions))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.mu.Unlock()
	w.wg.Wait()
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	path := ev.Name
	if isHidden(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if ev.Has(fsnotify.Create) {
				w.handleNewDirectory(ctx, path)
			}
			return
		}
		if w.matchExtension(path) {
			w.schedule(ctx, path)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// a rename reports the old name; the new name arrives as a Create
		if !w.matchExtension(path) {
			return
		}
		w.cancel(path)
		if err := w.handler.DeleteFile(ctx, path); err != nil {
			w.logger.Warn("watcher failed to remove clauses", zap.String("path", path), zap.Error(err))
		}
	}
}

// handleNewDirectory watches a directory created or moved under a root and indexes
// the files already inside it.
func (w *Watcher) handleNewDirectory(ctx context.Context, dir string) {
	w.mu.Lock()
	err := w.addTree(dir)
	w.mu.Unlock()
	if err != nil {
		w.logger.Warn("watcher cannot watch new directory", zap.String("path", dir), zap.Error(err))
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.matchExtension(path) && !isHidden(path) {
			w.schedule(ctx, path)
		}
		return nil
	})
}

// schedule (re)starts the quiet period for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := w.handler.IndexFile(ctx, path); err != nil {
			w.logger.Warn("watcher failed to index file", zap.String("path", path), zap.Error(err))
			return
		}
		w.logger.Debug("watcher re-indexed file", zap.String("path", path))
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// isHidden reports whether the final path element is a dotfile, which covers editor
// swap files and VCS directories.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
