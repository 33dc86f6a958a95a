// Package watch re-runs extraction when PHP sources change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is the quiet period before changes are reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a directory tree for changes to .php files.
type Watcher struct {
	root     string
	debounce time.Duration
	skipDir  func(rel string) bool
	watcher  *fsnotify.Watcher
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithSkipDir excludes directories by their slash separated path relative to
// the root.
func WithSkipDir(fn func(rel string) bool) Option {
	return func(w *Watcher) { w.skipDir = fn }
}

// New registers root and all its subdirectories.
func New(root string, opts ...Option) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{root: root, debounce: DefaultDebounce, watcher: fw}
	for _, o := range opts {
		o(w)
	}
	if err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// changed files after each quiet period. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, onChange func(files []string)) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						log.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch new directory")
					}
					continue
				}
			}
			if !relevant(event) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			sort.Strings(files)
			pending = make(map[string]bool)
			onChange(files)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".php")
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(w.root, path); err == nil && rel != "." && w.skipDir != nil && w.skipDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		log.Debug().Str("dir", path).Msg("Watching directory")
		return nil
	})
}
