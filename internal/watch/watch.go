// Package watch re-runs a callback when files under a directory tree change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of events such as editor save sequences.
const DefaultDebounce = 300 * time.Millisecond

// skipDirs are never watched; they match the discoverer's default ignores.
var skipDirs = []string{".git", "node_modules", "dist", "build"}

// Watcher watches a directory tree recursively.
type Watcher struct {
	root     string
	debounce time.Duration
}

// New creates a watcher rooted at root. A non-positive debounce uses
// DefaultDebounce.
func New(root string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, debounce: debounce}
}

// Run blocks until ctx is done, calling onChange once per quiet period
// after one or more file events. onChange runs on the Run goroutine, so
// calls never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := addRecursive(fw, w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ignored(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(fw, ev.Name); err != nil {
						slog.Warn("Failed to watch new directory", "dir", ev.Name, "error", err)
					}
				}
			}
			slog.Debug("File changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watch error", "error", err)
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && slices.Contains(skipDirs, d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func ignored(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(ev.Name), "/") {
		if slices.Contains(skipDirs, part) {
			return true
		}
	}
	return false
}
