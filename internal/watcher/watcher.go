// Package watcher watches module directories and signals, debounced, when a
// module.json is created, changed or removed, or a module directory appears
// or disappears.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/manifest"
)

// Watcher monitors module roots for manifest changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     map[string]bool
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Roots are directories whose children are module directories.
	Roots       []string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(roots ...string) Config {
	return Config{
		Roots:       roots,
		DebounceDur: 500 * time.Millisecond,
	}
}

// RootsFromScanPaths turns registry scan globs ("modules/*",
// "vendor/*/*") into the existing directories holding module directories.
func RootsFromScanPaths(scanPaths []string) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, p := range scanPaths {
		parent := strings.TrimSuffix(p, "/*")
		matches, err := filepath.Glob(parent)
		if err != nil {
			log.Warn(log.CatWatcher, "bad scan path", "path", p, "error", err)
			continue
		}
		for _, dir := range matches {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() || seen[dir] {
				continue
			}
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots
}

// New creates a new module watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	roots := make(map[string]bool, len(cfg.Roots))
	for _, r := range cfg.Roots {
		roots[filepath.Clean(r)] = true
	}

	return &Watcher{
		fsWatcher: fsw,
		roots:     roots,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches every root and every module directory below it.
// Returns a channel that receives a signal when modules change.
func (w *Watcher) Start() (<-chan struct{}, error) {
	for root := range w.roots {
		if err := w.fsWatcher.Add(root); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", root, err)
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", root, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				w.addModuleDir(filepath.Join(root, entry.Name()))
			}
		}
	}

	go w.loop()

	return w.onChange, nil
}

func (w *Watcher) addModuleDir(dir string) {
	if err := w.fsWatcher.Add(dir); err != nil {
		log.Warn(log.CatWatcher, "cannot watch module directory", "dir", dir, "error", err)
	}
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			log.Debug(log.CatWatcher, "module change", "path", event.Name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// Drop the signal if the previous one was not consumed yet.
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether event can change discovery: a
// module.json anywhere below a root, or a directory added to or removed
// from a root. New module directories are watched from then on.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if filepath.Base(event.Name) == manifest.ModuleFile {
		return true
	}

	if !w.roots[filepath.Dir(event.Name)] {
		return false
	}
	if event.Op.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return false
		}
		w.addModuleDir(event.Name)
		return true
	}
	// A removed or renamed entry can no longer be stat'ed; assume it was a
	// module directory.
	return event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
}
