// Package watcher re-runs a callback when image files or manifests change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultExtensions are the file types that trigger a directory change
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Watcher watches directories and single files for changes
type Watcher struct {
	dirs     []string
	files    map[string]bool
	exts     map[string]bool
	onChange func(ctx context.Context, path string)
	debounce time.Duration
	logger   *zap.Logger
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the debounce duration
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithExtensions sets which file extensions count as changes inside a
// watched directory
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = make(map[string]bool, len(exts))
		for _, e := range exts {
			w.exts[strings.ToLower(e)] = true
		}
	}
}

// WithFile adds a single file to watch, such as an asset manifest
func WithFile(path string) Option {
	return func(w *Watcher) {
		if path == "" {
			return
		}
		if abs, err := filepath.Abs(path); err == nil {
			w.files[abs] = true
		}
	}
}

// New creates a watcher over dir (recursively). onChange receives the last
// changed path once the burst of events has settled.
func New(dir string, onChange func(ctx context.Context, path string), opts ...Option) *Watcher {
	w := &Watcher{
		files:    make(map[string]bool),
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		logger:   zap.NewNop(),
	}
	if dir != "" {
		w.dirs = append(w.dirs, dir)
	}
	WithExtensions(DefaultExtensions...)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled. onChange runs on the watch
// goroutine, so a slow callback delays the next one rather than overlapping.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := w.addTree(fw, dir); err != nil {
			return err
		}
	}
	// Watch the directory containing each file so replacements by editors
	// are seen
	for file := range w.files {
		if err := fw.Add(filepath.Dir(file)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", file, err)
		}
		w.logger.Info("watching file", zap.String("path", file))
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := ""

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.underDir(event.Name) {
					if err := w.addTree(fw, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			pending = event.Name
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("change detected", zap.String("path", pending))
			w.onChange(ctx, pending)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		w.logger.Debug("watching directory", zap.String("path", p))
		return nil
	})
}

func (w *Watcher) underDir(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, dir := range w.dirs {
		root, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if abs, err := filepath.Abs(event.Name); err == nil && w.files[abs] {
		return true
	}
	return w.underDir(event.Name) && w.exts[strings.ToLower(filepath.Ext(event.Name))]
}
