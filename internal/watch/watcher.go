// Package watch reports changes to documents under a data root so that
// modules can be reloaded when the files defining them are edited.
package watch

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event on a file before
// its change is reported.
const DefaultDebounce = 100 * time.Millisecond

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // document written or created
	ChangeRemoved                    // document deleted or renamed away
)

// String returns "modified" or "removed".
func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "modified"
}

// Change is a settled change to one document.
type Change struct {
	Kind ChangeKind
	File string // absolute path
}

// ModuleID returns the module identifier of the changed document.
func (c Change) ModuleID() string {
	return strings.TrimSuffix(filepath.Base(c.File), filepath.Ext(c.File))
}

// Config holds the settings of a Watcher.
type Config struct {
	// Dir is watched recursively. Directories whose names start with a dot
	// are skipped.
	Dir string
	// Ext selects the watched files, e.g. ".yaml".
	Ext      string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher monitors a directory tree for document changes using fsnotify.
type Watcher struct {
	Dir     string
	Changes <-chan Change

	ext      string
	debounce time.Duration
	logger   *slog.Logger
	changes  chan Change
	done     chan struct{}
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for cfg.Dir. Call Start to begin watching.
func NewWatcher(cfg Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Dir:      cfg.Dir,
		Changes:  ch,
		ext:      cfg.Ext,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

// Start adds the directory tree and begins watching.
func (w *Watcher) Start() error {
	if err := w.addTree(w.Dir); err != nil {
		w.watcher.Close()
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher, reports pending changes and closes Changes.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			w.handle(event, pending)

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "dir", w.Dir, "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	if event.Has(fsnotify.Create) && !strings.HasPrefix(filepath.Base(event.Name), ".") {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watching new directory", "dir", event.Name, "err", err)
			}
			return
		}
	}
	if !w.isDocument(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		pending[event.Name] = time.Now()
	}
}

func (w *Watcher) isDocument(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return w.ext == "" || filepath.Ext(base) == w.ext
}

func (w *Watcher) emit(file string) {
	kind := ChangeModified
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		kind = ChangeRemoved
	}
	w.logger.Debug("document changed", "file", file, "kind", kind)
	w.changes <- Change{Kind: kind, File: file}
}
