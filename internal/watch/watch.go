// Package watch re-runs a callback when specification documents change.
// Events are debounced so a burst of saves produces one batch.
package watch

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// ErrNilCallback is returned by New when onChange is nil.
var ErrNilCallback = errors.New("watch: nil change callback")

// Watcher watches one specs directory.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	exclude   []glob.Glob
	extra     map[string]bool // base names watched regardless of extension
	onChange  func([]string)
	logger    *slog.Logger

	callbackMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]struct{}
	timer     *time.Timer

	started bool
	done    chan struct{}
}

// New returns a watcher for markdown files. extraNames are additional base
// names to watch, such as the configuration file. exclude patterns are
// matched against base names.
func New(debounce time.Duration, exclude, extraNames []string, onChange func([]string), logger *slog.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, ErrNilCallback
	}
	if logger == nil {
		logger = slog.Default()
	}

	compiled := make([]glob.Glob, 0, len(exclude))
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extra := make(map[string]bool, len(extraNames))
	for _, n := range extraNames {
		extra[n] = true
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		exclude:   compiled,
		extra:     extra,
		onChange:  onChange,
		logger:    logger,
		pending:   make(map[string]struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Watch starts watching dir and returns immediately. Call Close to stop.
func (w *Watcher) Watch(dir string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.started = true
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
				w.schedule(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// relevant reports whether path is a document or extra file worth a re-run.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if w.extra[base] {
		return true
	}
	if strings.HasPrefix(base, ".") || !strings.EqualFold(filepath.Ext(base), ".md") {
		return false
	}
	for _, g := range w.exclude {
		if g.Match(base) {
			return false
		}
	}
	return true
}

func (w *Watcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	// Batches run one after another, never concurrently.
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()

	err := w.fsWatcher.Close()
	if w.started {
		<-w.done
	}
	return err
}
