// Package watcher notices external edits to the file storage backend.
//
// The daemon polls storage on an interval; the watcher closes the gap when
// another process rewrites a state file, so the countdown and the history
// refresh immediately instead of on the next tick. Only the file backend is
// watchable; sqlite and redis deployments rely on polling alone.
package watcher

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pomodhq/pomod/storage"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reports which storage keys were changed on disk.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	keys      chan string
	done      chan struct{}
	logger    *slog.Logger

	debounceDelay time.Duration
	debounce      map[string]*time.Timer
	debounceMu    sync.Mutex
}

// New creates a watcher for the given storage directory.
func New(dir string, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:     fsWatcher,
		dir:           dir,
		keys:          make(chan string, 16),
		done:          make(chan struct{}),
		logger:        logger,
		debounceDelay: defaultDebounce,
		debounce:      make(map[string]*time.Timer),
	}, nil
}

// Keys returns the channel of changed storage keys.
func (w *Watcher) Keys() <-chan string {
	return w.keys
}

// Start begins watching. Returns immediately; events flow until Stop.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}

	go w.processEvents()

	w.logger.Info("watching storage directory", "dir", w.dir)
	return nil
}

// Stop ends watching and releases the inotify handle.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Rename matters as much as Write: the file backend lands every update
	// with a tmp-write-then-rename, which reaches the target as a rename.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	key, ok := storage.KeyForPath(event.Name)
	if !ok {
		return
	}

	w.debounceEvent(key, func() {
		w.emit(key)
	})
}

// debounceEvent collapses the burst of events a single update produces.
func (w *Watcher) debounceEvent(key string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[key]; ok {
		timer.Stop()
	}

	w.debounce[key] = time.AfterFunc(w.debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, key)
		w.debounceMu.Unlock()
		fn()
	})
}

func (w *Watcher) emit(key string) {
	w.logger.Debug("storage key changed on disk", "key", key)

	select {
	case w.keys <- key:
	default:
		// The consumer polls on an interval anyway; a dropped event only
		// delays the refresh by one tick.
		w.logger.Debug("dropping change event", "key", key)
	}
}
