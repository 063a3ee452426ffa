// Package watch re-runs a link file batch whenever the file changes.
package watch

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// RunFunc processes the link file once.
type RunFunc func(ctx context.Context) error

// PendingFunc lists the links in the file that still await a run.
type PendingFunc func() ([]string, error)

// Watcher monitors one link file. Runs are serialised and triggered only
// when the file content differs from what the previous run left behind,
// so status marks written by a run do not start another one. Links that
// become pending while a run is in progress start a follow-up run.
type Watcher struct {
	path     string
	debounce time.Duration
	run      RunFunc
	pending  PendingFunc

	fs            *fsnotify.Watcher
	debounceMutex sync.Mutex
	debounceTimer *time.Timer
	trigger       chan struct{}
	lastSum       [sha1.Size]byte
}

// New creates a watcher for the link file at path. pending may be nil,
// in which case edits made during a run wait for the next change.
func New(path string, debounce time.Duration, run RunFunc, pending PendingFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = model.DefaultWatchDebounce
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		run:      run,
		pending:  pending,
		fs:       fs,
		trigger:  make(chan struct{}, 1),
	}, nil
}

// Run processes the file once, then again after every debounced change,
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	// Watch the directory: editors and atomic saves replace the file.
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	ui.PrintInfo(fmt.Sprintf("Watching %s for new links (Ctrl+C to stop)", w.path))
	w.fire()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Error("file watcher error", "error", err)

		case <-w.trigger:
			sum, err := fileSum(w.path)
			if err != nil {
				slog.Warn("link file unavailable", "path", w.path, "error", err)
				continue
			}
			if sum == w.lastSum {
				slog.Debug("link file unchanged, skipping run", "path", w.path)
				continue
			}
			before := w.pendingLinks()
			if err := w.run(ctx); err != nil && !errors.Is(err, model.ErrCancelled) {
				ui.PrintError(fmt.Sprintf("Watch run failed: %v", err))
			}
			if ctx.Err() != nil {
				return nil
			}
			if added := w.addedDuringRun(before); added > 0 {
				ui.PrintInfo(fmt.Sprintf("%d link(s) added during the run, starting another", added))
				w.lastSum = [sha1.Size]byte{}
				w.fire()
				continue
			}
			if sum, err := fileSum(w.path); err == nil {
				w.lastSum = sum
			}
			ui.PrintInfo("Waiting for changes to " + filepath.Base(w.path) + "...")
		}
	}
}

func (w *Watcher) pendingLinks() map[string]bool {
	if w.pending == nil {
		return nil
	}
	links, err := w.pending()
	if err != nil {
		slog.Debug("cannot list pending links", "path", w.path, "error", err)
		return nil
	}
	set := make(map[string]bool, len(links))
	for _, l := range links {
		set[l] = true
	}
	return set
}

// addedDuringRun counts pending links that were not pending when the run
// started. Links the run left pending (a failed save, say) do not count,
// so they cannot loop.
func (w *Watcher) addedDuringRun(before map[string]bool) int {
	if w.pending == nil {
		return 0
	}
	added := 0
	for l := range w.pendingLinks() {
		if !before[l] {
			added++
		}
	}
	return added
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	slog.Debug("link file changed", "op", event.Op.String())

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) stop() {
	w.debounceMutex.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMutex.Unlock()
	_ = w.fs.Close()
}

func fileSum(path string) ([sha1.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha1.Size]byte{}, err
	}
	return sha1.Sum(data), nil
}
