// Package reload keeps the scheduled job set in sync with the principal
// store: a poll-based file watcher detects out-of-band edits to the store
// file, and a handler rebuilds the job set from a fresh load. The same
// handler backs the daily reload trigger and the admin reload endpoint.
package reload

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 30 * time.Second

// WatcherConfig configures the store file watcher.
type WatcherConfig struct {
	// Path is the principal store file to watch.
	Path string

	// PollInterval is how often to stat the file. Defaults to 30 seconds
	// if zero; the job set only changes when an operator edits the file,
	// so a tight poll buys nothing.
	PollInterval time.Duration
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// Event is one detected modification of the store file.
type Event struct {
	Path    string
	ModTime time.Time
}

// Watcher polls the store file for modifications. Stat-based polling is
// used instead of inotify so the watcher behaves the same when the store
// sits on NFS or a bind mount.
type Watcher struct {
	cfg     WatcherConfig
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a watcher for the given store file.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins polling. Safe to call multiple times; only the first call
// starts the goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.poll(ctx)
	})
}

// Events returns the channel of modification events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher and waits for the poll goroutine to exit. Safe to
// call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.cfg.pollIntervalOrDefault())
	defer ticker.Stop()

	lastMod := w.statModTime()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current := w.statModTime()
			if current.IsZero() {
				// Missing file is not a modification; the store treats
				// absence as an empty principal set.
				continue
			}
			if current.After(lastMod) {
				lastMod = current
				select {
				case w.events <- Event{Path: w.cfg.Path, ModTime: current}:
				default:
					// A pending event already covers this change.
				}
			}
		}
	}
}

func (w *Watcher) statModTime() time.Time {
	info, err := os.Stat(w.cfg.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
