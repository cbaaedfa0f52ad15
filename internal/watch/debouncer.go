package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer collects the paths of rapid events and hands them to the
// callback once no new event arrived for the configured interval.
type Debouncer struct {
	interval time.Duration
	callback func(paths []string)
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending []string
	seen    map[string]bool
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback with every distinct path triggered since the last call,
// in the order they were first seen. A nil logger uses slog.Default.
func NewDebouncer(interval time.Duration, logger *slog.Logger, callback func(paths []string)) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Debouncer{
		interval: interval,
		callback: callback,
		logger:   logger,
		seen:     make(map[string]bool),
	}
}

// Trigger records an event for path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seen[path] {
		d.seen[path] = true
		d.pending = append(d.pending, path)
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fire)
}

// Pending returns the paths collected for the next callback.
func (d *Debouncer) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.pending...)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	paths := d.takeLocked()
	d.mu.Unlock()

	if len(paths) == 0 {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.callback(paths)
}

// takeLocked returns and clears the pending paths. d.mu must be held.
func (d *Debouncer) takeLocked() []string {
	paths := d.pending
	d.pending = nil
	d.seen = make(map[string]bool)

	return paths
}

// Stop cancels any pending callback and drops the collected paths.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.takeLocked()
}
