// Package async holds small concurrency primitives shared across services:
// trailing-edge debouncing for burst collapse, per-key gesture guards, and
// latest-wins sequencing for superseded background reads.
package async

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of triggers within a fixed window into a single
// trailing-edge invocation: the function runs once, after the window elapses
// with no further trigger.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the quiet window. A trigger arriving
// before the window elapses replaces the pending invocation and restarts the
// window, so only the last fn of a burst runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
