// Package debounce coalesces bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once no trigger arrived for delay.
// Cancel drops it, and Close cancels it and refuses further triggers.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
	closed  bool
}

// New creates a Debouncer with the given quiet period
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any pending function and restarting the quiet period
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending function. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	return d.take() != nil
}

// Close cancels the pending function; later triggers are ignored
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.Cancel()
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

func (d *Debouncer) take() func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	fn := d.pending
	d.pending = nil
	return fn
}
