// Package outbox holds the resilience primitives shared by the cloud
// sync engine and the offline photo queue: a cancel-and-reschedule
// debouncer and a single-flight gate.
package outbox

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of mutations into one push. Every Schedule
// cancels the pending timer and rearms it; Flush cancels the timer and
// runs the push immediately on the caller's goroutine.
type Debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
	push  func()
}

func NewDebouncer(quiet time.Duration, push func()) *Debouncer {
	return &Debouncer{quiet: quiet, push: push}
}

// Schedule arms (or rearms) the quiet-period timer.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.push)
}

// Flush cancels any pending timer and pushes now.
func (d *Debouncer) Flush() {
	d.Cancel()
	d.push()
}

// Cancel drops the pending timer without pushing.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Gate refuses re-entry while an operation is running. Used to keep at
// most one push or drain in flight at a time.
type Gate struct {
	mu   sync.Mutex
	busy bool
}

// TryEnter reports whether the caller acquired the gate.
func (g *Gate) TryEnter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

func (g *Gate) Leave() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}

// Busy reports whether an operation currently holds the gate.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}
