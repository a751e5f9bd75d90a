// Package debounce coalesces bursts of calls into a single delayed dispatch.
package debounce

import (
	"sync"
	"time"
)

type Opt[T any] func(*Debouncer[T])

// WithEqual suppresses a dispatch whose value equals the previously
// dispatched one.
func WithEqual[T any](equal func(a, b T) bool) Opt[T] {
	return func(d *Debouncer[T]) {
		d.equal = equal
	}
}

// WithInitial seeds the previously dispatched value, so the first
// dispatch of an equal value is suppressed too.
func WithInitial[T any](v T) Opt[T] {
	return func(d *Debouncer[T]) {
		d.last = v
		d.hasLast = true
	}
}

// A Debouncer runs fn once after delay has passed without new calls,
// with the latest value.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	equal   func(a, b T) bool
	timer   *time.Timer
	gen     uint64
	pending T
	armed   bool
	last    T
	hasLast bool
	stopped bool
}

func New[T any](delay time.Duration, fn func(T), opts ...Opt[T]) *Debouncer[T] {
	if fn == nil {
		panic("debounce: nil func") // develop mistake
	}
	d := &Debouncer[T]{delay: delay, fn: fn}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call schedules fn(v), replacing any pending value and restarting the delay.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = v
	d.armed = true
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending call, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disarm()
}

// Reset cancels the pending call and replaces the previously dispatched
// value with last.
func (d *Debouncer[T]) Reset(last T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disarm()
	d.last = last
	d.hasLast = true
}

// Flush dispatches the pending call right away.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.disarm()
	run := d.record(v)
	d.mu.Unlock()

	if run {
		d.fn(v)
	}
}

// Stop cancels the pending call and makes further calls no-ops.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disarm()
	d.stopped = true
}

// Pending reports whether a dispatch is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a newer Call, Cancel or Flush superseded this timer
	if gen != d.gen || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	run := d.record(v)
	d.mu.Unlock()

	if run {
		d.fn(v)
	}
}

func (d *Debouncer[T]) disarm() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed = false
	d.gen++
	var zero T
	d.pending = zero
}

// record must be called with mu held.
func (d *Debouncer[T]) record(v T) bool {
	if d.equal != nil && d.hasLast && d.equal(d.last, v) {
		return false
	}
	d.last = v
	d.hasLast = true
	return true
}
