// Package coalesce rate-limits high-frequency local changes before they hit
// the transport. Keystrokes and cursor moves are debounced with a trailing
// window: only the newest value at the end of a quiet period is emitted.
package coalesce

import (
	"sync"
	"time"
)

// Coalescer is a small idle/pending state machine around one debounced
// channel of values. Schedule replaces any pending value and restarts the
// window, so a superseded value is never emitted. Emit runs on a timer
// goroutine; callers needing single-threaded delivery serialize in emit.
type Coalescer[T any] struct {
	window time.Duration
	emit   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	latest  T
}

func New[T any](window time.Duration, emit func(T)) *Coalescer[T] {
	return &Coalescer[T]{window: window, emit: emit}
}

// Schedule queues v for transmission after the inactivity window. Any
// previously pending value is replaced and its timer rescheduled.
func (c *Coalescer[T]) Schedule(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = v
	if c.pending {
		c.timer.Reset(c.window)
		return
	}
	c.pending = true
	c.timer = time.AfterFunc(c.window, c.fire)
}

func (c *Coalescer[T]) fire() {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	v := c.latest
	c.mu.Unlock()

	c.emit(v)
}

// FlushNow transmits the pending value immediately, if any.
func (c *Coalescer[T]) FlushNow() {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.timer.Stop()
	c.pending = false
	v := c.latest
	c.mu.Unlock()

	c.emit(v)
}

// Stop discards any pending value without emitting it.
func (c *Coalescer[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		c.timer.Stop()
		c.pending = false
	}
}

// Pending reports whether a value is waiting on the window.
func (c *Coalescer[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}
