package watcher

import (
	"sync"
	"time"
)

// coalescer folds bursts of store mutations into one call of fn. fn runs
// once the store has been quiet for the quiet period, or at the latest
// maxWait after the first unhandled mutation, so a steady event stream
// still gets periodic recomputes.
type coalescer struct {
	quiet   time.Duration
	maxWait time.Duration
	fn      func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	first   time.Time
}

func newCoalescer(quiet time.Duration, fn func()) *coalescer {
	return &coalescer{quiet: quiet, maxWait: 10 * quiet, fn: fn}
}

// Notify records a mutation. With no quiet period fn runs inline.
func (c *coalescer) Notify() {
	if c.quiet <= 0 {
		c.fn()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.pending {
		c.pending = true
		c.first = now
	}
	wait := c.quiet
	if left := c.maxWait - now.Sub(c.first); left < wait {
		wait = max(left, 0)
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(wait, c.fire)
}

func (c *coalescer) fire() {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.timer = nil
	c.mu.Unlock()
	c.fn()
}

// Flush runs fn now if a mutation is waiting.
func (c *coalescer) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	run := c.pending
	c.pending = false
	c.mu.Unlock()
	if run {
		c.fn()
	}
}

// Pending reports whether a mutation is waiting.
func (c *coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}
