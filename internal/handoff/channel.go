// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package handoff delivers values produced on background goroutines to a
// single consumer goroutine.
//
// A Channel is an unbounded FIFO. Publishers never block, so a slow
// consumer (a UI busy redrawing, a REPL waiting on a prompt) cannot stall a
// worker, and no value is ever dropped. Consumers either block in Next or
// wait on Ready and then Drain everything queued so far.
package handoff

import (
	"context"
	"sync"
)

// Channel is an unbounded, goroutine-safe FIFO hand-off queue.
type Channel[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	// ready holds at most one pending wake-up. A consumer that wakes up
	// always drains, so one token is enough to never miss an item.
	ready chan struct{}
	done  chan struct{}
}

// New creates an empty hand-off channel.
func New[T any]() *Channel[T] {
	return &Channel[T]{
		items: make([]T, 0, 8),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Publish appends v to the queue and wakes the consumer. It never blocks.
// Returns false if the channel has been closed; the value is discarded.
func (c *Channel[T]) Publish(v T) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items, v)
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
		// A wake-up is already pending.
	}
	return true
}

// Ready returns a channel that receives when items may be available.
// After receiving, call Drain. Spurious wake-ups return an empty Drain.
func (c *Channel[T]) Ready() <-chan struct{} {
	return c.ready
}

// Done is closed when Close is called.
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}

// Drain removes and returns every queued item in publish order.
func (c *Channel[T]) Drain() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil
	}
	out := c.items
	c.items = make([]T, 0, 8)
	return out
}

// Next blocks until an item is available and returns it. It returns false
// when ctx is done or the channel is closed and empty.
func (c *Channel[T]) Next(ctx context.Context) (T, bool) {
	for {
		if v, ok := c.pop(); ok {
			return v, true
		}

		select {
		case <-c.ready:
		case <-c.done:
			// Items published before Close are still delivered.
			return c.pop()
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// Len returns the number of queued items.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops accepting new items. Queued items can still be drained.
// Close is idempotent.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// pop removes the oldest item. When more remain it re-arms the wake-up so
// a concurrent waiter does not sleep on a non-empty queue.
func (c *Channel[T]) pop() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if len(c.items) == 0 {
		return zero, false
	}
	v := c.items[0]
	c.items[0] = zero
	c.items = c.items[1:]
	if len(c.items) > 0 {
		select {
		case c.ready <- struct{}{}:
		default:
		}
	}
	return v, true
}
