// Package mailbox provides a single-slot buffer where the latest value wins.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox is NOT a queue. It holds at most one pending item: Put overwrites
// whatever is waiting, so a burst of Puts collapses into one Take.
type Mailbox[T any] struct {
	mu    sync.Mutex
	item  *T
	ready chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, replacing any pending item. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.item = &v
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Ready is signaled after a Put. An item may already have been taken by
// the time a receiver wakes up, so follow it with TryTake.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}

// Take blocks until an item is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v := m.TryTake(); v != nil {
			return *v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.ready:
		}
	}
}

// TryTake returns the pending item, or nil if empty. It never blocks.
func (m *Mailbox[T]) TryTake() *T {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.item
	m.item = nil
	return v
}

// Pending reports whether an item is waiting.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.item != nil
}
