package timing

import (
	"context"
	"sync"
)

// Mailbox is an unbounded FIFO between processes. Put never blocks; Get parks
// the calling process until an item arrives. While a process is parked in Get
// the kernel is free to advance the clock.
//
// Get must only be called from a process of the owning kernel. Put may be
// called from anywhere, but only puts from processes keep the run
// deterministic.
type Mailbox[T any] struct {
	name   string
	kernel *Kernel

	lock    sync.Mutex
	items   []T
	getters []chan T
	putCnt  uint64
	getCnt  uint64
}

// NewMailbox creates a mailbox bound to a kernel.
func NewMailbox[T any](k *Kernel, name string) *Mailbox[T] {
	return &Mailbox[T]{
		name:   name,
		kernel: k,
	}
}

// Name returns the name of the mailbox.
func (m *Mailbox[T]) Name() string {
	return m.name
}

// Put appends an item. If a process is waiting in Get, the item is handed to
// the longest waiting one directly.
func (m *Mailbox[T]) Put(item T) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.putCnt++

	if len(m.getters) > 0 {
		ch := m.getters[0]
		m.getters = m.getters[1:]
		m.getCnt++

		m.kernel.unpark()
		ch <- item

		return
	}

	m.items = append(m.items, item)
}

// Get removes and returns the oldest item, parking until one is available.
// It returns the context error if the run is stopped first.
func (m *Mailbox[T]) Get(ctx context.Context) (T, error) {
	m.lock.Lock()

	if len(m.items) > 0 {
		item := m.items[0]

		var zero T
		m.items[0] = zero
		m.items = m.items[1:]
		m.getCnt++

		m.lock.Unlock()

		return item, nil
	}

	ch := make(chan T, 1)
	m.getters = append(m.getters, ch)
	m.kernel.park()
	m.lock.Unlock()

	select {
	case item := <-ch:
		return item, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Len returns the number of queued items.
func (m *Mailbox[T]) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.items)
}

// Stats returns how many items have been put and taken so far.
func (m *Mailbox[T]) Stats() (put, got uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.putCnt, m.getCnt
}
