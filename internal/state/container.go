// Package state holds the shared observable values read by many UI surfaces.
package state

import (
	"sync"
	"sync/atomic"
)

// Ticket identifies one load. Commits carrying a ticket older than the
// newest committed one are discarded.
type Ticket uint64

type Container[T any] struct {
	mu        sync.RWMutex
	value     T
	issued    uint64
	committed Ticket
	subs      map[uint64]chan T
	nextSub   uint64
	buffer    int
	dropped   uint64
}

func New[T any](initial T, bufferSize int) *Container[T] {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Container[T]{
		value:  initial,
		subs:   make(map[uint64]chan T),
		buffer: bufferSize,
	}
}

func (c *Container[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Begin hands out a fresh ticket for a load about to start.
func (c *Container[T]) Begin() Ticket {
	return Ticket(atomic.AddUint64(&c.issued, 1))
}

// Commit publishes v unless a load started after t has already committed.
func (c *Container[T]) Commit(t Ticket, v T) bool {
	c.mu.Lock()
	if t < c.committed {
		c.mu.Unlock()
		return false
	}
	c.committed = t
	c.value = v
	c.broadcastLocked(v)
	c.mu.Unlock()
	return true
}

// Set publishes v unconditionally.
func (c *Container[T]) Set(v T) {
	c.Commit(c.Begin(), v)
}

// Subscribe returns a channel of published values and a cancel func. Slow
// subscribers miss values rather than block the writer.
func (c *Container[T]) Subscribe() (<-chan T, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan T, c.buffer)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Container[T]) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

func (c *Container[T]) broadcastLocked(v T) {
	for _, ch := range c.subs {
		select {
		case ch <- v:
		default:
			atomic.AddUint64(&c.dropped, 1)
		}
	}
}
