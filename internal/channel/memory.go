package channel

import (
	"context"
	"sync"

	"github.com/openshift-assisted/ansible-receipts/internal/domain/entity"
)

// MemoryChannel is an unbounded in-process queue: sends never block, receives wait for the next event.
type MemoryChannel struct {
	mu     sync.Mutex
	queue  []entity.Event
	closed bool

	notify chan struct{}
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{
		notify: make(chan struct{}, 1),
	}
}

func (c *MemoryChannel) Send(_ context.Context, event entity.Event) error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return ErrClosed
	}

	c.queue = append(c.queue, event)
	c.mu.Unlock()

	c.wake()

	return nil
}

func (c *MemoryChannel) Receive(ctx context.Context) (entity.Event, error) {
	for {
		c.mu.Lock()

		if len(c.queue) > 0 {
			ret := c.queue[0]
			c.queue[0] = entity.Event{}
			c.queue = c.queue[1:]
			c.mu.Unlock()

			return ret, nil
		}

		closed := c.closed
		c.mu.Unlock()

		if closed {
			return entity.Event{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return entity.Event{}, ctx.Err()
		case <-c.notify:
		}
	}
}

// Len returns the number of queued events.
func (c *MemoryChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queue)
}

// Close rejects new sends. Queued events can still be received.
func (c *MemoryChannel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wake()
}

func (c *MemoryChannel) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
