package queue

import (
	"context"
	"sync"
)

// MemoryQueue is a bounded in-process Queue used in tests and in single-binary
// dev mode, where the server runs the stream processor inline. It provides
// the same fail-fast Push and blocking Pop semantics as the Redis queue.
type MemoryQueue struct {
	ch chan Event

	mu     sync.Mutex
	closed bool
}

// NewMemoryQueue returns an in-process queue holding at most maxDepth events.
func NewMemoryQueue(maxDepth int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan Event, maxDepth)}
}

// Push appends the event without blocking. Returns ErrQueueFull when the
// buffer is at capacity and ErrClosed after Close. The lock serializes pushes
// against Close so a send can never hit a closed channel.
func (q *MemoryQueue) Push(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop blocks until an event is available, the queue is drained and closed, or
// ctx is done.
func (q *MemoryQueue) Pop(ctx context.Context) (Event, error) {
	select {
	case e, ok := <-q.ch:
		if !ok {
			return Event{}, ErrClosed
		}
		return e, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close stops accepting pushes; pending events remain poppable until drained.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}
