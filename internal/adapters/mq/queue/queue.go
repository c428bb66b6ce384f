// Package queue buffers committed events until a worker persists them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/pkg/metrics"
)

const defaultCapacity = 10_000

// Event is the payload flowing through the queue.
type Event = model.Event

// Queue provides non-blocking enqueue and blocking, cancellable dequeue.
type Queue interface {
	// Enqueue adds an event without blocking.
	// Returns ErrFull when the buffer is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, e Event) error

	// Next blocks until an event is available.
	// Returns false once the queue is closed and drained, or ctx is done.
	Next(ctx context.Context) (Event, bool)

	// Len returns the number of buffered events.
	Len() int

	// Cap returns the configured capacity.
	Cap() int

	// Close stops accepting events. Buffered events stay readable.
	Close() error

	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int

	mu     sync.RWMutex
	closed bool
}

// Compile-time check that InMemoryQueue implements Queue.
var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds an event to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.events <- e:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Next returns the oldest buffered event.
func (q *InMemoryQueue) Next(ctx context.Context) (Event, bool) {
	select {
	case e, ok := <-q.events:
		if !ok {
			return Event{}, false
		}
		metrics.RecordQueueDequeue()
		q.observe()
		return e, true
	case <-ctx.Done():
		return Event{}, false
	}
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len() int {
	return len(q.events)
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close stops the queue. Consumers drain what is left, then Next returns false.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
