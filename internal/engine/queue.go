package engine

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by QueueSink.AddPrimaries after Close or after
// the downstream sink failed.
var ErrQueueClosed = errors.New("queue closed")

// batch is the vertices of one event waiting for the writer.
type batch struct {
	eventID  int64
	vertices []PrimaryVertex
}

// QueueSink decouples event generation from a slow downstream sink such as
// the SQLite store.
//
// Producers call AddPrimaries from any goroutine; it only appends to an
// unbounded FIFO. Exactly one goroutine calls Run, which drains the queue in
// order and is the single writer to the downstream sink.
//
// The queue uses a channel for signaling so Run can wait on both new batches
// and context cancellation.
type QueueSink struct {
	next EventSink

	mu      sync.Mutex
	batches []batch
	closed  bool
	signal  chan struct{} // buffered, size 1
}

// NewQueueSink creates a queue that forwards to next.
func NewQueueSink(next EventSink) *QueueSink {
	return &QueueSink{
		next:    next,
		batches: make([]batch, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// AddPrimaries implements EventSink by enqueuing the event.
// Thread-safe: may be called from any goroutine.
func (q *QueueSink) AddPrimaries(eventID int64, vertices []PrimaryVertex) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.batches = append(q.batches, batch{eventID: eventID, vertices: vertices})

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// tryDequeue removes the front batch without blocking.
func (q *QueueSink) tryDequeue() (batch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.batches) == 0 {
		return batch{}, false
	}
	b := q.batches[0]
	// Release the vertex slice for GC.
	q.batches[0] = batch{}
	if len(q.batches) == 1 {
		q.batches = q.batches[:0]
	} else {
		q.batches = q.batches[1:]
	}
	return b, true
}

// Run forwards queued events to the downstream sink until the queue is
// closed and drained, or ctx is cancelled. A downstream error closes the
// queue and is returned.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (q *QueueSink) Run(ctx context.Context) error {
	for {
		if b, ok := q.tryDequeue(); ok {
			if err := q.next.AddPrimaries(b.eventID, b.vertices); err != nil {
				q.Close()
				return err
			}
			continue
		}

		q.mu.Lock()
		done := q.closed && len(q.batches) == 0
		q.mu.Unlock()
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the number of events waiting.
func (q *QueueSink) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}

// Close stops accepting events. Run returns once the remaining events are
// written. Close is idempotent.
func (q *QueueSink) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
