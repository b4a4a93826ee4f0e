package pipeline

import (
	"errors"
	"sync/atomic"

	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
)

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
var ErrQueueFull = errors.New("ingest queue full")

const fallbackQueueCapacity = 1024

// IngestQueue is the bounded buffer between the source transport and
// the classifier workers. Enqueue never blocks: the producer side is a
// live upstream connection, so load is shed here rather than stalling
// it. Safe for concurrent producers; consumers range over Out().
type IngestQueue struct {
	ch       chan models.RawItem
	capacity int
	dropped  uint64
	// logSample controls how often a drop is logged (every Nth).
	logSample uint64
}

// NewIngestQueue creates a bounded queue of the given capacity.
func NewIngestQueue(capacity int, logSample uint64) *IngestQueue {
	if capacity <= 0 {
		capacity = fallbackQueueCapacity
	}
	if logSample == 0 {
		logSample = 50
	}
	return &IngestQueue{ch: make(chan models.RawItem, capacity), capacity: capacity, logSample: logSample}
}

// TryEnqueue attempts to enqueue item without blocking. On a full queue
// it returns ErrQueueFull, counts the drop, and logs every logSample-th
// drop with the running total so overload stays visible without a log
// storm.
func (q *IngestQueue) TryEnqueue(item models.RawItem) error {
	select {
	case q.ch <- item:
		return nil
	default:
		n := atomic.AddUint64(&q.dropped, 1)
		if n%q.logSample == 1 || q.logSample == 1 {
			logger.Warn("ingest_queue_drop", "total_dropped", n, "source", item.SourceID, "capacity", q.capacity)
		}
		return ErrQueueFull
	}
}

// Out returns the consumer side. Do not close it from callers.
func (q *IngestQueue) Out() <-chan models.RawItem { return q.ch }

// Close closes the queue channel; pending items remain readable.
func (q *IngestQueue) Close() { close(q.ch) }

// Len returns the current number of queued items.
func (q *IngestQueue) Len() int { return len(q.ch) }

// Cap returns the configured capacity.
func (q *IngestQueue) Cap() int { return q.capacity }

// Dropped returns the number of items shed due to a full queue.
func (q *IngestQueue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }
