package session

import (
	"sync"

	"github.com/kit678/VoiceAgentPlanner/internal/protocol"
)

// Queue is a bounded FIFO ring buffer of outbound envelopes awaiting
// transmission. Insertion order equals transmission order; envelopes leave
// the queue only through a successful transmit during Flush.
type Queue struct {
	mu       sync.Mutex
	buf      []protocol.Envelope
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	policy   OverflowPolicy

	// Stats
	totalEnqueued int64
	totalFlushed  int64
	totalDropped  int64
}

// QueueStats contains queue counters.
type QueueStats struct {
	Len           int
	Capacity      int
	TotalEnqueued int64
	TotalFlushed  int64
	TotalDropped  int64
}

// NewQueue creates a queue with the given bound and overflow policy.
func NewQueue(capacity int, policy OverflowPolicy) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	if policy != OverflowRejectNew {
		policy = OverflowDropOldest
	}
	return &Queue{
		buf:      make([]protocol.Envelope, capacity),
		capacity: capacity,
		policy:   policy,
	}
}

// Enqueue appends env to the tail. When the queue is full, drop_oldest
// evicts the head to make room and reject_new returns false with the queue
// unchanged.
func (q *Queue) Enqueue(env protocol.Envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == q.capacity {
		if q.policy == OverflowRejectNew {
			q.totalDropped++
			return false
		}
		// Evict the oldest envelope
		q.buf[q.head] = protocol.Envelope{}
		q.head = (q.head + 1) % q.capacity
		q.count--
		q.totalDropped++
	}

	q.buf[q.tail] = env
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	q.totalEnqueued++
	return true
}

// Flush repeatedly hands the head envelope to transmit until the queue is
// empty or a transmission fails. On failure the failed envelope and all
// remaining envelopes stay queued in order. Returns the number transmitted
// and the first error, if any.
func (q *Queue) Flush(transmit func(protocol.Envelope) error) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	sent := 0
	for q.count > 0 {
		env := q.buf[q.head]
		if err := transmit(env); err != nil {
			return sent, err
		}

		q.buf[q.head] = protocol.Envelope{}
		q.head = (q.head + 1) % q.capacity
		q.count--
		q.totalFlushed++
		sent++
	}

	return sent, nil
}

// Len returns the number of queued envelopes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Clear drops every queued envelope.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count > 0 {
		q.buf[q.head] = protocol.Envelope{}
		q.head = (q.head + 1) % q.capacity
		q.count--
		q.totalDropped++
	}
}

// Stats returns queue counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Len:           q.count,
		Capacity:      q.capacity,
		TotalEnqueued: q.totalEnqueued,
		TotalFlushed:  q.totalFlushed,
		TotalDropped:  q.totalDropped,
	}
}
