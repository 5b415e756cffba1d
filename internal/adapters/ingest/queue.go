// Package ingest feeds athlete update jobs through a bounded queue to
// a pool of workers, one pipeline per athlete.
package ingest

import (
	"context"
	"sync"
	"time"

	"paceline/internal/domain/model"
	"paceline/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Job is one athlete's pending batch update.
type Job struct {
	AthleteID   string
	Sessions    []model.Session
	Profile     model.AthleteProfile
	Template    model.PlanTemplate
	WindowStart time.Time
	WindowDays  int
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns the channel workers receive jobs on. Closed when
	// the queue closes.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close stops the queue; no further jobs can be enqueued.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs   chan Job
	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...QueueOption) *InMemoryQueue {
	capacity := defaultQueueCapacity
	for _, opt := range opts {
		opt(&capacity)
	}
	q := &InMemoryQueue{jobs: make(chan Job, capacity)}
	metrics.UpdateIngestQueueSize(0)
	return q
}

// QueueOption applies a configuration option to the InMemoryQueue.
type QueueOption func(*int)

// WithCapacity bounds the number of jobs the queue holds.
func WithCapacity(capacity int) QueueOption {
	return func(c *int) {
		if capacity > 0 {
			*c = capacity
		}
	}
}

// Enqueue adds a job without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case q.jobs <- j:
		metrics.UpdateIngestQueueSize(len(q.jobs))
		return true
	default:
		return false
	}
}

// Dequeue exposes the job channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.jobs)
}

// Close closes the queue. Enqueue returns false afterwards.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}
