// Package dedupe tracks already-applied session IDs so re-synced
// batches stay idempotent.
//
// Device sync collaborators routinely deliver overlapping windows of
// activity history; a session that already contributed to load state
// must not contribute twice.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records seen session IDs to ensure at-most-once application.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID, allowing the session to be retried after
	// a failed batch.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// sessionDeduper implements Deduper with a bounded FIFO window: when
// the cap is reached the oldest recorded ID is forgotten first, since
// re-syncs overlap recent history, not ancient history.
type sessionDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, oldest first
	start   int      // index of oldest live entry in order
	maxSize int
	size    atomic.Int64
}

// New creates a session deduper with configuration options.
func New(opts ...Option) Deduper {
	d := &sessionDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *sessionDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	d.size.Add(1)
	return false
}

func (d *sessionDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	// The stale slot in order is skipped lazily during eviction.
}

// evictOldest forgets the oldest live ID. Must hold d.mu.
func (d *sessionDeduper) evictOldest() {
	for d.start < len(d.order) {
		id := d.order[d.start]
		d.start++
		if _, ok := d.seen[id]; ok {
			delete(d.seen, id)
			d.size.Add(-1)
			break
		}
	}
	// Compact once the dead prefix dominates the slice.
	if d.start > len(d.order)/2 {
		d.order = append([]string(nil), d.order[d.start:]...)
		d.start = 0
	}
}

func (d *sessionDeduper) Size() int64 {
	return d.size.Load()
}
