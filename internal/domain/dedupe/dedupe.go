// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default deduper configuration constants.
const (
	defaultMaxSize   = 50000
	compactThreshold = 1024
)

// Deduper records seen event IDs so the ingestion path stays
// idempotent across client retries.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen, false if it was newly
	// recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be
	// retried. Used when an event was marked as seen but failed to be
	// accepted (e.g. queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO log of
// insertion order. When the cache is full the oldest live id is
// evicted. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	head    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration
// options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}
		d.order = append(d.order, id)
		d.compact()
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
// The order log keeps its slot; eviction skips ids no longer in the map.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
}

// evictOldest drops the oldest still-recorded id. Must be called with
// d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for d.head < len(d.order) {
		oldest := d.order[d.head]
		d.head++
		if _, exists := d.seen[oldest]; exists {
			delete(d.seen, oldest)
			d.size.Add(-1)
			return
		}
	}
}

// compact reclaims the consumed prefix of the order log once it grows
// past the threshold. Must be called with d.mu held.
func (d *inMemoryDeduper) compact() {
	if d.head < compactThreshold || d.head < len(d.order)/2 {
		return
	}
	d.order = append(d.order[:0:0], d.order[d.head:]...)
	d.head = 0
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
