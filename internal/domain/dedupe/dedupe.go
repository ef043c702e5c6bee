// Package dedupe tracks keys already handled within one pass so that
// repeated work is skipped.
package dedupe

import (
	"context"
	"strings"
	"sync"
)

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so that a failed attempt can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int
}

type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	fold     bool
	capacity int
}

// NewInMemoryDeduper creates a map-backed deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.capacity)
	return d
}

func (d *inMemoryDeduper) key(k string) string {
	if d.fold {
		return strings.ToLower(k)
	}
	return k
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	k := d.key(key)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[k]; ok {
		return true
	}
	d.seen[k] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	delete(d.seen, d.key(key))
	d.mu.Unlock()
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
