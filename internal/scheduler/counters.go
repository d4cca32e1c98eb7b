package scheduler

import (
	"sync"

	"github.com/antigravity-dev/corpusgen/internal/axis"
)

// Counters holds the issued/submitted scalar counters and the per-axis
// bucket counts the Scheduler scores against. It is safe for concurrent
// use: dashboard reads take a consistent Snapshot while the coordinator's
// single-writer section mutates it under its own external lock, but
// Counters still guards itself so a bare read (e.g. from a health check)
// never races.
type Counters struct {
	mu        sync.RWMutex
	issued    int
	submitted int
	buckets   map[axis.Axis]map[axis.Bucket]int
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{buckets: make(map[axis.Axis]map[axis.Bucket]int)}
}

// Snapshot is an immutable point-in-time copy suitable for dashboard
// responses.
type Snapshot struct {
	Issued    int                               `json:"issued"`
	Submitted int                               `json:"submitted"`
	Buckets   map[axis.Axis]map[axis.Bucket]int `json:"buckets"`
}

// Snapshot clones the current counter state.
func (c *Counters) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := make(map[axis.Axis]map[axis.Bucket]int, len(c.buckets))
	for a, buckets := range c.buckets {
		cloned := make(map[axis.Bucket]int, len(buckets))
		for b, n := range buckets {
			cloned[b] = n
		}
		clone[a] = cloned
	}
	return Snapshot{Issued: c.issued, Submitted: c.submitted, Buckets: clone}
}

// Count returns the current count for one axis/bucket pair.
func (c *Counters) Count(a axis.Axis, b axis.Bucket) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buckets[a][b]
}

// Issued returns the total number of instructions issued so far.
func (c *Counters) Issued() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.issued
}

// Submitted returns the total number of accepted submissions so far.
func (c *Counters) Submitted() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.submitted
}

// RecordIssued bumps issued and every axis/bucket count named by sel. Must
// only be called from inside the coordinator's single-writer section.
func (c *Counters) RecordIssued(sel axis.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.issued++
	for a, b := range sel {
		if c.buckets[a] == nil {
			c.buckets[a] = make(map[axis.Bucket]int)
		}
		c.buckets[a][b]++
	}
}

// RecordSubmitted bumps the submitted scalar counter.
func (c *Counters) RecordSubmitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted++
}

// LoadFrom replaces the counter state wholesale, used during startup
// reconciliation when replaying the persisted logs.
func (c *Counters) LoadFrom(issued, submitted int, buckets map[axis.Axis]map[axis.Bucket]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.issued = issued
	c.submitted = submitted
	c.buckets = make(map[axis.Axis]map[axis.Bucket]int, len(buckets))
	for a, bs := range buckets {
		cloned := make(map[axis.Bucket]int, len(bs))
		for b, n := range bs {
			cloned[b] = n
		}
		c.buckets[a] = cloned
	}
}
