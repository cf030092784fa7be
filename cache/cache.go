package cache

import (
	"sync"
)

// RenderCache memoizes one rendered pane against the snapshot sequence that
// produced it. The observer redraws on every spinner tick, far more often
// than snapshots arrive, so a pane that depends only on the snapshot is
// rendered once per sequence number.
type RenderCache struct {
	mu       sync.RWMutex
	seq      uint64
	rendered string
	valid    bool
}

// NewRenderCache creates an empty render cache.
func NewRenderCache() *RenderCache {
	return &RenderCache{}
}

// Get returns the pane rendered for the snapshot with the given sequence
// number, invoking render only when the cached pane belongs to a different
// snapshot.
func (c *RenderCache) Get(seq uint64, render func() string) string {
	c.mu.RLock()
	if c.valid && c.seq == seq {
		result := c.rendered
		c.mu.RUnlock()
		return result
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.valid && c.seq == seq {
		return c.rendered
	}

	c.rendered = render()
	c.seq = seq
	c.valid = true
	return c.rendered
}

// Seq returns the sequence number of the cached pane and whether anything has
// been rendered yet.
func (c *RenderCache) Seq() (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq, c.valid
}
