// Package gate implements the capacity-limited bottleneck gate guarding
// passage through designated maze cells. Admission is strictly first-in
// first-out across waiting ghosts so no ghost starves under contention.
package gate

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrNotHeld         = errors.New("permit not held")
)

// waiter is one queued acquirer. ready is closed when a permit is assigned.
type waiter struct {
	id       string
	ready    chan struct{}
	admitted bool
}

// Gate is a counting permit gate with FIFO admission. At most capacity ghosts
// hold a permit at once; Acquire blocks (never fails) until a slot frees or
// the caller's context is cancelled.
type Gate struct {
	mu       sync.Mutex
	capacity int
	holders  map[string]struct{}
	queue    []*waiter

	stats Stats
}

// Stats is a point-in-time copy of the gate's usage counters.
type Stats struct {
	Acquisitions  int64
	TotalWait     time.Duration
	PeakWaiting   int
	ForceReleases int64
}

// AvgWait returns the mean time acquirers spent queued.
func (s Stats) AvgWait() time.Duration {
	if s.Acquisitions == 0 {
		return 0
	}
	return s.TotalWait / time.Duration(s.Acquisitions)
}

// New creates a gate admitting at most capacity concurrent holders.
func New(capacity int) (*Gate, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Gate{
		capacity: capacity,
		holders:  make(map[string]struct{}),
	}, nil
}

// Acquire blocks until the ghost holds a permit or ctx is cancelled. Waiters
// are admitted in arrival order: a new acquirer never jumps a non-empty queue
// even when a slot is free.
func (g *Gate) Acquire(ctx context.Context, id string) error {
	start := time.Now()

	g.mu.Lock()
	if len(g.queue) == 0 && len(g.holders) < g.capacity {
		g.holders[id] = struct{}{}
		g.stats.Acquisitions++
		g.mu.Unlock()
		return nil
	}

	w := &waiter{id: id, ready: make(chan struct{})}
	g.queue = append(g.queue, w)
	if len(g.queue) > g.stats.PeakWaiting {
		g.stats.PeakWaiting = len(g.queue)
	}
	g.mu.Unlock()

	select {
	case <-w.ready:
		g.mu.Lock()
		g.stats.Acquisitions++
		g.stats.TotalWait += time.Since(start)
		g.mu.Unlock()
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		if w.admitted {
			// Lost the race: a permit was assigned while we were being
			// cancelled. Hand it straight to the next waiter.
			g.releaseLocked(id)
		} else {
			g.removeWaiterLocked(w)
		}
		g.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees the ghost's permit and admits the next queued waiter, if any.
func (g *Gate) Release(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.holders[id]; !ok {
		return ErrNotHeld
	}
	g.releaseLocked(id)
	return nil
}

// ForceRelease frees a permit held by a terminated ghost. It reports whether
// a permit was actually held. The supervisor calls this on every termination
// so a dead ghost can never strand capacity.
func (g *Gate) ForceRelease(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.holders[id]; !ok {
		return false
	}
	g.stats.ForceReleases++
	g.releaseLocked(id)
	return true
}

// releaseLocked removes the holder and promotes the queue head. Caller holds mu.
func (g *Gate) releaseLocked(id string) {
	delete(g.holders, id)
	if len(g.queue) == 0 || len(g.holders) >= g.capacity {
		return
	}
	next := g.queue[0]
	g.queue = g.queue[1:]
	next.admitted = true
	g.holders[next.id] = struct{}{}
	close(next.ready)
}

// removeWaiterLocked drops a cancelled waiter from the queue. Caller holds mu.
func (g *Gate) removeWaiterLocked(w *waiter) {
	for i, q := range g.queue {
		if q == w {
			g.queue = append(g.queue[:i], g.queue[i+1:]...)
			return
		}
	}
}

// Holds reports whether the ghost currently holds a permit.
func (g *Gate) Holds(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.holders[id]
	return ok
}

// Occupants returns the number of permits currently held.
func (g *Gate) Occupants() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.holders)
}

// Capacity returns the maximum concurrent holders.
func (g *Gate) Capacity() int {
	return g.capacity
}

// Waiting returns the number of queued acquirers.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Snapshot returns a copy of the usage counters.
func (g *Gate) Snapshot() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}
