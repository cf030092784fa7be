package publish

import (
	"sync"

	"github.com/ByteMirror/ghostmaze/supervisor"
)

// snapshotRing stores a fixed number of recent snapshots so late-joining
// observers can catch up on what they missed.
type snapshotRing struct {
	mu    sync.RWMutex
	snaps []supervisor.SimulationSnapshot
	head  int
	tail  int
	size  int
	count int
}

func newSnapshotRing(size int) *snapshotRing {
	if size <= 0 {
		size = 32
	}
	return &snapshotRing{
		snaps: make([]supervisor.SimulationSnapshot, size),
		size:  size,
	}
}

// add appends a snapshot, overwriting the oldest when full.
func (r *snapshotRing) add(snap supervisor.SimulationSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snaps[r.tail] = snap
	r.tail = (r.tail + 1) % r.size

	if r.count < r.size {
		r.count++
	} else {
		// Ring is full, move head forward
		r.head = (r.head + 1) % r.size
	}
}

// recent returns up to n snapshots in chronological order, newest last.
func (r *snapshotRing) recent(n int) []supervisor.SimulationSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	if n <= 0 || n > r.count {
		n = r.count
	}

	out := make([]supervisor.SimulationSnapshot, 0, n)
	start := (r.tail - n + r.size) % r.size
	for i := 0; i < n; i++ {
		out = append(out, r.snaps[(start+i)%r.size])
	}
	return out
}

// len returns the number of snapshots currently stored.
func (r *snapshotRing) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
