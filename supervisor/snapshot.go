package supervisor

import (
	"time"

	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/maze"
)

// GateStatus is the observed occupancy of one bottleneck gate.
type GateStatus struct {
	Cell      maze.Point
	Capacity  int
	Occupants int
	Waiting   int
}

// SimulationSnapshot is a read-only, point-in-time aggregation of the whole
// simulation: the maze plus every registered ghost's record and every gate's
// occupancy. It is never mutated after construction; the embedded maze is
// immutable and the records are copies.
type SimulationSnapshot struct {
	// Seq increases by one per aggregation, so observers can detect
	// out-of-order or missed deliveries.
	Seq     uint64
	TakenAt time.Time

	Maze   *maze.Maze
	Ghosts []ghost.Record
	Gates  []GateStatus
}

// Ghost returns the record for the given id, if present in this snapshot.
func (s SimulationSnapshot) Ghost(id string) (ghost.Record, bool) {
	for _, r := range s.Ghosts {
		if r.ID == id {
			return r, true
		}
	}
	return ghost.Record{}, false
}
