package app

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/maze"
	"github.com/ByteMirror/ghostmaze/supervisor"
)

func snapWith(seq uint64, recs ...ghost.Record) supervisor.SimulationSnapshot {
	return supervisor.SimulationSnapshot{Seq: seq, Ghosts: recs}
}

func rec(id, name string, status ghost.Status) ghost.Record {
	return ghost.Record{ID: id, Name: name, Status: status, Position: maze.Point{Row: 1, Col: 1}}
}

func TestEventLogSpawnAndLifecycle(t *testing.T) {
	l := newEventLog()

	require.True(t, l.Observe(snapWith(1, rec("a", "Blinky", ghost.Running))))
	assert.Contains(t, l.Content(), "Blinky spawned")

	// No change, no event.
	assert.False(t, l.Observe(snapWith(2, rec("a", "Blinky", ghost.Running))))

	require.True(t, l.Observe(snapWith(3, rec("a", "Blinky", ghost.Paused))))
	assert.Contains(t, l.Content(), "#3 Blinky paused")

	require.True(t, l.Observe(snapWith(4, rec("a", "Blinky", ghost.Running))))
	assert.Contains(t, l.Content(), "#4 Blinky resumed")

	require.True(t, l.Observe(snapWith(5, rec("a", "Blinky", ghost.Finished))))
	assert.Contains(t, l.Content(), "#5 Blinky reached the exit")

	assert.Equal(t, 4, l.Len())
}

func TestEventLogTerminationAndReap(t *testing.T) {
	l := newEventLog()

	l.Observe(snapWith(1, rec("a", "Pinky", ghost.Running)))
	require.True(t, l.Observe(snapWith(2, rec("a", "Pinky", ghost.Terminated))))
	assert.Contains(t, l.Content(), "#2 Pinky terminated")

	// Reaped from the registry: the next appearance of the id is a spawn.
	assert.False(t, l.Observe(snapWith(3)))
	require.True(t, l.Observe(snapWith(4, rec("a", "Pinky", ghost.Running))))
	lines := strings.Split(l.Content(), "\n")
	assert.Contains(t, lines[len(lines)-1], "spawned")
}

func TestEventLogBounded(t *testing.T) {
	l := newEventLog()
	for i := 0; i < eventLogCap+50; i++ {
		id := fmt.Sprintf("g%d", i)
		l.Observe(snapWith(uint64(i+1), rec(id, fmt.Sprintf("Ghost-%d", i), ghost.Running)))
	}
	assert.Equal(t, eventLogCap, l.Len())
}
