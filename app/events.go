package app

import (
	"fmt"
	"strings"

	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/supervisor"
)

// eventLogCap bounds the in-memory event history.
const eventLogCap = 500

// eventLog derives human-readable event lines from consecutive snapshots:
// spawns, lifecycle changes, finishes. It feeds the observer's log pane.
type eventLog struct {
	lines []string
	seen  map[string]ghost.Status
}

func newEventLog() *eventLog {
	return &eventLog{seen: make(map[string]ghost.Status)}
}

// Observe diffs a snapshot against the previous one and appends a line per
// event. It reports whether anything new was logged.
func (l *eventLog) Observe(snap supervisor.SimulationSnapshot) bool {
	changed := false
	live := make(map[string]bool, len(snap.Ghosts))
	for _, r := range snap.Ghosts {
		live[r.ID] = true
		prev, known := l.seen[r.ID]
		switch {
		case !known:
			l.append(snap.Seq, r.Name, fmt.Sprintf("spawned at %s", r.Position))
		case prev == r.Status:
			continue
		case r.Status == ghost.Paused:
			l.append(snap.Seq, r.Name, "paused")
		case r.Status == ghost.Running:
			l.append(snap.Seq, r.Name, "resumed")
		case r.Status == ghost.Finished:
			l.append(snap.Seq, r.Name, fmt.Sprintf("reached the exit at %s", r.Position))
		case r.Status == ghost.Terminated:
			l.append(snap.Seq, r.Name, "terminated")
		}
		l.seen[r.ID] = r.Status
		changed = true
	}
	// Forget reaped ghosts so a reused name reads as a fresh spawn.
	for id := range l.seen {
		if !live[id] {
			delete(l.seen, id)
		}
	}
	return changed
}

func (l *eventLog) append(seq uint64, name, event string) {
	l.lines = append(l.lines, fmt.Sprintf("#%d %s %s", seq, name, event))
	if len(l.lines) > eventLogCap {
		l.lines = l.lines[len(l.lines)-eventLogCap:]
	}
}

// Content returns the full log, one event per line.
func (l *eventLog) Content() string {
	return strings.Join(l.lines, "\n")
}

// Len returns the number of logged events.
func (l *eventLog) Len() int {
	return len(l.lines)
}
