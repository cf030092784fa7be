package ui

import (
	"fmt"
	"strings"

	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/supervisor"
)

// statusIcon returns the colored icon for a lifecycle state.
func statusIcon(s ghost.Status) string {
	switch s {
	case ghost.Running:
		return runningStyle.Render(runningIcon)
	case ghost.Paused:
		return pausedStyle.Render(pausedIcon)
	case ghost.Finished:
		return finishedStyle.Render(finishedIcon)
	default:
		return terminatedStyle.Render(terminatedIcon)
	}
}

// RenderGhostList draws one line per ghost: icon, name, position, progress,
// task counters, and the current activity label. selected highlights one row.
func RenderGhostList(snap supervisor.SimulationSnapshot, selected int) string {
	if len(snap.Ghosts) == 0 {
		return descStyle.Render("no ghosts — press n to spawn one")
	}

	var b strings.Builder
	for i, r := range snap.Ghosts {
		line := fmt.Sprintf("%s%-10s %-7s %3.0f%% %d/%d  %s",
			statusIcon(r.Status),
			r.Name,
			r.Position.String(),
			r.Progress*100,
			r.TasksDone,
			r.TasksTotal,
			r.Activity,
		)
		if i == selected {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(titleStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderGates summarizes bottleneck occupancy, one gate per line.
func RenderGates(snap supervisor.SimulationSnapshot) string {
	if len(snap.Gates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, g := range snap.Gates {
		b.WriteString(descStyle.Render(fmt.Sprintf(
			"gate %s  %d/%d occupied, %d waiting",
			g.Cell, g.Occupants, g.Capacity, g.Waiting)))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderStatusBar draws the bottom bar with the snapshot sequence and key help.
func RenderStatusBar(snap supervisor.SimulationSnapshot) string {
	return statusBarStyle.Render(fmt.Sprintf(
		"snapshot #%d  %d ghost(s)  ↑/↓ select  n new  p pause  r resume  P/R all  D terminate  q quit",
		snap.Seq, len(snap.Ghosts)))
}
