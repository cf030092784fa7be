// Package ui renders simulation snapshots for the terminal observer. It is a
// pure consumer of the snapshot types; nothing in the core depends on it.
package ui

import (
	"strings"

	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/maze"
	"github.com/ByteMirror/ghostmaze/supervisor"
)

// glyphFor renders one static maze cell.
func glyphFor(k maze.Kind) string {
	switch k {
	case maze.Wall:
		return wallStyle.Render("█")
	case maze.Checkpoint:
		return checkpointStyle.Render("C")
	case maze.Bottleneck:
		return bottleneckStyle.Render("G")
	case maze.Exit:
		return exitStyle.Render("S")
	default:
		return corridorStyle.Render("·")
	}
}

// RenderMaze draws the maze grid with live ghost positions overlaid. Each
// ghost is drawn as the first letter of its name; paused ghosts are dimmed.
func RenderMaze(snap supervisor.SimulationSnapshot) string {
	if snap.Maze == nil {
		return ""
	}

	type occupant struct {
		letter string
		paused bool
	}
	occupants := make(map[maze.Point]occupant, len(snap.Ghosts))
	for _, r := range snap.Ghosts {
		if r.Status == ghost.Terminated {
			continue
		}
		letter := "?"
		if r.Name != "" {
			letter = strings.ToUpper(r.Name[:1])
		}
		occupants[r.Position] = occupant{letter: letter, paused: r.Status == ghost.Paused}
	}

	grid := snap.Maze.Grid()
	var b strings.Builder
	for row := range grid {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := range grid[row] {
			p := maze.Point{Row: row, Col: col}
			if occ, ok := occupants[p]; ok {
				if occ.paused {
					b.WriteString(ghostPausedStyle.Render(occ.letter))
				} else {
					b.WriteString(ghostStyle.Render(occ.letter))
				}
				continue
			}
			b.WriteString(glyphFor(grid[row][col]))
		}
	}
	return b.String()
}
