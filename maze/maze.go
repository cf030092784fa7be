package maze

import (
	"fmt"
	"strings"
)

// Kind classifies a single maze cell.
type Kind uint8

const (
	// Wall cells are never traversable.
	Wall Kind = iota
	// Path is an ordinary carved corridor cell.
	Path
	// Checkpoint cells trigger simulated work when a ghost enters them.
	Checkpoint
	// Bottleneck cells are guarded by a capacity-limited gate.
	Bottleneck
	// Start is the fixed spawn cell at (1,1).
	Start
	// Exit is the carved cell farthest from Start.
	Exit
)

// String returns the string representation of a cell kind.
func (k Kind) String() string {
	switch k {
	case Wall:
		return "Wall"
	case Path:
		return "Path"
	case Checkpoint:
		return "Checkpoint"
	case Bottleneck:
		return "Bottleneck"
	case Start:
		return "Start"
	case Exit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// Traversable reports whether a ghost may occupy a cell of this kind.
func (k Kind) Traversable() bool {
	return k != Wall
}

// Rune returns the single-character glyph used for rendering and parsing.
func (k Kind) Rune() rune {
	switch k {
	case Wall:
		return '#'
	case Path:
		return '.'
	case Checkpoint:
		return 'C'
	case Bottleneck:
		return 'G'
	case Start:
		return '.'
	case Exit:
		return 'S'
	default:
		return '?'
	}
}

// Point is a cell coordinate, row-major.
type Point struct {
	Row, Col int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Maze is an immutable carved grid. It is generated once per simulation
// session and shared read-only by every ghost, so no locking is required.
type Maze struct {
	grid        [][]Kind
	start       Point
	exit        Point
	checkpoints []Point
	bottlenecks []Point
	traversable int
}

// Height returns the number of rows.
func (m *Maze) Height() int { return len(m.grid) }

// Width returns the number of columns.
func (m *Maze) Width() int { return len(m.grid[0]) }

// Start returns the spawn cell.
func (m *Maze) Start() Point { return m.start }

// Exit returns the goal cell.
func (m *Maze) Exit() Point { return m.exit }

// Checkpoints returns the checkpoint cells in solution-path order.
func (m *Maze) Checkpoints() []Point {
	out := make([]Point, len(m.checkpoints))
	copy(out, m.checkpoints)
	return out
}

// Bottlenecks returns the gate-guarded cells.
func (m *Maze) Bottlenecks() []Point {
	out := make([]Point, len(m.bottlenecks))
	copy(out, m.bottlenecks)
	return out
}

// TraversableCells returns the number of non-wall cells. Ghost progress is
// measured against this total.
func (m *Maze) TraversableCells() int { return m.traversable }

// InBounds reports whether p lies inside the grid.
func (m *Maze) InBounds(p Point) bool {
	return p.Row >= 0 && p.Row < m.Height() && p.Col >= 0 && p.Col < m.Width()
}

// KindAt returns the kind of the cell at p. Out-of-bounds cells are walls.
func (m *Maze) KindAt(p Point) Kind {
	if !m.InBounds(p) {
		return Wall
	}
	return m.grid[p.Row][p.Col]
}

// Traversable reports whether a ghost may occupy p.
func (m *Maze) Traversable(p Point) bool {
	return m.KindAt(p).Traversable()
}

// cardinal is the fixed neighbor expansion order. Keeping it stable makes the
// exit tie-break and all BFS results deterministic for a given grid.
var cardinal = [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Neighbors returns the traversable cells orthogonally adjacent to p, in the
// fixed cardinal order.
func (m *Maze) Neighbors(p Point) []Point {
	out := make([]Point, 0, 4)
	for _, d := range cardinal {
		n := Point{p.Row + d.Row, p.Col + d.Col}
		if m.Traversable(n) {
			out = append(out, n)
		}
	}
	return out
}

// Grid returns a copy of the cell grid for external rendering.
func (m *Maze) Grid() [][]Kind {
	out := make([][]Kind, len(m.grid))
	for i, row := range m.grid {
		out[i] = make([]Kind, len(row))
		copy(out[i], row)
	}
	return out
}

// String renders the maze with the original glyphs: '#' wall, '.' corridor,
// 'C' checkpoint, 'G' bottleneck, 'S' exit.
func (m *Maze) String() string {
	var b strings.Builder
	for r, row := range m.grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, k := range row {
			b.WriteRune(k.Rune())
		}
	}
	return b.String()
}

// distances runs a breadth-first search from origin over traversable cells and
// returns per-cell distances, parent pointers, and the first-found farthest
// cell. Expansion follows the fixed cardinal order, so the farthest-cell
// tie-break is deterministic: first reached in BFS layer order wins.
func (m *Maze) distances(origin Point) (map[Point]int, map[Point]Point, Point) {
	dist := map[Point]int{origin: 0}
	parent := map[Point]Point{}
	queue := []Point{origin}
	farthest := origin

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range cardinal {
			n := Point{cur.Row + d.Row, cur.Col + d.Col}
			if !m.Traversable(n) {
				continue
			}
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = dist[cur] + 1
			parent[n] = cur
			if dist[n] > dist[farthest] {
				farthest = n
			}
			queue = append(queue, n)
		}
	}
	return dist, parent, farthest
}

// DistanceFromStart returns the BFS distance from the start cell to p, or -1
// if p is a wall or out of bounds.
func (m *Maze) DistanceFromStart(p Point) int {
	dist, _, _ := m.distances(m.start)
	d, ok := dist[p]
	if !ok {
		return -1
	}
	return d
}
