package maze

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrInvalidDimensions is returned when the requested grid is too small to
// carve a corridor beyond the start cell.
var ErrInvalidDimensions = errors.New("maze dimensions too small to carve")

// Options configures maze generation.
type Options struct {
	Width, Height int

	// Checkpoints is the number of checkpoint cells placed along the
	// start-to-exit solution path. Minimum 1.
	Checkpoints int

	// Bottlenecks is the number of gate-guarded cells. The first is placed
	// near the midpoint of the solution path. Minimum 1.
	Bottlenecks int

	// Seed seeds the carving RNG. 0 means time-based.
	Seed int64
}

// Generate carves a fully connected maze with a randomized depth-first
// backtracker on an odd-dimensioned grid, then derives the exit as the
// traversable cell of maximum BFS distance from the fixed start (1,1) and
// marks checkpoint and bottleneck cells along the solution path.
//
// Connectivity is guaranteed by construction: the carve produces a spanning
// tree over all corridor cells, so every traversable cell is reachable from
// start.
func Generate(opts Options) (*Maze, error) {
	rows := ensureOdd(opts.Height)
	cols := ensureOdd(opts.Width)
	if rows < 5 || cols < 5 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, opts.Width, opts.Height)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	grid := make([][]Kind, rows)
	for r := range grid {
		grid[r] = make([]Kind, cols)
	}

	start := Point{1, 1}
	grid[start.Row][start.Col] = Path

	// Iterative backtracker: from the top of the stack, jump to an uncarved
	// cell two away in a shuffled direction, carving the wall between.
	stack := []Point{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		next, mid, ok := pickUncarved(grid, cur, rng)
		if !ok {
			stack = stack[:len(stack)-1]
			continue
		}
		grid[mid.Row][mid.Col] = Path
		grid[next.Row][next.Col] = Path
		stack = append(stack, next)
	}

	m := &Maze{grid: grid, start: start}
	dist, parent, exit := m.distances(start)
	m.exit = exit
	m.traversable = len(dist)

	// Solution path, start to exit.
	var path []Point
	for cur := exit; ; cur = parent[cur] {
		path = append(path, cur)
		if cur == start {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	if len(path) < 3 {
		// Degenerate carve: not enough corridor between start and exit to
		// place markers. Only possible at the minimum dimensions.
		return nil, fmt.Errorf("%w: solution path too short", ErrInvalidDimensions)
	}

	placeMarkers(m, path, max(1, opts.Checkpoints), max(1, opts.Bottlenecks))

	grid[start.Row][start.Col] = Start
	grid[exit.Row][exit.Col] = Exit
	return m, nil
}

// pickUncarved returns a random still-walled cell two away from cur, plus the
// wall cell between them.
func pickUncarved(grid [][]Kind, cur Point, rng *rand.Rand) (next, mid Point, ok bool) {
	rows, cols := len(grid), len(grid[0])
	type jump struct{ next, mid Point }
	var choices []jump
	for _, d := range [4]Point{{2, 0}, {-2, 0}, {0, 2}, {0, -2}} {
		n := Point{cur.Row + d.Row, cur.Col + d.Col}
		if n.Row < 1 || n.Row >= rows-1 || n.Col < 1 || n.Col >= cols-1 {
			continue
		}
		if grid[n.Row][n.Col] != Wall {
			continue
		}
		choices = append(choices, jump{n, Point{cur.Row + d.Row/2, cur.Col + d.Col/2}})
	}
	if len(choices) == 0 {
		return Point{}, Point{}, false
	}
	c := choices[rng.Intn(len(choices))]
	return c.next, c.mid, true
}

// placeMarkers reclassifies solution-path cells as checkpoints and
// bottlenecks. Checkpoints sit at evenly spaced fractions of the path,
// bottlenecks near its midpoint; markers never collide with each other or
// with the start or exit cells.
func placeMarkers(m *Maze, path []Point, checkpoints, bottlenecks int) {
	l := len(path)
	used := map[int]bool{0: true, l - 1: true}

	claim := func(idx int) int {
		idx = clamp(idx, 1, l-2)
		for off := 0; off < l; off++ {
			if i := clamp(idx+off, 1, l-2); !used[i] {
				return i
			}
			if i := clamp(idx-off, 1, l-2); !used[i] {
				return i
			}
		}
		return -1
	}

	for k := 1; k <= checkpoints; k++ {
		idx := claim(l * k / (checkpoints + 1))
		if idx < 0 {
			break
		}
		used[idx] = true
		p := path[idx]
		m.grid[p.Row][p.Col] = Checkpoint
		m.checkpoints = append(m.checkpoints, p)
	}

	for k := 0; k < bottlenecks; k++ {
		idx := claim(l/2 + k)
		if idx < 0 {
			break
		}
		used[idx] = true
		p := path[idx]
		m.grid[p.Row][p.Col] = Bottleneck
		m.bottlenecks = append(m.bottlenecks, p)
	}
}

// Parse builds a maze from glyph rows: '#' wall, '.' corridor, 'C' checkpoint,
// 'G' bottleneck, 'S' exit. The start is the fixed (1,1) cell. If no 'S' is
// present the exit is derived the same way Generate derives it. Intended for
// tests and hand-built scenarios.
func Parse(rows []string) (*Maze, error) {
	if len(rows) < 3 || len(rows[0]) < 3 {
		return nil, fmt.Errorf("%w: fewer than 3 rows or columns", ErrInvalidDimensions)
	}
	grid := make([][]Kind, len(rows))
	var explicitExit *Point
	for r, line := range rows {
		if len(line) != len(rows[0]) {
			return nil, fmt.Errorf("ragged maze row %d", r)
		}
		grid[r] = make([]Kind, len(line))
		for c, ch := range line {
			switch ch {
			case '#':
				grid[r][c] = Wall
			case '.':
				grid[r][c] = Path
			case 'C':
				grid[r][c] = Checkpoint
			case 'G':
				grid[r][c] = Bottleneck
			case 'S':
				grid[r][c] = Exit
				explicitExit = &Point{r, c}
			default:
				return nil, fmt.Errorf("unknown maze glyph %q at (%d,%d)", ch, r, c)
			}
		}
	}

	m := &Maze{grid: grid, start: Point{1, 1}}
	if !m.Traversable(m.start) {
		return nil, fmt.Errorf("start cell (1,1) is a wall")
	}
	dist, _, farthest := m.distances(m.start)
	m.traversable = len(dist)
	if explicitExit != nil {
		m.exit = *explicitExit
	} else {
		m.exit = farthest
		grid[m.exit.Row][m.exit.Col] = Exit
	}
	for r, row := range grid {
		for c, k := range row {
			switch k {
			case Checkpoint:
				m.checkpoints = append(m.checkpoints, Point{r, c})
			case Bottleneck:
				m.bottlenecks = append(m.bottlenecks, Point{r, c})
			}
		}
	}
	grid[m.start.Row][m.start.Col] = Start
	return m, nil
}

func ensureOdd(n int) int {
	if n%2 == 0 {
		return n + 1
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
