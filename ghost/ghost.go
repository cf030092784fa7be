// Package ghost implements the maze-walking worker entity. Each ghost owns a
// goroutine that steps through the shared maze, executes simulated work at
// checkpoint cells, and contends for bottleneck permits, while exposing a
// consistent snapshot record to the supervisor without ever stopping.
package ghost

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ByteMirror/ghostmaze/gate"
	"github.com/ByteMirror/ghostmaze/log"
	"github.com/ByteMirror/ghostmaze/maze"
)

// Activity labels surfaced in snapshots.
const (
	ActivityMoving     = "moving"
	ActivityExecuting  = "executing checkpoint"
	ActivityWaiting    = "waiting at bottleneck"
	ActivityPaused     = "paused"
	ActivityFinished   = "finished"
	ActivityTerminated = "terminated"
)

// TaskDurations bounds the randomized checkpoint task durations.
type TaskDurations struct {
	CPUMin, CPUMax time.Duration
	IOMin, IOMax   time.Duration
}

// Options configures a new ghost.
type Options struct {
	// Maze is the shared read-only maze.
	Maze *maze.Maze
	// Gates maps bottleneck cells to their permit gates. The map is built
	// once by the supervisor and never mutated afterwards, so it is safe to
	// share without locking.
	Gates map[maze.Point]*gate.Gate
	// StepInterval paces the walk. Zero means no pacing (used by tests).
	StepInterval time.Duration
	// Tasks bounds simulated checkpoint work.
	Tasks TaskDurations
	// Seed seeds the ghost's private RNG. 0 means time-based.
	Seed int64
	// Name overrides the generated display name.
	Name string
}

// Record is a point-in-time copy of a ghost's mutable state, safe to hand to
// observers after the ghost has moved on.
type Record struct {
	ID         string
	Name       string
	Status     Status
	Position   maze.Point
	Path       []maze.Point
	Activity   string
	Progress   float64
	TasksDone  int
	TasksTotal int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ghost is one independently scheduled worker. Only the ghost's own goroutine
// mutates its record; everyone else reads it through Record().
type Ghost struct {
	id           string
	name         string
	mz           *maze.Maze
	gates        map[maze.Point]*gate.Gate
	stepInterval time.Duration
	taskDur      TaskDurations

	// rng is used only from the run goroutine.
	rng *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	status   Status
	pos      maze.Point
	history  []maze.Point
	visited  map[maze.Point]struct{}
	serviced map[maze.Point]struct{}
	activity string
	// held maps each bottleneck cell whose permit the ghost currently holds
	// to its gate. Adjacent bottleneck cells mean two permits are held for
	// the moment of the move, so a single slot is not enough.
	held      map[maze.Point]*gate.Gate
	tasksDone int
	resume    chan struct{}
	createdAt time.Time
	updatedAt time.Time
}

// New creates a ghost at the maze start. Call Start to begin stepping.
func New(opts Options) *Ghost {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	name := opts.Name
	if name == "" {
		name = nextName()
	}
	ctx, cancel := context.WithCancel(context.Background())
	start := opts.Maze.Start()
	now := time.Now()
	return &Ghost{
		id:           uuid.New().String(),
		name:         name,
		mz:           opts.Maze,
		gates:        opts.Gates,
		stepInterval: opts.StepInterval,
		taskDur:      opts.Tasks,
		rng:          rand.New(rand.NewSource(seed)),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		status:       Running,
		pos:          start,
		history:      []maze.Point{start},
		visited:      map[maze.Point]struct{}{start: {}},
		serviced:     map[maze.Point]struct{}{},
		held:         map[maze.Point]*gate.Gate{},
		activity:     ActivityMoving,
		createdAt:    now,
		updatedAt:    now,
	}
}

// ID returns the ghost's unique identifier.
func (g *Ghost) ID() string { return g.id }

// Name returns the ghost's display name.
func (g *Ghost) Name() string { return g.name }

// Done is closed when the ghost's goroutine has exited and all held permits
// are released.
func (g *Ghost) Done() <-chan struct{} { return g.done }

// Status returns the current lifecycle state.
func (g *Ghost) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Record returns a consistent copy of the ghost's state. The ghost is never
// observed mid-update: every field is read under the same lock the run
// goroutine writes under.
func (g *Ghost) Record() Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	path := make([]maze.Point, len(g.history))
	copy(path, g.history)
	return Record{
		ID:         g.id,
		Name:       g.name,
		Status:     g.status,
		Position:   g.pos,
		Path:       path,
		Activity:   g.activity,
		Progress:   float64(len(g.visited)) / float64(g.mz.TraversableCells()),
		TasksDone:  g.tasksDone,
		TasksTotal: len(g.mz.Checkpoints()),
		CreatedAt:  g.createdAt,
		UpdatedAt:  g.updatedAt,
	}
}

// Start launches the ghost's goroutine.
func (g *Ghost) Start() {
	go g.run()
}

// Pause suspends stepping until Resume. A ghost paused while holding a
// bottleneck permit retains it; only vacating the cell releases a permit.
func (g *Ghost) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status.Terminal() {
		return ErrTerminal
	}
	if g.status == Paused {
		return ErrAlreadyPaused
	}
	g.status = Paused
	g.activity = ActivityPaused
	g.resume = make(chan struct{})
	g.updatedAt = time.Now()
	return nil
}

// Resume continues a paused ghost.
func (g *Ghost) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status.Terminal() {
		return ErrTerminal
	}
	if g.status != Paused {
		return ErrNotPaused
	}
	g.status = Running
	g.activity = ActivityMoving
	close(g.resume)
	g.resume = nil
	g.updatedAt = time.Now()
	return nil
}

// Terminate kills the ghost from any non-terminal state. It interrupts an
// in-progress checkpoint task, bottleneck wait, or pacing sleep; the run
// goroutine then releases any held permit and exits.
func (g *Ghost) Terminate() error {
	g.mu.Lock()
	if g.status.Terminal() {
		g.mu.Unlock()
		return ErrTerminal
	}
	g.status = Terminated
	g.activity = ActivityTerminated
	g.updatedAt = time.Now()
	g.mu.Unlock()

	g.cancel()
	return nil
}

// run is the ghost's step loop. It exits on Finished or Terminated.
func (g *Ghost) run() {
	defer close(g.done)
	defer g.cleanup()

	every := log.NewEvery(2 * time.Second)

	for {
		if !g.pausePoint() {
			return
		}

		g.mu.Lock()
		pos := g.pos
		g.mu.Unlock()

		if every.ShouldLog() {
			log.DebugLog.Printf("ghost %s at %s", g.name, pos)
		}

		// Simulated work on first entry to each checkpoint cell.
		if g.mz.KindAt(pos) == maze.Checkpoint && !g.checkpointServiced(pos) {
			if !g.runCheckpoint(pos) {
				return
			}
		}

		if pos == g.mz.Exit() {
			g.finish()
			return
		}

		next, ok := g.chooseNext(pos)
		if !ok {
			// An isolated cell cannot occur in a generated maze; pace and
			// retry in case a hand-built one sneaks in.
			if !g.sleep(g.stepInterval) {
				return
			}
			continue
		}

		// A bottleneck cell may only be entered holding its permit.
		if gt := g.gates[next]; gt != nil {
			g.setActivity(ActivityWaiting)
			if err := gt.Acquire(g.ctx, g.id); err != nil {
				return
			}
			g.mu.Lock()
			g.held[next] = gt
			g.mu.Unlock()
			// Honor a Pause issued while queued before committing the move.
			if !g.pausePoint() {
				return
			}
		}

		if g.ctx.Err() != nil {
			return
		}
		g.commitMove(pos, next)

		if !g.sleep(g.stepInterval) {
			return
		}
	}
}

// chooseNext picks the next cell: a random unvisited traversable neighbor when
// one exists, otherwise any traversable neighbor so dead ends are backtracked
// out of instead of deadlocking.
func (g *Ghost) chooseNext(pos maze.Point) (maze.Point, bool) {
	neighbors := g.mz.Neighbors(pos)
	if len(neighbors) == 0 {
		return maze.Point{}, false
	}

	g.mu.Lock()
	var unvisited []maze.Point
	for _, n := range neighbors {
		if _, seen := g.visited[n]; !seen {
			unvisited = append(unvisited, n)
		}
	}
	g.mu.Unlock()

	if len(unvisited) > 0 {
		return unvisited[g.rng.Intn(len(unvisited))], true
	}
	return neighbors[g.rng.Intn(len(neighbors))], true
}

// commitMove advances to next, appends history, and releases the permit for a
// just-vacated bottleneck cell.
func (g *Ghost) commitMove(from, next maze.Point) {
	g.mu.Lock()
	g.pos = next
	g.history = append(g.history, next)
	g.visited[next] = struct{}{}
	g.activity = ActivityMoving
	g.updatedAt = time.Now()
	release := g.held[from]
	delete(g.held, from)
	g.mu.Unlock()

	if release != nil {
		if err := release.Release(g.id); err != nil && !errors.Is(err, gate.ErrNotHeld) {
			log.WarningLog.Printf("ghost %s: release at %s: %v", g.name, from, err)
		}
	}
}

// runCheckpoint executes one simulated task. Returns false if the ghost was
// terminated mid-task.
func (g *Ghost) runCheckpoint(pos maze.Point) bool {
	task := g.makeTask()
	g.setActivity(ActivityExecuting)

	elapsed, err := task.Execute(g.ctx)
	if err != nil {
		// Interruption is the expected termination path.
		log.InfoLog.Printf("ghost %s: %s task interrupted after %s", g.name, task.Kind, elapsed)
		return false
	}

	g.mu.Lock()
	g.serviced[pos] = struct{}{}
	g.tasksDone++
	g.activity = ActivityMoving
	g.updatedAt = time.Now()
	g.mu.Unlock()

	log.InfoLog.Printf("ghost %s: completed %s task at %s in %s", g.name, task.Kind, pos, elapsed)
	return true
}

// makeTask draws a random task. Kind alternates by count the way the original
// workload mix did: two compute-bound tasks for every sleep-bound one.
func (g *Ghost) makeTask() Task {
	g.mu.Lock()
	done := g.tasksDone
	g.mu.Unlock()

	if done%3 == 2 {
		return Task{Kind: TaskIO, Duration: g.randDuration(g.taskDur.IOMin, g.taskDur.IOMax)}
	}
	return Task{Kind: TaskCPU, Duration: g.randDuration(g.taskDur.CPUMin, g.taskDur.CPUMax)}
}

func (g *Ghost) randDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(g.rng.Int63n(int64(max-min)))
}

func (g *Ghost) checkpointServiced(pos maze.Point) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.serviced[pos]
	return ok
}

func (g *Ghost) setActivity(a string) {
	g.mu.Lock()
	g.activity = a
	g.updatedAt = time.Now()
	g.mu.Unlock()
}

// pausePoint blocks while the ghost is paused. Returns false on termination.
func (g *Ghost) pausePoint() bool {
	for {
		g.mu.Lock()
		if g.status.Terminal() {
			g.mu.Unlock()
			return false
		}
		if g.status != Paused {
			g.mu.Unlock()
			return true
		}
		resume := g.resume
		g.mu.Unlock()

		select {
		case <-resume:
		case <-g.ctx.Done():
			return false
		}
	}
}

// sleep paces the walk, waking early on termination.
func (g *Ghost) sleep(d time.Duration) bool {
	if d <= 0 {
		return g.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-g.ctx.Done():
		return false
	}
}

// finish marks the ghost Finished on the exit cell.
func (g *Ghost) finish() {
	g.mu.Lock()
	g.status = Finished
	g.activity = ActivityFinished
	g.updatedAt = time.Now()
	g.mu.Unlock()
	log.InfoLog.Printf("ghost %s reached the exit", g.name)
}

// cleanup runs when the goroutine exits. Every permit still held is released
// so a dead ghost never strands bottleneck capacity, and an externally
// cancelled ghost that somehow escaped Terminate() is marked Terminated.
func (g *Ghost) cleanup() {
	g.mu.Lock()
	if !g.status.Terminal() {
		g.status = Terminated
		g.activity = ActivityTerminated
		g.updatedAt = time.Now()
	}
	release := g.held
	g.held = nil
	g.mu.Unlock()

	for _, gt := range release {
		gt.ForceRelease(g.id)
	}
	g.cancel()
}
