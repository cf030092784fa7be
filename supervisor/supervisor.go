// Package supervisor owns the authoritative registry of ghost workers. It
// spawns them, routes control commands to them, forces bottleneck permits free
// when a worker dies, and aggregates per-worker state into snapshots.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ByteMirror/ghostmaze/gate"
	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/log"
	"github.com/ByteMirror/ghostmaze/maze"
)

// ErrUnknownWorker is returned for control commands addressed to an id that
// was never issued or whose worker has already been reaped.
var ErrUnknownWorker = errors.New("unknown worker")

// Command is an external control command routed to a worker.
type Command int

const (
	CommandPause Command = iota
	CommandResume
	CommandTerminate
)

// String returns the string representation of a command.
func (c Command) String() string {
	switch c {
	case CommandPause:
		return "Pause"
	case CommandResume:
		return "Resume"
	case CommandTerminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}

// terminalGraceSnapshots is how many snapshots a finished or terminated worker
// stays visible in before it is reaped, so observers always see the terminal
// state at least once after it happened.
const terminalGraceSnapshots = 2

// Options configures a supervisor.
type Options struct {
	Maze         *maze.Maze
	GateCapacity int
	StepInterval time.Duration
	Tasks        ghost.TaskDurations
	// Seed derives per-worker RNG seeds. 0 means time-based per worker.
	Seed int64
}

// entry pairs a registered ghost with its reaping state. Only the supervisor
// mutates membership; each ghost mutates only its own record.
type entry struct {
	g *ghost.Ghost
	// terminalSeen counts snapshots that observed this worker in a terminal
	// state. The worker is reaped once it reaches terminalGraceSnapshots.
	terminalSeen int
}

// Supervisor creates, controls, snapshots, and reaps ghost workers.
type Supervisor struct {
	mz    *maze.Maze
	gates map[maze.Point]*gate.Gate
	opts  Options

	mu      sync.Mutex
	workers map[string]*entry
	spawned int64
	seq     uint64
}

// New builds a supervisor and one gate per bottleneck cell of the maze.
func New(opts Options) (*Supervisor, error) {
	if opts.Maze == nil {
		return nil, fmt.Errorf("supervisor requires a maze")
	}
	capacity := opts.GateCapacity
	if capacity < 1 {
		capacity = 1
	}
	gates := make(map[maze.Point]*gate.Gate, len(opts.Maze.Bottlenecks()))
	for _, cell := range opts.Maze.Bottlenecks() {
		gt, err := gate.New(capacity)
		if err != nil {
			return nil, err
		}
		gates[cell] = gt
	}
	return &Supervisor{
		mz:      opts.Maze,
		gates:   gates,
		opts:    opts,
		workers: make(map[string]*entry),
	}, nil
}

// Maze returns the shared maze.
func (s *Supervisor) Maze() *maze.Maze { return s.mz }

// CreateWorker spawns a new ghost at the maze start, registers it, and starts
// its goroutine.
func (s *Supervisor) CreateWorker() (string, error) {
	s.mu.Lock()
	s.spawned++
	seed := s.opts.Seed
	if seed != 0 {
		// Distinct deterministic stream per worker under a fixed seed.
		seed += s.spawned
	}
	g := ghost.New(ghost.Options{
		Maze:         s.mz,
		Gates:        s.gates,
		StepInterval: s.opts.StepInterval,
		Tasks:        s.opts.Tasks,
		Seed:         seed,
	})
	s.workers[g.ID()] = &entry{g: g}
	s.mu.Unlock()

	g.Start()
	log.InfoLog.Printf("created worker %s (%s)", g.Name(), g.ID())
	return g.ID(), nil
}

// Control routes a command to the worker with the given id. A command for an
// unknown or already-reaped id fails with ErrUnknownWorker; command failures
// never affect other workers.
func (s *Supervisor) Control(id string, cmd Command) error {
	s.mu.Lock()
	e, ok := s.workers[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, id)
	}

	switch cmd {
	case CommandPause:
		return e.g.Pause()
	case CommandResume:
		return e.g.Resume()
	case CommandTerminate:
		if err := e.g.Terminate(); err != nil {
			return err
		}
		// Mandatory: a terminated worker must never strand gate capacity.
		// The ghost releases on exit too; ForceRelease is idempotent. Run as
		// a backstop off the caller's goroutine so Control never blocks.
		go s.forceReleaseAll(id)
		return nil
	default:
		return fmt.Errorf("unknown command %d", cmd)
	}
}

// PauseAll pauses every running worker and returns how many were paused.
// Workers already paused or in a terminal state are skipped.
func (s *Supervisor) PauseAll() int {
	n := 0
	for _, g := range s.ghosts() {
		if err := g.Pause(); err == nil {
			n++
		}
	}
	log.InfoLog.Printf("paused %d worker(s)", n)
	return n
}

// ResumeAll resumes every paused worker and returns how many were resumed.
func (s *Supervisor) ResumeAll() int {
	n := 0
	for _, g := range s.ghosts() {
		if err := g.Resume(); err == nil {
			n++
		}
	}
	log.InfoLog.Printf("resumed %d worker(s)", n)
	return n
}

// ghosts returns the currently registered workers.
func (s *Supervisor) ghosts() []*ghost.Ghost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ghost.Ghost, 0, len(s.workers))
	for _, e := range s.workers {
		out = append(out, e.g)
	}
	return out
}

// forceReleaseAll frees any permit the worker holds on any gate once its
// goroutine has wound down.
func (s *Supervisor) forceReleaseAll(id string) {
	s.mu.Lock()
	e, ok := s.workers[id]
	s.mu.Unlock()
	if ok {
		// Wait for the goroutine to pass its cancellation point so we do not
		// race a release against an in-flight acquire.
		select {
		case <-e.g.Done():
		case <-time.After(time.Second):
			log.WarningLog.Printf("worker %s slow to stop; forcing permit release", id)
		}
	}
	for cell, gt := range s.gates {
		if gt.ForceRelease(id) {
			log.WarningLog.Printf("force-released permit of %s at %s", id, cell)
		}
	}
}

// Snapshot aggregates the current state of all registered workers and gates.
// It never blocks worker progress: each record is a brief per-ghost locked
// copy, and membership is read under the supervisor's own lock. Workers seen
// in a terminal state are reaped after terminalGraceSnapshots inclusions.
func (s *Supervisor) Snapshot() SimulationSnapshot {
	s.mu.Lock()
	ghosts := make([]*ghost.Ghost, 0, len(s.workers))
	for _, e := range s.workers {
		ghosts = append(ghosts, e.g)
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	records := make([]ghost.Record, 0, len(ghosts))
	var terminal []string
	for _, g := range ghosts {
		rec := g.Record()
		records = append(records, rec)
		if rec.Status.Terminal() {
			terminal = append(terminal, rec.ID)
		}
	}
	// Stable ordering for observers.
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	gates := make([]GateStatus, 0, len(s.gates))
	for cell, gt := range s.gates {
		gates = append(gates, GateStatus{
			Cell:      cell,
			Capacity:  gt.Capacity(),
			Occupants: gt.Occupants(),
			Waiting:   gt.Waiting(),
		})
	}
	sort.Slice(gates, func(i, j int) bool {
		if gates[i].Cell.Row != gates[j].Cell.Row {
			return gates[i].Cell.Row < gates[j].Cell.Row
		}
		return gates[i].Cell.Col < gates[j].Cell.Col
	})

	// Grace bookkeeping happens under the registry lock: entries are shared
	// with concurrent Snapshot callers (the publisher's ticker plus Poll).
	if len(terminal) > 0 {
		reaped := 0
		s.mu.Lock()
		for _, id := range terminal {
			e, ok := s.workers[id]
			if !ok {
				continue
			}
			e.terminalSeen++
			if e.terminalSeen >= terminalGraceSnapshots {
				delete(s.workers, id)
				reaped++
			}
		}
		s.mu.Unlock()
		if reaped > 0 {
			log.DebugLog.Printf("reaped %d terminal worker(s)", reaped)
		}
	}

	return SimulationSnapshot{
		Seq:     seq,
		TakenAt: time.Now(),
		Maze:    s.mz,
		Ghosts:  records,
		Gates:   gates,
	}
}

// Gate returns the gate guarding the given bottleneck cell, if any.
func (s *Supervisor) Gate(cell maze.Point) (*gate.Gate, bool) {
	gt, ok := s.gates[cell]
	return gt, ok
}

// Live returns the number of workers not yet in a terminal state.
func (s *Supervisor) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.workers {
		if !e.g.Status().Terminal() {
			n++
		}
	}
	return n
}

// Shutdown terminates every worker and waits for their goroutines to exit or
// the context to expire.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	ghosts := s.ghosts()

	for _, g := range ghosts {
		if err := g.Terminate(); err != nil && !errors.Is(err, ghost.ErrTerminal) {
			log.WarningLog.Printf("shutdown: terminate %s: %v", g.ID(), err)
		}
	}
	for _, g := range ghosts {
		select {
		case <-g.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
