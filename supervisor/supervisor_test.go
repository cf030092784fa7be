package supervisor

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/log"
	"github.com/ByteMirror/ghostmaze/maze"
)

func TestMain(m *testing.M) {
	log.Initialize()
	defer log.Close()
	os.Exit(m.Run())
}

func fastTasks() ghost.TaskDurations {
	return ghost.TaskDurations{
		CPUMin: time.Millisecond, CPUMax: 2 * time.Millisecond,
		IOMin: time.Millisecond, IOMax: 2 * time.Millisecond,
	}
}

func testMaze(t *testing.T, rows ...string) *maze.Maze {
	t.Helper()
	m, err := maze.Parse(rows)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newSupervisor(t *testing.T, m *maze.Maze, capacity int, step time.Duration) *Supervisor {
	t.Helper()
	s, err := New(Options{
		Maze:         m,
		GateCapacity: capacity,
		StepInterval: step,
		Tasks:        fastTasks(),
		Seed:         1,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for: %s", msg)
}

func TestSupervisor_CreateAndSnapshot(t *testing.T) {
	m := testMaze(t,
		"#######",
		"#.....#",
		"#######",
	)
	s := newSupervisor(t, m, 1, time.Hour)

	id, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	rec, ok := snap.Ghost(id)
	if !ok {
		t.Fatal("created worker missing from snapshot")
	}
	if rec.Position != m.Start() {
		t.Fatalf("worker spawned at %s, want %s", rec.Position, m.Start())
	}
	if snap.Maze != m {
		t.Fatal("snapshot does not carry the maze")
	}
	if s.Live() != 1 {
		t.Fatalf("expected 1 live worker, got %d", s.Live())
	}
}

func TestSupervisor_ControlUnknownWorker(t *testing.T) {
	m := testMaze(t,
		"#####",
		"#...#",
		"#####",
	)
	s := newSupervisor(t, m, 1, time.Hour)

	err := s.Control("never-issued", CommandPause)
	if err == nil {
		t.Fatal("expected ErrUnknownWorker")
	}
	if !errors.Is(err, ErrUnknownWorker) {
		t.Fatalf("expected ErrUnknownWorker, got %v", err)
	}
}

func TestSupervisor_PauseResumeRoundTrip(t *testing.T) {
	m := testMaze(t,
		"#######",
		"#.....#",
		"#######",
	)
	s := newSupervisor(t, m, 1, 20*time.Millisecond)

	id, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Control(id, CommandPause); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	before, _ := s.Snapshot().Ghost(id)
	if before.Status != ghost.Paused {
		t.Fatalf("expected Paused, got %s", before.Status)
	}
	time.Sleep(80 * time.Millisecond)
	after, _ := s.Snapshot().Ghost(id)
	if after.Position != before.Position {
		t.Fatal("worker moved while paused")
	}

	if err := s.Control(id, CommandResume); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool {
		rec, ok := s.Snapshot().Ghost(id)
		return ok && rec.Position != before.Position
	}, "worker moving after resume")
}

func TestSupervisor_TerminateReleasesPermit(t *testing.T) {
	m := testMaze(t,
		"#####",
		"#.GS#",
		"#####",
	)
	s := newSupervisor(t, m, 1, time.Hour)
	gt, ok := s.Gate(m.Bottlenecks()[0])
	if !ok {
		t.Fatal("missing gate for bottleneck cell")
	}

	id, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}

	// Step interval is huge, so the worker grabs the permit and then parks.
	waitFor(t, 2*time.Second, func() bool { return gt.Occupants() == 1 }, "worker holds permit")

	if err := s.Control(id, CommandTerminate); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return gt.Occupants() == 0 }, "permit force-released")

	rec, ok := s.Snapshot().Ghost(id)
	if !ok {
		t.Fatal("terminated worker should stay visible for a grace snapshot")
	}
	if rec.Status != ghost.Terminated {
		t.Fatalf("expected Terminated, got %s", rec.Status)
	}
}

func TestSupervisor_ReapAfterGraceSnapshots(t *testing.T) {
	m := testMaze(t,
		"#####",
		"#...#",
		"#####",
	)
	s := newSupervisor(t, m, 1, time.Hour)

	id, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Control(id, CommandTerminate); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool {
		rec, ok := s.Snapshot().Ghost(id)
		_ = rec
		return !ok
	}, "terminal worker reaped")

	// Reaped id now behaves like one never issued.
	if err := s.Control(id, CommandResume); !errors.Is(err, ErrUnknownWorker) {
		t.Fatalf("expected ErrUnknownWorker after reap, got %v", err)
	}
}

func TestSupervisor_ConcurrentSnapshots(t *testing.T) {
	m := testMaze(t,
		"#####",
		"#...#",
		"#####",
	)
	s := newSupervisor(t, m, 1, time.Hour)

	id, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}
	// Control returns with the worker already Terminated, so every snapshot
	// from here on sees a terminal state.
	if err := s.Control(id, CommandTerminate); err != nil {
		t.Fatal(err)
	}

	// The publisher's ticker and any number of Poll callers may aggregate at
	// the same time; grace counting must hold up under that.
	var included atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				if _, ok := s.Snapshot().Ghost(id); ok {
					included.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	// Concurrent aggregations may each include the worker once more than the
	// grace count, but never fewer than the grace count in total.
	if n := included.Load(); n < terminalGraceSnapshots {
		t.Fatalf("terminal worker included in only %d snapshot(s), grace is %d",
			n, terminalGraceSnapshots)
	}
	if _, ok := s.Snapshot().Ghost(id); ok {
		t.Fatal("terminal worker not reaped after grace snapshots")
	}
	if err := s.Control(id, CommandPause); !errors.Is(err, ErrUnknownWorker) {
		t.Fatalf("expected ErrUnknownWorker after reap, got %v", err)
	}
}

func TestSupervisor_TerminalVisibleBeforeReap(t *testing.T) {
	m := testMaze(t,
		"#####",
		"#...#",
		"#####",
	)
	s := newSupervisor(t, m, 1, time.Hour)

	id, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Control(id, CommandTerminate); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool {
		rec, ok := s.Snapshot().Ghost(id)
		return ok && rec.Status == ghost.Terminated
	}, "terminal state visible in a snapshot")
}

func TestSupervisor_PauseAllResumeAll(t *testing.T) {
	m := testMaze(t,
		"#######",
		"#.....#",
		"#######",
	)
	s := newSupervisor(t, m, 1, 20*time.Millisecond)

	const workers = 3
	ids := make([]string, workers)
	for i := range ids {
		id, err := s.CreateWorker()
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = id
	}

	if n := s.PauseAll(); n != workers {
		t.Fatalf("paused %d workers, want %d", n, workers)
	}
	snap := s.Snapshot()
	for _, id := range ids {
		rec, ok := snap.Ghost(id)
		if !ok || rec.Status != ghost.Paused {
			t.Fatalf("worker %s not paused after PauseAll", id)
		}
	}
	// Pausing again is a no-op across the board.
	if n := s.PauseAll(); n != 0 {
		t.Fatalf("second PauseAll paused %d workers, want 0", n)
	}

	if n := s.ResumeAll(); n != workers {
		t.Fatalf("resumed %d workers, want %d", n, workers)
	}
	for _, r := range s.Snapshot().Ghosts {
		if r.Status == ghost.Paused {
			t.Fatalf("worker %s still paused after ResumeAll", r.ID)
		}
	}
	// Resumed workers make progress again.
	waitFor(t, 5*time.Second, func() bool {
		for _, r := range s.Snapshot().Ghosts {
			if r.Status == ghost.Running && len(r.Path) < 2 {
				return false
			}
		}
		return true
	}, "workers moving after ResumeAll")
}

func TestSupervisor_BottleneckContention(t *testing.T) {
	m := testMaze(t,
		"###########",
		"#....G....#",
		"###########",
	)
	s := newSupervisor(t, m, 1, time.Millisecond)
	gt, _ := s.Gate(m.Bottlenecks()[0])

	const workers = 5
	ids := make([]string, workers)
	for i := range ids {
		id, err := s.CreateWorker()
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = id
	}

	// At no observed instant may occupants exceed capacity 1.
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if n := gt.Occupants(); n > 1 {
			t.Fatalf("observed %d workers inside a capacity-1 bottleneck", n)
		}
		if s.Live() == 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if s.Live() != 0 {
		t.Fatal("not all workers finished in time")
	}
	if gt.Occupants() != 0 {
		t.Fatal("permits leaked after all workers finished")
	}
}

func TestSupervisor_IsolatedFailure(t *testing.T) {
	m := testMaze(t,
		"#######",
		"#.....#",
		"#######",
	)
	s := newSupervisor(t, m, 1, 5*time.Millisecond)

	a, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreateWorker()
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Control(a, CommandTerminate); err != nil {
		t.Fatal(err)
	}

	// The survivor keeps running and eventually finishes.
	waitFor(t, 5*time.Second, func() bool {
		rec, ok := s.Snapshot().Ghost(b)
		return !ok || rec.Status == ghost.Finished
	}, "unaffected worker finished")
}

func TestSnapshot_SeqMonotonic(t *testing.T) {
	m := testMaze(t,
		"#####",
		"#...#",
		"#####",
	)
	s := newSupervisor(t, m, 1, time.Hour)

	last := s.Snapshot().Seq
	for i := 0; i < 10; i++ {
		seq := s.Snapshot().Seq
		if seq <= last {
			t.Fatalf("sequence went backwards: %d after %d", seq, last)
		}
		last = seq
	}
}
