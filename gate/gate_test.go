package gate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it returns true or the deadline passes.
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

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := New(0); err != ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := New(-3); err != ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestGate_CapacityNeverExceeded(t *testing.T) {
	const capacity = 2
	const workers = 10

	g, err := New(capacity)
	if err != nil {
		t.Fatal(err)
	}

	var inside atomic.Int32
	var peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ghostID := fmt.Sprintf("ghost-%d", id)
			if err := g.Acquire(context.Background(), ghostID); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			if err := g.Release(ghostID); err != nil {
				t.Errorf("release: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := peak.Load(); got > capacity {
		t.Fatalf("observed %d concurrent holders, capacity %d", got, capacity)
	}
	if g.Occupants() != 0 {
		t.Fatalf("expected empty gate, occupants %d", g.Occupants())
	}
}

func TestGate_FIFOAdmission(t *testing.T) {
	g, err := New(1)
	if err != nil {
		t.Fatal(err)
	}

	// Fill the single slot.
	if err := g.Acquire(context.Background(), "holder"); err != nil {
		t.Fatal(err)
	}

	admitted := make(chan string, 3)
	for i, id := range []string{"A", "B", "C"} {
		id := id
		go func() {
			if err := g.Acquire(context.Background(), id); err != nil {
				t.Errorf("acquire %s: %v", id, err)
				return
			}
			admitted <- id
		}()
		// Ensure arrival order is A, B, C.
		waitFor(t, time.Second, func() bool { return g.Waiting() == i+1 },
			fmt.Sprintf("%s queued", id))
	}

	for _, want := range []string{"A", "B", "C"} {
		if err := g.Release(currentHolder(g)); err != nil {
			t.Fatal(err)
		}
		select {
		case got := <-admitted:
			if got != want {
				t.Fatalf("admitted %s before %s", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s to be admitted", want)
		}
	}
	if err := g.Release(currentHolder(g)); err != nil {
		t.Fatal(err)
	}
}

// currentHolder returns the single holder of a capacity-1 gate.
func currentHolder(g *Gate) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.holders {
		return id
	}
	return ""
}

func TestGate_NewArrivalNeverJumpsQueue(t *testing.T) {
	g, err := New(1)
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Acquire(context.Background(), "holder"); err != nil {
		t.Fatal(err)
	}

	admitted := make(chan string, 2)
	go func() {
		_ = g.Acquire(context.Background(), "first")
		admitted <- "first"
	}()
	waitFor(t, time.Second, func() bool { return g.Waiting() == 1 }, "first queued")

	// Free the slot and immediately race a fresh acquirer against the queue.
	if err := g.Release("holder"); err != nil {
		t.Fatal(err)
	}
	go func() {
		_ = g.Acquire(context.Background(), "second")
		admitted <- "second"
	}()

	if got := <-admitted; got != "first" {
		t.Fatalf("queued waiter lost its slot to a new arrival")
	}
}

func TestGate_AcquireCancelled(t *testing.T) {
	g, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Acquire(context.Background(), "holder"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Acquire(ctx, "waiter")
	}()
	waitFor(t, time.Second, func() bool { return g.Waiting() == 1 }, "waiter queued")

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled acquire did not return")
	}

	if g.Waiting() != 0 {
		t.Fatalf("cancelled waiter still queued")
	}
	// The slot must still work for others.
	if err := g.Release("holder"); err != nil {
		t.Fatal(err)
	}
	if err := g.Acquire(context.Background(), "next"); err != nil {
		t.Fatal(err)
	}
}

func TestGate_ForceRelease(t *testing.T) {
	g, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Acquire(context.Background(), "dead"); err != nil {
		t.Fatal(err)
	}

	admitted := make(chan struct{})
	go func() {
		if err := g.Acquire(context.Background(), "live"); err == nil {
			close(admitted)
		}
	}()
	waitFor(t, time.Second, func() bool { return g.Waiting() == 1 }, "live queued")

	if !g.ForceRelease("dead") {
		t.Fatal("force release reported no permit held")
	}
	select {
	case <-admitted:
	case <-time.After(time.Second):
		t.Fatal("waiter not admitted after force release")
	}
	if g.ForceRelease("dead") {
		t.Fatal("double force release reported a permit")
	}
}

func TestGate_ReleaseWithoutHold(t *testing.T) {
	g, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Release("nobody"); err != ErrNotHeld {
		t.Fatalf("expected ErrNotHeld, got %v", err)
	}
}

func TestGate_Stats(t *testing.T) {
	g, err := New(1)
	if err != nil {
		t.Fatal(err)
	}

	_ = g.Acquire(context.Background(), "a")
	done := make(chan struct{})
	go func() {
		_ = g.Acquire(context.Background(), "b")
		close(done)
	}()
	waitFor(t, time.Second, func() bool { return g.Waiting() == 1 }, "b queued")
	time.Sleep(10 * time.Millisecond)
	_ = g.Release("a")
	<-done

	stats := g.Snapshot()
	if stats.Acquisitions != 2 {
		t.Fatalf("expected 2 acquisitions, got %d", stats.Acquisitions)
	}
	if stats.TotalWait <= 0 || stats.AvgWait() <= 0 {
		t.Fatalf("expected positive wait time, got %v", stats.TotalWait)
	}
	if stats.PeakWaiting != 1 {
		t.Fatalf("expected peak waiting 1, got %d", stats.PeakWaiting)
	}
}
