package ghost

import (
	"context"
	"time"
)

// TaskKind distinguishes the two simulated checkpoint workloads.
type TaskKind int

const (
	// TaskCPU busy-computes on the ghost's own goroutine without yielding,
	// except to check for termination between compute slices.
	TaskCPU TaskKind = iota
	// TaskIO suspends the goroutine for the duration without burning CPU.
	TaskIO
)

// String returns the string representation of a task kind.
func (k TaskKind) String() string {
	switch k {
	case TaskCPU:
		return "CPU"
	case TaskIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Task is one ephemeral unit of simulated checkpoint work. It has no identity
// beyond its kind and budgeted duration; the outcome is only the elapsed time.
type Task struct {
	Kind     TaskKind
	Duration time.Duration
}

// cpuSliceSize bounds how long a CPU task computes between termination checks.
const cpuSliceSize = 5 * time.Millisecond

// Execute runs the task to completion or until ctx is cancelled, returning the
// time actually spent. Cancellation mid-task returns ctx.Err(); the caller
// treats that as the expected termination path, not a failure.
func (t Task) Execute(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	switch t.Kind {
	case TaskCPU:
		for time.Since(start) < t.Duration {
			select {
			case <-ctx.Done():
				return time.Since(start), ctx.Err()
			default:
			}
			busySlice(cpuSliceSize)
		}
		return time.Since(start), nil
	default: // TaskIO
		timer := time.NewTimer(t.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			return time.Since(start), nil
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		}
	}
}

// busySlice burns CPU for roughly d by interleaving a prime sieve with an
// iterative fibonacci, the same synthetic workloads the simulation has always
// used for CPU-bound checkpoints.
func busySlice(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		sieveCount(2000)
		fib(40)
	}
}

// sieveCount counts primes up to limit with a sieve of Eratosthenes.
func sieveCount(limit int) int {
	if limit < 2 {
		return 0
	}
	composite := make([]bool, limit+1)
	count := 0
	for p := 2; p <= limit; p++ {
		if composite[p] {
			continue
		}
		count++
		for m := p * p; m <= limit; m += p {
			composite[m] = true
		}
	}
	return count
}

// fib returns the n-th fibonacci number iteratively.
func fib(n int) uint64 {
	var a, b uint64 = 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}
