package ghost

import (
	"fmt"
	"sync/atomic"
)

// baseNames cycles through the classic ghost roster before falling back to
// numbered names.
var baseNames = []string{"Blinky", "Pinky", "Inky", "Clyde", "Sue", "Funky"}

var nameCounter atomic.Int64

// nextName returns a friendly display name for a new ghost. Names are unique
// within a process run.
func nextName() string {
	n := nameCounter.Add(1) - 1
	if int(n) < len(baseNames) {
		return baseNames[n]
	}
	return fmt.Sprintf("Ghost-%d", n+1)
}
