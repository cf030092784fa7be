package ghost

// Status is the lifecycle state of a ghost worker.
type Status int

const (
	// Running is the status while the ghost is stepping through the maze.
	Running Status = iota
	// Paused is the status after an external Pause command; stepping is
	// suspended until Resume. Held bottleneck permits are retained.
	Paused
	// Finished is the terminal status reached on the maze exit cell.
	Finished
	// Terminated is the terminal status after an external Terminate command.
	Terminated
)

// String returns the string representation of a status.
func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Finished:
		return "Finished"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the status absorbs all further transitions.
func (s Status) Terminal() bool {
	return s == Finished || s == Terminated
}
