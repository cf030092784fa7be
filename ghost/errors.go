package ghost

import "errors"

var (
	ErrAlreadyPaused = errors.New("ghost is already paused")
	ErrNotPaused     = errors.New("ghost is not paused")
	ErrTerminal      = errors.New("ghost already reached a terminal state")
)
