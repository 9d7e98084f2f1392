package dispatch

import "errors"

var (
	// ErrPoolClosed is returned by Schedule once Shutdown has started.
	ErrPoolClosed = errors.New("dispatch: pool is shut down")

	// ErrNilTask is returned when a nil task is submitted or scheduled.
	ErrNilTask = errors.New("dispatch: nil task")

	// ErrCancelled is reported by a Scheduled handle cancelled before it ran.
	ErrCancelled = errors.New("dispatch: scheduled task cancelled")

	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("dispatch: task panicked")
)
