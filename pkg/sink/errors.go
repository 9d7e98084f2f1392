package sink

import "errors"

var (
	// ErrNotResolved is returned by ConnectSource before any registry was resolved.
	ErrNotResolved = errors.New("sink: no registry resolved, connect to a directory or registry first")

	// ErrNoTransport is returned by connect operations when no transport was configured.
	ErrNoTransport = errors.New("sink: no transport configured")

	// ErrEmptySourceName is returned by ConnectSource for an empty name.
	ErrEmptySourceName = errors.New("sink: empty source name")

	// ErrNilCallback is returned by ConnectSource for a nil callback.
	ErrNilCallback = errors.New("sink: nil callback")

	// ErrCallbackPanicked wraps a panic raised by a callback.
	ErrCallbackPanicked = errors.New("sink: callback panicked")
)
