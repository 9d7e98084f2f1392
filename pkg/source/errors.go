package source

import "errors"

var (
	// ErrEmptyName is returned by New for an unnamed source.
	ErrEmptyName = errors.New("source: empty name")

	// ErrNilSink is returned when registering a nil sink handle.
	ErrNilSink = errors.New("source: nil sink")

	// ErrAlreadyBound is returned by Bind on a bound source.
	ErrAlreadyBound = errors.New("source: already bound")

	// ErrNoTransport is returned by Bind when no transport was configured.
	ErrNoTransport = errors.New("source: no transport configured")

	// ErrDeliveryPanicked wraps a panic raised by a sink handle.
	ErrDeliveryPanicked = errors.New("source: delivery panicked")
)
