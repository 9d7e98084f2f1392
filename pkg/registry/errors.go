package registry

import "errors"

var (
	// ErrNotBound is returned when a name has no binding.
	ErrNotBound = errors.New("registry: name not bound")

	// ErrAlreadyBound is returned by Bind when the name is taken.
	ErrAlreadyBound = errors.New("registry: name already bound")

	// ErrEmptyName is returned for operations on the empty name.
	ErrEmptyName = errors.New("registry: empty name")

	// ErrEmptyAddress is returned when binding a name to an empty address.
	ErrEmptyAddress = errors.New("registry: empty address")

	// ErrBackend wraps failures of the storage behind a registry.
	ErrBackend = errors.New("registry: backend failure")
)
