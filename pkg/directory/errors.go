package directory

import "errors"

var (
	ErrNilRegistry = errors.New("directory: nil registry")
	ErrNoTransport = errors.New("directory: no transport configured")
	ErrInvalidName = errors.New("directory: invalid source name")
	ErrNilSource   = errors.New("directory: nil source handle")
)
