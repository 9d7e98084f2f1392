package producer

import "errors"

var (
	ErrInvalidInterval = errors.New("producer: interval must be positive")
	ErrNilStep         = errors.New("producer: nil step")
	ErrStepPanicked    = errors.New("producer: step panicked")
	ErrTooManyFailures = errors.New("producer: too many consecutive failures")
	ErrNoFrames        = errors.New("producer: no frames")
)
