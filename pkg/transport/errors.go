package transport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the name is not bound: the service is not running.
	ErrNotFound = errors.New("transport: not found")

	// ErrUnreachable means the peer could not be contacted.
	ErrUnreachable = errors.New("transport: peer unreachable")

	// ErrRejected means the peer answered and refused the request.
	ErrRejected = errors.New("transport: request rejected")

	// ErrNotRegistered is returned when unregistering an unknown subscriber.
	ErrNotRegistered = errors.New("transport: subscriber not registered")

	// ErrNotExported is returned by AddressOf for local objects the transport does not serve.
	ErrNotExported = errors.New("transport: handle not exported")

	// ErrWrongKind is returned when an address points at a different kind of object.
	ErrWrongKind = errors.New("transport: address serves a different kind of object")

	// ErrClosed is returned by components that were closed.
	ErrClosed = errors.New("transport: closed")
)

// ConnectFailure reports that a registry, directory or source could not be
// resolved or refused the caller.
type ConnectFailure struct {
	// Target is what the caller tried to reach, e.g. "Directory" or "localhost:1099".
	Target string
	Err    error
}

func (e *ConnectFailure) Error() string {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("%s is not running", e.Target)
	case errors.Is(e.Err, ErrRejected):
		return fmt.Sprintf("%s rejected the connection: %v", e.Target, e.Err)
	case errors.Is(e.Err, ErrUnreachable):
		return fmt.Sprintf("%s is unreachable: %v", e.Target, e.Err)
	default:
		return fmt.Sprintf("cannot connect to %s: %v", e.Target, e.Err)
	}
}

func (e *ConnectFailure) Unwrap() error { return e.Err }

// NotFound reports whether the target is simply not running.
func (e *ConnectFailure) NotFound() bool { return errors.Is(e.Err, ErrNotFound) }

// RegistrationFailure reports that a source could not take a new subscriber.
type RegistrationFailure struct {
	Source string
	Err    error
}

func (e *RegistrationFailure) Error() string {
	return fmt.Sprintf("registration with %s failed: %v", e.Source, e.Err)
}

func (e *RegistrationFailure) Unwrap() error { return e.Err }

// DeliveryFailure reports that one subscriber could not be reached on one attempt.
type DeliveryFailure struct {
	Source       string
	SubscriberID uuid.UUID
	Err          error
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("delivery from %s to %s failed: %v", e.Source, e.SubscriberID, e.Err)
}

func (e *DeliveryFailure) Unwrap() error { return e.Err }

// IsNotFound reports whether err means "not running".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConnectFailure reports whether err is or wraps a *ConnectFailure.
func IsConnectFailure(err error) bool {
	var cf *ConnectFailure
	return errors.As(err, &cf)
}
