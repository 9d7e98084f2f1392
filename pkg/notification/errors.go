package notification

import "errors"

var (
	// ErrEmptyOrigin is returned when a notification is built without an origin.
	ErrEmptyOrigin = errors.New("notification: origin cannot be empty")

	// ErrInvalidPriority is returned when a priority name or value is unknown.
	ErrInvalidPriority = errors.New("notification: invalid priority")

	// ErrEncode is returned when a payload cannot be marshaled.
	ErrEncode = errors.New("notification: failed to encode payload")

	// ErrDecode is returned when an envelope payload does not match the requested type.
	ErrDecode = errors.New("notification: failed to decode payload")
)
