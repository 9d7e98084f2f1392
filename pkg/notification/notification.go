package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Notification is an immutable value produced by a source. Its fields are set
// once by New and exposed through accessors only.
type Notification[T any] struct {
	origin    string
	payload   T
	priority  Priority
	createdAt time.Time
}

// Envelope is the transport form of a notification: the payload stays encoded
// until the receiving side decides which type it expects.
type Envelope = Notification[json.RawMessage]

// Option configures a notification under construction.
type Option func(*options)

type options struct {
	priority Priority
	now      func() time.Time
}

// WithPriority sets the notification priority. Invalid values are ignored.
func WithPriority(p Priority) Option {
	return func(o *options) {
		if p.Valid() {
			o.priority = p
		}
	}
}

// WithClock overrides the time source used for the creation timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds a notification stamped with the current time.
// The priority defaults to Normal.
func New[T any](origin string, payload T, opts ...Option) (Notification[T], error) {
	if origin == "" {
		return Notification[T]{}, ErrEmptyOrigin
	}

	o := &options{priority: Normal, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return Notification[T]{
		origin:    origin,
		payload:   payload,
		priority:  o.priority,
		createdAt: o.now(),
	}, nil
}

// Origin returns the name of the publishing source.
func (n Notification[T]) Origin() string { return n.origin }

// Payload returns the carried value.
func (n Notification[T]) Payload() T { return n.payload }

// Priority returns the notification priority.
func (n Notification[T]) Priority() Priority { return n.priority }

// CreatedAt returns the construction timestamp.
func (n Notification[T]) CreatedAt() time.Time { return n.createdAt }

// IsZero reports whether n was not produced by New.
func (n Notification[T]) IsZero() bool { return n.origin == "" }

func (n Notification[T]) String() string {
	return fmt.Sprintf("notification{origin: %s, priority: %s, created_at: %s}",
		n.origin, n.priority, n.createdAt.Format(time.RFC3339Nano))
}

// Encode marshals the payload and returns the envelope carrying it.
// Origin, priority and timestamp are preserved unchanged.
func (n Notification[T]) Encode() (Envelope, error) {
	raw, err := json.Marshal(n.payload)
	if err != nil {
		return Envelope{}, errors.Join(ErrEncode, err)
	}
	return Envelope{
		origin:    n.origin,
		payload:   raw,
		priority:  n.priority,
		createdAt: n.createdAt,
	}, nil
}

// Decode unmarshals an envelope payload into T.
func Decode[T any](env Envelope) (Notification[T], error) {
	var payload T
	if len(env.payload) > 0 {
		if err := json.Unmarshal(env.payload, &payload); err != nil {
			return Notification[T]{}, errors.Join(ErrDecode, err)
		}
	}
	return Notification[T]{
		origin:    env.origin,
		payload:   payload,
		priority:  env.priority,
		createdAt: env.createdAt,
	}, nil
}

type wireNotification[T any] struct {
	Origin    string    `json:"origin"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	Payload   T         `json:"payload"`
}

func (n Notification[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireNotification[T]{
		Origin:    n.origin,
		Priority:  n.priority,
		CreatedAt: n.createdAt,
		Payload:   n.payload,
	})
}

// UnmarshalJSON restores a notification received from a peer.
// It is the only way besides New to populate the fields.
func (n *Notification[T]) UnmarshalJSON(data []byte) error {
	var w wireNotification[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Origin == "" {
		return ErrEmptyOrigin
	}
	*n = Notification[T]{
		origin:    w.Origin,
		payload:   w.Payload,
		priority:  w.Priority,
		createdAt: w.CreatedAt,
	}
	return nil
}
