package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// SubscriberID records a sink identifier under the key "subscriber_id".
// If id is nil, it returns an empty Attr.
func SubscriberID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	if s, ok := id.(interface{ String() string }); ok {
		return slog.String("subscriber_id", s.String())
	}
	return slog.Any("subscriber_id", id)
}

// Source records the name of a notification source under the key "source".
func Source(name string) slog.Attr {
	return slog.String("source", name)
}

// Origin records the origin carried by a notification under the key "origin".
func Origin(name string) slog.Attr {
	return slog.String("origin", name)
}

// Address records a transport address under the key "address".
func Address(addr string) slog.Attr {
	return slog.String("address", addr)
}

// Priority records a notification priority under the key "priority".
func Priority(p any) slog.Attr {
	return slog.Any("priority", p)
}

// QueueLen records the length of a retry queue under the key "queue_len".
func QueueLen(n int) slog.Attr {
	return slog.Int("queue_len", n)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Peer records the remote end of an inbound call under the key "peer".
func Peer(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("peer", addr)
}
