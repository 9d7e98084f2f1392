// Package notification defines the unit of data exchanged between sources and
// sinks: an immutable, timestamped, prioritized value with a named origin.
//
// A Notification is generic over its payload. Transports carry the encoded
// form, Envelope, whose payload is raw JSON; sinks decode it back with Decode
// once they know which origin produced it.
//
//	n, err := notification.New("Clock", time.Now(), notification.WithPriority(notification.High))
//	if err != nil {
//		return err
//	}
//
//	env, err := n.Encode()
//	// ... env travels over a transport ...
//	clock, err := notification.Decode[time.Time](env)
//
// Byte payloads such as image frames are opaque to the package and travel as
// base64 strings inside the JSON form.
package notification
