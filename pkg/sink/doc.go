// Package sink implements the subscribing side of a beacon fabric.
//
// A Sink has one id for its whole lifetime (restored with WithID to
// reconnect as the same subscriber after a restart) and routes every
// incoming notification to the callback registered for its origin:
//
//	s := sink.New(sink.WithTransport(tr), sink.WithID(savedID))
//	if err := s.ConnectDirectory(ctx, "localhost", lookup.DefaultPort); err != nil {
//		return err
//	}
//	err := s.ConnectSource(ctx, "Clock", sink.Typed(func(ctx context.Context, n notification.Notification[time.Time]) error {
//		fmt.Println(n.Payload())
//		return nil
//	}))
//
// Notifications without a callback are logged at debug level and dropped.
// Callback errors and panics are logged and never reach the source.
//
// While connected to the Directory, the sink keeps the latest source
// listing: Sources returns it and Watch streams every new one. A slow
// watcher only ever sees the most recent listing.
package sink
