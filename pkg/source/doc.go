// Package source implements the publishing side of a beacon fabric.
//
// A Source has a stable name and a set of subscribed sinks. Each subscriber
// owns a retry queue that is created and removed together with it. Sending
// a notification never blocks on the network: the notification is appended
// to every subscriber's outbox and a per-subscriber drain task is handed to
// the dispatch pool. A drain delivers one notification at a time in send
// order. Before each delivery the subscriber's retry queue is flushed
// oldest-first; if the flush stops at a failure, the new notification is
// queued behind the ones still waiting, so a subscriber never sees gaps or
// reordering. Delivery failures are logged and absorbed, never returned.
//
// A sink that reconnects with its previous id replaces its handle and has
// its retry queue flushed before Register returns.
//
//	clock := source.New[time.Time]("Clock", source.WithTransport(tr))
//	if err := clock.Bind(ctx, "localhost", lookup.DefaultPort); err != nil {
//		return err
//	}
//	defer clock.Close(context.Background())
//	_ = clock.Send(ctx, time.Now())
//
// Bind registers the source with the Directory. When no Directory is
// running and the registry is local, the source binds itself directly under
// its name instead; sinks can still connect by name but will not see it in
// directory listings.
package source
