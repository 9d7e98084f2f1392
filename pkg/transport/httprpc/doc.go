// Package httprpc carries the beacon handle contracts over HTTP with JSON bodies.
//
// A Node is both sides of the wire. On the server side it exposes local
// objects on a chi router:
//
//	GET    /healthz
//	GET    /registry                          list names
//	GET    /registry/{name}                   lookup
//	POST   /registry/{name}                   bind
//	PUT    /registry/{name}                   rebind
//	DELETE /registry/{name}                   unbind
//	POST   /sources/{id}/subscribers          register a sink
//	DELETE /sources/{id}/subscribers/{sid}    unregister a sink
//	POST   /directories/{id}/subscribers      register a sink with a directory
//	DELETE /directories/{id}/subscribers/{sid}
//	POST   /directories/{id}/sources          register a source
//	DELETE /directories/{id}/sources/{name}   unregister a source
//	POST   /sinks/{id}/notify                 deliver an envelope
//
// On the client side it implements transport.Transport: dialed handles are
// small stubs kept in a bounded cache, and local objects passed as arguments
// are exported on first use, so a sink handed to a remote source becomes
// reachable at http://host:port/sinks/{id}.
//
// Errors cross the wire as a JSON error detail with a stable code and are
// mapped back to the registry and transport sentinels. Network failures
// become transport.ErrUnreachable; objects no longer exported answer 410 and
// are reported the same way.
//
//	node := httprpc.NewNode(httprpc.WithAddr(":1099"))
//	node.ServeRegistry(registry.NewMemory())
//	if _, err := node.Listen(); err != nil {
//		return err
//	}
//	go node.Run(ctx)
package httprpc
