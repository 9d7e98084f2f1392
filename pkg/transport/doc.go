// Package transport defines the handles beacon components exchange and the
// errors every transport reports.
//
// A SinkHandle receives notifications, a SourceHandle accepts sink
// registrations and a DirectoryHandle additionally tracks running sources.
// Local objects (source.Source, sink.Sink, directory.Directory) implement
// these interfaces directly; a Transport produces stubs implementing the
// same interfaces for objects living at a remote address. Handles passed as
// arguments through a stub are translated to addresses and back, so the
// receiving side always holds a stub it can call later.
//
// Two transports ship with beacon: memnet (in-process, with a switch to make
// any address unreachable) and httprpc (JSON over HTTP, routed with chi).
//
// # Errors
//
// Failures surfaced to callers of bind and connect operations are
// *ConnectFailure or *RegistrationFailure. Delivery problems are
// *DeliveryFailure and are only logged by sources. Transports wrap the
// sentinels below so callers can tell "not running" (ErrNotFound,
// ErrUnreachable) from "refused" (ErrRejected).
package transport
