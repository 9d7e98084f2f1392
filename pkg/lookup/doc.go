// Package lookup resolves the well-known names of a beacon fabric.
//
// Resolve connects to the name service at host:port and probes it with a
// List call bounded by a short connect timeout, so an absent registry fails
// fast. The returned Client then resolves the Directory and individual
// sources by name:
//
//	c, err := lookup.Resolve(ctx, tr, "localhost", lookup.DefaultPort)
//	if err != nil {
//		return err // *transport.ConnectFailure
//	}
//	dir, err := c.Directory(ctx)
//
// Every failure is a *transport.ConnectFailure; unbound names wrap
// transport.ErrNotFound.
package lookup
