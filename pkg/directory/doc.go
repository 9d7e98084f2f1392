// Package directory implements the rendezvous point of a beacon fabric.
//
// A Directory is itself a source, named lookup.DirectoryName, whose
// notifications are the list of running sources. Sources register with it
// through RegisterSource; the Directory rebinds their names in the bare
// registry so sinks can resolve them, and broadcasts the new list to every
// subscribed sink. A sink that registers receives the current list right
// away instead of waiting for the next change.
//
// Mutations and the broadcasts they cause are committed under one lock, so
// the order in which sinks observe listings matches the order of the
// mutations.
//
//	dir, err := directory.New(reg, directory.WithTransport(tr))
//	if err != nil {
//		return err
//	}
//	if err := dir.Bind(ctx); err != nil {
//		return err
//	}
//	adopted, _ := dir.Adopt(ctx)
//
// Adopt picks up sources that bound themselves directly while no Directory
// was running. It does not check whether they are still alive.
package directory
