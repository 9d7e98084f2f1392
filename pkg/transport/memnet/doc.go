// Package memnet is an in-process transport.Transport.
//
// A Network assigns "mem://N" addresses to exported objects and hands out
// stubs that reach them through the same interfaces a remote transport
// would. Handles passed to a stub are exported and replaced by stubs on the
// receiving side, so a source holds a stub of each sink and SetOnline can
// make any single object unreachable:
//
//	net := memnet.New()
//	net.ServeRegistry("localhost", 1099, registry.NewMemory())
//	addr, _ := net.Export(mySink)
//	net.SetOnline(addr, false) // deliveries to mySink now fail
//
// It backs the tests of the source, sink and directory packages and the
// single-process demo mode of cmd/beacon.
package memnet
