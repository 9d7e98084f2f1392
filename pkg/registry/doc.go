// Package registry is the bare name service of a beacon fabric: a flat map
// from well-known names ("Directory", "Clock", ...) to transport addresses.
//
// The Directory keeps its own bindings and the bindings of every source it
// proxies in a Registry, and sources fall back to binding themselves
// directly when no directory is running. Two implementations are provided:
// Memory for a single process and Redis for bindings shared by several
// processes.
package registry
