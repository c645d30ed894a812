// Package pluginhost implements an in-process, dynamically loaded plugin
// host: it discovers shared libraries, loads them with Go's standard
// library plugin package, extracts metadata, resolves inter-plugin
// dependencies, orders initialization, and supports hot reload with state
// preservation across a load/unload cycle — including re-cascading through
// dependents.
//
// The host is a passive, synchronous service: every method runs on the
// calling goroutine, guarded by a single mutex. It starts no background
// goroutines and owns no worker pool.
package pluginhost
