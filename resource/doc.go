// Package resource tracks values a host has allocated and still expects to
// get back.
//
// Every value a host hands across the boundary with "release me" semantics
// (a coercion temporary, for instance) is recorded in a Table under a fresh
// Handle. Releasing the value removes the entry. A Table that is not empty at
// the end of a call means something leaked; removing a handle twice is
// reported rather than silently ignored.
//
// # Handle Table
//
// The Table maps integer handles to Go values:
//
//	table := resource.NewTable()
//
//	// Insert a value, get a handle
//	handle := table.Insert(kind, value)
//
//	// Retrieve value by handle
//	value, ok := table.Get(handle)
//
//	// Remove and get value
//	value, ok := table.Remove(handle)
//
// Handles are never reused within a table, so a stale handle cannot remove
// a newer entry.
//
// # Typed Entries
//
// Each entry carries a kind, typically the variant tag it was allocated for:
//
//	value, ok := table.GetTyped(handle, uint32(variant.TypeStr))
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    switch e.Type {
//	    case resource.EventCreated:
//	        log.Printf("handle %d created", e.Handle)
//	    case resource.EventDropped:
//	        log.Printf("handle %d dropped", e.Handle)
//	    }
//	}))
package resource
