// Package datastore owns the lifecycle of a single named connection.
//
// A Datastore pairs a bound driver with its configuration, the live handle the
// driver produced, a status and bounded histories of the errors and events the
// driver reported while the connection was live.
//
// # Lifecycle
//
//	cold ──Setup──> configured ──Open──> opened ──End──> closed
//	                                       │
//	                                    Reopen: reopening → closed → opened
//
// Setup may be called again from any state. The errored status is never set by
// the datastore itself; drivers and operators set it with SetStatus.
//
// # Observers
//
// Every valid SetStatus call, including one that leaves the status unchanged,
// delivers a StateChange to each registered Observer:
//
//	cancel := store.Observe(datastore.ObserverFunc(func(c datastore.StateChange) {
//	    log.Printf("%s is now %s", c.Name, c.Status)
//	}))
//	defer cancel()
package datastore
