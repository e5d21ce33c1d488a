// Package hopper keeps every named connection of a process in one place.
//
// A Registry maps driver names to drivers and connection names to datastores.
// Loading a connection is lazy and idempotent: the first Load of a name builds
// and configures its datastore, later loads return the same one.
//
//	reg := hopper.NewRegistry(hopper.WithDrivers(drivers.Defaults()))
//	err := reg.Configure(&hopper.GlobalConfig{
//	    Default: "main",
//	    Connections: map[string]adapter.Config{
//	        "main":  {"driver": "postgres", "database": "app"},
//	        "cache": {"driver": "redis"},
//	    },
//	})
//
//	store, _ := reg.Get("") // the default connection
//	pool, err := store.Open(ctx)
//
// Opening is left to the caller; the registry never opens or retries a
// connection by itself.
package hopper
