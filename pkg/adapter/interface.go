package adapter

import "context"

// Handle is the opaque live resource returned by a driver's Start.
// It may be a *Future when the driver connects asynchronously.
type Handle = any

// Driver represents a backend technology adapter.
// Each backend (PostgreSQL, Redis, S3, etc.) must implement this interface.
type Driver interface {
	// Label returns the human readable driver name
	Label() string

	// Configure validates cfg and returns the canonical config the connection will use.
	// It may fill defaults. The returned config is stored by the datastore.
	Configure(cfg Config) (Config, error)

	// Start creates the connection handle for a configured connection.
	// Drivers should avoid blocking on the network when the client library allows it.
	Start(ctx context.Context, cfg Config) (Handle, error)
}

// Integrator is implemented by drivers that route signals of a live handle
// (errors, timeouts, reconnects) into the owning datastore.
// Integrate is called exactly once per successful Start.
type Integrator interface {
	Integrate(h Handle, d Diagnostics)
}

// Ender is implemented by drivers that need to release a handle explicitly.
type Ender interface {
	End(ctx context.Context, h Handle) error
}

// Pinger is implemented by drivers that can verify a handle is usable.
type Pinger interface {
	Ping(ctx context.Context, h Handle) error
}

// Diagnostics receives connection-level errors and events.
// Recording is purely observational and never interrupts the connection.
type Diagnostics interface {
	AddError(err error)
	AddEvent(event any)
}
