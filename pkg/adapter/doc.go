// Package adapter defines the contract between the hopper core and the backend
// drivers that create live connections.
//
// This package defines what a driver must provide so that the registry and the
// datastores can manage any backend (SQL databases, caches, search engines,
// object stores, brokers) through one lifecycle.
//
// # Architecture
//
//   - Driver: the required surface (Label, Configure, Start)
//   - Integrator, Ender, Pinger: optional capabilities a driver may add
//   - Binding: a driver whose optional capabilities were resolved once
//   - Funcs: a driver assembled from plain functions
//   - Config: the untyped connection configuration passed through the core
//   - Future: a handle that represents connection work still in flight
//   - Sink: a late-bound Diagnostics target for hooks built before Integrate
//
// # Usage
//
// Drivers are registered with a hopper.Registry under a name:
//
//	reg := hopper.NewRegistry()
//	reg.UseDriver("mock", &adapter.Funcs{
//	    Name:          "mock",
//	    ConfigureFunc: func(c adapter.Config) (adapter.Config, error) { return c, nil },
//	    StartFunc: func(ctx context.Context, c adapter.Config) (adapter.Handle, error) {
//	        return "H", nil
//	    },
//	}, false)
//
// # Error Handling
//
// Errors returned by Configure, Start and End travel back to the caller
// unchanged. Drivers should describe their own failures with ConfigurationError,
// ConnectionError or DriverError so callers can classify them:
//
//	if adapter.IsConfigurationError(err) {
//	    // fix the connection config
//	}
//
// Errors a driver observes on a live connection are not returned anywhere;
// they are reported through Diagnostics.AddError.
package adapter
