package hopper

import (
	"errors"
	"fmt"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

// Registry errors
var (
	// ErrMissingArgument is returned by UseDriver for an empty name or nil driver
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidAdapter is returned when a driver lacks configure or start
	ErrInvalidAdapter = adapter.ErrInvalidAdapter

	// ErrMissingName is returned by Load without a connection name
	ErrMissingName = errors.New("cannot create a connection without a name")

	// ErrMissingConfig is returned by Load without a config
	ErrMissingConfig = errors.New("cannot set up a connection without a config")

	// ErrMissingDriver is returned by Load when the config names no driver
	ErrMissingDriver = errors.New("cannot create a connection without a driver")

	// ErrUnknownDriver is returned by Load when the driver is not registered
	ErrUnknownDriver = errors.New("driver does not exist")
)

// RegistryError adds the operation and the driver or connection name to a registry error.
type RegistryError struct {
	Op    string
	Name  string
	Cause error
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("hopper %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("hopper %s %q: %v", e.Op, e.Name, e.Cause)
}

// Unwrap returns the underlying error.
func (e *RegistryError) Unwrap() error {
	return e.Cause
}

func newError(op, name string, cause error) *RegistryError {
	return &RegistryError{Op: op, Name: name, Cause: cause}
}
