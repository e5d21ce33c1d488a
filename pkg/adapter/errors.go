package adapter

import (
	"errors"
	"fmt"
)

// Standard adapter errors
var (
	// ErrMissingDriver is returned when a nil driver is bound
	ErrMissingDriver = errors.New("missing driver")

	// ErrInvalidAdapter is returned when a driver lacks a required operation
	ErrInvalidAdapter = errors.New("invalid adapter")

	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConnectionClosed is returned when a handle has already been released
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrOperationNotSupported is returned when a driver lacks an optional capability
	ErrOperationNotSupported = errors.New("operation not supported by this driver")

	// ErrUnexpectedHandle is returned when a driver receives a handle it did not create
	ErrUnexpectedHandle = errors.New("unexpected handle type")
)

// DriverError wraps driver-specific errors with additional context.
type DriverError struct {
	Driver    string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Driver, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DriverError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error.
func (e *DriverError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewDriverError creates a new DriverError.
func NewDriverError(driver, operation string, cause error) *DriverError {
	return &DriverError{
		Driver:    driver,
		Operation: operation,
		Cause:     cause,
	}
}

// ConnectionError is returned when a connection error occurs.
type ConnectionError struct {
	Driver  string
	Address string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s at %s: %v", e.Driver, e.Address, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(driver, address string, cause error) *ConnectionError {
	return &ConnectionError{
		Driver:  driver,
		Address: address,
		Cause:   cause,
	}
}

// ConfigurationError is returned when a connection config is rejected.
type ConfigurationError struct {
	Driver string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.Driver, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.Driver, e.Reason)
}

// Is checks if the error is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(target, ErrInvalidConfiguration)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(driver, field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Driver: driver,
		Field:  field,
		Reason: reason,
	}
}

// WrapError wraps an error with driver context.
// If the error is already a DriverError, it returns it as-is.
func WrapError(driver, operation string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var drvErr *DriverError
	if errors.As(err, &drvErr) {
		return err
	}

	return NewDriverError(driver, operation, err)
}

// UnexpectedHandle reports a handle of the wrong type passed to a driver.
func UnexpectedHandle(driver string, h Handle) error {
	return NewDriverError(driver, "handle", fmt.Errorf("%w: %T", ErrUnexpectedHandle, h))
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsUnsupported checks if an error indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrOperationNotSupported)
}
