package datastore

import "errors"

var (
	// ErrInvalidArgument is returned by Setup for an empty name or a nil config
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotOpen is returned by Ping when there is no live handle
	ErrNotOpen = errors.New("datastore is not open")

	// ErrPingUnsupported is returned by Ping when the driver cannot ping
	ErrPingUnsupported = errors.New("driver does not support ping")
)
