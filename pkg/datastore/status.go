package datastore

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a datastore.
type Status string

const (
	StatusCold       Status = "cold"
	StatusConfigured Status = "configured"
	StatusOpened     Status = "opened"
	StatusClosed     Status = "closed"
	StatusErrored    Status = "errored"
	StatusReopening  Status = "reopening"
)

var statuses = []Status{
	StatusCold,
	StatusConfigured,
	StatusOpened,
	StatusClosed,
	StatusErrored,
	StatusReopening,
}

// Statuses returns every valid status in lifecycle order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a status name, ignoring case and surrounding space.
func ParseStatus(name string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown datastore status %q", name)
	}
	return s, nil
}
