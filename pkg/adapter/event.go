package adapter

import (
	"fmt"
	"time"
)

// Event is a connection signal that is not an error, such as a timeout,
// a reconnect or a write stall.
type Event struct {
	Driver string
	Kind   string
	Detail string
	At     time.Time
}

// NewEvent returns an Event stamped with the current time.
func NewEvent(driver, kind, detail string) Event {
	return Event{Driver: driver, Kind: kind, Detail: detail, At: time.Now()}
}

func (e Event) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%s] %s", e.Driver, e.Kind)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Driver, e.Kind, e.Detail)
}
