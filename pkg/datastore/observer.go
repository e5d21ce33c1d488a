package datastore

import "time"

// EventChangedState is the event name carried by every StateChange.
const EventChangedState = "changed.state"

// StateChange describes a status update.
type StateChange struct {
	Event      string
	Name       string
	Driver     string
	Status     Status
	ErrorCount int
	At         time.Time
}

// Observer receives status updates. Observe calls are synchronous, made by the
// goroutine that changed the status, so observers must not block.
type Observer interface {
	Observe(change StateChange)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(change StateChange)

func (f ObserverFunc) Observe(change StateChange) {
	f(change)
}

type observerEntry struct {
	id       uint64
	observer Observer
}
