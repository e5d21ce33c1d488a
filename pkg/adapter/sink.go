package adapter

import (
	"sync"
	"sync/atomic"
)

// Sink is a Diagnostics that forwards to a target bound later.
// Drivers install a Sink into native client hooks during Start and bind it to
// the owning datastore in Integrate. Signals before Bind are dropped.
type Sink struct {
	target atomic.Pointer[Diagnostics]
}

// Bind sets the target. A nil target detaches the sink.
func (s *Sink) Bind(d Diagnostics) {
	if d == nil {
		s.target.Store(nil)
		return
	}
	s.target.Store(&d)
}

// Bound reports whether a target is set.
func (s *Sink) Bound() bool {
	return s.target.Load() != nil
}

func (s *Sink) AddError(err error) {
	if t := s.target.Load(); t != nil && err != nil {
		(*t).AddError(err)
	}
}

func (s *Sink) AddEvent(event any) {
	if t := s.target.Load(); t != nil && event != nil {
		(*t).AddEvent(event)
	}
}

// Sinks tracks the Sink created for each live handle of a driver, so that
// Integrate can find the sink Start installed into the native client.
type Sinks struct {
	m sync.Map
}

// Track records sink as the sink of h.
func (s *Sinks) Track(h Handle, sink *Sink) {
	s.m.Store(h, sink)
}

// Bind binds the sink of h to d. It reports whether h is tracked.
func (s *Sinks) Bind(h Handle, d Diagnostics) bool {
	v, ok := s.m.Load(h)
	if !ok {
		return false
	}
	v.(*Sink).Bind(d)
	return true
}

// Release detaches and forgets the sink of h.
func (s *Sinks) Release(h Handle) {
	if v, ok := s.m.LoadAndDelete(h); ok {
		v.(*Sink).Bind(nil)
	}
}
