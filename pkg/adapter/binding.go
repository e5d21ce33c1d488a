package adapter

import (
	"context"
	"fmt"
)

// Binding is a driver whose optional capabilities were resolved once, when it
// was registered. The core calls drivers only through a Binding.
type Binding struct {
	driver     Driver
	integrator Integrator
	ender      Ender
	pinger     Pinger
}

// Bind validates d and resolves its optional capabilities.
func Bind(d Driver) (*Binding, error) {
	if d == nil {
		return nil, ErrMissingDriver
	}

	if f, ok := d.(*Funcs); ok {
		return bindFuncs(f)
	}

	b := &Binding{driver: d}
	if i, ok := d.(Integrator); ok {
		b.integrator = i
	}
	if e, ok := d.(Ender); ok {
		b.ender = e
	}
	if p, ok := d.(Pinger); ok {
		b.pinger = p
	}
	return b, nil
}

// MustBind is like Bind but panics on an invalid driver.
func MustBind(d Driver) *Binding {
	b, err := Bind(d)
	if err != nil {
		panic(err)
	}
	return b
}

// Funcs satisfies every capability interface, so its capabilities are taken
// from the populated fields instead.
func bindFuncs(f *Funcs) (*Binding, error) {
	if f == nil {
		return nil, ErrMissingDriver
	}
	if f.ConfigureFunc == nil {
		return nil, fmt.Errorf("%w: %s has no configure operation", ErrInvalidAdapter, f.Label())
	}
	if f.StartFunc == nil {
		return nil, fmt.Errorf("%w: %s has no start operation", ErrInvalidAdapter, f.Label())
	}

	b := &Binding{driver: f}
	if f.IntegrateFunc != nil {
		b.integrator = f
	}
	if f.EndFunc != nil {
		b.ender = f
	}
	if f.PingFunc != nil {
		b.pinger = f
	}
	return b, nil
}

// Driver returns the bound driver.
func (b *Binding) Driver() Driver { return b.driver }

// Label returns the driver's label.
func (b *Binding) Label() string { return b.driver.Label() }

// Configure delegates to the driver. Errors are returned unchanged.
func (b *Binding) Configure(cfg Config) (Config, error) {
	return b.driver.Configure(cfg)
}

// Start delegates to the driver. Errors are returned unchanged.
func (b *Binding) Start(ctx context.Context, cfg Config) (Handle, error) {
	return b.driver.Start(ctx, cfg)
}

func (b *Binding) CanIntegrate() bool { return b.integrator != nil }
func (b *Binding) CanEnd() bool       { return b.ender != nil }
func (b *Binding) CanPing() bool      { return b.pinger != nil }

// Integrate hands the live handle to the driver's integrate step, if any.
func (b *Binding) Integrate(h Handle, d Diagnostics) {
	if b.integrator != nil {
		b.integrator.Integrate(h, d)
	}
}

// End releases h. It returns ErrOperationNotSupported without the capability.
func (b *Binding) End(ctx context.Context, h Handle) error {
	if b.ender == nil {
		return ErrOperationNotSupported
	}
	return b.ender.End(ctx, h)
}

// Ping checks h. It returns ErrOperationNotSupported without the capability.
func (b *Binding) Ping(ctx context.Context, h Handle) error {
	if b.pinger == nil {
		return ErrOperationNotSupported
	}
	return b.pinger.Ping(ctx, h)
}
