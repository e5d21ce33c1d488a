package adapter

import "context"

// Funcs assembles a Driver from plain functions.
// ConfigureFunc and StartFunc are required; the rest are optional capabilities.
type Funcs struct {
	Name          string
	ConfigureFunc func(cfg Config) (Config, error)
	StartFunc     func(ctx context.Context, cfg Config) (Handle, error)
	IntegrateFunc func(h Handle, d Diagnostics)
	EndFunc       func(ctx context.Context, h Handle) error
	PingFunc      func(ctx context.Context, h Handle) error
}

// Label returns the driver name, "funcs" when unset or nil.
func (f *Funcs) Label() string {
	if f == nil || f.Name == "" {
		return "funcs"
	}
	return f.Name
}

func (f *Funcs) Configure(cfg Config) (Config, error) {
	return f.ConfigureFunc(cfg)
}

func (f *Funcs) Start(ctx context.Context, cfg Config) (Handle, error) {
	return f.StartFunc(ctx, cfg)
}

func (f *Funcs) Integrate(h Handle, d Diagnostics) {
	if f.IntegrateFunc != nil {
		f.IntegrateFunc(h, d)
	}
}

func (f *Funcs) End(ctx context.Context, h Handle) error {
	if f.EndFunc == nil {
		return nil
	}
	return f.EndFunc(ctx, h)
}

func (f *Funcs) Ping(ctx context.Context, h Handle) error {
	if f.PingFunc == nil {
		return ErrOperationNotSupported
	}
	return f.PingFunc(ctx, h)
}
