// Package nats is the NATS driver.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.NATS)

type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.NATS, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults(adapter.Config{"max_reconnects": nats.DefaultMaxReconnect})

	if cfg.Has("token") && cfg.Has("user") {
		return nil, adapter.NewConfigurationError(Label, "token", "cannot be combined with user")
	}
	return cfg, nil
}

// ServerURL returns the nats:// URL of cfg.
func ServerURL(cfg adapter.Config) string {
	scheme := "nats://"
	if cfg.Bool("ssl", false) {
		scheme = "tls://"
	}
	return scheme + dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))
}

// Options builds the connection options. Handlers report into sink.
func Options(cfg adapter.Config, sink *adapter.Sink) []nats.Option {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.Int("max_reconnects", nats.DefaultMaxReconnect)),
		nats.Timeout(cfg.Duration("connect_timeout", nats.DefaultTimeout)),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			if sub != nil {
				err = fmt.Errorf("subscription %s: %w", sub.Subject, err)
			}
			sink.AddError(err)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			detail := ""
			if err != nil {
				detail = err.Error()
			}
			sink.AddEvent(adapter.NewEvent(Label, "disconnected", detail))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			sink.AddEvent(adapter.NewEvent(Label, "reconnected", nc.ConnectedUrlRedacted()))
		}),
	}
	if name := cfg.String("name", ""); name != "" {
		opts = append(opts, nats.Name(name))
	}
	if user := cfg.String("user", ""); user != "" {
		opts = append(opts, nats.UserInfo(user, cfg.String("password", "")))
	}
	if token := cfg.String("token", ""); token != "" {
		opts = append(opts, nats.Token(token))
	}
	return opts
}

// Start connects. With retry on failed connect an unreachable server does not
// fail Start; the client keeps reconnecting in the background.
func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	sink := &adapter.Sink{}

	nc, err := nats.Connect(ServerURL(cfg), Options(cfg, sink)...)
	if err != nil {
		return nil, adapter.NewConnectionError(Label, cfg.String("host", ""), err)
	}

	d.sinks.Track(nc, sink)
	return nc, nil
}

// Integrate routes async errors, disconnects and reconnects into diag.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

// End drains subscriptions and pending publishes before closing. A connection
// that never connected is closed directly.
func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	nc, ok := h.(*nats.Conn)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)

	if !nc.IsConnected() {
		nc.Close()
		return nil
	}
	return nc.Drain()
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	nc, ok := h.(*nats.Conn)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	if status := nc.Status(); status != nats.CONNECTED {
		return adapter.NewConnectionError(Label, nc.ConnectedUrlRedacted(), fmt.Errorf("connection is %s", status))
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return nc.FlushWithContext(ctx)
}
