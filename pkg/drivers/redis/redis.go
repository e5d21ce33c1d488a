// Package redis is the Redis driver, backed by go-redis. A single address
// yields a plain client, several addresses a cluster client.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.Redis)

// DefaultPrefix is prepended to keys built with Key when no prefix is configured.
const DefaultPrefix = "app"

type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.Redis, cfg)
	if err != nil {
		return nil, err
	}
	// redis://host/2 selects database 2
	if !cfg.Has("db") && cfg.Has("database") {
		cfg["db"] = cfg.Int("database", 0)
	}
	cfg = cfg.WithDefaults(adapter.Config{"prefix": DefaultPrefix, "db": 0})

	if db := cfg.Int("db", 0); db < 0 || db > 15 {
		return nil, adapter.NewConfigurationError(Label, "db", "must be between 0 and 15")
	}
	return cfg, nil
}

// Options builds the go-redis options for cfg. The "addrs" key takes
// precedence over host and port.
func Options(cfg adapter.Config) *redis.UniversalOptions {
	addrs := cfg.Strings("addrs")
	if len(addrs) == 0 {
		addrs = []string{dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))}
	}
	opts := &redis.UniversalOptions{
		Addrs:       addrs,
		Username:    cfg.String("user", ""),
		Password:    cfg.String("password", ""),
		DB:          cfg.Int("db", 0),
		ClientName:  cfg.String("client_name", ""),
		DialTimeout: cfg.Duration("connect_timeout", 0),
	}
	if cfg.Bool("ssl", false) {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// Key prefixes key with the configured prefix.
func Key(cfg adapter.Config, key string) string {
	return cfg.String("prefix", DefaultPrefix) + ":" + key
}

// Start builds the client. go-redis dials on first use.
func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	client := redis.NewUniversalClient(Options(cfg))

	sink := &adapter.Sink{}
	client.AddHook(hook{sink: sink})

	d.sinks.Track(client, sink)
	return client, nil
}

// Integrate routes command errors and timeouts into diag.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	client, ok := h.(redis.UniversalClient)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)
	return client.Close()
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	client, ok := h.(redis.UniversalClient)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return client.Ping(ctx).Err()
}

// hook reports failures of dials and commands. A missing key is not a failure.
type hook struct {
	sink *adapter.Sink
}

func (h hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		h.report("dial "+addr, err)
		return conn, err
	}
}

func (h hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		h.report(cmd.Name(), err)
		return err
	}
}

func (h hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		h.report("pipeline "+strings.Join(names, ","), err)
		return err
	}
}

func (h hook) report(op string, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		h.sink.AddEvent(adapter.NewEvent(Label, "timeout", op))
		return
	}
	h.sink.AddError(err)
}
