// Package cassandra is the Cassandra and ScyllaDB driver. gocql dials while
// creating a session, so Start returns an *adapter.Future resolving to a
// *gocql.Session.
package cassandra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.Cassandra)

type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.Cassandra, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults(adapter.Config{"consistency": "QUORUM"})

	if _, err := gocql.ParseConsistencyWrapper(cfg.String("consistency", "")); err != nil {
		return nil, adapter.NewConfigurationError(Label, "consistency", err.Error())
	}
	return cfg, nil
}

// Cluster builds the gocql cluster config. "hosts" lists contact points and
// takes precedence over host.
func Cluster(cfg adapter.Config) *gocql.ClusterConfig {
	hosts := cfg.Strings("hosts")
	if len(hosts) == 0 {
		hosts = []string{cfg.String("host", "")}
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Port = cfg.Int("port", 9042)
	cluster.Keyspace = cfg.String("database", "")
	cluster.Consistency, _ = gocql.ParseConsistencyWrapper(cfg.String("consistency", "QUORUM"))
	cluster.Timeout = cfg.Duration("timeout", 10*time.Second)
	cluster.ConnectTimeout = cfg.Duration("connect_timeout", 10*time.Second)

	if user := cfg.String("user", ""); user != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: user,
			Password: cfg.String("password", ""),
		}
	}
	if cfg.Bool("ssl", false) {
		cluster.SslOpts = &gocql.SslOptions{EnableHostVerification: !cfg.Bool("tls_skip_verify", false)}
	}
	return cluster
}

// Start creates the session in the background.
func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	sink := &adapter.Sink{}

	cluster := Cluster(cfg)
	cluster.ConnectObserver = observer{sink: sink}
	cluster.QueryObserver = observer{sink: sink}

	future := adapter.Go(func() (any, error) {
		session, err := cluster.CreateSession()
		if err != nil {
			err = adapter.NewConnectionError(Label, cfg.String("host", ""), err)
			sink.AddError(err)
			return nil, err
		}
		return session, nil
	})

	d.sinks.Track(future, sink)
	return future, nil
}

// Integrate routes failed connects and queries into diag.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

// End waits for a pending session, then closes it.
func (d *Driver) End(ctx context.Context, h adapter.Handle) error {
	future, ok := h.(*adapter.Future)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)

	v, err := future.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return nil
	}
	v.(*gocql.Session).Close()
	return nil
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	session, err := Session(ctx, h)
	if err != nil {
		return err
	}

	var version string
	return session.Query("SELECT release_version FROM system.local").WithContext(ctx).Scan(&version)
}

// Session waits for the session behind a handle returned by Start.
func Session(ctx context.Context, h adapter.Handle) (*gocql.Session, error) {
	future, ok := h.(*adapter.Future)
	if !ok {
		return nil, adapter.UnexpectedHandle(Label, h)
	}
	v, err := future.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return v.(*gocql.Session), nil
}

type observer struct {
	sink *adapter.Sink
}

func (o observer) ObserveConnect(c gocql.ObservedConnect) {
	if c.Err == nil {
		return
	}
	detail := "connect"
	if c.Host != nil {
		detail = "connect " + c.Host.ConnectAddress().String()
	}
	o.report(detail, c.Err)
}

func (o observer) ObserveQuery(_ context.Context, q gocql.ObservedQuery) {
	if q.Err == nil {
		return
	}
	o.report(q.Statement, q.Err)
}

func (o observer) report(detail string, err error) {
	if errors.Is(err, gocql.ErrTimeoutNoResponse) || errors.Is(err, context.DeadlineExceeded) {
		o.sink.AddEvent(adapter.NewEvent(Label, "timeout", detail))
		return
	}
	o.sink.AddError(fmt.Errorf("%s: %w", detail, err))
}
