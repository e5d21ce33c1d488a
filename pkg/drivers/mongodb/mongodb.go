// Package mongodb is the MongoDB driver. Start returns an *adapter.Future that
// resolves to a *mongo.Client once the primary answers a ping.
package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.MongoDB)

// DefaultConnectTimeout bounds server selection while the future is pending.
const DefaultConnectTimeout = 10 * time.Second

// pool event types reported as events
const (
	poolCleared       = "ConnectionPoolCleared"
	checkOutFailed    = "ConnectionCheckOutFailed"
	checkOutTimedOut  = "timeout"
	heartbeatFailed   = "heartbeat failed"
	connectionTimeout = "timeout"
)

type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.MongoDB, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Duration("connect_timeout", DefaultConnectTimeout) <= 0 {
		return nil, adapter.NewConfigurationError(Label, "connect_timeout", "must be positive")
	}
	return cfg, nil
}

// URI builds the mongodb connection string for cfg.
func URI(cfg adapter.Config) string {
	u := &url.URL{
		Scheme: "mongodb",
		Host:   dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0)),
		Path:   "/" + cfg.String("database", ""),
	}
	if user := cfg.String("user", ""); user != "" {
		u.User = url.UserPassword(user, cfg.String("password", ""))
	}

	q := url.Values{}
	for _, key := range []string{"authSource", "replicaSet", "appName"} {
		if v := cfg.String(key, ""); v != "" {
			q.Set(key, v)
		}
	}
	if cfg.Bool("ssl", false) {
		q.Set("tls", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Start connects in the background.
func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	sink := &adapter.Sink{}
	timeout := cfg.Duration("connect_timeout", DefaultConnectTimeout)

	opts := options.Client().
		ApplyURI(URI(cfg)).
		SetServerSelectionTimeout(timeout).
		SetServerMonitor(serverMonitor(sink)).
		SetPoolMonitor(poolMonitor(sink))

	future := adapter.Go(func() (any, error) {
		client, err := mongo.Connect(opts)
		if err != nil {
			err = adapter.NewConnectionError(Label, cfg.String("host", ""), err)
			sink.AddError(err)
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			err = adapter.NewConnectionError(Label, cfg.String("host", ""), err)
			sink.AddError(err)
			return nil, err
		}
		return client, nil
	})

	d.sinks.Track(future, sink)
	return future, nil
}

func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

// End waits for a pending connect, then disconnects.
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
		// never connected
		return nil
	}
	return v.(*mongo.Client).Disconnect(ctx)
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	client, err := Client(ctx, h)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Client waits for the client behind a handle returned by Start.
func Client(ctx context.Context, h adapter.Handle) (*mongo.Client, error) {
	future, ok := h.(*adapter.Future)
	if !ok {
		return nil, adapter.UnexpectedHandle(Label, h)
	}
	v, err := future.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Client), nil
}

func serverMonitor(sink *adapter.Sink) *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			sink.AddError(fmt.Errorf("%s: %w", heartbeatFailed, e.Failure))
		},
	}
}

func poolMonitor(sink *adapter.Sink) *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch {
			case e.Type == poolCleared:
				sink.AddEvent(adapter.NewEvent(Label, "pool cleared", e.Address))
			case e.Type == checkOutFailed && e.Reason == checkOutTimedOut:
				sink.AddEvent(adapter.NewEvent(Label, connectionTimeout, e.Address))
			case e.Type == checkOutFailed:
				sink.AddError(fmt.Errorf("connection check out failed on %s: %s", e.Address, e.Reason))
			}
		},
	}
}
