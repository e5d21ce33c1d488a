// Package neo4j is the Neo4j driver. The driver verifies connectivity lazily;
// Ping calls VerifyConnectivity.
package neo4j

import (
	"context"
	"fmt"
	"net/url"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.Neo4j)

var schemes = map[string]bool{
	"neo4j": true, "neo4j+s": true, "neo4j+ssc": true,
	"bolt": true, "bolt+s": true, "bolt+ssc": true,
}

type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.Neo4j, cfg)
	if err != nil {
		return nil, err
	}

	scheme := "neo4j"
	if cfg.Bool("ssl", false) {
		scheme = "neo4j+s"
	}
	cfg = cfg.WithDefaults(adapter.Config{"scheme": scheme, "user": "neo4j"})

	if !schemes[cfg.String("scheme", "")] {
		return nil, adapter.NewConfigurationError(Label, "scheme", fmt.Sprintf("unsupported scheme %q", cfg.String("scheme", "")))
	}
	return cfg, nil
}

// Target builds the driver URI for cfg.
func Target(cfg adapter.Config) string {
	u := &url.URL{
		Scheme: cfg.String("scheme", "neo4j"),
		Host:   dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0)),
	}
	return u.String()
}

func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	sink := &adapter.Sink{}
	auth := neo4j.BasicAuth(cfg.String("user", ""), cfg.String("password", ""), "")

	drv, err := neo4j.NewDriverWithContext(Target(cfg), auth, func(c *neo4j.Config) {
		c.Log = &driverLog{sink: sink}
		if n := cfg.Int("max_pool_size", 0); n > 0 {
			c.MaxConnectionPoolSize = n
		}
	})
	if err != nil {
		return nil, adapter.NewConfigurationError(Label, "url", err.Error())
	}

	d.sinks.Track(drv, sink)
	return drv, nil
}

// Integrate routes driver errors and warnings into diag.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

func (d *Driver) End(ctx context.Context, h adapter.Handle) error {
	drv, ok := h.(neo4j.DriverWithContext)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)
	return drv.Close(ctx)
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	drv, ok := h.(neo4j.DriverWithContext)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return drv.VerifyConnectivity(ctx)
}

// driverLog implements the neo4j logger on top of a sink.
type driverLog struct {
	sink *adapter.Sink
}

func (l *driverLog) Error(name, id string, err error) {
	l.sink.AddError(fmt.Errorf("%s %s: %w", name, id, err))
}

func (l *driverLog) Warnf(name, id string, msg string, args ...any) {
	l.sink.AddEvent(adapter.NewEvent(Label, name, fmt.Sprintf(msg, args...)))
}

func (l *driverLog) Infof(string, string, string, ...any)  {}
func (l *driverLog) Debugf(string, string, string, ...any) {}
