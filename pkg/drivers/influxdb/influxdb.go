// Package influxdb is the InfluxDB 2 driver.
package influxdb

import (
	"context"
	"errors"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.InfluxDB)

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

// Configure accepts "bucket" or, like the other drivers, "database".
func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.InfluxDB, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Has("bucket") && cfg.Has("database") {
		cfg["bucket"] = cfg.String("database", "")
	}
	if cfg.String("token", "") == "" {
		return nil, adapter.NewConfigurationError(Label, "token", "required")
	}
	return cfg, nil
}

// ServerURL returns the HTTP endpoint for cfg. "server_url" overrides host and port.
func ServerURL(cfg adapter.Config) string {
	if u := cfg.String("server_url", ""); u != "" {
		return u
	}
	scheme := "http://"
	if cfg.Bool("ssl", false) {
		scheme = "https://"
	}
	return scheme + dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))
}

func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	opts := influxdb2.DefaultOptions()
	if t := cfg.Duration("timeout", 0); t > 0 {
		opts.SetHTTPRequestTimeout(uint(t.Seconds()))
	}
	return influxdb2.NewClientWithOptions(ServerURL(cfg), cfg.String("token", ""), opts), nil
}

func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	client, ok := h.(influxdb2.Client)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	client.Close()
	return nil
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	client, ok := h.(influxdb2.Client)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}

	up, err := client.Ping(ctx)
	if err != nil {
		return adapter.NewConnectionError(Label, client.ServerURL(), err)
	}
	if !up {
		return adapter.NewConnectionError(Label, client.ServerURL(), errors.New("server is not ready"))
	}
	return nil
}
