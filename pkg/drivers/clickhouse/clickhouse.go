// Package clickhouse is the ClickHouse driver, using the native protocol of
// clickhouse-go.
package clickhouse

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.ClickHouse)

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.ClickHouse, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults(adapter.Config{
		"database":           "default",
		"user":               "default",
		"max_execution_time": 60,
	})
	return cfg, nil
}

// Options builds the clickhouse-go options for cfg.
func Options(cfg adapter.Config) *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: []string{dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))},
		Auth: clickhouse.Auth{
			Database: cfg.String("database", ""),
			Username: cfg.String("user", ""),
			Password: cfg.String("password", ""),
		},
		Settings: clickhouse.Settings{
			"max_execution_time": cfg.Int("max_execution_time", 60),
		},
		DialTimeout:     cfg.Duration("connect_timeout", 10*time.Second),
		ConnMaxLifetime: time.Hour,
	}
	if cfg.Bool("ssl", false) {
		opts.TLS = &tls.Config{InsecureSkipVerify: cfg.Bool("tls_skip_verify", false)}
	}
	return opts
}

// Start opens the connection pool. Connections are dialled on first use.
func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	conn, err := clickhouse.Open(Options(cfg))
	if err != nil {
		return nil, adapter.NewConnectionError(Label, cfg.String("host", ""), err)
	}
	return conn, nil
}

func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	conn, ok := h.(driver.Conn)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return conn.Close()
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	conn, ok := h.(driver.Conn)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return conn.Ping(ctx)
}
