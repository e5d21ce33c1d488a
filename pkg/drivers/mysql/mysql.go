// Package mysql is the MySQL and MariaDB driver, backed by database/sql and
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.MySQL)

// Driver opens *sql.DB handles. database/sql connects lazily.
type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.MySQL, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults(adapter.Config{"parse_time": true})

	switch cfg.String("tls", "false") {
	case "true", "false", "skip-verify", "preferred":
	default:
		return nil, adapter.NewConfigurationError(Label, "tls", "must be one of true, false, skip-verify, preferred")
	}
	return cfg, nil
}

// DriverConfig builds the go-sql-driver config for cfg.
func DriverConfig(cfg adapter.Config) *mysql.Config {
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))
	c.User = cfg.String("user", "")
	c.Passwd = cfg.String("password", "")
	c.DBName = cfg.String("database", "")
	c.ParseTime = cfg.Bool("parse_time", true)
	c.Timeout = cfg.Duration("connect_timeout", 0)

	tls := cfg.String("tls", "false")
	if cfg.Bool("ssl", false) && tls == "false" {
		tls = "true"
	}
	c.TLSConfig = tls
	return c
}

func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	sink := &adapter.Sink{}

	c := DriverConfig(cfg)
	c.Logger = mysql.Logger(printer{sink: sink})

	connector, err := mysql.NewConnector(c)
	if err != nil {
		return nil, adapter.NewConfigurationError(Label, "", err.Error())
	}

	db := sql.OpenDB(connector)
	if n := cfg.Int("max_open_conns", 0); n > 0 {
		db.SetMaxOpenConns(n)
	}

	d.sinks.Track(db, sink)
	return db, nil
}

// Integrate routes driver level errors (broken packets, bad connections) into diag.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	db, ok := h.(*sql.DB)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)
	return db.Close()
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	db, ok := h.(*sql.DB)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return db.PingContext(ctx)
}

// printer adapts the driver logger to a sink.
type printer struct {
	sink *adapter.Sink
}

func (p printer) Print(v ...any) {
	p.sink.AddError(fmt.Errorf("%s", fmt.Sprint(v...)))
}
