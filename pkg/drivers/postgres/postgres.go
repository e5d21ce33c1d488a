// Package postgres is the PostgreSQL driver, backed by a pgx connection pool.
package postgres

import (
	"context"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
	"github.com/redbco/redb-hopper/pkg/drivers/sqlaudit"
)

// Label is the name the driver registers under.
const Label = string(dbcapabilities.PostgreSQL)

// Driver opens *pgxpool.Pool handles. Pools connect lazily, so Start does not
// touch the network.
type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

// Configure fills host and port defaults and expands a url entry.
func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.PostgreSQL, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults(adapter.Config{"sslmode": "prefer"})

	if cfg.Int("port", 0) <= 0 {
		return nil, adapter.NewConfigurationError(Label, "port", "must be positive")
	}
	if cfg.Int("max_conns", 0) < 0 {
		return nil, adapter.NewConfigurationError(Label, "max_conns", "must not be negative")
	}
	return cfg, nil
}

// ConnString builds the pgx connection string for cfg.
func ConnString(cfg adapter.Config) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0)),
		Path:   "/" + cfg.String("database", ""),
	}
	if user := cfg.String("user", ""); user != "" {
		if password := cfg.String("password", ""); password != "" {
			u.User = url.UserPassword(user, password)
		} else {
			u.User = url.User(user)
		}
	}

	q := url.Values{}
	q.Set("sslmode", cfg.String("sslmode", "prefer"))
	if name := cfg.String("application_name", ""); name != "" {
		q.Set("application_name", name)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (d *Driver) Start(ctx context.Context, cfg adapter.Config) (adapter.Handle, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, adapter.NewConfigurationError(Label, "url", err.Error())
	}
	if n := cfg.Int("max_conns", 0); n > 0 {
		poolCfg.MaxConns = int32(n)
	}

	sink := &adapter.Sink{}
	poolCfg.ConnConfig.Tracer = &tracer{cfg: cfg, sink: sink}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, adapter.NewConnectionError(Label, poolCfg.ConnConfig.Host, err)
	}

	d.sinks.Track(pool, sink)
	return pool, nil
}

// Integrate routes failed queries of the pool into d.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	pool, ok := h.(*pgxpool.Pool)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)
	pool.Close()
	return nil
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	pool, ok := h.(*pgxpool.Pool)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return pool.Ping(ctx)
}

// tracer reports query errors and logs table actions.
type tracer struct {
	cfg  adapter.Config
	sink *adapter.Sink
}

func (t *tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	sqlaudit.Log(t.cfg, data.SQL)
	return ctx
}

func (t *tracer) TraceQueryEnd(_ context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if data.Err != nil {
		t.sink.AddError(data.Err)
	}
}
