// Package sqlite is the embedded SQLite driver, backed by the pure Go
// modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
	"github.com/redbco/redb-hopper/pkg/drivers/sqlaudit"
)

const Label = string(dbcapabilities.SQLite)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.SQLite, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults(adapter.Config{
		"path":         MemoryPath,
		"busy_timeout": 5000,
		"foreign_keys": true,
	})

	if cfg.String("path", "") == "" {
		return nil, adapter.NewConfigurationError(Label, "path", "must not be empty")
	}
	return cfg, nil
}

// DSN builds the modernc data source name with its pragmas.
func DSN(cfg adapter.Config) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.Int("busy_timeout", 5000)))
	if cfg.Bool("foreign_keys", true) {
		q.Add("_pragma", "foreign_keys(1)")
	}
	if mode := cfg.String("journal_mode", ""); mode != "" {
		q.Add("_pragma", "journal_mode("+mode+")")
	}
	return "file:" + cfg.String("path", MemoryPath) + "?" + q.Encode()
}

// Start opens the database handle. Files are created on first use.
func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	db, err := sql.Open("sqlite", DSN(cfg))
	if err != nil {
		return nil, adapter.NewConfigurationError(Label, "path", err.Error())
	}

	// every connection to :memory: is a different database
	if cfg.String("path", "") == MemoryPath {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	db, ok := h.(*sql.DB)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return db.Close()
}

func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	db, ok := h.(*sql.DB)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	return db.PingContext(ctx)
}

// Exec runs a statement on a handle returned by Start and logs table changes
// with the connection logger.
func Exec(ctx context.Context, cfg adapter.Config, h adapter.Handle, query string, args ...any) (sql.Result, error) {
	db, ok := h.(*sql.DB)
	if !ok {
		return nil, adapter.UnexpectedHandle(Label, h)
	}
	sqlaudit.Log(cfg, query)
	return db.ExecContext(ctx, query, args...)
}
