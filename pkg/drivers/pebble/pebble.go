// Package pebble is the embedded Pebble key-value driver.
package pebble

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.Pebble)

var pingKey = []byte("\x00hopper/ping")

type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

// Configure requires a directory unless the store is in memory.
func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.Pebble, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults(adapter.Config{"in_memory": false, "read_only": false})

	if cfg.String("path", "") == "" && !cfg.Bool("in_memory", false) {
		return nil, adapter.NewConfigurationError(Label, "path", "required unless in_memory is set")
	}
	return cfg, nil
}

// Start opens the store. Pebble is local, so this only touches the disk.
func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	sink := &adapter.Sink{}

	opts := &pebble.Options{
		ReadOnly:      cfg.Bool("read_only", false),
		EventListener: listener(sink),
	}
	dir := cfg.String("path", "")
	if cfg.Bool("in_memory", false) {
		opts.FS = vfs.NewMem()
		if dir == "" {
			dir = "hopper"
		}
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, adapter.NewConnectionError(Label, dir, err)
	}

	d.sinks.Track(db, sink)
	return db, nil
}

// Integrate routes background errors and write stalls into diag.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	db, ok := h.(*pebble.DB)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)
	return db.Close()
}

// Ping reads a reserved key. A missing key is healthy.
func (d *Driver) Ping(_ context.Context, h adapter.Handle) error {
	db, ok := h.(*pebble.DB)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}

	_, closer, err := db.Get(pingKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return closer.Close()
}

func listener(sink *adapter.Sink) *pebble.EventListener {
	return &pebble.EventListener{
		BackgroundError: sink.AddError,
		WriteStallBegin: func(info pebble.WriteStallBeginInfo) {
			sink.AddEvent(adapter.NewEvent(Label, "write stall", info.Reason))
		},
		WriteStallEnd: func() {
			sink.AddEvent(adapter.NewEvent(Label, "write stall end", ""))
		},
	}
}
