// Package kafka is the Kafka driver. The handle is a producer; kafka-go
// writers dial brokers on the first write.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
)

const Label = string(dbcapabilities.Kafka)

type Driver struct {
	sinks adapter.Sinks
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Label() string { return Label }

func (d *Driver) Configure(cfg adapter.Config) (adapter.Config, error) {
	cfg, err := dbcapabilities.Prepare(dbcapabilities.Kafka, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Has("brokers") {
		cfg["brokers"] = []string{dbcapabilities.JoinHostPort(cfg.String("host", ""), cfg.Int("port", 0))}
	}
	cfg = cfg.WithDefaults(adapter.Config{"required_acks": "one"})

	if _, ok := acks[cfg.String("required_acks", "")]; !ok {
		return nil, adapter.NewConfigurationError(Label, "required_acks", "must be none, one or all")
	}
	return cfg, nil
}

var acks = map[string]kafka.RequiredAcks{
	"none": kafka.RequireNone,
	"one":  kafka.RequireOne,
	"all":  kafka.RequireAll,
}

// Producer is the handle returned by Start.
type Producer struct {
	*kafka.Writer
	Brokers []string
}

func (d *Driver) Start(_ context.Context, cfg adapter.Config) (adapter.Handle, error) {
	sink := &adapter.Sink{}
	brokers := cfg.Strings("brokers")

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.String("topic", ""),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: acks[cfg.String("required_acks", "one")],
		WriteTimeout: cfg.Duration("write_timeout", 10*time.Second),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			sink.AddError(fmt.Errorf(msg, args...))
		}),
	}

	p := &Producer{Writer: w, Brokers: brokers}
	d.sinks.Track(p, sink)
	return p, nil
}

// Integrate routes writer errors into diag.
func (d *Driver) Integrate(h adapter.Handle, diag adapter.Diagnostics) {
	d.sinks.Bind(h, diag)
}

// End flushes pending messages and closes the writer.
func (d *Driver) End(_ context.Context, h adapter.Handle) error {
	p, ok := h.(*Producer)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}
	d.sinks.Release(h)
	return p.Close()
}

// Ping dials the brokers in order and succeeds on the first that answers.
func (d *Driver) Ping(ctx context.Context, h adapter.Handle) error {
	p, ok := h.(*Producer)
	if !ok {
		return adapter.UnexpectedHandle(Label, h)
	}

	var errs []error
	for _, broker := range p.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	return adapter.NewConnectionError(Label, "", errors.Join(errs...))
}
