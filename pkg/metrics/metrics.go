package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redbco/redb-hopper/pkg/datastore"
)

// Config controls metric naming.
type Config struct {
	Enabled   bool
	Namespace string
}

// Metrics exports connection lifecycle metrics. It is a datastore.Observer and
// is attached to a registry with hopper.WithObserver.
type Metrics struct {
	config Config

	status      *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	errors      *prometheus.GaugeVec
	healthy     *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates the collectors on a private prometheus registry. A disabled
// config yields a no-op instance.
func New(cfg Config) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_status",
				Help:      "Current lifecycle status of a connection (1 for the active status)",
			},
			[]string{"connection", "driver", "status"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_transitions_total",
				Help:      "Total number of status changes per connection and target status",
			},
			[]string{"connection", "driver", "status"},
		),
		errors: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_errors",
				Help:      "Errors reported by the driver since the connection was created",
			},
			[]string{"connection", "driver"},
		),
		healthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_healthy",
				Help:      "Result of the last health check (1 healthy, 0 unhealthy)",
			},
			[]string{"connection"},
		),
	}

	for _, c := range []prometheus.Collector{m.status, m.transitions, m.errors, m.healthy} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Observe records a status change.
func (m *Metrics) Observe(change datastore.StateChange) {
	if m.registry == nil {
		return
	}

	for _, s := range datastore.Statuses() {
		value := 0.0
		if s == change.Status {
			value = 1
		}
		m.status.WithLabelValues(change.Name, change.Driver, s.String()).Set(value)
	}
	m.transitions.WithLabelValues(change.Name, change.Driver, change.Status.String()).Inc()
	m.errors.WithLabelValues(change.Name, change.Driver).Set(float64(change.ErrorCount))
}

// RecordErrors updates the error gauge outside of a status change.
func (m *Metrics) RecordErrors(connection, driver string, count int) {
	if m.registry == nil {
		return
	}
	m.errors.WithLabelValues(connection, driver).Set(float64(count))
}

// RecordHealth stores the outcome of a health check.
func (m *Metrics) RecordHealth(connection string, healthy bool) {
	if m.registry == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1
	}
	m.healthy.WithLabelValues(connection).Set(value)
}

// Registry returns the prometheus registry, nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
