// Package app wires the hopper command line to the registry, its bundled
// drivers and the metrics and health endpoints.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/redbco/redb-hopper/pkg/config"
	"github.com/redbco/redb-hopper/pkg/drivers"
	"github.com/redbco/redb-hopper/pkg/health"
	"github.com/redbco/redb-hopper/pkg/hopper"
	"github.com/redbco/redb-hopper/pkg/logger"
	"github.com/redbco/redb-hopper/pkg/metrics"
)

// App holds everything built from one configuration file.
type App struct {
	File     *config.File
	Logger   *logger.Logger
	Registry *hopper.Registry
	Metrics  *metrics.Metrics
	Health   *health.Checker

	out io.Writer
}

// Options tune how the App is built.
type Options struct {
	// Version is reported by the logger
	Version string
	// Out receives command output. Defaults to stdout.
	Out io.Writer
	// LogOutput receives log lines. Defaults to stderr so that command output stays clean.
	LogOutput io.Writer
}

// Load reads the configuration at path and builds the App from it.
func Load(path string, opts Options) (*App, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(file, opts)
}

// New builds the registry for file and loads every configured connection.
// Connections are set up but not opened.
func New(file *config.File, opts Options) (*App, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	logOpts := file.LoggerOptions()
	logOpts.Output = opts.LogOutput
	log := logger.NewWithOptions("hopper", opts.Version, logOpts)

	m, err := metrics.New(metrics.Config{
		Enabled:   file.Metrics.Enabled,
		Namespace: file.Metrics.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	reg := hopper.NewRegistry(
		hopper.WithLogger(log.Named("registry")),
		hopper.WithDrivers(drivers.Defaults()),
		hopper.WithObserver(m),
	)
	g := file.Global(log)
	if err := file.ResolveSecrets(g); err != nil {
		return nil, err
	}
	if err := reg.Configure(g); err != nil {
		return nil, err
	}

	checker := health.NewChecker(file.Health.Timeout, log.Named("health"))
	checker.OnResult(func(name string, status health.Status) {
		if status == health.StatusUnknown {
			return
		}
		m.RecordHealth(name, status == health.StatusHealthy)
		if store, ok := reg.Get(name); ok {
			m.RecordErrors(name, store.DriverLabel(), store.ErrorCount())
		}
	})

	return &App{
		File:     file,
		Logger:   log,
		Registry: reg,
		Metrics:  m,
		Health:   checker,
		out:      opts.Out,
	}, nil
}
