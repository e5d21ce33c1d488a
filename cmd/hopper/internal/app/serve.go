package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Handler serves the metrics and health endpoints.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(a.File.Metrics.Path, a.Metrics.Handler())
	mux.Handle("/healthz", a.Health.Handler())
	return mux
}

// Serve opens every connection, runs periodic health checks and serves the
// metrics and health endpoints on ln until ctx is done. Connections that fail
// to open are logged and show up as unknown in the health checks.
// On return every connection has been ended.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Registry.OpenAll(ctx); err != nil {
		a.Logger.Warnf("some connections failed to open: %v", err)
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		a.Health.Monitor(monitorCtx, a.Registry, a.File.Health.Interval)
	}()

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Infof("serving metrics and health on %s", ln.Addr())
		serveErr <- srv.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down")
	case err = <-serveErr:
	}
	// no ping may run while the handles are ended
	stopMonitor()
	<-monitorDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(err, srv.Shutdown(shutdownCtx), a.Registry.EndAll(shutdownCtx))
}

// ListenAndServe listens on the configured metrics address and calls Serve.
func (a *App) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.File.Metrics.Address)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}
