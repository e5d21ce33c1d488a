package app

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/redbco/redb-hopper/pkg/adapter"
	"github.com/redbco/redb-hopper/pkg/dbcapabilities"
	"github.com/redbco/redb-hopper/pkg/drivers"
	"github.com/redbco/redb-hopper/pkg/health"
)

// ListDrivers prints the bundled drivers and what they support.
func ListDrivers(out io.Writer) error {
	all := drivers.Defaults()

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Driver\tName\tDefault Address\tIntegrate\tEnd\tPing")
	fmt.Fprintln(w, "------\t----\t---------------\t---------\t---\t----")

	for _, label := range slices.Sorted(maps.Keys(all)) {
		b, err := adapter.Bind(all[label])
		if err != nil {
			return err
		}

		name, address := label, "-"
		if c, ok := dbcapabilities.Get(dbcapabilities.DatabaseID(label)); ok {
			name = c.Name
			if c.Embedded {
				address = "embedded"
			} else if a := dbcapabilities.JoinHostPort(c.DefaultHost, c.DefaultPort); a != "" {
				address = a
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			label, name, address, yesNo(b.CanIntegrate()), yesNo(b.CanEnd()), yesNo(b.CanPing()))
	}
	return w.Flush()
}

// ListDrivers prints the bundled drivers to the App output.
func (a *App) ListDrivers() error {
	return ListDrivers(a.out)
}

// ListConnections prints every loaded connection.
func (a *App) ListConnections() error {
	names := a.Registry.Names()
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No connections configured.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Name\tDriver\tAddress\tStatus\tErrors\tDefault")
	fmt.Fprintln(w, "----\t------\t-------\t------\t------\t-------")

	defaultName := a.Registry.DefaultName()
	for _, name := range names {
		info, _ := a.Registry.Info(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			name,
			info.Config.Driver(),
			address(info.Config),
			info.Status,
			info.ErrorCount,
			yesNo(name == defaultName))
	}
	return w.Flush()
}

// ShowConnection prints the canonical config of one connection with secrets masked.
// An empty name shows the default connection.
func (a *App) ShowConnection(name string) error {
	store, ok := a.Registry.Get(strings.TrimSpace(name))
	if !ok {
		return fmt.Errorf("connection %q not found", name)
	}
	info := store.Info()

	fmt.Fprintf(a.out, "Connection Details for '%s'\n", store.Name())
	fmt.Fprintln(a.out, strings.Repeat("=", 50))
	fmt.Fprintf(a.out, "Driver:        %s\n", store.DriverLabel())
	fmt.Fprintf(a.out, "Status:        %s\n", info.Status)
	fmt.Fprintf(a.out, "Errors:        %d\n", info.ErrorCount)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Configuration:")

	cfg := info.Config.Redacted()
	for _, key := range slices.Sorted(maps.Keys(cfg)) {
		fmt.Fprintf(a.out, "  %-20s %v\n", key+":", cfg[key])
	}
	return nil
}

// CheckConnections opens the named connections, or all of them, pings each
// and ends them again. It fails when any connection is unhealthy.
func (a *App) CheckConnections(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = a.Registry.Names()
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Name\tDriver\tHealth\tMessage")
	fmt.Fprintln(w, "----\t------\t------\t-------")

	var failed []string
	for _, name := range names {
		store, ok := a.Registry.Get(name)
		if !ok {
			return fmt.Errorf("connection %q not found", name)
		}

		status := health.StatusUnhealthy
		message := ""
		if _, err := store.Open(ctx); err != nil {
			message = err.Error()
		} else {
			status = a.Health.RunCheck(ctx, name, store.Ping)
			message = a.message(name)
		}
		if status == health.StatusUnhealthy {
			failed = append(failed, name)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, store.DriverLabel(), status, message)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if err := a.Registry.EndAll(ctx); err != nil {
		a.Logger.Warnf("failed to end connections: %v", err)
	}

	if len(failed) > 0 {
		return fmt.Errorf("unhealthy connections: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (a *App) message(name string) string {
	for _, c := range a.Health.GetAllChecks() {
		if c.Name == name {
			return c.Message
		}
	}
	return ""
}

func address(cfg adapter.Config) string {
	if path := cfg.String("path", ""); path != "" {
		return path
	}
	if host := cfg.String("host", ""); host != "" {
		return dbcapabilities.JoinHostPort(host, cfg.Int("port", 0))
	}
	return "-"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
