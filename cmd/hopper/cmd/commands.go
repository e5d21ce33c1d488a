package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-hopper/cmd/hopper/internal/app"
	"github.com/redbco/redb-hopper/pkg/config"
)

// setupCommands initializes all commands and their relationships
func setupCommands() {
	rootCmd.AddCommand(driversCmd)

	connectionsCmd.AddCommand(listConnectionsCmd)
	connectionsCmd.AddCommand(showConnectionCmd)
	connectionsCmd.AddCommand(checkConnectionsCmd)
	rootCmd.AddCommand(connectionsCmd)

	secretsCmd.AddCommand(setSecretCmd)
	secretsCmd.AddCommand(deleteSecretCmd)
	rootCmd.AddCommand(secretsCmd)

	rootCmd.AddCommand(serveCmd)
}

func loadApp() (*app.App, error) {
	return app.Load(configFile, app.Options{Version: Version})
}

// driversCmd lists the bundled drivers
var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List bundled drivers",
	Long:  `Display every bundled driver with its default address and optional capabilities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ListDrivers(os.Stdout)
	},
}

// connectionsCmd represents the connections command
var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Inspect configured connections",
	Long:  "Commands for listing, showing and checking the connections of the configuration file.",
}

var listConnectionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all connections",
	Long:  `Display a formatted list of all configured connections and their state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return a.ListConnections()
	},
}

var showConnectionCmd = &cobra.Command{
	Use:   "show [connection-name]",
	Short: "Show connection details",
	Long:  `Display the canonical configuration of a connection with secrets masked. Without a name the default connection is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return a.ShowConnection(name)
	},
}

var checkConnectionsCmd = &cobra.Command{
	Use:   "check [connection-name...]",
	Short: "Open and ping connections",
	Long:  `Open the given connections, or all of them, ping each one and close them again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return a.CheckConnections(ctx, args...)
	},
}

// secretsCmd represents the secrets command
var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage connection secrets",
	Long: `Store and remove secrets in the configured keyring. A connection value of
"keyring:<account>" is replaced by the stored secret when the configuration loads.`,
}

var setSecretCmd = &cobra.Command{
	Use:   "set [account]",
	Short: "Store a secret typed at the prompt or piped on stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return app.SetSecret(file, args[0], os.Stdin, os.Stdout)
	},
}

var deleteSecretCmd = &cobra.Command{
	Use:   "delete [account]",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return app.DeleteSecret(file, args[0], os.Stdout)
	},
}

// serveCmd runs until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open all connections and serve metrics and health",
	Long: `Open every configured connection, check them periodically and expose
/metrics and /healthz on the configured metrics address. Connections are
closed on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.ListenAndServe(ctx)
	},
}

func init() {
	checkConnectionsCmd.Flags().Duration("timeout", 30*time.Second, "Overall timeout for the check")
}
