package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	configFile string
	// Build information, set with -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// printVersionInfo displays detailed version information
func printVersionInfo() {
	fmt.Printf("hopper %s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hopper",
	Short: "Named datastore connections",
	Long: "hopper loads named datastore connections from a configuration file, checks them " +
		"and serves their state as metrics and health endpoints.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version") != nil && cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "hopper.yaml", "Path to config file")
	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	setupCommands()
}

func main() {
	Execute()
}
