package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/secretwire/cmd/secretwire/commands"
	"github.com/systmms/secretwire/internal/config"
	"github.com/systmms/secretwire/internal/logging"
	"github.com/systmms/secretwire/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile    string
		noColor       bool
		debug         bool
		enableMetrics bool
	)

	opts := &commands.Options{}

	rootCmd := &cobra.Command{
		Use:   "secretwire",
		Short: "Secret resolution and injection engine for deployment units",
		Long: `secretwire resolves declared secrets from their origin connectors and
plans how they are injected into deployment units as environment
variables, volume mounts, or annotations.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.Path = configFile
			opts.Logger = logging.New(debug, noColor)
			opts.Metrics = enableMetrics
			if enableMetrics {
				metrics.InitMetrics()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&enableMetrics, "metrics", false, "Collect Prometheus metrics and print them after the run")

	rootCmd.AddCommand(
		commands.NewResolveCommand(opts),
		commands.NewPlanCommand(opts),
		commands.NewConnectorsCommand(opts),
		commands.NewDoctorCommand(opts),
	)

	return rootCmd.Execute()
}
