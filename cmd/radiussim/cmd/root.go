package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/roomradar/internal/pkg/logging"
)

var (
	// Global flags
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "radiussim",
		Short: "Replay map viewport traces through the search radius controller",
		Long: `radiussim drives the viewport radius controller offline.

The replay command feeds a JSON-lines trace of map events through the
controller on a virtual clock and prints every radius it emits. The radius
command computes a single reconciled radius for one viewport.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(radiusCmd)
}

// stdout carries results, so logs go to stderr.
func newLogger() *slog.Logger {
	return logging.New(os.Stderr, logLevel, logFormat)
}
