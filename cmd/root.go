// Package cmd wires the planbench subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/planbench/planbench/internal/logging"
)

// version is stamped via -ldflags at release build time.
var version = "dev"

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:           "planbench",
	Short:         "Benchmark SQL queries against PostgreSQL and capture execution plans",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *zap.SugaredLogger {
	return logging.New(logging.Options{Level: logLevel, File: logFile}).Sugar()
}
