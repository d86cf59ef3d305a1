package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - durable structured-log sink",
	Long: `Callisto is a durable sink for structured log records. It reads a
continuous stream of events, buffers them, persists them to SQLite in atomic
batches, and prunes records older than a configured retention window.

The daemon reads newline-delimited JSON records on stdin:
  {"timestamp":"2026-08-29T10:15:04Z","level":"Information","message":"started",
   "properties":{"SourceContext":"app.web","RequestId":"r-17"}}`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
