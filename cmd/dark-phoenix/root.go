package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dark-phoenix/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "dark-phoenix",
	Short: "Dark Phoenix protection unit",
	Long:  "Dark Phoenix runs an autonomous protection unit: threat escalation, deterrence, fire suppression and mission logging.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// withLogger stores a logger writing to w at the --log-level in ctx.
func withLogger(ctx context.Context, w io.Writer) (context.Context, error) {
	lvl, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewContext(ctx, logging.NewWithLevel(w, lvl)), nil
}
