package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"dark-phoenix/internal/config"
	"dark-phoenix/internal/telemetry"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a mission event log",
	Long:  "replay feeds mission events from a JSONL log back into GreptimeDB or STDOUT, keeping their original spacing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, err := withLogger(ctx, os.Stderr)
		if err != nil {
			return err
		}
		env, err := config.ParseEnv()
		if err != nil {
			return err
		}
		events, _, cleanup, err := newWriters(ctx, env, writerOptions{printOnly: replayPrintOnly})
		if err != nil {
			return err
		}
		defer cleanup()
		return telemetry.ReplayLogFile(ctx, replayInput, events, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to mission event log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print events to STDOUT instead of writing to DB")
	replayCmd.MarkFlagRequired("input")
}
