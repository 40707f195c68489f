package main

import (
	"github.com/spf13/cobra"

	"dark-phoenix/internal/telemetry"
)

var (
	statusInput string
	statusJSON  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the last recorded unit status",
	Long:  "status reads a JSONL status log written by run --log-file and prints the most recent snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := telemetry.LastStatusFile(statusInput)
		if err != nil {
			return err
		}
		if statusJSON {
			return telemetry.NewJSONStdoutWriter().WriteStatus(row)
		}
		return telemetry.NewColorStdoutWriter().WriteStatus(row)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusInput, "input", "", "Path to status log file (<log-file>.status)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the snapshot as JSON")
	statusCmd.MarkFlagRequired("input")
}
