package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dark-phoenix/internal/config"
	"dark-phoenix/internal/dashboard"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the GreptimeDB tables",
	Long:  "dashboard writes Grafana dashboard JSON for the event and status tables. GREPTIMEDB_DATASOURCE_UID must be set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := config.ParseEnv()
		if err != nil {
			return err
		}
		if err := dashboard.Render(dashboardOut, dashboard.Params{
			EventTable:  env.EventTable,
			StatusTable: env.StatusTable,
			ClusterID:   env.ClusterID,
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "dashboards written to", dashboardOut)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "dashboards", "Output directory")
}
