package cmd

import (
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive call dashboard",
	Long: `Open the interactive dashboard: agent status, LiveKit configuration,
a form to place a call and the recent call history.

Keys:
  tab / shift+tab   move between fields
  enter             place the call
  ctrl+r            re-check the agent now
  ctrl+k            recent calls, commands and help
  ctrl+y            copy the last dispatcher output
  ctrl+c            quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		return runDashboard(cmd.Context(), app.ctrl)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
