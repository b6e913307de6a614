package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/utils"
	"github.com/outbound-caller/cli/cmd/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the caller CLI and the detected lk CLI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.OutputInfo("Outbound Caller CLI %s (%s)\n", version.FormatForDisplay(version.CurrentVersion), version.Platform())

		app, err := loadApp()
		if err != nil {
			return err
		}
		d := app.dispatcher()
		v, err := d.CLIVersion(cmd.Context())
		if err != nil {
			utils.OutputWarning("%s not available: %v\n", d.Command, err)
			return nil
		}
		line := fmt.Sprintf("%s %s", d.Command, v)
		if err := dispatch.CheckCLIVersion(v, app.cfg.Dispatch.MinVersion); err != nil {
			utils.OutputWarning("%s (%v)\n", line, err)
			return nil
		}
		utils.OutputInfo("%s\n", line)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
