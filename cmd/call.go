package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/operator"
	"github.com/outbound-caller/cli/cmd/utils"
)

var (
	callTransferTo string
	callForce      bool
	callJSON       bool
)

// errDispatchFailed is returned after the dispatcher's own error was printed.
var errDispatchFailed = errors.New("dispatch failed")

var callCmd = &cobra.Command{
	Use:   "call <phone-number>",
	Short: "Place an outbound call without opening the dashboard",
	Long: `Place an outbound call by dispatching the agent with lk.

The agent must be running unless --force is given. The transfer number
defaults to the number being called.

Examples:
  caller call +15551234567
  caller call +15551234567 --transfer-to +15557654321`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		warnIfDispatcherOutdated(ctx, app)

		req := dispatch.Request{PhoneNumber: args[0], TransferTo: callTransferTo}
		if !callJSON {
			utils.OutputProgress("Placing call to %s...\n", strings.TrimSpace(req.PhoneNumber))
		}
		out, err := app.ctrl.PlaceCall(ctx, req, callForce)
		if errors.Is(err, operator.ErrAgentNotRunning) {
			return errors.New(app.ctrl.NotRunningMessage())
		}
		if err != nil {
			return err
		}

		if callJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		} else {
			reportCallOutcome(out)
		}
		if !out.Result.Success {
			return errDispatchFailed
		}
		return nil
	},
}

func init() {
	callCmd.Flags().StringVar(&callTransferTo, "transfer-to", "", "Number the agent transfers the call to (default: the called number)")
	callCmd.Flags().BoolVar(&callForce, "force", false, "Dispatch even when the agent was not detected")
	callCmd.Flags().BoolVar(&callJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(callCmd)
}

func reportCallOutcome(out *operator.CallOutcome) {
	res := out.Result
	if res.Success {
		utils.OutputSuccess("%s\n", res.SuccessText())
		if res.Warning != "" {
			utils.OutputWarning("%s\n", res.Warning)
		}
		return
	}
	utils.OutputError("%s\n", res.FailureText())
}

// warnIfDispatcherOutdated prints a warning when lk is older than
// dispatch.min_version. Failing to determine the version is only logged.
func warnIfDispatcherOutdated(ctx context.Context, app *appContext) {
	d := app.dispatcher()
	v, err := d.CLIVersion(ctx)
	if err != nil {
		utils.LogDebug(fmt.Sprintf("dispatcher version check skipped: %v", err))
		return
	}
	if err := dispatch.CheckCLIVersion(v, app.cfg.Dispatch.MinVersion); err != nil {
		utils.OutputWarning("%v\n", err)
	}
}
