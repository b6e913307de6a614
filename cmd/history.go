package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/outbound-caller/cli/cmd/history"
	"github.com/outbound-caller/cli/cmd/utils"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"calls"},
	Short:   "List recently placed calls",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		calls, err := app.ctrl.RecentCalls(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			if calls == nil {
				calls = []history.Record{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(calls)
		}
		if len(calls) == 0 {
			utils.OutputInfo("No calls placed yet.\n")
			return nil
		}
		renderHistory(out, calls)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of calls to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print the calls as JSON")
	rootCmd.AddCommand(historyCmd)
}

func renderHistory(out io.Writer, calls []history.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Placed\tPhone\tTransfer To\tResult\tID")
	fmt.Fprintln(w, "------\t-----\t-----------\t------\t--")
	for _, c := range calls {
		result := utils.IconForStatus("success") + " ok"
		if !c.Success {
			result = utils.IconForStatus("failed") + " " + utils.Truncate(firstLine(c.Error), 40)
		}
		id := c.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.PlacedAt.Local().Format("2006-01-02 15:04:05"), c.PhoneNumber, c.TransferTo, result, id)
	}
	w.Flush()
}

func firstLine(s string) string {
	lines := utils.Lines(s)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
