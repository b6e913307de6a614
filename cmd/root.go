package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/utils"
)

var (
	debug      bool
	noEmoji    bool
	envFile    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "caller",
	Short: "Outbound Caller - place AI agent phone calls from your terminal",
	Long: `Outbound Caller is an operator console for a LiveKit outbound-calling agent.
It shows whether the agent process is running and places calls by asking the
LiveKit CLI (lk) to dispatch the agent into a new room.

Getting started:
  # Start the agent in another terminal
  python agent.py dev

  # Open the dashboard
  caller

  # Or place a call directly
  caller call +15551234567`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return dashboardCmd.RunE(cmd, args)
		}
		return statusCmd.RunE(cmd, args)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.SetEmojiEnabled(!noEmoji)
		if debug {
			if err := utils.InitDebugLogger("", true); err != nil {
				utils.OutputWarning("failed to open debug log: %v\n", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.CloseDebugLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "Print messages without emoji prefixes")
	rootCmd.PersistentFlags().StringVar(&utils.OverrideCwd, "cwd", "", "Override the current working directory for CLI operations")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Environment file to load (relative to the working directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a caller.yaml/.toml/.json config file")
}
