package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/liveness"
	"github.com/outbound-caller/cli/cmd/utils"
)

var (
	statusJSON    bool
	statusVerbose bool
)

// statusReport is the output of `caller status`.
type statusReport struct {
	Agent        liveness.Verdict         `json:"agent"`
	Process      *liveness.ProcessDetails `json:"process,omitempty"`
	Environment  config.Environment       `json:"environment"`
	EnvFile      string                   `json:"env_file"`
	EnvFileFound bool                     `json:"env_file_found"`
	ConfigFile   string                   `json:"config_file,omitempty"`
	StartCommand string                   `json:"start_command"`
	Probes       []string                 `json:"probes,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the agent is running and how the caller is configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		report := statusReport{
			Agent:        app.ctrl.CheckAgent(ctx),
			Environment:  app.ctrl.Environment(),
			EnvFile:      app.envPath,
			EnvFileFound: app.envFound,
			ConfigFile:   app.configFile,
			StartCommand: app.ctrl.StartCommand(),
			Probes:       liveness.NewDeciderFromConfig(app.cfg, app.runner).Probes(),
		}
		if statusVerbose && report.Agent.PID > 0 {
			if d, err := liveness.DescribeProcess(ctx, report.Agent.PID); err == nil {
				report.Process = d
			} else {
				utils.LogDebug(fmt.Sprintf("process details unavailable: %v", err))
			}
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		renderStatus(out, report, statusVerbose, time.Now())
		if !report.Agent.Running {
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderGuide(agentGuideMarkdown(report.StartCommand), term.IsTerminal(int(os.Stdout.Fd()))))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
	statusCmd.Flags().BoolVarP(&statusVerbose, "verbose", "v", false, "Show every probe result and process details")
	rootCmd.AddCommand(statusCmd)
}

func renderStatus(out io.Writer, r statusReport, verbose bool, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	state := "Not Running"
	if r.Agent.Running {
		state = "Running"
	}
	agentLine := fmt.Sprintf("%s %s", utils.IconForStatus(r.Agent.State()), state)
	if r.Agent.Running && r.Agent.DecidedBy != "" {
		agentLine += fmt.Sprintf(" (detected by %s", r.Agent.DecidedBy)
		if r.Agent.PID > 0 {
			agentLine += fmt.Sprintf(", pid %d", r.Agent.PID)
		}
		agentLine += ")"
	}
	fmt.Fprintf(w, "Agent:\t%s\n", agentLine)
	if !r.Agent.Running && strings.HasPrefix(r.Agent.Reason, "Error checking agent status") {
		fmt.Fprintf(w, "\t%s\n", r.Agent.Reason)
	}
	fmt.Fprintf(w, "LiveKit URL:\t%s\n", config.DisplayValue(r.Environment.LiveKitURL))
	fmt.Fprintf(w, "SIP Trunk ID:\t%s\n", config.DisplayValue(r.Environment.SIPTrunkID))

	envNote := r.EnvFile
	if !r.EnvFileFound {
		envNote += " (not found)"
	}
	fmt.Fprintf(w, "Env file:\t%s\n", envNote)
	if r.ConfigFile != "" {
		fmt.Fprintf(w, "Config file:\t%s\n", r.ConfigFile)
	}

	if verbose {
		if p := r.Process; p != nil {
			fmt.Fprintf(w, "Process:\t%s (pid %d)\n", utils.Truncate(p.Cmdline, 60), p.PID)
			if p.Username != "" {
				fmt.Fprintf(w, "User:\t%s\n", p.Username)
			}
			if up := p.Uptime(now); up > 0 {
				fmt.Fprintf(w, "Uptime:\t%s\n", up)
			}
		}
		if len(r.Probes) > 0 {
			fmt.Fprintf(w, "Probe order:\t%s\n", strings.Join(r.Probes, " > "))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Probe\tResult\tDetail")
		fmt.Fprintln(w, "-----\t------\t------")
		for _, p := range r.Agent.Trail {
			detail := p.Detail
			if p.Error != "" {
				detail = p.Error
			}
			fmt.Fprintf(w, "%s\t%s %s\t%s\n", p.Probe, utils.IconForStatus(p.Result.String()), p.Result, utils.Truncate(detail, 70))
		}
	}
	w.Flush()
}

func agentGuideMarkdown(startCommand string) string {
	var b strings.Builder
	b.WriteString("## Start the agent\n\n")
	b.WriteString("Run this in the agent project directory, then check again with `caller status`:\n\n")
	b.WriteString("```\n" + startCommand + "\n```\n\n")
	b.WriteString("## How it works\n\n")
	for i, step := range howItWorks[1:] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}

// renderGuide styles markdown with glamour on a terminal and leaves it as
// plain markdown otherwise.
func renderGuide(md string, tty bool) string {
	if !tty {
		return strings.TrimSpace(md)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return strings.TrimSpace(md)
	}
	out, err := r.Render(md)
	if err != nil {
		return strings.TrimSpace(md)
	}
	return strings.TrimRight(out, "\n")
}
