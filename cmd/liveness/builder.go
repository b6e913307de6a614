package liveness

import (
	"os"
	"runtime"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/utils"
)

// NewDeciderFromConfig wires the standard probe chain for the current
// platform: process table, then listening sockets, then pid-file.
func NewDeciderFromConfig(cfg *config.CallerConfig, runner utils.CommandRunner) *Decider {
	return NewDecider(
		&ProcessSignalProbe{
			Runner:            runner,
			GOOS:              runtime.GOOS,
			UnixSignatures:    cfg.Agent.UnixSignatures,
			WindowsSignatures: cfg.Agent.WindowsSignatures,
		},
		&NetworkSignalProbe{
			Runner:         runner,
			GOOS:           runtime.GOOS,
			ServiceURL:     func() string { return os.Getenv(config.EnvLiveKitURL) },
			UnixCommand:    cfg.Probes.SocketCommand,
			WindowsCommand: cfg.Probes.WindowsSocketCommand,
		},
		&PidFileProbe{
			Path: utils.ResolvePath(cfg.Agent.PidFile),
		},
	)
}
