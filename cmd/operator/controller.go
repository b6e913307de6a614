// Package operator owns the operator's actions (checking the agent, placing a
// call, reading recent calls) so the dashboard, the CLI subcommands and the
// web form share one code path.
package operator

import (
	"context"
	"errors"
	"fmt"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/history"
	"github.com/outbound-caller/cli/cmd/liveness"
	"github.com/outbound-caller/cli/cmd/utils"
)

// ErrAgentNotRunning is returned by PlaceCall when the agent was not detected.
var ErrAgentNotRunning = errors.New("agent is not running")

// AgentChecker produces a liveness verdict.
type AgentChecker interface {
	Decide(ctx context.Context) liveness.Verdict
}

// CallPlacer places one call.
type CallPlacer interface {
	Place(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

// CallLog stores placed calls.
type CallLog interface {
	Append(ctx context.Context, rec history.Record) (history.Record, error)
	Recent(ctx context.Context, n int) ([]history.Record, error)
}

// CallOutcome is a finished dispatch attempt together with its history entry.
type CallOutcome struct {
	Result *dispatch.Result `json:"result"`
	Record history.Record   `json:"record"`
}

// Message is the line shown to the operator for this outcome.
func (o *CallOutcome) Message() string {
	if o.Result.Success {
		return o.Result.SuccessText()
	}
	return o.Result.FailureText()
}

// Controller wires the agent check, the dispatcher and the call log.
type Controller struct {
	cfg     *config.CallerConfig
	checker AgentChecker
	placer  CallPlacer
	calls   CallLog
	env     *config.EnvLoader
}

// Options configures NewController. Nil fields are built from Config.
type Options struct {
	Config  *config.CallerConfig
	Checker AgentChecker
	Placer  CallPlacer
	Calls   CallLog
	Env     *config.EnvLoader
	Runner  utils.CommandRunner
}

// NewController builds a controller. Missing collaborators are created from the
// configuration: the standard probe chain, the lk dispatcher and the history
// store in the data directory.
func NewController(opts Options) (*Controller, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = utils.NewExecRunner(cfg.ProbeTimeout())
	}

	c := &Controller{
		cfg:     cfg,
		checker: opts.Checker,
		placer:  opts.Placer,
		calls:   opts.Calls,
		env:     opts.Env,
	}
	if c.checker == nil {
		c.checker = liveness.NewDeciderFromConfig(cfg, runner)
	}
	if c.placer == nil {
		c.placer = dispatch.New(cfg.Dispatch, runner)
	}
	if c.calls == nil {
		store, err := history.DefaultStore(cfg.History.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to open call history: %w", err)
		}
		c.calls = store
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Controller) Config() *config.CallerConfig { return c.cfg }

// StartCommand is the command the operator should run to start the agent.
func (c *Controller) StartCommand() string { return c.cfg.Agent.StartCommand }

// NotRunningMessage is shown when a call is refused because no agent was found.
func (c *Controller) NotRunningMessage() string {
	return fmt.Sprintf("Agent is not running! Start it with `%s` before placing calls.", c.StartCommand())
}

// CheckAgent runs the liveness probes once.
func (c *Controller) CheckAgent(ctx context.Context) liveness.Verdict {
	return c.checker.Decide(ctx)
}

// Environment returns the displayed settings, reloading the env file first
// when one is configured.
func (c *Controller) Environment() config.Environment {
	if c.env != nil {
		if _, err := c.env.Load(); err != nil {
			utils.LogDebug(fmt.Sprintf("env reload failed: %v", err))
		}
	}
	return config.ReadEnvironment()
}

// EnvFile is the env file path, or "" when none is configured.
func (c *Controller) EnvFile() string {
	if c.env == nil {
		return ""
	}
	return c.env.Path
}

// PlaceCall dispatches a call. Unless force is set the agent must be detected
// first; otherwise ErrAgentNotRunning is returned and nothing is run. Every
// attempt that reached the dispatcher is recorded in the call history; a
// history write failure is logged and does not fail the call.
func (c *Controller) PlaceCall(ctx context.Context, req dispatch.Request, force bool) (*CallOutcome, error) {
	if _, err := req.Metadata(); err != nil {
		return nil, err
	}
	if !force {
		if v := c.CheckAgent(ctx); !v.Running {
			return nil, ErrAgentNotRunning
		}
	}

	res, err := c.placer.Place(ctx, req)
	if err != nil {
		return nil, err
	}

	meta, _ := req.Metadata()
	rec := history.Record{
		PhoneNumber: meta.PhoneNumber,
		TransferTo:  meta.TransferTo,
		Success:     res.Success,
		Output:      res.Stdout,
	}
	if !res.Success {
		rec.Error = res.ErrorText()
	}
	stored, herr := c.calls.Append(ctx, rec)
	if herr != nil {
		utils.LogDebug(fmt.Sprintf("failed to record call: %v", herr))
		stored = rec
	}
	return &CallOutcome{Result: res, Record: stored}, nil
}

// RecentCalls returns up to n recent calls, newest first.
func (c *Controller) RecentCalls(ctx context.Context, n int) ([]history.Record, error) {
	return c.calls.Recent(ctx, n)
}
