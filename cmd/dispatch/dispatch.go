// Package dispatch places outbound calls by invoking the LiveKit CLI:
//
//	lk dispatch create --new-room --agent-name outbound-caller --metadata '{...}'
//
// The CLI has no machine-readable success signal, so success is detected by a
// marker substring in its stdout ("Dispatch created" by default).
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/utils"
)

// ErrEmptyPhoneNumber is returned when no number was entered.
var ErrEmptyPhoneNumber = errors.New("phone number is required")

// Request is what the operator entered.
type Request struct {
	PhoneNumber string
	// TransferTo is optional; it defaults to PhoneNumber.
	TransferTo string
}

// Metadata is the JSON payload handed to the agent through --metadata.
type Metadata struct {
	PhoneNumber string `json:"phone_number"`
	TransferTo  string `json:"transfer_to"`
}

// Metadata normalizes the request into the agent payload.
func (r Request) Metadata() (Metadata, error) {
	phone := strings.TrimSpace(r.PhoneNumber)
	if phone == "" {
		return Metadata{}, ErrEmptyPhoneNumber
	}
	transfer := strings.TrimSpace(r.TransferTo)
	if transfer == "" {
		transfer = phone
	}
	return Metadata{PhoneNumber: phone, TransferTo: transfer}, nil
}

// Result is the outcome of one dispatch attempt.
type Result struct {
	Success     bool   `json:"success"`
	PhoneNumber string `json:"phone_number"`
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	ExitCode    int    `json:"exit_code"`
	// Warning is set when the marker was found but the CLI exited non-zero.
	Warning string `json:"warning,omitempty"`
}

// SuccessText is the operator-facing confirmation.
func (r *Result) SuccessText() string {
	return fmt.Sprintf("Call placed successfully to %s", r.PhoneNumber)
}

// ErrorText is the dispatcher's stderr, verbatim. When stderr is blank the
// stdout is returned instead so the operator is never shown nothing.
func (r *Result) ErrorText() string {
	if strings.TrimSpace(r.Stderr) != "" {
		return r.Stderr
	}
	return r.Stdout
}

// FailureText is the operator-facing failure report: a fixed headline
// followed by the dispatcher's own error text, or its exit code when the
// dispatcher printed nothing.
func (r *Result) FailureText() string {
	msg := "Failed to place call"
	if detail := strings.TrimRight(r.ErrorText(), "\n"); strings.TrimSpace(detail) != "" {
		return msg + "\n" + detail
	}
	if r.ExitCode != 0 {
		return fmt.Sprintf("%s (dispatcher exited with code %d and printed nothing)", msg, r.ExitCode)
	}
	return msg + " (dispatcher printed nothing)"
}

// Dispatcher runs the dispatch CLI.
type Dispatcher struct {
	Runner        utils.CommandRunner
	Command       string
	AgentName     string
	SuccessMarker string
}

// New returns a dispatcher configured from the dispatch section of caller.yaml.
func New(cfg config.DispatchConfig, runner utils.CommandRunner) *Dispatcher {
	return &Dispatcher{
		Runner:        runner,
		Command:       cfg.Command,
		AgentName:     cfg.AgentName,
		SuccessMarker: cfg.SuccessMarker,
	}
}

// Args builds the dispatcher arguments for a payload.
func (d *Dispatcher) Args(meta Metadata) ([]string, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call metadata: %w", err)
	}
	return []string{
		"dispatch", "create",
		"--new-room",
		"--agent-name", d.AgentName,
		"--metadata", string(payload),
	}, nil
}

// Place runs the dispatcher once; there is no retry. A dispatcher that ran
// but did not print the success marker is reported through Result, not as an
// error. An error means the dispatcher could not be run at all.
func (d *Dispatcher) Place(ctx context.Context, req Request) (*Result, error) {
	meta, err := req.Metadata()
	if err != nil {
		return nil, err
	}
	args, err := d.Args(meta)
	if err != nil {
		return nil, err
	}

	out, runErr := d.Runner.Run(ctx, d.Command, args...)
	if runErr != nil && out.ExitCode < 0 {
		return nil, fmt.Errorf("failed to run %s: %w", d.Command, runErr)
	}

	result := &Result{
		PhoneNumber: meta.PhoneNumber,
		Stdout:      out.Stdout,
		Stderr:      out.Stderr,
		ExitCode:    out.ExitCode,
		Success:     d.SuccessMarker != "" && strings.Contains(out.Stdout, d.SuccessMarker),
	}
	if result.Success && out.ExitCode != 0 {
		result.Warning = fmt.Sprintf("%s exited with status %d after creating the dispatch", d.Command, out.ExitCode)
	}

	utils.LogDebug(fmt.Sprintf("dispatch: phone=%s success=%v exit=%d", meta.PhoneNumber, result.Success, out.ExitCode))
	return result, nil
}
