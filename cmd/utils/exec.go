package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single inspection or dispatch command.
const DefaultCommandTimeout = 10 * time.Second

// CommandOutput is the captured result of one external command.
type CommandOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner runs an external command to completion and captures its output.
// Run returns an error when the command could not be started, was killed by the
// timeout, or exited non-zero; Stdout/Stderr are populated in every case where
// the process actually ran.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandOutput, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout applies per invocation. Zero means DefaultCommandTimeout.
	Timeout time.Duration
	// Dir is the working directory; empty uses the effective cwd.
	Dir string
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// NewExecRunner returns an ExecRunner with the given per-command timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// ErrCommandTimeout is wrapped into the error of a command killed by its timeout.
var ErrCommandTimeout = errors.New("command timed out")

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandOutput, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if cmd.Dir == "" {
		cmd.Dir = GetEffectiveCWD()
	}
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	LogDebug(fmt.Sprintf("exec: %s %s", name, strings.Join(args, " ")))

	// Run waits for the process, so the child is always reaped and both
	// buffers are complete regardless of how it exited.
	err := cmd.Run()
	out := CommandOutput{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("%s: %w after %s", name, ErrCommandTimeout, timeout)
	}
	if err != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Lines splits captured command output into non-empty lines.
func Lines(s string) []string {
	raw := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
