package liveness

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/outbound-caller/cli/cmd/utils"
)

// ProcessSignalProbe scans the process table for the agent's launch command.
type ProcessSignalProbe struct {
	Runner utils.CommandRunner
	GOOS   string
	// UnixSignatures are matched against `ps aux` lines.
	UnixSignatures []string
	// WindowsSignatures are matched against `tasklist` lines.
	WindowsSignatures []string
}

func (p *ProcessSignalProbe) Name() string { return "process" }

// Check lists processes once. A listing that ran but matched nothing is
// NotRunning; a listing that failed is Inconclusive.
func (p *ProcessSignalProbe) Check(ctx context.Context) Outcome {
	name, args := "ps", []string{"aux"}
	signatures := p.UnixSignatures
	if p.GOOS == "windows" {
		name, args = "tasklist", nil
		signatures = p.WindowsSignatures
	}

	out, err := p.Runner.Run(ctx, name, args...)
	if err != nil {
		return Outcome{Result: Inconclusive, Detail: "process listing unavailable", Err: err}
	}

	for _, line := range utils.Lines(out.Stdout) {
		for _, sig := range signatures {
			if sig == "" || !strings.Contains(line, sig) {
				continue
			}
			return Outcome{
				Result: Running,
				Detail: fmt.Sprintf("found process matching %q", sig),
				PID:    pidColumn(line),
			}
		}
	}

	return Outcome{
		Result: NotRunning,
		Detail: fmt.Sprintf("no process matched %s", quoteAll(signatures)),
	}
}

// pidColumn returns the second whitespace-separated field, which is the PID
// in both `ps aux` and `tasklist` output, or 0 when it is not a number.
func pidColumn(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	pid, err := strconv.Atoi(fields[1])
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

func quoteAll(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, strconv.Quote(v))
	}
	return strings.Join(quoted, " or ")
}
