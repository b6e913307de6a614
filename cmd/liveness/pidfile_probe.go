package liveness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedPid is reported when the pid-file does not hold a positive integer.
var ErrMalformedPid = errors.New("pid-file does not contain a process id")

// PidFileProbe reads the pid the agent wrote at startup and checks it with a
// zero signal.
type PidFileProbe struct {
	Path string
	// Signal delivers the no-op liveness signal; nil uses signalZero.
	Signal func(pid int) error
}

func (p *PidFileProbe) Name() string { return "pidfile" }

// Check never reports NotRunning: a stale, missing or unreadable pid-file is
// absence of evidence, not evidence of absence.
func (p *PidFileProbe) Check(ctx context.Context) Outcome {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Outcome{Result: Inconclusive, Detail: "pid-file not readable", Err: err}
	}

	content := strings.TrimSpace(string(data))
	if !isDigits(content) {
		return Outcome{Result: Inconclusive, Detail: "pid-file is malformed", Err: fmt.Errorf("%w: %q", ErrMalformedPid, content)}
	}
	parsed, err := strconv.ParseInt(content, 10, 64)
	if err != nil || parsed <= 0 || parsed > maxPid {
		return Outcome{Result: Inconclusive, Detail: "pid-file is malformed", Err: fmt.Errorf("%w: %q", ErrMalformedPid, content)}
	}
	pid := int(parsed)

	signal := p.Signal
	if signal == nil {
		signal = signalZero
	}
	if err := signal(pid); err != nil {
		return Outcome{Result: Inconclusive, Detail: fmt.Sprintf("pid %d is not reachable", pid), Err: err}
	}
	return Outcome{Result: Running, Detail: fmt.Sprintf("pid %d from %s is alive", pid, p.Path), PID: pid}
}
