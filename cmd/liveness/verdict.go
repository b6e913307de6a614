// Package liveness decides, heuristically, whether the companion voice agent
// is running. Three probes are tried in order (process table, listening
// sockets, pid-file) and the first one that finds the agent wins.
package liveness

import (
	"context"
	"time"
)

// Result is the tri-state answer of a single probe.
type Result int

const (
	// Inconclusive means the probe could not look (missing tool, missing
	// configuration, unreadable data). It is never treated as a failure.
	Inconclusive Result = iota
	// NotRunning means the probe looked and found no evidence.
	NotRunning
	// Running means the probe found the agent.
	Running
)

func (r Result) String() string {
	switch r {
	case Running:
		return "running"
	case NotRunning:
		return "not running"
	default:
		return "inconclusive"
	}
}

// MarshalText renders the result as its string form in JSON output.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Outcome is what a probe reports back to the decider.
type Outcome struct {
	Result Result
	Detail string
	// PID is set when the probe identified the agent process.
	PID int
	// Err explains an Inconclusive result.
	Err error
}

// Probe is one detection strategy.
type Probe interface {
	Name() string
	Check(ctx context.Context) Outcome
}

// ProbeReport records one probe's outcome in a verdict.
type ProbeReport struct {
	Probe  string `json:"probe"`
	Result Result `json:"result"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Verdict is the decider's answer. It is computed fresh on every call.
type Verdict struct {
	Running   bool          `json:"running"`
	Reason    string        `json:"reason,omitempty"`
	DecidedBy string        `json:"decided_by,omitempty"`
	PID       int           `json:"pid,omitempty"`
	Trail     []ProbeReport `json:"trail"`
	CheckedAt time.Time     `json:"checked_at"`
}

// State is the verdict as a status word.
func (v Verdict) State() string {
	if v.Running {
		return Running.String()
	}
	return NotRunning.String()
}
