package liveness

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessDetails describes the process a verdict pointed at.
type ProcessDetails struct {
	PID       int       `json:"pid"`
	Name      string    `json:"name,omitempty"`
	Cmdline   string    `json:"cmdline,omitempty"`
	Username  string    `json:"username,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Uptime is the time since the process started, or zero when unknown.
func (d ProcessDetails) Uptime(now time.Time) time.Duration {
	if d.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(d.StartedAt).Truncate(time.Second)
}

// DescribeProcess collects best-effort details about pid. Only a failure to
// find the process is an error; individual fields that cannot be read (often
// a permission problem) are left empty.
func DescribeProcess(ctx context.Context, pid int) (*ProcessDetails, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid %d", pid)
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect pid %d: %w", pid, err)
	}

	details := &ProcessDetails{PID: pid}
	if name, err := p.NameWithContext(ctx); err == nil {
		details.Name = name
	}
	if cmdline, err := p.CmdlineWithContext(ctx); err == nil {
		details.Cmdline = cmdline
	}
	if user, err := p.UsernameWithContext(ctx); err == nil {
		details.Username = user
	}
	if created, err := p.CreateTimeWithContext(ctx); err == nil && created > 0 {
		details.StartedAt = time.UnixMilli(created)
	}
	return details, nil
}
