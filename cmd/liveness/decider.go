package liveness

import (
	"context"
	"fmt"
	"time"

	"github.com/outbound-caller/cli/cmd/utils"
)

// Decider runs probes in order and stops at the first Running outcome.
type Decider struct {
	probes []Probe
	now    func() time.Time
}

// NewDecider returns a decider over probes, evaluated in the given order.
func NewDecider(probes ...Probe) *Decider {
	return &Decider{probes: probes, now: time.Now}
}

// Probes returns the probe names in evaluation order.
func (d *Decider) Probes() []string {
	names := make([]string, 0, len(d.probes))
	for _, p := range d.probes {
		names = append(names, p.Name())
	}
	return names
}

// Decide runs the probe chain. It never returns an error: inconclusive probes
// count as no evidence, and a panic inside any probe is recovered here and
// degrades the verdict to not running.
func (d *Decider) Decide(ctx context.Context) (verdict Verdict) {
	trail := make([]ProbeReport, 0, len(d.probes))
	checkedAt := d.now()

	defer func() {
		if r := recover(); r != nil {
			utils.LogDebug(fmt.Sprintf("liveness: recovered panic: %v", r))
			verdict = Verdict{
				Running:   false,
				Reason:    fmt.Sprintf("Error checking agent status: %v", r),
				Trail:     trail,
				CheckedAt: checkedAt,
			}
		}
	}()

	for _, probe := range d.probes {
		if ctx.Err() != nil {
			break
		}

		outcome := probe.Check(ctx)
		report := ProbeReport{
			Probe:  probe.Name(),
			Result: outcome.Result,
			Detail: outcome.Detail,
		}
		if outcome.Err != nil {
			report.Error = outcome.Err.Error()
		}
		trail = append(trail, report)
		utils.LogDebug(fmt.Sprintf("liveness: probe %s -> %s (%s) err=%v", probe.Name(), outcome.Result, outcome.Detail, outcome.Err))

		if outcome.Result == Running {
			return Verdict{
				Running:   true,
				Reason:    outcome.Detail,
				DecidedBy: probe.Name(),
				PID:       outcome.PID,
				Trail:     trail,
				CheckedAt: checkedAt,
			}
		}
	}

	return Verdict{
		Running:   false,
		Reason:    "no probe found evidence of the agent",
		Trail:     trail,
		CheckedAt: checkedAt,
	}
}
