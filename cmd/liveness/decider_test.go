package liveness

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubProbe struct {
	name    string
	outcome Outcome
	panics  bool
	calls   int
}

func (s *stubProbe) Name() string { return s.name }

func (s *stubProbe) Check(context.Context) Outcome {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.outcome
}

func TestDecideAllInconclusiveIsNotRunning(t *testing.T) {
	process := &stubProbe{name: "process", outcome: Outcome{Result: Inconclusive, Err: errors.New("ps missing")}}
	network := &stubProbe{name: "network", outcome: Outcome{Result: Inconclusive, Err: ErrNoPort}}
	pidfile := &stubProbe{name: "pidfile", outcome: Outcome{Result: Inconclusive, Err: ErrMalformedPid}}

	v := NewDecider(process, network, pidfile).Decide(context.Background())

	if v.Running {
		t.Fatal("verdict should be not running")
	}
	if v.DecidedBy != "" {
		t.Errorf("DecidedBy = %q, want empty", v.DecidedBy)
	}
	if len(v.Trail) != 3 {
		t.Fatalf("trail length = %d, want 3", len(v.Trail))
	}
	if v.Trail[1].Error == "" {
		t.Error("trail should record the inconclusive error")
	}
	if v.State() != "not running" {
		t.Errorf("State() = %q", v.State())
	}
}

func TestDecideMixedFalseAndInconclusiveIsNotRunning(t *testing.T) {
	process := &stubProbe{name: "process", outcome: Outcome{Result: NotRunning}}
	network := &stubProbe{name: "network", outcome: Outcome{Result: NotRunning}}
	pidfile := &stubProbe{name: "pidfile", outcome: Outcome{Result: Inconclusive}}

	if v := NewDecider(process, network, pidfile).Decide(context.Background()); v.Running {
		t.Fatal("verdict should be not running")
	}
	if pidfile.calls != 1 {
		t.Errorf("pidfile probe should still run after two negatives")
	}
}

func TestDecideShortCircuitsOnNetwork(t *testing.T) {
	process := &stubProbe{name: "process", outcome: Outcome{Result: NotRunning}}
	network := &stubProbe{name: "network", outcome: Outcome{Result: Running, Detail: "port 7880 is bound"}}
	pidfile := &stubProbe{name: "pidfile", outcome: Outcome{Result: Running}}

	v := NewDecider(process, network, pidfile).Decide(context.Background())

	if !v.Running {
		t.Fatal("verdict should be running")
	}
	if v.DecidedBy != "network" {
		t.Errorf("DecidedBy = %q, want network", v.DecidedBy)
	}
	if v.Reason != "port 7880 is bound" {
		t.Errorf("Reason = %q", v.Reason)
	}
	if pidfile.calls != 0 {
		t.Errorf("pidfile probe ran %d times after a positive network probe", pidfile.calls)
	}
	if len(v.Trail) != 2 {
		t.Errorf("trail length = %d, want 2", len(v.Trail))
	}
}

func TestDecideFirstProbeWins(t *testing.T) {
	process := &stubProbe{name: "process", outcome: Outcome{Result: Running, PID: 4242}}
	network := &stubProbe{name: "network"}

	v := NewDecider(process, network).Decide(context.Background())
	if !v.Running || v.PID != 4242 || network.calls != 0 {
		t.Fatalf("unexpected verdict %+v (network calls %d)", v, network.calls)
	}
}

func TestDecideRecoversPanic(t *testing.T) {
	process := &stubProbe{name: "process", outcome: Outcome{Result: NotRunning}}
	network := &stubProbe{name: "network", panics: true}
	pidfile := &stubProbe{name: "pidfile", outcome: Outcome{Result: Running}}

	v := NewDecider(process, network, pidfile).Decide(context.Background())

	if v.Running {
		t.Fatal("a panic must degrade the verdict to not running")
	}
	if !strings.HasPrefix(v.Reason, "Error checking agent status:") || !strings.Contains(v.Reason, "boom") {
		t.Errorf("Reason = %q", v.Reason)
	}
	if len(v.Trail) != 1 || v.Trail[0].Probe != "process" {
		t.Errorf("trail should keep the probes that completed, got %+v", v.Trail)
	}
	if pidfile.calls != 0 {
		t.Error("probes after the panic should not run")
	}
}

func TestDecideStopsOnCancelledContext(t *testing.T) {
	process := &stubProbe{name: "process", outcome: Outcome{Result: Running}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewDecider(process).Decide(ctx)
	if v.Running || process.calls != 0 {
		t.Fatalf("cancelled check should not run probes, got %+v", v)
	}
}

func TestDecideStampsCheckTime(t *testing.T) {
	fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	d := NewDecider(&stubProbe{name: "process", outcome: Outcome{Result: NotRunning}})
	d.now = func() time.Time { return fixed }
	if v := d.Decide(context.Background()); !v.CheckedAt.Equal(fixed) {
		t.Errorf("CheckedAt = %v", v.CheckedAt)
	}
}

func TestDeciderProbesOrder(t *testing.T) {
	d := NewDecider(&stubProbe{name: "process"}, &stubProbe{name: "network"}, &stubProbe{name: "pidfile"})
	if got := strings.Join(d.Probes(), ","); got != "process,network,pidfile" {
		t.Errorf("Probes() = %s", got)
	}
}

func TestResultText(t *testing.T) {
	b, _ := Running.MarshalText()
	if string(b) != "running" || Inconclusive.String() != "inconclusive" || NotRunning.String() != "not running" {
		t.Error("unexpected result strings")
	}
}
