package liveness

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestDescribeCurrentProcess(t *testing.T) {
	d, err := DescribeProcess(context.Background(), os.Getpid())
	if err != nil {
		t.Fatalf("DescribeProcess: %v", err)
	}
	if d.PID != os.Getpid() {
		t.Errorf("PID = %d", d.PID)
	}
	if d.Name == "" {
		t.Error("expected a process name for the test binary")
	}
	if !d.StartedAt.IsZero() && d.Uptime(time.Now()) < 0 {
		t.Error("uptime should not be negative")
	}
}

func TestDescribeProcessRejectsInvalidPID(t *testing.T) {
	if _, err := DescribeProcess(context.Background(), 0); err == nil {
		t.Fatal("expected an error for pid 0")
	}
}

func TestUptimeUnknownStart(t *testing.T) {
	if (ProcessDetails{}).Uptime(time.Now()) != 0 {
		t.Error("unknown start time should give zero uptime")
	}
}
