package utils

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	r := &ExecRunner{Dir: t.TempDir()}
	out, err := r.Run(context.Background(), "sh", "-c", "echo hello; echo oops 1>&2")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", out.Stdout, "hello\n")
	}
	if out.Stderr != "oops\n" {
		t.Errorf("Stderr = %q, want %q", out.Stderr, "oops\n")
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
}

func TestExecRunnerNonZeroExitKeepsOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	r := &ExecRunner{Dir: t.TempDir()}
	out, err := r.Run(context.Background(), "sh", "-c", "echo partial; exit 3")
	if err == nil {
		t.Fatal("expected an error for non-zero exit")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("expected *exec.ExitError in chain, got %v", err)
	}
	if out.Stdout != "partial\n" || out.ExitCode != 3 {
		t.Errorf("got stdout %q exit %d", out.Stdout, out.ExitCode)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := &ExecRunner{Dir: t.TempDir()}
	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-7880")
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected exec.ErrNotFound, got %v", err)
	}
}

func TestExecRunnerTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}
	r := &ExecRunner{Dir: t.TempDir(), Timeout: 100 * time.Millisecond}
	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", "5")
	if !errors.Is(err, ErrCommandTimeout) {
		t.Fatalf("expected ErrCommandTimeout, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout did not stop the command promptly")
	}
}

func TestLines(t *testing.T) {
	got := Lines("a\r\n\n  \nb\n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Lines() = %q", got)
	}
}
