package liveness

import (
	"context"
	"errors"
	"testing"

	"github.com/outbound-caller/cli/cmd/utils"
)

var defaultUnixSignatures = []string{"python agent.py dev", "python3 agent.py dev"}

func TestProcessSignalProbe(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		resp    map[string]fakeResponse
		want    Result
		wantPID int
	}{
		{
			name:    "python3 signature on unix",
			goos:    "linux",
			resp:    map[string]fakeResponse{"ps aux": {out: utils.CommandOutput{Stdout: psAuxWithAgent}}},
			want:    Running,
			wantPID: 4242,
		},
		{
			name: "python signature on darwin",
			goos: "darwin",
			resp: map[string]fakeResponse{"ps aux": {out: utils.CommandOutput{Stdout: "dev 77 0.0 0.1 1 1 s001 S+ 9:00 0:00 python agent.py dev\n"}}},
			want: Running, wantPID: 77,
		},
		{
			name: "no signature is a definite false",
			goos: "linux",
			resp: map[string]fakeResponse{"ps aux": {out: utils.CommandOutput{Stdout: psAuxWithoutAgent}}},
			want: NotRunning,
		},
		{
			name: "empty snapshot is a definite false",
			goos: "linux",
			resp: map[string]fakeResponse{"ps aux": {out: utils.CommandOutput{}}},
			want: NotRunning,
		},
		{
			name: "listing failure is inconclusive",
			goos: "linux",
			resp: map[string]fakeResponse{"ps aux": {err: errors.New("ps: exit status 1")}},
			want: Inconclusive,
		},
		{
			name: "missing ps is inconclusive",
			goos: "linux",
			resp: map[string]fakeResponse{},
			want: Inconclusive,
		},
		{
			name: "windows uses tasklist and the script name",
			goos: "windows",
			resp: map[string]fakeResponse{"tasklist": {out: utils.CommandOutput{Stdout: "Image Name   PID Session\nagent.py     912 Console\n"}}},
			want: Running, wantPID: 912,
		},
		{
			name: "windows matches the script name anywhere in the line",
			goos: "windows",
			resp: map[string]fakeResponse{"tasklist": {out: utils.CommandOutput{Stdout: "python.exe 3 Console  python agent.py dev\n"}}},
			want: Running, wantPID: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{responses: tt.resp}
			probe := &ProcessSignalProbe{
				Runner:            runner,
				GOOS:              tt.goos,
				UnixSignatures:    defaultUnixSignatures,
				WindowsSignatures: []string{"agent.py"},
			}
			got := probe.Check(context.Background())
			if got.Result != tt.want {
				t.Fatalf("Result = %s, want %s (detail %q, err %v)", got.Result, tt.want, got.Detail, got.Err)
			}
			if got.PID != tt.wantPID {
				t.Errorf("PID = %d, want %d", got.PID, tt.wantPID)
			}
			if tt.want == Inconclusive && got.Err == nil {
				t.Error("inconclusive outcome should carry the underlying error")
			}
			if len(runner.calls) != 1 {
				t.Errorf("expected exactly one listing invocation, got %v", runner.calls)
			}
		})
	}
}

func TestPidColumn(t *testing.T) {
	if got := pidColumn("dev 4242 1.3 python3 agent.py dev"); got != 4242 {
		t.Errorf("pidColumn = %d", got)
	}
	if got := pidColumn("garbage"); got != 0 {
		t.Errorf("pidColumn(garbage) = %d", got)
	}
	if got := pidColumn("USER PID %CPU"); got != 0 {
		t.Errorf("pidColumn(header) = %d", got)
	}
}
