package liveness

import (
	"context"
	"strings"

	"github.com/outbound-caller/cli/cmd/utils"
)

type fakeResponse struct {
	out utils.CommandOutput
	err error
}

// fakeRunner answers by command line ("ps aux") and records every call.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (utils.CommandOutput, error) {
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, key)
	resp, ok := f.responses[key]
	if !ok {
		return utils.CommandOutput{ExitCode: -1}, errNotFound(name)
	}
	return resp.out, resp.err
}

type errNotFound string

func (e errNotFound) Error() string { return string(e) + ": executable file not found in $PATH" }

const psAuxWithAgent = `USER         PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
root           1  0.0  0.1 167524 11560 ?        Ss   09:00   0:02 /sbin/init
dev         4242  1.3  2.0 912344 81234 pts/1    Sl+  09:12   0:14 python3 agent.py dev
dev         5000  0.0  0.0  10072  3300 pts/2    R+   09:30   0:00 ps aux
`

const psAuxWithoutAgent = `USER         PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
root           1  0.0  0.1 167524 11560 ?        Ss   09:00   0:02 /sbin/init
dev         4243  0.0  0.3 112344  9234 pts/1    S+   09:12   0:00 python agent.py console
`

const netstatListening = `Active Internet connections (only servers)
Proto Recv-Q Send-Q Local Address           Foreign Address         State
tcp        0      0 127.0.0.1:7880          0.0.0.0:*               LISTEN
tcp6       0      0 :::22                   :::*                    LISTEN
`
