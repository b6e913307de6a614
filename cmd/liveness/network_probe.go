package liveness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/outbound-caller/cli/cmd/utils"
)

var (
	// ErrNoServiceURL is reported when LIVEKIT_URL is unset.
	ErrNoServiceURL = errors.New("service URL is not configured")
	// ErrNoPort is reported when no numeric port can be derived from the URL.
	ErrNoPort = errors.New("service URL has no port")
)

// NetworkSignalProbe looks for a listening socket on the service URL's port.
type NetworkSignalProbe struct {
	Runner utils.CommandRunner
	GOOS   string
	// ServiceURL is consulted on every check so env reloads are honoured.
	ServiceURL func() string
	// UnixCommand and WindowsCommand are the socket-listing invocations,
	// e.g. ["netstat", "-tuln"].
	UnixCommand    []string
	WindowsCommand []string
}

func (p *NetworkSignalProbe) Name() string { return "network" }

// ParsePort takes the text after the last ':' up to the next '/' and requires
// it to be all digits. "ws://host:7880" yields "7880".
func ParsePort(serviceURL string) (string, error) {
	u := strings.TrimSpace(serviceURL)
	if u == "" {
		return "", ErrNoServiceURL
	}
	i := strings.LastIndex(u, ":")
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrNoPort, u)
	}
	token := u[i+1:]
	if j := strings.Index(token, "/"); j >= 0 {
		token = token[:j]
	}
	if !isDigits(token) {
		return "", fmt.Errorf("%w: %q", ErrNoPort, u)
	}
	return token, nil
}

func (p *NetworkSignalProbe) Check(ctx context.Context) Outcome {
	var serviceURL string
	if p.ServiceURL != nil {
		serviceURL = p.ServiceURL()
	}
	port, err := ParsePort(serviceURL)
	if err != nil {
		return Outcome{Result: Inconclusive, Detail: "no port to check", Err: err}
	}

	command := p.UnixCommand
	if p.GOOS == "windows" {
		command = p.WindowsCommand
	}
	if len(command) == 0 {
		return Outcome{Result: Inconclusive, Detail: "no socket listing command", Err: errors.New("socket listing command is empty")}
	}

	out, err := p.Runner.Run(ctx, command[0], command[1:]...)
	if err != nil {
		return Outcome{Result: Inconclusive, Detail: "socket listing unavailable", Err: err}
	}

	needle := ":" + port
	for _, line := range utils.Lines(out.Stdout) {
		if strings.Contains(line, needle) {
			return Outcome{Result: Running, Detail: fmt.Sprintf("port %s is bound", port)}
		}
	}
	return Outcome{Result: NotRunning, Detail: fmt.Sprintf("nothing bound on port %s", port)}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
