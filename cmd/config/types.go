package config

import (
	"strings"
	"time"
)

// Defaults mirror the stock outbound-caller agent project layout.
const (
	DefaultAgentName     = "outbound-caller"
	DefaultPidFile       = ".agent.pid"
	DefaultStartCommand  = "python agent.py dev"
	DefaultDispatchCLI   = "lk"
	DefaultSuccessMarker = "Dispatch created"
	DefaultMinLKVersion  = "2.0.0"
	DefaultHistoryLimit  = 50
	DefaultServerAddr    = "127.0.0.1:8501"
	DefaultProbeTimeout  = 10 * time.Second
)

// CallerConfig represents the complete caller.yaml configuration. Every field
// is optional; ApplyDefaults fills the gaps.
type CallerConfig struct {
	Agent    AgentConfig    `yaml:"agent,omitempty" toml:"agent,omitempty" json:"agent,omitempty"`
	Probes   ProbesConfig   `yaml:"probes,omitempty" toml:"probes,omitempty" json:"probes,omitempty"`
	Dispatch DispatchConfig `yaml:"dispatch,omitempty" toml:"dispatch,omitempty" json:"dispatch,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty" toml:"history,omitempty" json:"history,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty" toml:"server,omitempty" json:"server,omitempty"`
}

// AgentConfig describes how the companion agent is launched and detected.
type AgentConfig struct {
	StartCommand      string   `yaml:"start_command,omitempty" toml:"start_command,omitempty" json:"start_command,omitempty"`
	PidFile           string   `yaml:"pid_file,omitempty" toml:"pid_file,omitempty" json:"pid_file,omitempty"`
	UnixSignatures    []string `yaml:"unix_signatures,omitempty" toml:"unix_signatures,omitempty" json:"unix_signatures,omitempty"`
	WindowsSignatures []string `yaml:"windows_signatures,omitempty" toml:"windows_signatures,omitempty" json:"windows_signatures,omitempty"`
}

// ProbesConfig tunes the liveness probes.
type ProbesConfig struct {
	// Timeout is a Go duration string, e.g. "5s".
	Timeout              string   `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
	SocketCommand        []string `yaml:"socket_command,omitempty" toml:"socket_command,omitempty" json:"socket_command,omitempty"`
	WindowsSocketCommand []string `yaml:"windows_socket_command,omitempty" toml:"windows_socket_command,omitempty" json:"windows_socket_command,omitempty"`
}

// DispatchConfig configures the external dispatcher invocation.
type DispatchConfig struct {
	Command       string `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty"`
	AgentName     string `yaml:"agent_name,omitempty" toml:"agent_name,omitempty" json:"agent_name,omitempty"`
	SuccessMarker string `yaml:"success_marker,omitempty" toml:"success_marker,omitempty" json:"success_marker,omitempty"`
	MinVersion    string `yaml:"min_version,omitempty" toml:"min_version,omitempty" json:"min_version,omitempty"`
}

// HistoryConfig bounds the local call history.
type HistoryConfig struct {
	Limit int `yaml:"limit,omitempty" toml:"limit,omitempty" json:"limit,omitempty"`
}

// ServerConfig configures `caller serve`.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *CallerConfig {
	c := &CallerConfig{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every empty field with its default.
func (c *CallerConfig) ApplyDefaults() {
	if strings.TrimSpace(c.Agent.StartCommand) == "" {
		c.Agent.StartCommand = DefaultStartCommand
	}
	if strings.TrimSpace(c.Agent.PidFile) == "" {
		c.Agent.PidFile = DefaultPidFile
	}
	if len(c.Agent.UnixSignatures) == 0 {
		c.Agent.UnixSignatures = []string{"python agent.py dev", "python3 agent.py dev"}
	}
	if len(c.Agent.WindowsSignatures) == 0 {
		c.Agent.WindowsSignatures = []string{"agent.py"}
	}
	if len(c.Probes.SocketCommand) == 0 {
		c.Probes.SocketCommand = []string{"netstat", "-tuln"}
	}
	if len(c.Probes.WindowsSocketCommand) == 0 {
		c.Probes.WindowsSocketCommand = []string{"netstat", "-an"}
	}
	if strings.TrimSpace(c.Dispatch.Command) == "" {
		c.Dispatch.Command = DefaultDispatchCLI
	}
	if strings.TrimSpace(c.Dispatch.AgentName) == "" {
		c.Dispatch.AgentName = DefaultAgentName
	}
	if c.Dispatch.SuccessMarker == "" {
		c.Dispatch.SuccessMarker = DefaultSuccessMarker
	}
	if strings.TrimSpace(c.Dispatch.MinVersion) == "" {
		c.Dispatch.MinVersion = DefaultMinLKVersion
	}
	if c.History.Limit <= 0 {
		c.History.Limit = DefaultHistoryLimit
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// ProbeTimeout parses probes.timeout, falling back to DefaultProbeTimeout when
// it is empty, malformed or not positive.
func (c *CallerConfig) ProbeTimeout() time.Duration {
	raw := strings.TrimSpace(c.Probes.Timeout)
	if raw == "" {
		return DefaultProbeTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return DefaultProbeTimeout
	}
	return d
}
