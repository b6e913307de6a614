package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Environment variable names read by the dashboard.
const (
	EnvLiveKitURL       = "LIVEKIT_URL"
	EnvSIPTrunkID       = "SIP_OUTBOUND_TRUNK_ID"
	DefaultEnvFile      = ".env.local"
	NotConfiguredMarker = "Not configured"
)

// Environment is the display-relevant subset of the process environment.
type Environment struct {
	LiveKitURL string `json:"livekit_url"`
	SIPTrunkID string `json:"sip_outbound_trunk_id"`
}

// ReadEnvironment snapshots the variables the dashboard displays.
func ReadEnvironment() Environment {
	return Environment{
		LiveKitURL: strings.TrimSpace(os.Getenv(EnvLiveKitURL)),
		SIPTrunkID: strings.TrimSpace(os.Getenv(EnvSIPTrunkID)),
	}
}

// DisplayValue renders an empty value as "Not configured".
func DisplayValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotConfiguredMarker
	}
	return v
}

// EnvLoader applies an env file to the process environment. Variables that
// were set when the loader was created are never overridden, including keys
// added to the file later and picked up by a reload.
type EnvLoader struct {
	Path string

	mu     sync.Mutex
	preset map[string]bool
}

// NewEnvLoader returns a loader for path and records which variables the
// process environment already defines.
func NewEnvLoader(path string) *EnvLoader {
	env := os.Environ()
	preset := make(map[string]bool, len(env))
	for _, kv := range env {
		if key, _, ok := strings.Cut(kv, "="); ok && key != "" {
			preset[key] = true
		}
	}
	return &EnvLoader{Path: path, preset: preset}
}

// Load reads the env file and sets every variable it defines that the
// process did not already have. A missing file is not an error; the returned
// bool reports whether the file was found.
func (l *EnvLoader) Load() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	values, err := godotenv.Read(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to parse env file %s: %w", l.Path, err)
	}

	for key, value := range values {
		if l.preset[key] {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return true, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return true, nil
}
