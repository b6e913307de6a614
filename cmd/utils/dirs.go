package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDataDir returns the directory used for call history and other local state.
// CALLER_DATA_DIR overrides the default of ~/.outbound-caller.
func GetDataDir() (string, error) {
	dataDir := os.Getenv("CALLER_DATA_DIR")
	if dataDir != "" {
		return dataDir, nil
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".outbound-caller"), nil
	} else {
		return "", fmt.Errorf("GetDataDir: could not determine home directory: %w", err)
	}
}

// ResolvePath joins a relative path onto the effective working directory.
// Absolute paths are returned unchanged.
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetEffectiveCWD(), path)
}
