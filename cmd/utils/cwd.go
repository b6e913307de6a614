package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// OverrideCwd is set from the global --cwd flag.
var OverrideCwd string

// GetEffectiveCWD returns the directory to treat as the working directory.
// The pid-file, .env.local and caller.yaml are all resolved against it.
func GetEffectiveCWD() string {
	if strings.TrimSpace(OverrideCwd) != "" {
		if filepath.IsAbs(OverrideCwd) {
			return OverrideCwd
		}
		abs, err := filepath.Abs(OverrideCwd)
		if err != nil {
			return "."
		}
		return abs
	}

	wd, _ := os.Getwd()
	if wd == "" {
		return "."
	}

	return wd
}
