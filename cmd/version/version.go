// Package version holds the build version of the CLI.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CurrentVersion is set with -ldflags "-X .../cmd/version.CurrentVersion=v1.2.3".
var CurrentVersion = "dev"

// Normalize returns version with a single "v" prefix. Non-semver strings such
// as "dev" are returned unchanged.
func Normalize(version string) string {
	if version == "" {
		return ""
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(version, "v"), "V")
	if _, err := semver.NewVersion(trimmed); err != nil {
		return version
	}
	return "v" + trimmed
}

// IsRelease reports whether version is a semantic version.
func IsRelease(version string) bool {
	_, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	return err == nil
}

// FormatForDisplay renders a version for `caller version`.
func FormatForDisplay(version string) string {
	if !IsRelease(version) {
		return version + " (development build)"
	}
	return Normalize(version)
}

// Platform is the os-arch pair, e.g. "linux-amd64".
func Platform() string {
	return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
}
