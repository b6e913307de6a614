package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var versionPattern = regexp.MustCompile(`v?\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?`)

// ParseCLIVersion extracts the first semantic version from `lk --version`
// output, e.g. "lk version 2.4.1".
func ParseCLIVersion(output string) (*semver.Version, error) {
	raw := versionPattern.FindString(output)
	if raw == "" {
		return nil, fmt.Errorf("no version found in %q", strings.TrimSpace(output))
	}
	v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return v, nil
}

// CLIVersion asks the dispatcher for its version.
func (d *Dispatcher) CLIVersion(ctx context.Context) (*semver.Version, error) {
	out, err := d.Runner.Run(ctx, d.Command, "--version")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s version: %w", d.Command, err)
	}
	return ParseCLIVersion(out.Stdout + out.Stderr)
}

// CheckCLIVersion reports an error when v is older than minimum.
func CheckCLIVersion(v *semver.Version, minimum string) error {
	constraint, err := semver.NewConstraint(">= " + strings.TrimPrefix(strings.TrimSpace(minimum), "v"))
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("dispatcher version %s is older than the required %s", v, minimum)
	}
	return nil
}
