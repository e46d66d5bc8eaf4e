package openscad

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/keycapgen/internal/logging"
)

// Fast-CSG modes accepted in configuration.
const (
	FastCSGAuto = "auto"
	FastCSGOn   = "on"
	FastCSGOff  = "off"
)

// fastCSGConstraint is the first release line that ships the fast-csg feature.
const fastCSGConstraint = ">= 2022.0.0"

// versionPattern matches "OpenSCAD version 2021.01" and nightly strings like
// "OpenSCAD version 2022.12.06.ai12948".
var versionPattern = regexp.MustCompile(`(?i)openscad version\s+(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the release from openscad --version output. Nightly
// suffixes are dropped and leading zeros trimmed so the result is valid semver.
func ParseVersion(output string) (*semver.Version, error) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, strings.TrimSpace(output))
	}

	parts := make([]string, 3)
	for i := range parts {
		s := m[i+1]
		if s == "" {
			s = "0"
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnknownVersion, err)
		}
		parts[i] = strconv.Itoa(n)
	}
	return semver.NewVersion(strings.Join(parts, "."))
}

// Version runs bin --version. OpenSCAD prints its version on stderr, so both
// streams are searched.
func Version(ctx context.Context, bin string) (*semver.Version, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultVersionTimeout)
	defer cancel()

	stdout, stderr, err := Runner.Run(ctx, "", bin, "--version")
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w: %s", bin, err, strings.TrimSpace(string(stderr)))
	}

	v, err := ParseVersion(string(stderr) + "\n" + string(stdout))
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "openscad").
		Str("version", v.String()).
		Msg("detected openscad version")
	return v, nil
}

// SupportsFastCSG reports whether v understands --enable=fast-csg.
func SupportsFastCSG(v *semver.Version) bool {
	if v == nil {
		return false
	}
	c, err := semver.NewConstraint(fastCSGConstraint)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// ResolveFastCSG turns a configured mode into a decision for a given version.
// A nil version means the version is unknown; "auto" then stays off.
func ResolveFastCSG(mode string, v *semver.Version) (bool, error) {
	switch strings.ToLower(mode) {
	case FastCSGOff:
		return false, nil
	case FastCSGOn:
		if v != nil && !SupportsFastCSG(v) {
			return false, fmt.Errorf("%w (found %s)", ErrFastCSGUnsupported, v)
		}
		return true, nil
	case "", FastCSGAuto:
		return SupportsFastCSG(v), nil
	default:
		return false, fmt.Errorf("unknown fast_csg mode %q (want %s, %s or %s)", mode, FastCSGAuto, FastCSGOn, FastCSGOff)
	}
}
