// Package openscad locates and runs the OpenSCAD command-line tool that turns
// a keycap parameter record into a model file.
package openscad

import (
	"errors"
	"fmt"
	"strings"
)

// openscadDownloadURL is where users can get OpenSCAD.
const openscadDownloadURL = "https://openscad.org/downloads.html"

// stderrTailLines is how much OpenSCAD output is kept in a render error.
const stderrTailLines = 20

// Sentinel errors for the OpenSCAD integration.
var (
	// ErrOpenSCADNotFound indicates the openscad binary is not in PATH or at the configured path.
	ErrOpenSCADNotFound = fmt.Errorf(
		"openscad not found; install it from %s or set --openscad", openscadDownloadURL)

	// ErrSceneNotFound indicates the keycap playground scene file is missing.
	ErrSceneNotFound = errors.New(
		"keycap playground scene not found; run from the keycap_playground directory or set --scene")

	// ErrNoPlayground indicates no directory above the start holds the scene file.
	ErrNoPlayground = errors.New("no keycap playground found in this directory or any parent")

	// ErrRenderFailed indicates openscad exited non-zero.
	ErrRenderFailed = errors.New("openscad render failed")

	// ErrRenderTimeout indicates a render exceeded its timeout.
	ErrRenderTimeout = errors.New("openscad render timed out")

	// ErrUnknownVersion indicates the --version output could not be parsed.
	ErrUnknownVersion = errors.New("could not determine openscad version")

	// ErrFastCSGUnsupported indicates fast-csg was forced on an OpenSCAD that lacks it.
	ErrFastCSGUnsupported = errors.New("fast-csg requires OpenSCAD 2022 or later")
)

// RenderError wraps ErrRenderFailed with the tail of OpenSCAD's stderr.
func RenderError(file string, stderr []byte) error {
	tail := tailLines(string(stderr), stderrTailLines)
	if tail == "" {
		return fmt.Errorf("%w: %s", ErrRenderFailed, file)
	}
	return fmt.Errorf("%w: %s: %s", ErrRenderFailed, file, tail)
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
