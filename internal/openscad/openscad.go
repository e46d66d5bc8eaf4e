package openscad

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rshade/keycapgen/internal/keycap"
	"github.com/rshade/keycapgen/internal/logging"
)

// Defaults for locating and running OpenSCAD.
const (
	BinaryName            = "openscad"
	DefaultScene          = "keycap_playground.scad"
	DefaultRenderTimeout  = 30 * time.Minute
	DefaultVersionTimeout = 15 * time.Second

	fastCSGFlag = "--enable=fast-csg"
)

// Options configures a single render.
type Options struct {
	Binary  string        // Path to openscad (default: looked up in PATH).
	Scene   string        // Scene file (default: keycap_playground.scad).
	OutDir  string        // Directory the model file is written to.
	Dir     string        // Working directory for openscad (default: current).
	FastCSG bool          // Pass --enable=fast-csg.
	Timeout time.Duration // Max render time (default: 30 minutes).
}

func (o Options) binary() string {
	if o.Binary == "" {
		return BinaryName
	}
	return o.Binary
}

func (o Options) scene() string {
	if o.Scene == "" {
		return DefaultScene
	}
	return o.Scene
}

// OutputPath is where a render of p is written.
func (o Options) OutputPath(p keycap.Params) string {
	return filepath.Join(o.OutDir, p.FileName())
}

// CommandRunner executes an external command and returns its stdout, stderr, and error.
// This interface enables testing without spawning real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// execRunner is the default CommandRunner. Arguments go straight to the
// process with no shell in between, so legends need no quoting.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Runner is the package-level CommandRunner. Replace in tests with a mock.
var Runner CommandRunner = &execRunner{} //nolint:gochecknoglobals // Required for test injection

// FindBinary returns configured if it names an executable, otherwise the
// openscad found in PATH.
func FindBinary(configured string) (string, error) {
	name := configured
	if name == "" {
		name = BinaryName
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w (looked for %q)", ErrOpenSCADNotFound, name)
	}
	return path, nil
}

// FindScene checks that the scene file exists, relative to dir when not absolute.
func FindScene(dir, scene string) (string, error) {
	if scene == "" {
		scene = DefaultScene
	}
	path := scene
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrSceneNotFound, path)
	}
	return path, nil
}

// FindPlayground walks up from dir to the first directory containing the
// default scene file and returns it. ErrNoPlayground if the filesystem root
// is reached first.
func FindPlayground(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	for {
		if info, statErr := os.Stat(filepath.Join(current, DefaultScene)); statErr == nil && !info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNoPlayground
		}
		current = parent
	}
}

// Args returns the openscad argument list for p: optional fast-csg flag, the
// output file, one -D per variable, then the scene.
func Args(p keycap.Params, opts Options) []string {
	defs := p.Definitions()
	args := make([]string, 0, 4+2*len(defs))
	if opts.FastCSG {
		args = append(args, fastCSGFlag)
	}
	args = append(args, "-o", opts.OutputPath(p))
	for _, d := range defs {
		args = append(args, "-D", d.String())
	}
	return append(args, opts.scene())
}

// Command returns the full argv, binary first.
func Command(p keycap.Params, opts Options) []string {
	return append([]string{opts.binary()}, Args(p, opts)...)
}

// Render runs openscad for p and returns the path of the written file.
func Render(ctx context.Context, p keycap.Params, opts Options) (string, error) {
	log := logging.FromContext(ctx)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultRenderTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := opts.OutputPath(p)
	log.Debug().
		Ctx(ctx).
		Str("component", "openscad").
		Str("operation", "render").
		Str("file", out).
		Bool("fast_csg", opts.FastCSG).
		Msg("running openscad")

	start := time.Now()
	stdout, stderr, err := Runner.Run(ctx, opts.Dir, opts.binary(), Args(p, opts)...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %s", ErrRenderTimeout, timeout, out)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %w", ErrOpenSCADNotFound, err)
		}
		return "", RenderError(out, stderr)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "openscad").
		Str("file", out).
		Int("output_bytes", len(stdout)+len(stderr)).
		Dur("duration", time.Since(start)).
		Msg("openscad completed")

	return out, nil
}
