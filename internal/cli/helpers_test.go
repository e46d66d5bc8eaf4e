package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/keycapgen/internal/cli"
	"github.com/rshade/keycapgen/internal/config"
	"github.com/rshade/keycapgen/internal/openscad"
)

const testCatalog = `
name: test
description: Two keys for tests
file_type: stl
presets:
  base:
    fonts: ["Hack"]
    font_sizes: [4]
variants:
  - {preset: base, legends: ["A"]}
  - {preset: base, name: "1U_blank"}
`

// setupCLITest isolates config and logging from the user's environment.
func setupCLITest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("KEYCAPGEN_HOME", home)
	t.Setenv("KEYCAPGEN_PROJECT_DIR", t.TempDir())
	t.Setenv("KEYCAPGEN_LOG_LEVEL", "error")
	t.Cleanup(func() {
		config.ResetGlobalConfigForTest()
		config.SetResolvedProjectDir("")
	})
	return home
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	return path
}

// executeCmd runs the root command with args and returns stdout and stderr.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cli.NewRootCmd("test")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// fakeOpenSCAD stands in for the openscad process. Renders write a small
// file at the -o path; files listed in fail exit with an error instead.
type fakeOpenSCAD struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls [][]string
}

func (f *fakeOpenSCAD) Run(_ context.Context, _ string, _ string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	if len(args) == 1 && args[0] == "--version" {
		return nil, []byte("OpenSCAD version 2021.01\n"), nil
	}
	for i, a := range args {
		if a != "-o" || i+1 >= len(args) {
			continue
		}
		out := args[i+1]
		if f.fail[filepath.Base(out)] {
			return nil, []byte("ERROR: CGAL error in render\n"), errors.New("exit status 1")
		}
		return nil, nil, os.WriteFile(out, []byte("solid test\nendsolid test\n"), 0o600)
	}
	return nil, nil, nil
}

func (f *fakeOpenSCAD) renders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var files []string
	for _, args := range f.calls {
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				files = append(files, filepath.Base(args[i+1]))
			}
		}
	}
	return files
}

// installFakeOpenSCAD swaps the process runner and returns the flags that
// point at a fake binary and scene.
func installFakeOpenSCAD(t *testing.T) (*fakeOpenSCAD, []string) {
	t.Helper()
	fake := &fakeOpenSCAD{fail: map[string]bool{}}
	original := openscad.Runner
	openscad.Runner = fake
	t.Cleanup(func() { openscad.Runner = original })

	dir := t.TempDir()
	bin := filepath.Join(dir, "openscad")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o700)) //nolint:gosec // Test binary must be executable
	scene := filepath.Join(dir, openscad.DefaultScene)
	require.NoError(t, os.WriteFile(scene, []byte("// scene\n"), 0o600))

	return fake, []string{"--openscad", bin, "--scene", scene}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}
