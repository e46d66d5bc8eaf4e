package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rshade/keycapgen/internal/logging"
	"github.com/rshade/keycapgen/internal/openscad"
)

const envProjectDir = "KEYCAPGEN_PROJECT_DIR"

// resolvedProjectDir is the project directory chosen for this invocation.
var (
	resolvedProjectDir   string       //nolint:gochecknoglobals // Set once at startup, read by config commands
	resolvedProjectDirMu sync.RWMutex //nolint:gochecknoglobals // Protects resolvedProjectDir
)

// SetResolvedProjectDir stores the resolved project directory.
func SetResolvedProjectDir(dir string) {
	resolvedProjectDirMu.Lock()
	defer resolvedProjectDirMu.Unlock()
	resolvedProjectDir = dir
}

// GetResolvedProjectDir returns the stored resolved project directory.
func GetResolvedProjectDir() string {
	resolvedProjectDirMu.RLock()
	defer resolvedProjectDirMu.RUnlock()
	return resolvedProjectDir
}

// ResolveProjectDir determines the project-local .keycapgen directory path.
// It checks (in order):
//  1. flagValue
//  2. KEYCAPGEN_PROJECT_DIR
//  3. the nearest keycap playground checkout at or above startDir
//  4. startDir itself, when it already has a .keycapgen directory
//
// Returns "" if none apply. Never creates the directory.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}

	if envDir := os.Getenv(envProjectDir); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	root, err := openscad.FindPlayground(startDir)
	if err == nil {
		return toAbsProjectDir(ctx, root)
	}
	if !errors.Is(err, openscad.ErrNoPlayground) {
		logging.FromContext(ctx).Warn().
			Str("component", "config").
			Err(err).
			Str("start_dir", startDir).
			Msg("unexpected error during playground discovery")
	}

	local := toAbsProjectDir(ctx, startDir)
	if info, statErr := os.Stat(local); statErr == nil && info.IsDir() {
		return local
	}
	return ""
}

// NewWithProjectDir loads the global config then shallow-merges
// <projectDir>/config.yaml on top. A missing or broken overlay leaves the
// global config in place.
func NewWithProjectDir(ctx context.Context, projectDir string) *Config {
	cfg := New()
	if projectDir == "" {
		return cfg
	}

	overlayPath := filepath.Join(projectDir, configFile)
	if _, err := os.Stat(overlayPath); err != nil {
		return cfg
	}

	merged := New()
	if err := ShallowMergeYAML(merged, overlayPath); err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "config").
			Str("operation", "merge_project_config").
			Err(err).
			Str("overlay_path", overlayPath).
			Msg("failed to merge project config, using global defaults")
		return cfg
	}
	// Environment still wins over the project file.
	merged.ApplyEnv()
	merged.path = overlayPath
	return merged
}

// toAbsProjectDir makes dir absolute and appends ".keycapgen" unless it is
// already there.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path")
		abs = dir
	}
	if filepath.Base(abs) == configDirName {
		return abs
	}
	return filepath.Join(abs, configDirName)
}
