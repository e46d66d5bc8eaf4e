package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const ignoreFile = ".gitignore"

// projectIgnoreRules track the project config and nothing else kept beside it
// (render logs, scratch catalogs).
var projectIgnoreRules = []string{"*", "!" + ignoreFile, "!" + configFile}

// ProjectIgnoreRules returns the lines written to a project's .gitignore.
func ProjectIgnoreRules() []string {
	return append([]string(nil), projectIgnoreRules...)
}

// EnsureProjectIgnore writes projectDir/.gitignore unless one exists and
// reports whether it did. An existing file is left alone.
func EnsureProjectIgnore(projectDir string) (bool, error) {
	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return false, fmt.Errorf("creating project directory %s: %w", projectDir, err)
	}

	path := filepath.Join(projectDir, ignoreFile)
	//nolint:gosec // checked in alongside config.yaml, so world-readable.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", path, err)
	}

	content := "# keycapgen project directory: only the config is tracked.\n"
	for _, rule := range projectIgnoreRules {
		content += rule + "\n"
	}
	_, writeErr := f.WriteString(content)
	return true, errors.Join(writeErr, f.Close())
}
