package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/keycapgen/internal/config"
)

func TestEnsureProjectIgnore(t *testing.T) {
	t.Parallel()

	project := filepath.Join(t.TempDir(), "playground", ".keycapgen")

	created, err := config.EnsureProjectIgnore(project)
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(filepath.Join(project, ".gitignore"))
	require.NoError(t, err)
	var rules []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if !strings.HasPrefix(line, "#") {
			rules = append(rules, line)
		}
	}
	assert.Equal(t, config.ProjectIgnoreRules(), rules)
	assert.Contains(t, rules, "!config.yaml")

	created, err = config.EnsureProjectIgnore(project)
	require.NoError(t, err)
	assert.False(t, created, "second call keeps the first file")
}

func TestEnsureProjectIgnore_KeepsUserFile(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	path := filepath.Join(project, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("mine\n"), 0o600))

	created, err := config.EnsureProjectIgnore(project)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine\n", string(data))
}
