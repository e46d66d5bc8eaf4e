package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rshade/keycapgen/internal/catalog"
	"github.com/rshade/keycapgen/internal/cli"
	"github.com/rshade/keycapgen/internal/config"
	"github.com/rshade/keycapgen/internal/keycap"
	"github.com/rshade/keycapgen/internal/render"
)

func TestShow(t *testing.T) {
	setupCLITest(t)
	cat := writeCatalog(t)
	out := t.TempDir()

	stdout, _, err := executeCmd(t, "show", "--catalog", cat, "--out", out, "a")
	require.NoError(t, err)

	var p keycap.Params
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &p), "the whole output is one YAML document")
	assert.Equal(t, []string{"A"}, p.Legends)
	assert.Equal(t, "stl", p.FileType)
	assert.Contains(t, stdout, "# A (preset base, line")

	_, command, found := strings.Cut(stdout, "# openscad command:\n# ")
	require.True(t, found)
	assert.True(t, strings.HasPrefix(command, "openscad -o "+filepath.Join(out, "A.stl")))
}

func TestShow_JSON(t *testing.T) {
	setupCLITest(t)
	cat := writeCatalog(t)
	out := t.TempDir()

	stdout, _, err := executeCmd(t, "show", "--catalog", cat, "--out", out, "--format", "json", "a")
	require.NoError(t, err)

	var shown struct {
		Name    string        `json:"name"`
		Preset  string        `json:"preset"`
		Line    int           `json:"line"`
		Params  keycap.Params `json:"params"`
		Command []string      `json:"command"`
	}
	dec := json.NewDecoder(strings.NewReader(stdout))
	require.NoError(t, dec.Decode(&shown))
	assert.False(t, dec.More(), "nothing follows the JSON document")

	assert.Equal(t, "A", shown.Name)
	assert.Equal(t, "base", shown.Preset)
	assert.Positive(t, shown.Line)
	assert.Equal(t, []string{"A"}, shown.Params.Legends)
	require.GreaterOrEqual(t, len(shown.Command), 3)
	assert.Equal(t, []string{"openscad", "-o", filepath.Join(out, "A.stl")}, shown.Command[:3])
}

func TestShow_Unknown(t *testing.T) {
	setupCLITest(t)

	_, stderr, err := executeCmd(t, "show", "--catalog", writeCatalog(t), "Z")
	require.ErrorIs(t, err, cli.ErrUnmatchedNames)
	assert.Contains(t, stderr, `No keycap named "Z"`)
}

func TestCatalogs(t *testing.T) {
	setupCLITest(t)

	stdout, _, err := executeCmd(t, "catalogs")
	require.NoError(t, err)
	for _, name := range catalog.BuiltinNames() {
		assert.Contains(t, stdout, name)
	}
	assert.Regexp(t, `(?m)^gem\s+\d+\s+3mf\s+Full keyboard in the GEM profile$`, stdout)
}

func TestCatalogsExport(t *testing.T) {
	setupCLITest(t)
	dst := filepath.Join(t.TempDir(), "gem.yaml")

	stdout, _, err := executeCmd(t, "catalogs", "export", "gem", "-o", dst)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote "+dst)

	exported, err := catalog.Load(dst)
	require.NoError(t, err)
	builtin, err := catalog.Builtin("gem")
	require.NoError(t, err)
	assert.Len(t, exported.Variants(), len(builtin.Variants()))

	_, _, err = executeCmd(t, "catalogs", "export", "nosuch")
	require.ErrorIs(t, err, catalog.ErrUnknownCatalog)
}

func TestConfigInit_Project(t *testing.T) {
	setupCLITest(t)
	project := t.TempDir()
	t.Setenv("KEYCAPGEN_PROJECT_DIR", project)

	stdout, _, err := executeCmd(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration initialized at")
	assert.Contains(t, stdout, "Created .gitignore tracking only config.yaml")

	configPath := filepath.Join(project, ".keycapgen", "config.yaml")
	assert.FileExists(t, configPath)
	data, err := os.ReadFile(filepath.Join(project, ".keycapgen", ".gitignore"))
	require.NoError(t, err)
	for _, rule := range config.ProjectIgnoreRules() {
		assert.Contains(t, lines(string(data)), rule)
	}

	_, _, err = executeCmd(t, "config", "init")
	require.Error(t, err, "existing config is not overwritten without --force")

	require.NoError(t, os.WriteFile(filepath.Join(project, ".keycapgen", ".gitignore"), []byte("custom\n"), 0o600))
	stdout, _, err = executeCmd(t, "config", "init", "--force")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Created .gitignore")
	data, err = os.ReadFile(filepath.Join(project, ".keycapgen", ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "custom\n", string(data))
}

func TestConfigInit_Global(t *testing.T) {
	home := setupCLITest(t)

	stdout, _, err := executeCmd(t, "config", "init", "--global")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration file: "+filepath.Join(home, "config.yaml"))

	cfg := config.Default()
	require.NoError(t, cfg.Load(filepath.Join(home, "config.yaml")))
	assert.Equal(t, config.Default().Render, cfg.Render)
}

func TestConfigShow(t *testing.T) {
	home := setupCLITest(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("render:\n  jobs: 3\nopenscad:\n  timeout: 90s\n"), 0o600))

	stdout, _, err := executeCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# source: "+filepath.Join(home, "config.yaml"))
	assert.Contains(t, stdout, "jobs: 3")
	assert.Contains(t, stdout, "timeout: 1m30s")
}

func TestConfigShow_ProjectOverlay(t *testing.T) {
	setupCLITest(t)
	project := t.TempDir()
	t.Setenv("KEYCAPGEN_PROJECT_DIR", project)
	overlay := filepath.Join(project, ".keycapgen", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(overlay), 0o700))
	require.NoError(t, os.WriteFile(overlay, []byte("output:\n  dir: stl\n"), 0o600))

	stdout, _, err := executeCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# source: "+overlay)
	assert.Contains(t, stdout, "dir: stl")
}

func TestDoctor(t *testing.T) {
	setupCLITest(t)
	_, flags := installFakeOpenSCAD(t)

	stdout, _, err := executeCmd(t, append([]string{"doctor"}, flags...)...)
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^ok\s+version\s+2021\.1\.0$`, stdout)
	assert.Regexp(t, `(?m)^ok\s+fast-csg\s+disabled \(auto\)$`, stdout)
	assert.Regexp(t, `(?m)^ok\s+config\s+built-in defaults$`, stdout)
}

func TestDoctor_CountsRecords(t *testing.T) {
	setupCLITest(t)
	_, flags := installFakeOpenSCAD(t)
	out := t.TempDir()
	t.Setenv("KEYCAPGEN_OUT", out)

	stdout, _, err := executeCmd(t, append([]string{"doctor"}, flags...)...)
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^ok\s+records\s+0 in `+regexp.QuoteMeta(out)+`$`, stdout)
	assert.NoDirExists(t, filepath.Join(out, render.ManifestDir))

	_, _, err = executeCmd(t, append([]string{"render", "--catalog", writeCatalog(t)}, flags...)...)
	require.NoError(t, err)

	stdout, _, err = executeCmd(t, append([]string{"doctor"}, flags...)...)
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^ok\s+records\s+2 in `+regexp.QuoteMeta(out)+`$`, stdout)
}

func TestDoctor_MissingOpenSCAD(t *testing.T) {
	setupCLITest(t)

	stdout, _, err := executeCmd(t, "doctor", "--openscad", filepath.Join(t.TempDir(), "no-openscad"))
	require.Error(t, err)
	assert.Equal(t, 1, cli.ExitCode(err))
	assert.Regexp(t, `(?m)^FAIL\s+openscad\s+openscad not found`, stdout)
}
