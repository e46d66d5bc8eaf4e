// Package config loads keycapgen settings from the user config file, an
// optional project overlay and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/keycapgen/internal/logging"
	"github.com/rshade/keycapgen/internal/openscad"
)

// Environment variables consulted after the config files.
const (
	envHome       = "KEYCAPGEN_HOME"
	envOpenSCAD   = "KEYCAPGEN_OPENSCAD"
	envScene      = "KEYCAPGEN_SCENE"
	envOut        = "KEYCAPGEN_OUT"
	envJobs       = "KEYCAPGEN_JOBS"
	envLogLevel   = "KEYCAPGEN_LOG_LEVEL"
	envLogFormat  = "KEYCAPGEN_LOG_FORMAT"
	configDirName = ".keycapgen"
	configFile    = "config.yaml"
)

// Defaults.
const (
	DefaultOutDir  = "."
	DefaultCatalog = "riskeycap"
	DefaultJobs    = 1
)

// Config is the full keycapgen configuration.
type Config struct {
	OpenSCAD OpenSCADConfig `yaml:"openscad"`
	Output   OutputConfig   `yaml:"output"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`

	// path is the file this config was loaded from, if any.
	path string
}

// OpenSCADConfig locates and tunes the CAD engine.
type OpenSCADConfig struct {
	Path    string        `yaml:"path"`
	Scene   string        `yaml:"scene"`
	FastCSG string        `yaml:"fast_csg"`
	Timeout time.Duration `yaml:"timeout"`
}

// OutputConfig says where models go and which catalog is used by default.
type OutputConfig struct {
	Dir            string `yaml:"dir"`
	DefaultCatalog string `yaml:"default_catalog"`
}

// RenderConfig controls the batch executor.
type RenderConfig struct {
	Jobs     int  `yaml:"jobs"`
	FailFast bool `yaml:"fail_fast"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenSCAD: OpenSCADConfig{
			Scene:   openscad.DefaultScene,
			FastCSG: openscad.FastCSGAuto,
			Timeout: openscad.DefaultRenderTimeout,
		},
		Output: OutputConfig{
			Dir:            DefaultOutDir,
			DefaultCatalog: DefaultCatalog,
		},
		Render: RenderConfig{
			Jobs: DefaultJobs,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// New returns the defaults overlaid with the user config file, if present,
// and then the environment. Unreadable config files are ignored so a broken
// file never blocks the CLI; "config show" surfaces them through Load.
func New() *Config {
	cfg := Default()
	if path, err := ConfigPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			loaded := Default()
			if loadErr := loaded.Load(path); loadErr == nil {
				cfg = loaded
				cfg.path = path
			}
		}
	}
	cfg.ApplyEnv()
	return cfg
}

// Load reads path on top of cfg. A missing file is not an error.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return c.Validate()
}

// Save writes cfg as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Path is the file this config was loaded from, or "" for pure defaults.
func (c *Config) Path() string {
	return c.path
}

// ApplyEnv overrides settings from KEYCAPGEN_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(envOpenSCAD); v != "" {
		c.OpenSCAD.Path = v
	}
	if v := os.Getenv(envScene); v != "" {
		c.OpenSCAD.Scene = v
	}
	if v := os.Getenv(envOut); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(envJobs); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Render.Jobs = n
		}
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envLogFormat); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	var problems []string
	if c.Render.Jobs < 0 {
		problems = append(problems, fmt.Sprintf("render.jobs must not be negative (got %d)", c.Render.Jobs))
	}
	if c.OpenSCAD.Timeout < 0 {
		problems = append(problems, "openscad.timeout must not be negative")
	}
	if _, err := openscad.ResolveFastCSG(c.OpenSCAD.FastCSG, nil); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json (got %q)", c.Logging.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
