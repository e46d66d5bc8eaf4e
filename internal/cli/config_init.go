package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/keycapgen/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// Inside a keycap playground checkout (without --global) it creates a
// project-local .keycapgen/ directory with config.yaml and a .gitignore that
// tracks only the config.
// Otherwise it creates the user's ~/.keycapgen/config.yaml.
func NewConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

Inside a keycap playground checkout, creates project-local configuration at
$PLAYGROUND/.keycapgen/config.yaml with a .gitignore that keeps everything
else in that directory (logs, scratch files) out of version control. Use --global to write the user
configuration even inside a project.`,
		Example: `  # Create project-local configuration (inside a playground checkout)
  keycapgen config init

  # Create user configuration
  keycapgen config init --global

  # Create configuration, overwriting existing
  keycapgen config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectDir := config.GetResolvedProjectDir()

			if projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}

			return initGlobalConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "write the user configuration even inside a project")

	return cmd
}

// checkWritable refuses to replace an existing file unless force is set.
func checkWritable(path string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return errors.New("configuration file already exists, use --force to overwrite")
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access config path %s: %w", path, err)
	}
	return nil
}

// initProjectConfig creates projectDir/config.yaml and, unless one exists,
// projectDir/.gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")
	if err := checkWritable(configPath, force); err != nil {
		return err
	}

	if err := config.Default().Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	created, err := config.EnsureProjectIgnore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if created {
		cmd.Printf("Created .gitignore tracking only config.yaml\n")
	}

	return nil
}

// initGlobalConfig creates the user config at ~/.keycapgen/config.yaml.
func initGlobalConfig(cmd *cobra.Command, force bool) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err = checkWritable(configPath, force); err != nil {
		return err
	}

	if err = config.Default().Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", configPath)

	return nil
}
