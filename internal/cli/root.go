package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/keycapgen/internal/config"
	"github.com/rshade/keycapgen/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root command for the keycapgen CLI.
func NewRootCmd(ver string) *cobra.Command {
	var (
		logResult  *logging.LogPathResult
		projectDir string
	)

	cmd := &cobra.Command{
		Use:     "keycapgen",
		Short:   "Generate keycap models with OpenSCAD",
		Long:    "keycapgen: render catalogs of keycap variants through the OpenSCAD keycap playground",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				cwd = "."
			}
			dir := config.ResolveProjectDir(cmd.Context(), projectDir, cwd)
			config.SetResolvedProjectDir(dir)
			config.SetGlobalConfig(config.NewWithProjectDir(cmd.Context(), dir))

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&projectDir, "project-dir", "",
		"directory holding the project .keycapgen/config.yaml (default: nearest keycap playground)")

	cmd.AddCommand(
		NewRenderCmd(), NewListCmd(), NewShowCmd(), NewBrowseCmd(),
		NewCatalogsCmd(), NewDoctorCmd(), newConfigCmd(),
	)
	return cmd
}

const rootCmdExample = `  # Render every keycap in the default catalog into ./stl
  keycapgen render --out stl

  # Render a few keycaps, with separate legend files for multi-material prints
  keycapgen render --catalog gem --legends Q W E R T

  # Re-render only what changed since the last run, four at a time
  keycapgen render --stale --jobs 4

  # Print the OpenSCAD command lines without running them
  keycapgen render --dry-run 1.25U_LCtrl

  # Pick keycaps interactively and render the marked ones
  keycapgen browse --render

  # Check the OpenSCAD installation
  keycapgen doctor`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd())
	return cmd
}
