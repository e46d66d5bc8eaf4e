package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/keycapgen/internal/config"
)

// NewConfigShowCmd prints the effective configuration.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration and where it came from",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()

			source := cfg.Path()
			if source == "" {
				source = "built-in defaults"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", source)
			if dir := config.GetResolvedProjectDir(); dir != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# project: %s\n", dir)
			}

			// A broken user file is skipped when loading; report it here.
			if path, err := config.ConfigPath(); err == nil {
				if loadErr := config.Default().Load(path); loadErr != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", loadErr)
				}
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
