package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/keycapgen/internal/catalog"
)

// NewCatalogsCmd lists the builtin catalogs.
func NewCatalogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogs",
		Short: "List the builtin keycap catalogs",
		Example: `  keycapgen catalogs
  keycapgen catalogs export gem > my_gem.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tVARIANTS\tFILE TYPE\tDESCRIPTION")
			for _, name := range catalog.BuiltinNames() {
				c, err := catalog.Builtin(name)
				if err != nil {
					return err
				}
				fileType := c.FileType
				if fileType == "" {
					fileType = "-"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, len(c.Variants()), fileType, c.Description)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(newCatalogsExportCmd())
	return cmd
}

func newCatalogsExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a builtin catalog's YAML, as a starting point for your own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := catalog.BuiltinSource(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err = os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			cmd.Printf("Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write instead of stdout")
	return cmd
}
