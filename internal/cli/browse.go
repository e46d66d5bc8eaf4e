package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/keycapgen/internal/catalog"
	"github.com/rshade/keycapgen/internal/tui/browser"
)

// browseFn runs the interactive browser. Replaced in tests.
var browseFn = browser.Run //nolint:gochecknoglobals // Required for test injection

// NewBrowseCmd creates the browse command.
func NewBrowseCmd() *cobra.Command {
	var (
		f        renderFlags
		doRender bool
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a catalog interactively and pick keycaps to render",
		Long: `Opens a table of every keycap in the catalog with the selected keycap's
OpenSCAD variables alongside. Press enter to mark keycaps, / to filter and
q when done. The marked names are printed, or rendered with --render.
ctrl+c leaves without printing or rendering anything.`,
		Example: `  keycapgen browse
  keycapgen browse --catalog gem --render --out stl`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			c, all, err := loadVariants(cmd, f.catalog)
			if err != nil {
				return err
			}

			marked, err := browseFn(ctx, title(c), all)
			if errors.Is(err, browser.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			if len(marked) == 0 {
				return nil
			}

			if !doRender {
				for _, name := range marked {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			selected, _ := catalog.Find(all, marked...)
			opts, err := buildOptions(ctx, f.openscad, outputDir(f.out), !f.dryRun)
			if err != nil {
				return err
			}
			return newBatch(cmd, f, opts).run(ctx, selected, false)
		},
	}

	cmd.Flags().StringVar(&f.catalog, "catalog", "", "builtin catalog name or catalog file path")
	cmd.Flags().BoolVar(&doRender, "render", false, "render the marked keycaps instead of printing their names")
	cmd.Flags().StringVar(&f.out, "out", "", "output directory for --render")
	cmd.Flags().BoolVar(&f.force, "force", false, "re-render files that already exist")
	cmd.Flags().BoolVar(&f.legends, "legends", false, "also render legends-only files")
	cmd.Flags().IntVar(&f.jobs, "jobs", 0, "concurrent renders (default from config, 1)")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "stop after the first failed render")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the openscad command lines instead of running them")
	f.openscad.register(cmd)

	return cmd
}

func title(c *catalog.Catalog) string {
	if c.Name == "" {
		return c.Source
	}
	if c.Description == "" {
		return c.Name
	}
	return c.Name + ": " + c.Description
}
