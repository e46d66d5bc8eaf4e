package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/keycapgen/internal/keycap"
	"github.com/rshade/keycapgen/internal/openscad"
)

// shownKeycap is the JSON form of show. The command is part of the document
// so the output stays one parseable value.
type shownKeycap struct {
	Name    string        `json:"name"`
	Preset  string        `json:"preset"`
	Line    int           `json:"line"`
	Params  keycap.Params `json:"params"`
	Command []string      `json:"command"`
}

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	var (
		catalogFlag string
		format      string
		out         string
		sc          openscadFlags
	)

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a keycap's resolved parameters and its openscad command line",
		Args:  cobra.ExactArgs(1),
		Example: `  keycapgen show 1.25U_LCtrl
  keycapgen show --catalog gem --format json tilde`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, all, err := loadVariants(cmd, catalogFlag)
			if err != nil {
				return err
			}
			found, err := selectVariants(cmd.ErrOrStderr(), all, args)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return errors.New("no keycap selected")
			}
			v := found[0]

			opts, err := buildOptions(cmd.Context(), sc, outputDir(out), false)
			if err != nil {
				return err
			}

			argv := openscad.Command(v.Params, opts)
			w := cmd.OutOrStdout()
			switch format {
			case formatYAML, "":
				_, _ = fmt.Fprintf(w, "# %s (preset %s, line %d)\n", v.Params.ResolvedName(), v.Preset, v.Line)
				data, marshalErr := yaml.Marshal(v.Params)
				if marshalErr != nil {
					return marshalErr
				}
				_, _ = w.Write(data)
				_, _ = fmt.Fprintf(w, "# openscad command:\n# %s\n", shellQuote(argv))
				return nil
			case formatJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(shownKeycap{
					Name:    v.Params.ResolvedName(),
					Preset:  v.Preset,
					Line:    v.Line,
					Params:  v.Params,
					Command: argv,
				})
			default:
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatYAML, formatJSON)
			}
		},
	}

	cmd.Flags().StringVar(&catalogFlag, "catalog", "", "builtin catalog name or catalog file path")
	cmd.Flags().StringVar(&format, "format", formatYAML, "parameter format: yaml or json")
	cmd.Flags().StringVar(&out, "out", "", "output directory used in the command line")
	sc.register(cmd)
	return cmd
}
