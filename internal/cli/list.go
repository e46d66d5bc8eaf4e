package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/keycapgen/internal/catalog"
	"github.com/rshade/keycapgen/internal/tui/browser"
)

// Output formats for list.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const tabPadding = 2

// variantSummary is the list output record.
type variantSummary struct {
	Name    string   `json:"name"    yaml:"name"`
	Preset  string   `json:"preset"  yaml:"preset"`
	Size    string   `json:"size"    yaml:"size"`
	Legends []string `json:"legends,omitempty" yaml:"legends,flow,omitempty"`
	File    string   `json:"file"    yaml:"file"`
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		catalogFlag string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "list [names...]",
		Short: "List the keycaps in a catalog",
		Example: `  keycapgen list
  keycapgen list --catalog gem --format json
  keycapgen list --format yaml Q W E`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, all, err := loadVariants(cmd, catalogFlag)
			if err != nil {
				return err
			}
			selected, selectErr := selectVariants(cmd.ErrOrStderr(), all, args)
			if err = writeVariants(cmd.OutOrStdout(), format, selected); err != nil {
				return err
			}
			return selectErr
		},
	}

	cmd.Flags().StringVar(&catalogFlag, "catalog", "", "builtin catalog name or catalog file path")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, json or yaml")
	return cmd
}

func summarize(variants []catalog.Resolved) []variantSummary {
	out := make([]variantSummary, len(variants))
	for i, v := range variants {
		var legends []string
		for _, l := range v.Params.Legends {
			if l != "" {
				legends = append(legends, l)
			}
		}
		out[i] = variantSummary{
			Name:    v.Params.ResolvedName(),
			Preset:  v.Preset,
			Size:    browser.Size(v.Params),
			Legends: legends,
			File:    v.Params.FileName(),
		}
	}
	return out
}

func writeVariants(w io.Writer, format string, variants []catalog.Resolved) error {
	rows := summarize(variants)
	switch format {
	case formatTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
		_, _ = fmt.Fprintln(tw, "NAME\tPRESET\tSIZE\tLEGENDS\tFILE")
		for _, r := range rows {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				r.Name, r.Preset, r.Size, strings.Join(r.Legends, " "), r.File)
		}
		return tw.Flush()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, formatTable, formatJSON, formatYAML)
	}
}
