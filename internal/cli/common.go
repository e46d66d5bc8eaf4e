package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rshade/keycapgen/internal/catalog"
	"github.com/rshade/keycapgen/internal/config"
	"github.com/rshade/keycapgen/internal/keycap"
	"github.com/rshade/keycapgen/internal/logging"
	"github.com/rshade/keycapgen/internal/openscad"
)

// catalogRef returns flagValue, else the configured default catalog.
func catalogRef(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if ref := config.GetGlobalConfig().Output.DefaultCatalog; ref != "" {
		return ref
	}
	return config.DefaultCatalog
}

// loadVariants opens a catalog and resolves it, warning about duplicates.
func loadVariants(cmd *cobra.Command, ref string) (*catalog.Catalog, []catalog.Resolved, error) {
	ctx := cmd.Context()
	c, err := catalog.Open(catalogRef(ref))
	if err != nil {
		return nil, nil, err
	}
	resolved, err := resolveCatalog(ctx, cmd.ErrOrStderr(), c)
	if err != nil {
		return nil, nil, err
	}
	return c, resolved, nil
}

func resolveCatalog(ctx context.Context, stderr io.Writer, c *catalog.Catalog) ([]catalog.Resolved, error) {
	resolved, dups, err := c.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving catalog %s: %w", c.Source, err)
	}
	for _, d := range dups {
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("catalog", c.Source).
			Str("variant", d.Name).
			Int("line", d.Line).
			Msg("duplicate keycap name")
		_, _ = fmt.Fprintf(stderr, "Warning: %s\n", d)
	}
	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("catalog", c.Source).
		Int("variants", len(resolved)).
		Msg("catalog resolved")
	return resolved, nil
}

// selectVariants narrows all to names. With no names every variant is
// selected. Unmatched names are reported on stderr and returned as an error
// wrapping ErrUnmatchedNames alongside whatever did match.
func selectVariants(stderr io.Writer, all []catalog.Resolved, names []string) ([]catalog.Resolved, error) {
	if len(names) == 0 {
		return all, nil
	}
	found, missing := catalog.Find(all, names...)
	for _, name := range missing {
		_, _ = fmt.Fprintf(stderr, "No keycap named %q\n", name)
	}
	if len(missing) > 0 {
		return found, &ExitError{
			Code: 1,
			Err:  fmt.Errorf("%w: %s", ErrUnmatchedNames, strings.Join(missing, ", ")),
		}
	}
	return found, nil
}

func paramsOf(resolved []catalog.Resolved) []keycap.Params {
	out := make([]keycap.Params, len(resolved))
	for i, r := range resolved {
		out[i] = r.Params
	}
	return out
}

// openscadFlags are the flags shared by commands that invoke OpenSCAD.
type openscadFlags struct {
	binary string
	scene  string
}

func (f *openscadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.binary, "openscad", "", "path to the openscad binary (default: from config or PATH)")
	cmd.Flags().StringVar(&f.scene, "scene", "", "keycap playground scene file (default: keycap_playground.scad)")
}

// buildOptions turns config and flags into openscad.Options. With checkTools set,
// the binary and scene must exist and the binary's version decides fast-csg;
// without it, values are taken as given so dry runs work anywhere.
func buildOptions(ctx context.Context, f openscadFlags, outDir string, checkTools bool) (openscad.Options, error) {
	cfg := config.GetGlobalConfig()

	bin := f.binary
	if bin == "" {
		bin = cfg.OpenSCAD.Path
	}
	scene := f.scene
	if scene == "" {
		scene = cfg.OpenSCAD.Scene
	}
	if scene == "" {
		scene = openscad.DefaultScene
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return openscad.Options{}, fmt.Errorf("resolving output directory: %w", err)
	}

	opts := openscad.Options{
		Binary:  bin,
		Scene:   scene,
		OutDir:  absOut,
		Timeout: cfg.OpenSCAD.Timeout,
	}

	// Relative scenes are looked up from the nearest playground checkout, so
	// the tool works from any subdirectory of it.
	if !filepath.IsAbs(scene) {
		cwd, _ := os.Getwd()
		if root, findErr := openscad.FindPlayground(cwd); findErr == nil {
			opts.Dir = root
		}
	}

	if !checkTools {
		opts.FastCSG = cfg.OpenSCAD.FastCSG == openscad.FastCSGOn
		return opts, nil
	}

	if opts.Binary, err = openscad.FindBinary(bin); err != nil {
		return openscad.Options{}, err
	}
	if _, err = openscad.FindScene(opts.Dir, scene); err != nil {
		return openscad.Options{}, err
	}

	mode := strings.ToLower(cfg.OpenSCAD.FastCSG)
	if mode != openscad.FastCSGOff {
		v, verErr := openscad.Version(ctx, opts.Binary)
		if verErr != nil {
			logging.FromContext(ctx).Warn().Ctx(ctx).Err(verErr).Msg("could not determine openscad version")
		}
		if opts.FastCSG, err = openscad.ResolveFastCSG(mode, v); err != nil {
			return openscad.Options{}, err
		}
	}
	return opts, nil
}

// outputDir returns flagValue, else the configured output directory.
func outputDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := config.GetGlobalConfig().Output.Dir; dir != "" {
		return dir
	}
	return config.DefaultOutDir
}

// statusPrinter writes progress lines, bold when stdout is a terminal.
type statusPrinter struct {
	w      io.Writer
	styled bool
	style  lipgloss.Style
}

func newStatusPrinter(cmd *cobra.Command) *statusPrinter {
	w := cmd.OutOrStdout()
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isTerminal(f)
	}
	return &statusPrinter{w: w, styled: styled, style: lipgloss.NewStyle().Bold(true)}
}

func (s *statusPrinter) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if s.styled {
		line = s.style.Render(line)
	}
	_, _ = fmt.Fprintln(s.w, line)
}

// shellQuote renders args so the line can be pasted into a POSIX shell.
func shellQuote(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		if a != "" && strings.IndexFunc(a, needsQuote) < 0 {
			out[i] = a
			continue
		}
		out[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(out, " ")
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./=:,+@%", r):
		return false
	}
	return true
}

// isBuiltin reports whether c came from the embedded catalogs.
func isBuiltin(c *catalog.Catalog) bool {
	return strings.HasPrefix(c.Source, "builtin:")
}
