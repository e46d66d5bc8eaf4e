package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/keycapgen/internal/config"
	"github.com/rshade/keycapgen/internal/openscad"
	"github.com/rshade/keycapgen/internal/render"
)

// errDoctorFailed is returned when a required check fails.
var errDoctorFailed = errors.New("environment is not ready to render")

// check is one line of doctor output.
type check struct {
	name   string
	value  string
	failed bool
}

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	var sc openscadFlags

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the OpenSCAD installation and keycapgen settings",
		Long: `Reports the openscad binary, its version and fast-csg support, the
keycap playground scene, the configuration in use and how many render
records the output directory holds. Exits non-zero when
openscad or the scene cannot be found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checks := runChecks(cmd, sc)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
			failed := false
			for _, c := range checks {
				mark := "ok"
				if c.failed {
					mark = "FAIL"
					failed = true
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, c.name, c.value)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed {
				return &ExitError{Code: 1, Err: errDoctorFailed}
			}
			return nil
		},
	}
	sc.register(cmd)
	return cmd
}

func runChecks(cmd *cobra.Command, sc openscadFlags) []check {
	ctx := cmd.Context()
	cfg := config.GetGlobalConfig()
	var checks []check

	bin := sc.binary
	if bin == "" {
		bin = cfg.OpenSCAD.Path
	}
	path, err := openscad.FindBinary(bin)
	if err != nil {
		checks = append(checks, check{name: "openscad", value: err.Error(), failed: true})
	} else {
		checks = append(checks, check{name: "openscad", value: path})

		v, verErr := openscad.Version(ctx, path)
		if verErr != nil {
			checks = append(checks, check{name: "version", value: verErr.Error()})
		} else {
			checks = append(checks, check{name: "version", value: v.String()})
		}

		mode := strings.ToLower(cfg.OpenSCAD.FastCSG)
		if mode == "" {
			mode = openscad.FastCSGAuto
		}
		on, fcErr := openscad.ResolveFastCSG(mode, v)
		switch {
		case fcErr != nil:
			checks = append(checks, check{name: "fast-csg", value: fcErr.Error(), failed: true})
		case on:
			checks = append(checks, check{name: "fast-csg", value: "enabled (" + mode + ")"})
		default:
			checks = append(checks, check{name: "fast-csg", value: "disabled (" + mode + ")"})
		}
	}

	scene := sc.scene
	if scene == "" {
		scene = cfg.OpenSCAD.Scene
	}
	dir := ""
	if scene == "" || !filepath.IsAbs(scene) {
		cwd, _ := os.Getwd()
		if root, findErr := openscad.FindPlayground(cwd); findErr == nil {
			dir = root
		}
	}
	if scenePath, sceneErr := openscad.FindScene(dir, scene); sceneErr != nil {
		checks = append(checks, check{name: "scene", value: sceneErr.Error(), failed: true})
	} else {
		checks = append(checks, check{name: "scene", value: scenePath})
	}

	configSource := cfg.Path()
	if configSource == "" {
		configSource = "built-in defaults"
	}
	checks = append(checks, check{name: "config", value: configSource})

	project := config.GetResolvedProjectDir()
	if project == "" {
		project = "none"
	}
	checks = append(checks, check{name: "project", value: project})

	return append(checks, recordsCheck(outputDir("")))
}

// recordsCheck counts the render records in outDir without creating them.
func recordsCheck(outDir string) check {
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}
	n, err := render.ReadManifest(outDir).Count()
	if err != nil {
		return check{name: "records", value: err.Error()}
	}
	return check{name: "records", value: fmt.Sprintf("%d in %s", n, outDir)}
}
