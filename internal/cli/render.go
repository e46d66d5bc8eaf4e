package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/keycapgen/internal/catalog"
	"github.com/rshade/keycapgen/internal/config"
	"github.com/rshade/keycapgen/internal/logging"
	"github.com/rshade/keycapgen/internal/openscad"
	"github.com/rshade/keycapgen/internal/render"
	"github.com/rshade/keycapgen/internal/watch"
)

// renderFlags holds the render command's flags.
type renderFlags struct {
	catalog  string
	out      string
	force    bool
	legends  bool
	stale    bool
	jobs     int
	failFast bool
	watch    bool
	dryRun   bool
	openscad openscadFlags
}

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render [names...]",
		Short: "Render keycaps from a catalog",
		Long: `Renders each named keycap (or every keycap in the catalog) to a model file.

Files that already exist are skipped unless --force is given. With --stale,
existing files are re-rendered when their parameters changed since they were
written. Names are matched case-insensitively; unknown names are reported and
make the command exit non-zero after the rest are rendered.`,
		Example: `  keycapgen render --out stl
  keycapgen render --catalog gem --legends --jobs 4
  keycapgen render --catalog ./my_keys.yaml --watch --out stl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, f)
		},
	}

	cmd.Flags().StringVar(&f.catalog, "catalog", "", "builtin catalog name or catalog file path")
	cmd.Flags().StringVar(&f.out, "out", "", "output directory, created if missing")
	cmd.Flags().BoolVar(&f.force, "force", false, "re-render files that already exist")
	cmd.Flags().BoolVar(&f.legends, "legends", false, "also render legends-only files for multi-material prints")
	cmd.Flags().BoolVar(&f.stale, "stale", false, "re-render existing files whose parameters changed")
	cmd.Flags().IntVar(&f.jobs, "jobs", 0, "concurrent renders (default from config, 1)")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "stop after the first failed render")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "keep running and re-render when the catalog file changes")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the openscad command lines instead of running them")
	f.openscad.register(cmd)

	return cmd
}

func runRender(cmd *cobra.Command, names []string, f renderFlags) error {
	ctx := cmd.Context()

	c, all, err := loadVariants(cmd, f.catalog)
	if err != nil {
		return err
	}
	if f.watch && isBuiltin(c) {
		return fmt.Errorf("%w: %s", watch.ErrBuiltinCatalog, c.Source)
	}

	selected, selectErr := selectVariants(cmd.ErrOrStderr(), all, names)

	opts, err := buildOptions(ctx, f.openscad, outputDir(f.out), !f.dryRun)
	if err != nil {
		return err
	}

	b := newBatch(cmd, f, opts)

	runErr := b.run(ctx, selected, f.stale)
	if f.watch {
		if runErr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", runErr)
		}
		return b.watch(ctx, c, names)
	}
	return errors.Join(runErr, selectErr)
}

// batch plans and runs renders for one command invocation.
type batch struct {
	cmd      *cobra.Command
	flags    renderFlags
	opts     openscad.Options
	status   *statusPrinter
	jobs     int
	failFast bool
}

// newBatch applies configured defaults for concurrency and fail-fast.
func newBatch(cmd *cobra.Command, f renderFlags, opts openscad.Options) *batch {
	cfg := config.GetGlobalConfig()
	b := &batch{
		cmd:      cmd,
		flags:    f,
		opts:     opts,
		status:   newStatusPrinter(cmd),
		jobs:     f.jobs,
		failFast: f.failFast || cfg.Render.FailFast,
	}
	if b.jobs == 0 {
		b.jobs = cfg.Render.Jobs
	}
	return b
}

// manifest opens the render records. Dry runs read them without creating
// anything, so a missing directory plans the same as an empty one.
func (b *batch) manifest() (*render.Manifest, error) {
	if b.flags.dryRun {
		return render.ReadManifest(b.opts.OutDir), nil
	}
	return render.OpenManifest(b.opts.OutDir)
}

func (b *batch) run(ctx context.Context, variants []catalog.Resolved, stale bool) error {
	manifest, err := b.manifest()
	if err != nil {
		return err
	}

	jobs, err := render.Plan(paramsOf(variants), render.PlanOptions{
		OpenSCAD: b.opts,
		Force:    b.flags.force,
		Legends:  b.flags.legends,
		Stale:    stale,
		Manifest: manifest,
	})
	if err != nil {
		return err
	}

	if b.flags.dryRun {
		b.printPlan(jobs)
		return nil
	}

	executor := &render.Executor{
		OpenSCAD: b.opts,
		Jobs:     b.jobs,
		FailFast: b.failFast,
		Manifest: manifest,
		OnEvent:  b.onEvent,
	}
	report, err := executor.Run(ctx, jobs)
	if err != nil {
		return err
	}

	b.status.Printf("%s", report.Summary())
	for _, o := range report.Failures() {
		_, _ = fmt.Fprintf(b.cmd.ErrOrStderr(), "Failed %s: %v\n", o.Job.File(), o.Err)
	}
	if report.Err() != nil {
		return &ExitError{Code: 1, Err: report.Err()}
	}
	return nil
}

func (b *batch) onEvent(ev render.Event) {
	switch {
	case ev.Type == render.EventStarted:
		b.status.Printf("Rendering %s...%s", ev.Job.Path, progressNote(ev.Progress))
	case ev.Outcome.Status == render.StatusSkipped:
		b.status.Printf("%s exists; skipping...", ev.Job.Path)
	}
}

// progressNote is " (done/total, about 1m30s left)" once a render has
// finished and timing is known.
func progressNote(p render.ProgressSnapshot) string {
	if p.Remaining <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%d/%d, about %s left)", p.Done, p.Total, p.Remaining.Round(time.Second))
}

func (b *batch) printPlan(jobs []render.Job) {
	out := b.cmd.OutOrStdout()
	for _, j := range jobs {
		if j.Skip {
			_, _ = fmt.Fprintf(out, "# %s exists; skipping...\n", j.Path)
			continue
		}
		_, _ = fmt.Fprintln(out, shellQuote(j.Argv))
	}
}

// watch re-renders stale variants each time the catalog file changes, until
// interrupted.
func (b *batch) watch(ctx context.Context, c *catalog.Catalog, names []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w, err := watch.New(c.Source, func(ctx context.Context, reloaded *catalog.Catalog) error {
		all, resolveErr := resolveCatalog(ctx, b.cmd.ErrOrStderr(), reloaded)
		if resolveErr != nil {
			return resolveErr
		}
		selected, _ := selectVariants(b.cmd.ErrOrStderr(), all, names)
		if runErr := b.run(ctx, selected, true); runErr != nil && !errors.Is(runErr, context.Canceled) {
			logging.FromContext(ctx).Warn().Ctx(ctx).Err(runErr).Msg("render after reload failed")
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.OnError = func(err error) {
		_, _ = fmt.Fprintf(b.cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	b.status.Printf("Watching %s for changes (Ctrl+C to stop)...", w.Path())
	return w.Run(ctx)
}
