package render

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/keycapgen/internal/keycap"
	"github.com/rshade/keycapgen/internal/logging"
	"github.com/rshade/keycapgen/internal/openscad"
)

// DefaultJobs renders one file at a time.
const DefaultJobs = 1

// RenderFunc renders one variant and returns the written path.
type RenderFunc func(ctx context.Context, p keycap.Params, opts openscad.Options) (string, error)

// EventType says where a job is in its life.
type EventType string

// Event types.
const (
	EventStarted  EventType = "started"
	EventFinished EventType = "finished"
)

// Event is passed to Executor.OnEvent. Outcome is set for EventFinished.
type Event struct {
	Type     EventType
	Job      Job
	Outcome  Outcome
	Progress ProgressSnapshot
}

// Executor runs planned jobs.
type Executor struct {
	OpenSCAD openscad.Options

	// Jobs bounds concurrent renders (default 1).
	Jobs int

	// FailFast stops starting new jobs after the first failure.
	FailFast bool

	// Manifest, when set, records the fingerprint of each successful render
	// and drops the record of each failed one.
	Manifest *Manifest

	// OnEvent is called for job start and finish. Calls are serialized.
	OnEvent func(Event)

	// Render defaults to openscad.Render.
	Render RenderFunc
}

type runState struct {
	outcomes []Outcome
	progress *Progress
	emitMu   sync.Mutex
	onEvent  func(Event)
}

func (s *runState) emit(ev Event) {
	if s.onEvent == nil {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	ev.Progress = s.progress.Snapshot()
	s.onEvent(ev)
}

func (s *runState) finish(i int, o Outcome) {
	s.outcomes[i] = o
	s.progress.Record(o.Status)
	s.emit(Event{Type: EventFinished, Job: o.Job, Outcome: o})
}

// Run executes jobs and returns a report in plan order. The returned error
// covers setup only; job failures are in the report.
func (e *Executor) Run(ctx context.Context, jobs []Job) (*Report, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	outDir := e.OpenSCAD.OutDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	render := e.Render
	if render == nil {
		render = openscad.Render
	}
	limit := e.Jobs
	if limit < 1 {
		limit = DefaultJobs
	}

	state := &runState{
		outcomes: make([]Outcome, len(jobs)),
		progress: NewProgress(len(jobs)),
		onEvent:  e.OnEvent,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(limit)

	for i, job := range jobs {
		if job.Skip {
			state.finish(i, Outcome{Job: job, Status: StatusSkipped})
			continue
		}
		if err := runCtx.Err(); err != nil {
			state.finish(i, Outcome{Job: job, Status: StatusFailed, Err: err})
			continue
		}

		g.Go(func() error {
			if err := runCtx.Err(); err != nil {
				state.finish(i, Outcome{Job: job, Status: StatusFailed, Err: err})
				return nil
			}
			state.emit(Event{Type: EventStarted, Job: job})

			o := e.runJob(runCtx, job, render)
			if o.Status == StatusFailed && e.FailFast {
				cancel()
			}
			state.finish(i, o)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Outcomes: state.outcomes, Elapsed: time.Since(start)}
	log.Info().
		Ctx(ctx).
		Str("component", "render").
		Int("rendered", report.Count(StatusRendered)).
		Int("skipped", report.Count(StatusSkipped)).
		Int("failed", report.Count(StatusFailed)).
		Dur("elapsed", report.Elapsed).
		Msg("render batch finished")
	return report, nil
}

func (e *Executor) runJob(ctx context.Context, job Job, render RenderFunc) Outcome {
	log := logging.FromContext(ctx)

	start := time.Now()
	_, err := render(ctx, job.Params, e.OpenSCAD)
	o := Outcome{Job: job, Duration: time.Since(start)}
	if err != nil {
		o.Status = StatusFailed
		o.Err = err
		log.Error().
			Ctx(ctx).
			Str("component", "render").
			Str("file", job.File()).
			Err(err).
			Msg("render failed")
		e.forget(ctx, job)
		return o
	}
	o.Status = StatusRendered

	if e.Manifest != nil {
		entry := Entry{
			File:        job.File(),
			Variant:     job.Name(),
			Fingerprint: job.Fingerprint,
			RenderedAt:  time.Now().UTC(),
			Duration:    o.Duration,
		}
		if putErr := e.Manifest.Put(entry); putErr != nil {
			log.Warn().
				Ctx(ctx).
				Str("component", "render").
				Str("file", job.File()).
				Err(putErr).
				Msg("failed to record manifest entry")
		}
	}
	return o
}

// forget drops the record of a failed render so a partial output file is
// stale on the next run.
func (e *Executor) forget(ctx context.Context, job Job) {
	if e.Manifest == nil {
		return
	}
	if err := e.Manifest.Delete(job.File()); err != nil {
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("component", "render").
			Str("file", job.File()).
			Err(err).
			Msg("failed to drop manifest entry")
	}
}
