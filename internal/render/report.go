package render

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Status is the outcome of one job.
type Status string

// Job statuses.
const (
	StatusRendered Status = "rendered"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// ErrJobsFailed is returned by Report.Err when at least one job failed.
var ErrJobsFailed = errors.New("render jobs failed")

// Outcome is what happened to a job.
type Outcome struct {
	Job      Job
	Status   Status
	Duration time.Duration
	Err      error
}

// Report collects the outcomes of a batch, in plan order.
type Report struct {
	Outcomes []Outcome
	Elapsed  time.Duration
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Err is nil when no job failed. Otherwise it wraps ErrJobsFailed and every
// job error.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failures)+1)
	errs = append(errs, fmt.Errorf("%w: %d of %d", ErrJobsFailed, len(failures), len(r.Outcomes)))
	for _, f := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Job.File(), f.Err))
	}
	return errors.Join(errs...)
}

// Summary is a one-line human summary such as
// "1,204 rendered, 12 skipped, 0 failed in 3m2s".
func (r *Report) Summary() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d rendered, %d skipped, %d failed in %s",
		r.Count(StatusRendered), r.Count(StatusSkipped), r.Count(StatusFailed),
		r.Elapsed.Round(time.Second))
}
