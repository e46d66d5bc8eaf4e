package render

import (
	"errors"
	"fmt"
	"os"

	"github.com/rshade/keycapgen/internal/keycap"
	"github.com/rshade/keycapgen/internal/openscad"
)

// Kind distinguishes a full model from its legends-only companion.
type Kind string

// Job kinds.
const (
	KindModel   Kind = "model"
	KindLegends Kind = "legends"
)

// Skip reasons.
const (
	ReasonExists = "exists"
	ReasonStale  = "stale"
)

// Job is one planned OpenSCAD invocation.
type Job struct {
	Params      keycap.Params
	Kind        Kind
	Path        string   // Output file.
	Argv        []string // Full command line, binary first.
	Fingerprint string

	// Skip is set when the output already exists and is kept. Reason says why
	// the job was skipped, or for a re-render of an existing file, why it runs.
	Skip   bool
	Reason string
}

// Name is the output name without extension.
func (j Job) Name() string {
	return j.Params.ResolvedName()
}

// File is the output file name relative to the output directory.
func (j Job) File() string {
	return j.Params.FileName()
}

// PlanOptions controls Plan.
type PlanOptions struct {
	OpenSCAD openscad.Options

	// Force re-renders files that already exist.
	Force bool

	// Legends adds a legends-only job for every variant with legends.
	Legends bool

	// Stale re-renders existing files whose manifest fingerprint no longer
	// matches. Needs Manifest.
	Stale bool

	Manifest *Manifest
}

// Plan turns variants into jobs: every model first, then the legends jobs.
// Skip decisions are made here, against the file system as it is now. Any
// invalid variant fails the whole plan before anything is rendered.
func Plan(variants []keycap.Params, opts PlanOptions) ([]Job, error) {
	var invalid []error
	for _, p := range variants {
		if err := p.Validate(); err != nil {
			invalid = append(invalid, err)
		}
	}
	if len(invalid) > 0 {
		return nil, errors.Join(invalid...)
	}

	jobs := make([]Job, 0, 2*len(variants))
	for _, p := range variants {
		j, err := planJob(p, KindModel, opts)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if !opts.Legends {
		return jobs, nil
	}
	for _, p := range variants {
		if !p.HasLegends() {
			continue
		}
		j, err := planJob(p.LegendsOnly(), KindLegends, opts)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func planJob(p keycap.Params, kind Kind, opts PlanOptions) (Job, error) {
	j := Job{
		Params:      p,
		Kind:        kind,
		Path:        opts.OpenSCAD.OutputPath(p),
		Argv:        openscad.Command(p, opts.OpenSCAD),
		Fingerprint: ParamsFingerprint(p, opts.OpenSCAD),
	}
	if opts.Force {
		return j, nil
	}

	_, err := os.Stat(j.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return j, nil
	case err != nil:
		return Job{}, fmt.Errorf("checking %s: %w", j.Path, err)
	}

	if opts.Stale && opts.Manifest != nil {
		stale, staleErr := isStale(opts.Manifest, j)
		if staleErr != nil {
			return Job{}, staleErr
		}
		if stale {
			j.Reason = ReasonStale
			return j, nil
		}
	}

	j.Skip = true
	j.Reason = ReasonExists
	return j, nil
}

// isStale reports whether the recorded fingerprint differs. A file with no
// record was not produced by us at these settings, so it is stale too.
func isStale(m *Manifest, j Job) (bool, error) {
	entry, err := m.Get(j.File())
	if errors.Is(err, ErrNoEntry) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return entry.Fingerprint != j.Fingerprint, nil
}

// ParamsFingerprint is the fingerprint of p rendered with opts. The output
// directory and the fast-csg engine switch do not change the model, so they
// are left out.
func ParamsFingerprint(p keycap.Params, opts openscad.Options) string {
	opts.OutDir = ""
	opts.FastCSG = false
	return Fingerprint(openscad.Args(p, opts))
}
