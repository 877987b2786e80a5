// Package pipeline sequences the staging stages: analyze the cutout, plan
// the placement, composite onto the backdrop and optionally mask a plate
// region. Each run is independent and stateless apart from the shared
// read-only backdrop registry, so runs may execute concurrently.
package pipeline

import (
	"fmt"
	"image"
	"time"

	"github.com/keroxio/carstage/pkg/backdrop"
	"github.com/keroxio/carstage/pkg/compositor"
	"github.com/keroxio/carstage/pkg/cutout"
	"github.com/keroxio/carstage/pkg/masker"
	"github.com/keroxio/carstage/pkg/placement"
)

// Stage identifies how far a run progressed before finishing or failing.
type Stage int

const (
	StageReceived Stage = iota
	StageAnalyzed
	StagePlanned
	StageComposited
	StageMasked
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageAnalyzed:
		return "analyzed"
	case StagePlanned:
		return "planned"
	case StageComposited:
		return "composited"
	case StageMasked:
		return "masked"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError wraps the first component error with the stage it occurred in.
// The wrapped error propagates unchanged to errors.Is / errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Request describes a single staging run.
type Request struct {
	// Cutout is the RGBA vehicle image with background already removed.
	Cutout image.Image
	// BackdropID selects the registered backdrop to composite onto.
	BackdropID string
	// Orientation, when set, bypasses ratio classification for planning.
	Orientation *cutout.Orientation
	// Overrides carries explicit scale/anchor values.
	Overrides placement.Overrides
	// Shadow and Reflection toggle ground-contact synthesis.
	Shadow     bool
	Reflection bool
	// PlateRegion, when set, is redacted on the final image. The region
	// comes from an external detector; the pipeline does not locate plates.
	PlateRegion *image.Rectangle
	// MaskMethod selects the redaction style for PlateRegion.
	MaskMethod masker.Method
}

// Result is the externally-facing record of a completed run. Ownership of
// both buffers transfers to the caller.
type Result struct {
	// Final is the composited (and possibly masked) output image.
	Final *image.NRGBA
	// Cutout is the trimmed transparent foreground, kept for reuse.
	Cutout *image.NRGBA
	// Orientation is the class used for placement.
	Orientation cutout.Orientation
	// Scale is the scale factor actually applied.
	Scale float64
	// Backdrop is the id of the backdrop used.
	Backdrop string
	// Duration is the wall-clock time of the run, exposed for
	// observability and never interpreted by the pipeline itself.
	Duration time.Duration
}

// Runner executes staging runs against a backdrop registry.
type Runner struct {
	backdrops  *backdrop.Registry
	analyzer   *cutout.Analyzer
	planner    *placement.Planner
	compositor *compositor.Compositor
	masker     *masker.Masker
}

// New creates a Runner with default component configuration.
func New(backdrops *backdrop.Registry) *Runner {
	return &Runner{
		backdrops:  backdrops,
		analyzer:   cutout.New(),
		planner:    placement.New(),
		compositor: compositor.New(),
		masker:     masker.New(),
	}
}

// NewWithComponents creates a Runner from explicitly configured components.
func NewWithComponents(backdrops *backdrop.Registry, a *cutout.Analyzer, p *placement.Planner, c *compositor.Compositor, m *masker.Masker) *Runner {
	return &Runner{
		backdrops:  backdrops,
		analyzer:   a,
		planner:    p,
		compositor: c,
		masker:     m,
	}
}

// Run executes one staging request. The first component error aborts the
// run; no partial result is ever returned alongside an error.
func (r *Runner) Run(req Request) (*Result, error) {
	start := time.Now()

	bd, err := r.backdrops.Get(req.BackdropID)
	if err != nil {
		return nil, &StageError{Stage: StageReceived, Err: err}
	}

	analysis, err := r.analyzer.Analyze(req.Cutout)
	if err != nil {
		return nil, &StageError{Stage: StageReceived, Err: err}
	}

	orientation := analysis.Orientation
	if req.Orientation != nil {
		orientation = *req.Orientation
	}

	plan, err := r.planner.Plan(orientation, req.Overrides)
	if err != nil {
		return nil, &StageError{Stage: StageAnalyzed, Err: err}
	}

	final, err := r.compositor.Composite(analysis.Trimmed, plan, bd, req.Shadow, req.Reflection)
	if err != nil {
		return nil, &StageError{Stage: StagePlanned, Err: err}
	}

	if req.PlateRegion != nil {
		final, err = r.masker.Mask(final, *req.PlateRegion, req.MaskMethod)
		if err != nil {
			return nil, &StageError{Stage: StageComposited, Err: err}
		}
	}

	return &Result{
		Final:       final,
		Cutout:      analysis.Trimmed,
		Orientation: orientation,
		Scale:       plan.Scale,
		Backdrop:    bd.ID,
		Duration:    time.Since(start),
	}, nil
}
