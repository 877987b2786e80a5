package placement

import (
	"fmt"

	"github.com/keroxio/carstage/pkg/cutout"
)

// Reference selects how AnchorY positions the foreground vertically.
type Reference int

const (
	// Ground aligns the foreground's bottom edge to AnchorY, simulating a
	// car resting on a floor line. Naive vertical centering makes vehicles
	// look like they are floating, so this is the default.
	Ground Reference = iota
	// Center aligns the foreground's vertical center to AnchorY.
	Center
)

func (r Reference) String() string {
	switch r {
	case Ground:
		return "ground"
	case Center:
		return "center"
	default:
		return fmt.Sprintf("reference(%d)", int(r))
	}
}

// Basis selects which canvas dimension the scale factor applies to.
type Basis int

const (
	// WidthBasis scales the foreground to Scale × canvas width.
	WidthBasis Basis = iota
	// HeightBasis scales the foreground to Scale × canvas height.
	HeightBasis
)

// Plan describes how a trimmed foreground is sized and positioned on a
// backdrop canvas. It is produced once per pipeline run and consumed once
// by the compositor.
type Plan struct {
	Scale     float64
	AnchorX   float64
	AnchorY   float64
	Reference Reference
	Basis     Basis
}

// Overrides carries caller-supplied partial plan values. Nil fields fall
// back to the orientation table.
type Overrides struct {
	Scale     *float64
	AnchorX   *float64
	AnchorY   *float64
	Reference *Reference
}

// InvalidPlacementError reports an override outside its declared range.
// Out-of-range values are rejected rather than clamped so the caller can
// correct and resubmit.
type InvalidPlacementError struct {
	Param string
	Value float64
	Min   float64
	Max   float64
}

func (e *InvalidPlacementError) Error() string {
	return fmt.Sprintf("placement: %s %.3f outside (%.2f, %.2f]", e.Param, e.Value, e.Min, e.Max)
}

// Config holds the base placement policy per orientation class. Scales are
// fractions of canvas width, except FrontBackScale which applies to canvas
// height (head-on cutouts have little width to scale against).
type Config struct {
	SideScale         float64
	FrontBackScale    float64
	ThreeQuarterScale float64
	// GroundLine is the canvas height fraction where the foreground's
	// bottom edge sits under the Ground reference.
	GroundLine float64
}

// DefaultConfig returns the stock placement table.
func DefaultConfig() Config {
	return Config{
		SideScale:         0.45,
		FrontBackScale:    0.30,
		ThreeQuarterScale: 0.38,
		GroundLine:        0.85,
	}
}

// Planner maps an orientation class to a placement plan.
type Planner struct {
	config Config
}

// New creates a Planner with the default policy table.
func New() *Planner {
	return &Planner{config: DefaultConfig()}
}

// NewWithConfig creates a Planner with a custom policy table.
func NewWithConfig(config Config) *Planner {
	return &Planner{config: config}
}

// Plan returns the placement for an orientation class, applying any caller
// overrides. Pure and deterministic: identical inputs yield identical plans.
func (p *Planner) Plan(o cutout.Orientation, ov Overrides) (Plan, error) {
	var plan Plan
	switch o {
	case cutout.Side:
		plan = Plan{Scale: p.config.SideScale, Basis: WidthBasis}
	case cutout.FrontOrBack:
		plan = Plan{Scale: p.config.FrontBackScale, Basis: HeightBasis}
	case cutout.ThreeQuarter:
		plan = Plan{Scale: p.config.ThreeQuarterScale, Basis: WidthBasis}
	default:
		return Plan{}, fmt.Errorf("placement: unknown orientation %v", o)
	}
	plan.AnchorX = 0.5
	plan.AnchorY = p.config.GroundLine
	plan.Reference = Ground

	if ov.Scale != nil {
		if *ov.Scale <= 0 || *ov.Scale > 2 {
			return Plan{}, &InvalidPlacementError{Param: "scale", Value: *ov.Scale, Min: 0, Max: 2}
		}
		plan.Scale = *ov.Scale
	}
	if ov.AnchorX != nil {
		if *ov.AnchorX < 0 || *ov.AnchorX > 1 {
			return Plan{}, &InvalidPlacementError{Param: "anchor_x", Value: *ov.AnchorX, Min: 0, Max: 1}
		}
		plan.AnchorX = *ov.AnchorX
	}
	if ov.AnchorY != nil {
		if *ov.AnchorY < 0 || *ov.AnchorY > 1 {
			return Plan{}, &InvalidPlacementError{Param: "anchor_y", Value: *ov.AnchorY, Min: 0, Max: 1}
		}
		plan.AnchorY = *ov.AnchorY
	}
	if ov.Reference != nil {
		plan.Reference = *ov.Reference
	}

	return plan, nil
}
