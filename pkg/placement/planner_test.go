package placement

import (
	"errors"
	"testing"

	"github.com/keroxio/carstage/pkg/cutout"
)

func TestPlanBaseTable(t *testing.T) {
	planner := New()

	tests := []struct {
		name        string
		orientation cutout.Orientation
		wantScale   float64
		wantBasis   Basis
	}{
		{"side scales 45% of width", cutout.Side, 0.45, WidthBasis},
		{"front-or-back scales 30% of height", cutout.FrontOrBack, 0.30, HeightBasis},
		{"three-quarter scales 38% of width", cutout.ThreeQuarter, 0.38, WidthBasis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planner.Plan(tt.orientation, Overrides{})
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if plan.Scale != tt.wantScale {
				t.Errorf("expected scale %.2f, got %.2f", tt.wantScale, plan.Scale)
			}
			if plan.Basis != tt.wantBasis {
				t.Errorf("expected basis %v, got %v", tt.wantBasis, plan.Basis)
			}
			if plan.AnchorX != 0.5 {
				t.Errorf("expected anchor_x 0.5, got %.2f", plan.AnchorX)
			}
			if plan.AnchorY != 0.85 {
				t.Errorf("expected anchor_y at the ground line, got %.2f", plan.AnchorY)
			}
			if plan.Reference != Ground {
				t.Errorf("expected ground reference, got %v", plan.Reference)
			}
		})
	}
}

func TestPlanOverrides(t *testing.T) {
	planner := New()

	scale := 0.6
	anchorX := 0.25
	anchorY := 0.5
	ref := Center

	plan, err := planner.Plan(cutout.Side, Overrides{
		Scale:     &scale,
		AnchorX:   &anchorX,
		AnchorY:   &anchorY,
		Reference: &ref,
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.Scale != 0.6 || plan.AnchorX != 0.25 || plan.AnchorY != 0.5 {
		t.Errorf("overrides not applied: %+v", plan)
	}
	if plan.Reference != Center {
		t.Errorf("expected center reference, got %v", plan.Reference)
	}
	// Basis always comes from the orientation
	if plan.Basis != WidthBasis {
		t.Errorf("expected width basis, got %v", plan.Basis)
	}
}

func TestPlanRejectsOutOfRangeOverrides(t *testing.T) {
	planner := New()

	bad := []struct {
		name string
		ov   Overrides
	}{
		{"zero scale", Overrides{Scale: f(0)}},
		{"negative scale", Overrides{Scale: f(-0.2)}},
		{"scale above 2", Overrides{Scale: f(2.01)}},
		{"anchor_x below 0", Overrides{AnchorX: f(-0.1)}},
		{"anchor_x above 1", Overrides{AnchorX: f(1.1)}},
		{"anchor_y above 1", Overrides{AnchorY: f(1.5)}},
	}

	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planner.Plan(cutout.ThreeQuarter, tt.ov)
			var placementErr *InvalidPlacementError
			if !errors.As(err, &placementErr) {
				t.Fatalf("expected InvalidPlacementError, got %v", err)
			}
		})
	}

	// Boundary values are accepted, never clamped
	plan, err := planner.Plan(cutout.ThreeQuarter, Overrides{Scale: f(2), AnchorX: f(0), AnchorY: f(1)})
	if err != nil {
		t.Fatalf("boundary overrides rejected: %v", err)
	}
	if plan.Scale != 2 || plan.AnchorX != 0 || plan.AnchorY != 1 {
		t.Errorf("boundary overrides altered: %+v", plan)
	}
}

func TestPlanDeterministic(t *testing.T) {
	planner := New()

	a, err := planner.Plan(cutout.FrontOrBack, Overrides{Scale: f(0.33)})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	b, err := planner.Plan(cutout.FrontOrBack, Overrides{Scale: f(0.33)})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if a != b {
		t.Errorf("identical inputs produced different plans: %+v vs %+v", a, b)
	}
}

func f(v float64) *float64 {
	return &v
}
