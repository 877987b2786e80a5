package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/keroxio/carstage/pkg/backdrop"
	"github.com/keroxio/carstage/pkg/compositor"
	"github.com/keroxio/carstage/pkg/cutout"
	"github.com/keroxio/carstage/pkg/masker"
	"github.com/keroxio/carstage/pkg/placement"
)

// createCutout builds a transparent canvas with an opaque block, mimicking a
// background-removed vehicle photo.
func createCutout(canvasW, canvasH int, fg image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, canvasW, canvasH))
	for y := fg.Min.Y; y < fg.Max.Y; y++ {
		for x := fg.Min.X; x < fg.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{90, 90, 160, 255})
		}
	}
	return img
}

func testRegistry() *backdrop.Registry {
	r := backdrop.NewRegistry()
	backdrop.DefaultStudios(r)
	return r
}

func TestRunFrontCutout(t *testing.T) {
	runner := New(testRegistry())

	// 400x600 foreground: ratio 0.67, classified front-or-back
	req := Request{
		Cutout:     createCutout(500, 700, image.Rect(50, 50, 450, 650)),
		BackdropID: "studio_white",
		Shadow:     true,
	}

	res, err := runner.Run(req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Orientation != cutout.FrontOrBack {
		t.Errorf("expected front_or_back, got %v", res.Orientation)
	}
	if res.Scale != 0.30 {
		t.Errorf("expected scale 0.30, got %v", res.Scale)
	}
	if res.Backdrop != "studio_white" {
		t.Errorf("expected backdrop studio_white, got %q", res.Backdrop)
	}
	if res.Final.Bounds().Dx() != 1920 || res.Final.Bounds().Dy() != 1080 {
		t.Errorf("expected 1920x1080 output, got %v", res.Final.Bounds())
	}
	if res.Cutout.Bounds().Dx() != 400 || res.Cutout.Bounds().Dy() != 600 {
		t.Errorf("expected trimmed 400x600 cutout, got %v", res.Cutout.Bounds())
	}
	if res.Duration <= 0 {
		t.Errorf("expected positive duration, got %v", res.Duration)
	}
}

func TestRunShadowDarkensGroundContact(t *testing.T) {
	runner := New(testRegistry())
	cut := createCutout(500, 700, image.Rect(50, 50, 450, 650))

	plain, err := runner.Run(Request{Cutout: cut, BackdropID: "studio_white"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	shadowed, err := runner.Run(Request{Cutout: cut, BackdropID: "studio_white", Shadow: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Ground line sits at 0.85 * 1080 = 918; sample just below the car center
	got := shadowed.Final.NRGBAAt(960, 923)
	ref := plain.Final.NRGBAAt(960, 923)
	if got.R >= ref.R {
		t.Errorf("expected shadow beneath the car: %v vs %v", got, ref)
	}
}

func TestRunOrientationOverride(t *testing.T) {
	runner := New(testRegistry())
	side := cutout.Side

	res, err := runner.Run(Request{
		Cutout:      createCutout(500, 700, image.Rect(50, 50, 450, 650)),
		BackdropID:  "studio_grey",
		Orientation: &side,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Orientation != cutout.Side {
		t.Errorf("override ignored: got %v", res.Orientation)
	}
	if res.Scale != 0.45 {
		t.Errorf("expected side scale 0.45, got %v", res.Scale)
	}
}

func TestRunScaleOverride(t *testing.T) {
	runner := New(testRegistry())
	scale := 0.25

	res, err := runner.Run(Request{
		Cutout:     createCutout(600, 400, image.Rect(0, 0, 600, 400)),
		BackdropID: "studio_white",
		Overrides:  placement.Overrides{Scale: &scale},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Scale != 0.25 {
		t.Errorf("expected overridden scale 0.25, got %v", res.Scale)
	}
}

func TestRunDeterministic(t *testing.T) {
	runner := New(testRegistry())
	cut := createCutout(500, 700, image.Rect(50, 50, 450, 650))
	req := Request{Cutout: cut, BackdropID: "showroom", Shadow: true, Reflection: true}

	a, err := runner.Run(req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := runner.Run(req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !bytes.Equal(a.Final.Pix, b.Final.Pix) {
		t.Fatal("identical requests produced different output bytes")
	}
}

func TestRunWithPlateMask(t *testing.T) {
	runner := New(testRegistry())
	cut := createCutout(500, 700, image.Rect(50, 50, 450, 650))
	// The region straddles the car's right edge and the ground line, so
	// block means mix vehicle and backdrop pixels.
	region := image.Rect(1000, 880, 1150, 940)

	plain, err := runner.Run(Request{Cutout: cut, BackdropID: "studio_white"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	masked, err := runner.Run(Request{
		Cutout:      cut,
		BackdropID:  "studio_white",
		PlateRegion: &region,
		MaskMethod:  masker.Pixelate,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	changed := false
	for y := region.Min.Y; y < region.Max.Y && !changed; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if masked.Final.NRGBAAt(x, y) != plain.Final.NRGBAAt(x, y) {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Error("plate region not redacted")
	}

	if masked.Final.NRGBAAt(10, 10) != plain.Final.NRGBAAt(10, 10) {
		t.Error("pixels outside the plate region changed")
	}
}

func TestRunStageErrors(t *testing.T) {
	runner := New(testRegistry())
	goodCut := createCutout(500, 700, image.Rect(50, 50, 450, 650))
	badScale := 3.0
	hugeScale := 1.5
	plateOutside := image.Rect(1800, 1000, 2100, 1200)

	tests := []struct {
		name      string
		req       Request
		wantStage Stage
		check     func(error) bool
	}{
		{
			name:      "unknown backdrop",
			req:       Request{Cutout: goodCut, BackdropID: "nope"},
			wantStage: StageReceived,
			check: func(err error) bool {
				var nf *backdrop.NotFoundError
				return errors.As(err, &nf)
			},
		},
		{
			name:      "empty cutout",
			req:       Request{Cutout: image.NewNRGBA(image.Rect(0, 0, 100, 100)), BackdropID: "studio_white"},
			wantStage: StageReceived,
			check:     func(err error) bool { return errors.Is(err, cutout.ErrEmptyForeground) },
		},
		{
			name: "invalid override",
			req: Request{
				Cutout:     goodCut,
				BackdropID: "studio_white",
				Overrides:  placement.Overrides{Scale: &badScale},
			},
			wantStage: StageAnalyzed,
			check: func(err error) bool {
				var inv *placement.InvalidPlacementError
				return errors.As(err, &inv)
			},
		},
		{
			name: "foreground too large for canvas",
			req: Request{
				Cutout:     goodCut,
				BackdropID: "studio_white",
				Overrides:  placement.Overrides{Scale: &hugeScale},
			},
			wantStage: StagePlanned,
			check: func(err error) bool {
				var ce *compositor.CompositingError
				return errors.As(err, &ce)
			},
		},
		{
			name: "plate region off canvas",
			req: Request{
				Cutout:      goodCut,
				BackdropID:  "studio_white",
				PlateRegion: &plateOutside,
			},
			wantStage: StageComposited,
			check: func(err error) bool {
				var oob *masker.OutOfBoundsError
				return errors.As(err, &oob)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := runner.Run(tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Error("partial result returned alongside an error")
			}
			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("expected StageError, got %T", err)
			}
			if se.Stage != tt.wantStage {
				t.Errorf("expected stage %v, got %v", tt.wantStage, se.Stage)
			}
			if !tt.check(err) {
				t.Errorf("wrapped error not exposed: %v", err)
			}
		})
	}
}

func TestStageString(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageReceived, "received"},
		{StageAnalyzed, "analyzed"},
		{StagePlanned, "planned"},
		{StageComposited, "composited"},
		{StageMasked, "masked"},
		{StageDone, "done"},
	}
	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(tt.stage), got, tt.want)
		}
	}
}

func BenchmarkRun(b *testing.B) {
	runner := New(testRegistry())
	cut := createCutout(900, 500, image.Rect(0, 0, 900, 500))
	req := Request{Cutout: cut, BackdropID: "studio_white", Shadow: true, Reflection: true}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runner.Run(req)
	}
}
