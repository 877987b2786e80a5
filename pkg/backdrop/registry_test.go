package backdrop

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	r.Register("hall", "Hall", "custom", img, 0.9)

	b, err := r.Get("hall")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if b.ID != "hall" || b.Category != "custom" {
		t.Errorf("unexpected backdrop: %+v", b)
	}
	w, h := b.Size()
	if w != 100 || h != 50 {
		t.Errorf("expected 100x50, got %dx%d", w, h)
	}
	if b.FloorLine != 0.9 {
		t.Errorf("expected floor line 0.9, got %v", b.FloorLine)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != "missing" {
		t.Errorf("expected id %q in error, got %q", "missing", nf.ID)
	}
}

func TestRegisterDefaultsFloorLine(t *testing.T) {
	r := NewRegistry()
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	for _, bad := range []float64{0, -0.5, 1.5} {
		b := r.Register("x", "X", "custom", img, bad)
		if b.FloorLine != DefaultFloorLine {
			t.Errorf("floor line %v should default, got %v", bad, b.FloorLine)
		}
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	r.Register("zeta", "Z", "a", img, 0.85)
	r.Register("alpha", "A", "b", img, 0.85)
	r.Register("mid", "M", "a", img, 0.85)

	infos := r.List()
	if len(infos) != 3 {
		t.Fatalf("expected 3 backdrops, got %d", len(infos))
	}
	if infos[0].ID != "alpha" || infos[1].ID != "mid" || infos[2].ID != "zeta" {
		t.Errorf("list not sorted by id: %v", infos)
	}
}

func TestRegistryByCategory(t *testing.T) {
	r := NewRegistry()
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	r.Register("a1", "A1", "studio", img, 0.85)
	r.Register("b1", "B1", "garage", img, 0.85)
	r.Register("a2", "A2", "studio", img, 0.85)

	studios := r.ByCategory("studio")
	if len(studios) != 2 {
		t.Fatalf("expected 2 studio backdrops, got %d", len(studios))
	}
	if r.ByCategory("beach") != nil {
		t.Error("expected nil for unknown category")
	}
}

func TestDefaultStudios(t *testing.T) {
	r := NewRegistry()
	DefaultStudios(r)

	want := []string{"garage_modern", "outdoor", "showroom", "studio_black", "studio_grey", "studio_white"}
	infos := r.List()
	if len(infos) != len(want) {
		t.Fatalf("expected %d backdrops, got %d", len(want), len(infos))
	}
	for i, id := range want {
		if infos[i].ID != id {
			t.Errorf("backdrop %d: expected %q, got %q", i, id, infos[i].ID)
		}
		if infos[i].Width != 1920 || infos[i].Height != 1080 {
			t.Errorf("%s: expected 1920x1080, got %dx%d", id, infos[i].Width, infos[i].Height)
		}
	}

	b, err := r.Get("studio_white")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if b.FloorLine != DefaultFloorLine {
		t.Errorf("expected default floor line, got %v", b.FloorLine)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	spec := StudioSpec{
		ID: "g", Name: "G", Category: "studio",
		Width: 640, Height: 360,
		Top:    color.NRGBA{200, 205, 210, 255},
		Bottom: color.NRGBA{120, 125, 130, 255},
		Floor:  true, FloorRatio: 0.3, FloorDarken: 0.15,
		FloorLine: 0.85,
	}

	a := Generate(spec)
	b := Generate(spec)
	if !bytes.Equal(a.Image().Pix, b.Image().Pix) {
		t.Fatal("identical specs produced different pixels")
	}
}

func TestGenerateGradientAndFloor(t *testing.T) {
	spec := StudioSpec{
		ID: "g", Name: "G", Category: "studio",
		Width: 200, Height: 200,
		Top:    color.NRGBA{255, 255, 255, 255},
		Bottom: color.NRGBA{200, 200, 200, 255},
		Floor:  true, FloorRatio: 0.3, FloorDarken: 0.15,
	}

	img := Generate(spec).Image()

	top := img.NRGBAAt(100, 0)
	if top.R != 255 {
		t.Errorf("expected top row 255, got %v", top)
	}
	mid := img.NRGBAAt(100, 100)
	if mid.R >= top.R {
		t.Errorf("gradient does not darken downward: top %v mid %v", top, mid)
	}

	// The floor zone darkens beyond the plain gradient value
	bottom := img.NRGBAAt(100, 199)
	if bottom.R >= 200 {
		t.Errorf("expected darkened floor at the bottom edge, got %v", bottom)
	}
}
