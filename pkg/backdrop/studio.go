package backdrop

import (
	"image"
	"image/color"
)

// StudioSpec describes a generated studio backdrop: a vertical gradient with
// an optional darkened floor zone at the bottom.
type StudioSpec struct {
	ID       string
	Name     string
	Category string
	Width    int
	Height   int
	Top      color.NRGBA
	Bottom   color.NRGBA
	// Floor enables the darkened floor zone.
	Floor bool
	// FloorRatio is the canvas height fraction the floor zone covers.
	FloorRatio float64
	// FloorDarken is the maximum darkening applied at the bottom edge.
	FloorDarken float64
	FloorLine   float64
}

// Generate renders a studio backdrop from its spec. Output is deterministic:
// the same spec always yields byte-identical pixels.
func Generate(spec StudioSpec) *Backdrop {
	img := image.NewNRGBA(image.Rect(0, 0, spec.Width, spec.Height))

	for y := 0; y < spec.Height; y++ {
		t := float64(y) / float64(spec.Height)
		c := color.NRGBA{
			R: lerp(spec.Top.R, spec.Bottom.R, t),
			G: lerp(spec.Top.G, spec.Bottom.G, t),
			B: lerp(spec.Top.B, spec.Bottom.B, t),
			A: 255,
		}
		i := y * img.Stride
		for x := 0; x < spec.Width; x++ {
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
			i += 4
		}
	}

	if spec.Floor && spec.FloorRatio > 0 {
		darkenFloor(img, spec.FloorRatio, spec.FloorDarken)
	}

	return &Backdrop{
		ID:        spec.ID,
		Name:      spec.Name,
		Category:  spec.Category,
		FloorLine: spec.FloorLine,
		img:       img,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

// darkenFloor multiplies the bottom floorRatio of the canvas towards black,
// strongest at the bottom edge, giving a subtle showroom floor.
func darkenFloor(img *image.NRGBA, floorRatio, darken float64) {
	h := img.Bounds().Dy()
	w := img.Bounds().Dx()
	floorH := int(float64(h) * floorRatio)
	if floorH <= 0 {
		return
	}

	for y := h - floorH; y < h; y++ {
		progress := float64(y-(h-floorH)) / float64(floorH)
		keep := 1 - darken*progress
		i := y * img.Stride
		for x := 0; x < w; x++ {
			img.Pix[i+0] = uint8(float64(img.Pix[i+0])*keep + 0.5)
			img.Pix[i+1] = uint8(float64(img.Pix[i+1])*keep + 0.5)
			img.Pix[i+2] = uint8(float64(img.Pix[i+2])*keep + 0.5)
			i += 4
		}
	}
}

// DefaultStudios registers the stock generated backdrops at 1920×1080.
func DefaultStudios(r *Registry) {
	const w, h = 1920, 1080
	specs := []StudioSpec{
		{
			ID: "studio_white", Name: "Studio White", Category: "studio",
			Top: color.NRGBA{255, 255, 255, 255}, Bottom: color.NRGBA{240, 240, 240, 255},
			Floor: true,
		},
		{
			ID: "studio_grey", Name: "Studio Grey", Category: "studio",
			Top: color.NRGBA{160, 160, 160, 255}, Bottom: color.NRGBA{100, 100, 100, 255},
			Floor: true,
		},
		{
			ID: "studio_black", Name: "Studio Black", Category: "studio",
			Top: color.NRGBA{50, 50, 55, 255}, Bottom: color.NRGBA{15, 15, 18, 255},
			Floor: true,
		},
		{
			ID: "showroom", Name: "Showroom", Category: "showroom",
			Top: color.NRGBA{45, 55, 72, 255}, Bottom: color.NRGBA{25, 30, 42, 255},
			Floor: true,
		},
		{
			ID: "garage_modern", Name: "Modern Garage", Category: "garage",
			Top: color.NRGBA{55, 50, 48, 255}, Bottom: color.NRGBA{30, 28, 26, 255},
			Floor: true,
		},
		{
			ID: "outdoor", Name: "Outdoor", Category: "outdoor",
			Top: color.NRGBA{135, 170, 200, 255}, Bottom: color.NRGBA{200, 210, 220, 255},
		},
	}

	for _, spec := range specs {
		spec.Width, spec.Height = w, h
		spec.FloorRatio = 0.3
		spec.FloorDarken = 0.15
		spec.FloorLine = DefaultFloorLine
		r.backdrops[spec.ID] = Generate(spec)
	}
}
