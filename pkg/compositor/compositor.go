// Package compositor places a trimmed vehicle cutout onto a backdrop
// canvas, optionally synthesizing a contact shadow and a showroom floor
// reflection. All drawing is deterministic: identical inputs produce
// byte-identical output.
package compositor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/keroxio/carstage/pkg/backdrop"
	"github.com/keroxio/carstage/pkg/placement"
)

// CompositingError reports a resized foreground that would not fit on the
// canvas at its planned position. The composite is aborted instead of
// silently clipping, since a clipped vehicle corrupts the result undetected.
type CompositingError struct {
	Canvas     image.Rectangle
	Foreground image.Rectangle
}

func (e *CompositingError) Error() string {
	return fmt.Sprintf("compositor: foreground %v exceeds canvas %v", e.Foreground, e.Canvas)
}

// Config holds the shadow and reflection tuning parameters.
type Config struct {
	// ShadowOpacity is the darkening at the shadow ellipse center, in [0,1].
	ShadowOpacity float64
	// ShadowWidthRatio sets the ellipse horizontal radius as a fraction of
	// the placed foreground width.
	ShadowWidthRatio float64
	// ShadowHeightRatio sets the ellipse vertical radius as a fraction of
	// its horizontal radius.
	ShadowHeightRatio float64
	// ReflectionOpacity is the alpha of the reflection at the ground line.
	ReflectionOpacity float64
	// ReflectionFade is the number of pixels over which the reflection
	// fades to fully transparent.
	ReflectionFade int
}

// DefaultConfig returns the stock shadow/reflection parameters.
func DefaultConfig() Config {
	return Config{
		ShadowOpacity:     0.35,
		ShadowWidthRatio:  0.55,
		ShadowHeightRatio: 0.12,
		ReflectionOpacity: 0.40,
		ReflectionFade:    120,
	}
}

// Compositor blends trimmed cutouts onto backdrop copies.
type Compositor struct {
	config Config
}

// New creates a Compositor with default configuration.
func New() *Compositor {
	return &Compositor{config: DefaultConfig()}
}

// NewWithConfig creates a Compositor with custom configuration.
func NewWithConfig(config Config) *Compositor {
	return &Compositor{config: config}
}

// Composite resizes trimmed per the plan, draws the optional shadow and
// reflection, and alpha-blends the foreground over a fresh copy of the
// backdrop. The backdrop itself is never mutated and the output canvas
// always has the backdrop's exact dimensions.
func (c *Compositor) Composite(trimmed image.Image, plan placement.Plan, bd *backdrop.Backdrop, shadow, reflection bool) (*image.NRGBA, error) {
	canvasW, canvasH := bd.Size()

	var fg *image.NRGBA
	switch plan.Basis {
	case placement.HeightBasis:
		targetH := int(plan.Scale*float64(canvasH) + 0.5)
		fg = imaging.Resize(trimmed, 0, targetH, imaging.Lanczos)
	default:
		targetW := int(plan.Scale*float64(canvasW) + 0.5)
		fg = imaging.Resize(trimmed, targetW, 0, imaging.Lanczos)
	}

	fgW, fgH := fg.Bounds().Dx(), fg.Bounds().Dy()
	centerX := plan.AnchorX * float64(canvasW)
	x0 := int(centerX - float64(fgW)/2 + 0.5)

	var y0 int
	switch plan.Reference {
	case placement.Center:
		y0 = int(plan.AnchorY*float64(canvasH) - float64(fgH)/2 + 0.5)
	default: // ground: bottom edge on the floor line
		y0 = int(plan.AnchorY*float64(canvasH)+0.5) - fgH
	}

	placed := image.Rect(x0, y0, x0+fgW, y0+fgH)
	canvas := image.Rect(0, 0, canvasW, canvasH)
	if !placed.In(canvas) {
		return nil, &CompositingError{Canvas: canvas, Foreground: placed}
	}

	dst := imaging.Clone(bd.Image())

	groundY := y0 + fgH
	if shadow {
		c.drawShadow(dst, x0+fgW/2, groundY, fgW)
	}
	if reflection {
		refl := c.fadeReflection(imaging.FlipV(fg))
		dst = imaging.Overlay(dst, refl, image.Pt(x0, groundY), 1.0)
	}

	dst = imaging.Overlay(dst, fg, image.Pt(x0, y0), 1.0)
	return dst, nil
}

// drawShadow darkens an elliptical blob centered on the ground-contact
// point. Opacity falls off quadratically from the center so the edge is
// soft without a blur pass.
func (c *Compositor) drawShadow(dst *image.NRGBA, cx, cy, fgWidth int) {
	rx := c.config.ShadowWidthRatio * float64(fgWidth)
	ry := rx * c.config.ShadowHeightRatio
	if rx < 1 || ry < 1 {
		return
	}

	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	minX := maxInt(0, cx-int(rx)-1)
	maxX := minInt(w-1, cx+int(rx)+1)
	minY := maxInt(0, cy-int(ry)-1)
	maxY := minInt(h-1, cy+int(ry)+1)

	for y := minY; y <= maxY; y++ {
		dy := float64(y-cy) / ry
		i := y*dst.Stride + minX*4
		for x := minX; x <= maxX; x++ {
			dx := float64(x-cx) / rx
			d := dx*dx + dy*dy
			if d < 1 {
				keep := 1 - c.config.ShadowOpacity*(1-d)*(1-d)
				dst.Pix[i+0] = uint8(float64(dst.Pix[i+0])*keep + 0.5)
				dst.Pix[i+1] = uint8(float64(dst.Pix[i+1])*keep + 0.5)
				dst.Pix[i+2] = uint8(float64(dst.Pix[i+2])*keep + 0.5)
			}
			i += 4
		}
	}
}

// fadeReflection scales the flipped foreground's alpha from
// ReflectionOpacity at the top row to zero at ReflectionFade rows, and
// truncates everything below the fade so the overlay never blends fully
// transparent rows.
func (c *Compositor) fadeReflection(flipped *image.NRGBA) *image.NRGBA {
	h := flipped.Bounds().Dy()
	w := flipped.Bounds().Dx()
	fade := c.config.ReflectionFade
	if fade <= 0 || fade > h {
		fade = h
	}

	refl := imaging.Crop(flipped, image.Rect(0, 0, w, fade))
	for y := 0; y < fade; y++ {
		factor := c.config.ReflectionOpacity * (1 - float64(y)/float64(fade))
		i := y * refl.Stride
		for x := 0; x < w; x++ {
			refl.Pix[i+3] = uint8(float64(refl.Pix[i+3])*factor + 0.5)
			i += 4
		}
	}
	return refl
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
