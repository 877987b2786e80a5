// Package masker irreversibly redacts a rectangular region of an image,
// typically a detected license plate. Both methods replace the region with
// block means; a block-mean fill is a projection, so re-masking the same
// region with the same method is byte-stable.
package masker

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Method selects the redaction style.
type Method int

const (
	// Blur produces a coarse smear with block size derived from the region
	// dimensions, destroying all glyph detail.
	Blur Method = iota
	// Pixelate produces a fixed-size mosaic.
	Pixelate
)

func (m Method) String() string {
	switch m {
	case Blur:
		return "blur"
	case Pixelate:
		return "pixelate"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod maps a method name to its Method value.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "blur":
		return Blur, nil
	case "pixelate":
		return Pixelate, nil
	default:
		return 0, fmt.Errorf("masker: unknown method %q", name)
	}
}

// OutOfBoundsError reports a mask region that is empty or not contained in
// the image.
type OutOfBoundsError struct {
	Region image.Rectangle
	Bounds image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("masker: region %v outside image bounds %v", e.Region, e.Bounds)
}

// Config holds the redaction strength parameters. Blocks must stay large
// enough that plate characters cannot be reconstructed.
type Config struct {
	// PixelBlock is the mosaic block size for the Pixelate method.
	PixelBlock int
	// BlurDivisor derives the Blur block size from the region's smaller
	// dimension (block = min(w,h) / divisor).
	BlurDivisor int
	// MinBlurBlock floors the Blur block size for small regions.
	MinBlurBlock int
}

// DefaultConfig returns conservative redaction parameters.
func DefaultConfig() Config {
	return Config{
		PixelBlock:   16,
		BlurDivisor:  4,
		MinBlurBlock: 12,
	}
}

// Masker redacts image regions.
type Masker struct {
	config Config
}

// New creates a Masker with default configuration.
func New() *Masker {
	return &Masker{config: DefaultConfig()}
}

// NewWithConfig creates a Masker with custom configuration.
func NewWithConfig(config Config) *Masker {
	return &Masker{config: config}
}

// Mask returns a copy of img with the region redacted. Pixels outside the
// region are byte-identical to the input; the input itself is not mutated.
func (m *Masker) Mask(img image.Image, region image.Rectangle, method Method) (*image.NRGBA, error) {
	dst := imaging.Clone(img)
	bounds := dst.Bounds()

	region = region.Canon()
	if region.Empty() || !region.In(bounds) {
		return nil, &OutOfBoundsError{Region: region, Bounds: bounds}
	}

	block := m.blockSize(region, method)
	fillBlockMeans(dst, region, block)
	return dst, nil
}

func (m *Masker) blockSize(region image.Rectangle, method Method) int {
	switch method {
	case Pixelate:
		return maxInt(2, m.config.PixelBlock)
	default: // Blur
		short := minInt(region.Dx(), region.Dy())
		block := short / m.config.BlurDivisor
		if block < m.config.MinBlurBlock {
			block = m.config.MinBlurBlock
		}
		return maxInt(2, block)
	}
}

// fillBlockMeans replaces each block with its channel-wise mean. Blocks are
// anchored at the region origin, so repeating the fill over the same region
// recomputes the mean of an already constant block and changes nothing.
func fillBlockMeans(img *image.NRGBA, region image.Rectangle, block int) {
	for by := region.Min.Y; by < region.Max.Y; by += block {
		yEnd := minInt(by+block, region.Max.Y)
		for bx := region.Min.X; bx < region.Max.X; bx += block {
			xEnd := minInt(bx+block, region.Max.X)

			var sumR, sumG, sumB, sumA, n uint32
			for y := by; y < yEnd; y++ {
				i := y*img.Stride + bx*4
				for x := bx; x < xEnd; x++ {
					sumR += uint32(img.Pix[i+0])
					sumG += uint32(img.Pix[i+1])
					sumB += uint32(img.Pix[i+2])
					sumA += uint32(img.Pix[i+3])
					n++
					i += 4
				}
			}

			r := uint8(sumR / n)
			g := uint8(sumG / n)
			b := uint8(sumB / n)
			a := uint8(sumA / n)
			for y := by; y < yEnd; y++ {
				i := y*img.Stride + bx*4
				for x := bx; x < xEnd; x++ {
					img.Pix[i+0] = r
					img.Pix[i+1] = g
					img.Pix[i+2] = b
					img.Pix[i+3] = a
					i += 4
				}
			}
		}
	}
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
