package cutout

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyForeground is returned when a cutout contains no pixel above the
// alpha threshold. The request cannot proceed and should not be retried.
var ErrEmptyForeground = errors.New("cutout: no foreground pixels above alpha threshold")

// Orientation classifies how the vehicle faces the camera, derived from the
// trimmed cutout's width/height ratio.
type Orientation int

const (
	// Side is a broadside view; the car is much wider than tall.
	Side Orientation = iota
	// FrontOrBack is a near head-on or tail view; taller relative to width.
	FrontOrBack
	// ThreeQuarter is the diagonal view common in marketing shots.
	ThreeQuarter
)

func (o Orientation) String() string {
	switch o {
	case Side:
		return "side"
	case FrontOrBack:
		return "front_or_back"
	case ThreeQuarter:
		return "three_quarter"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// Config holds tuning parameters for foreground analysis.
type Config struct {
	// AlphaThreshold treats pixels at or below this alpha as background,
	// so anti-aliased edge noise does not inflate the bounding box.
	AlphaThreshold uint8
	// SideRatio is the exclusive lower bound for the Side class.
	SideRatio float64
	// FrontBackRatio is the exclusive upper bound for the FrontOrBack class.
	FrontBackRatio float64
}

// DefaultConfig returns the analyzer defaults. Ratios exactly on a boundary
// belong to ThreeQuarter.
func DefaultConfig() Config {
	return Config{
		AlphaThreshold: 10,
		SideRatio:      1.3,
		FrontBackRatio: 0.8,
	}
}

// Analyzer trims transparent margins from vehicle cutouts and classifies
// their orientation.
type Analyzer struct {
	config Config
}

// New creates an Analyzer with default configuration.
func New() *Analyzer {
	return &Analyzer{config: DefaultConfig()}
}

// NewWithConfig creates an Analyzer with custom configuration.
func NewWithConfig(config Config) *Analyzer {
	return &Analyzer{config: config}
}

// Analysis is the result of analyzing a cutout.
type Analysis struct {
	// Trimmed is the cutout cropped to the tightest foreground bounding box.
	Trimmed *image.NRGBA
	// Bounds is the foreground bounding box in the source image's coordinates.
	Bounds image.Rectangle
	// Orientation is the classified vehicle orientation.
	Orientation Orientation
	// Ratio is the trimmed width/height aspect ratio.
	Ratio float64
}

// Analyze computes the foreground bounding box of an RGBA cutout, crops to
// it and classifies the vehicle orientation. The input image is never
// mutated; Trimmed is a fresh buffer.
func (a *Analyzer) Analyze(img image.Image) (*Analysis, error) {
	src := imaging.Clone(img)
	bbox, ok := a.foregroundBounds(src)
	if !ok {
		return nil, ErrEmptyForeground
	}

	trimmed := imaging.Crop(src, bbox)
	ratio := float64(bbox.Dx()) / float64(bbox.Dy())

	return &Analysis{
		Trimmed:     trimmed,
		Bounds:      bbox,
		Orientation: a.Classify(ratio),
		Ratio:       ratio,
	}, nil
}

// Classify maps a width/height ratio to an orientation class. Boundary
// values are owned by ThreeQuarter: classification uses strict comparisons
// against both thresholds.
func (a *Analyzer) Classify(ratio float64) Orientation {
	switch {
	case ratio > a.config.SideRatio:
		return Side
	case ratio < a.config.FrontBackRatio:
		return FrontOrBack
	default:
		return ThreeQuarter
	}
}

// foregroundBounds scans for the tightest rectangle enclosing all pixels
// whose alpha exceeds the configured threshold.
func (a *Analyzer) foregroundBounds(src *image.NRGBA) (image.Rectangle, bool) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	threshold := a.config.AlphaThreshold

	minX, minY := w, h
	maxX, maxY := -1, -1

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			if row[x*4+3] <= threshold {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
