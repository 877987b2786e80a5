// Package carstage composites vehicle cutouts onto professional backdrops.
//
// The package takes an RGBA cutout (a car photo whose background has already
// been removed by an external service), trims its transparent margins,
// classifies the vehicle's orientation from the trimmed aspect ratio, plans
// a scale and anchor position, and alpha-blends the result onto a chosen
// backdrop with an optional contact shadow, floor reflection and license
// plate redaction.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//		"github.com/keroxio/carstage"
//		"github.com/keroxio/carstage/pkg/imageio"
//	)
//
//	func main() {
//		stager := carstage.New()
//
//		cutout, err := imageio.Load("car_transparent.png")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := stager.Process(cutout, carstage.Options{
//			Backdrop: "studio_white",
//			Shadow:   true,
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := imageio.Save(result.Final, "car_staged.jpg", "jpg", 92, false); err != nil {
//			log.Fatal(err)
//		}
//
//		log.Printf("staged %s view in %s", result.Orientation, result.Duration)
//	}
//
// The package consists of five main components:
//
// 1. Cutout (pkg/cutout): trims transparent margins and classifies orientation
// 2. Placement (pkg/placement): maps orientation to scale and anchor position
// 3. Compositor (pkg/compositor): resizes, synthesizes shadow/reflection, blends
// 4. Masker (pkg/masker): irreversibly redacts license plate regions
// 5. Pipeline (pkg/pipeline): sequences the stages and reports timing
//
// Backdrops live in a read-only registry (pkg/backdrop) that ships with
// generated studio scenes and can load custom ones from disk. Plate regions
// come from an external detector; pkg/platefinder provides one backed by a
// vision model served through Ollama or llama.cpp.
package carstage

import (
	"fmt"
	"image"

	"github.com/keroxio/carstage/pkg/backdrop"
	"github.com/keroxio/carstage/pkg/compositor"
	"github.com/keroxio/carstage/pkg/cutout"
	"github.com/keroxio/carstage/pkg/imageio"
	"github.com/keroxio/carstage/pkg/masker"
	"github.com/keroxio/carstage/pkg/pipeline"
	"github.com/keroxio/carstage/pkg/placement"

	"github.com/keroxio/carstage/internal/utils"
)

// Version of the carstage library
const Version = "1.0.0"

// Stager provides a high-level interface for staging vehicle photos.
type Stager struct {
	backdrops *backdrop.Registry
	runner    *pipeline.Runner
	masker    *masker.Masker
}

// Options controls a single staging run.
type Options struct {
	// Backdrop is the registered backdrop id.
	Backdrop string
	// Orientation overrides ratio classification when set.
	Orientation *cutout.Orientation
	// Scale, AnchorX, AnchorY override the orientation table when set.
	Scale   *float64
	AnchorX *float64
	AnchorY *float64
	// Shadow and Reflection toggle ground-contact synthesis.
	Shadow     bool
	Reflection bool
	// PlateRegion is redacted on the final image when set.
	PlateRegion *image.Rectangle
	// MaskMethod selects the redaction style (Blur by default).
	MaskMethod masker.Method
}

// New creates a Stager with default configuration and the stock generated
// studio backdrops.
func New() *Stager {
	registry := backdrop.NewRegistry()
	backdrop.DefaultStudios(registry)

	return &Stager{
		backdrops: registry,
		runner:    pipeline.New(registry),
		masker:    masker.New(),
	}
}

// NewWithConfig creates a Stager from explicitly configured components. The
// registry starts empty; register backdrops before processing.
func NewWithConfig(cutoutConfig cutout.Config, placementConfig placement.Config, compositorConfig compositor.Config, maskerConfig masker.Config) *Stager {
	registry := backdrop.NewRegistry()
	m := masker.NewWithConfig(maskerConfig)

	runner := pipeline.NewWithComponents(
		registry,
		cutout.NewWithConfig(cutoutConfig),
		placement.NewWithConfig(placementConfig),
		compositor.NewWithConfig(compositorConfig),
		m,
	)

	return &Stager{
		backdrops: registry,
		runner:    runner,
		masker:    m,
	}
}

// RegisterDefaultStudios adds the stock generated studio backdrops to the
// registry. New() does this automatically; NewWithConfig leaves it to the
// caller.
func (s *Stager) RegisterDefaultStudios() {
	backdrop.DefaultStudios(s.backdrops)
}

// RegisterBackdrop adds a backdrop to the registry. Register during setup,
// before concurrent processing starts.
func (s *Stager) RegisterBackdrop(id, name, category string, img image.Image) {
	s.backdrops.Register(id, name, category, img, backdrop.DefaultFloorLine)
}

// LoadBackdrops registers every image file found under dir.
func (s *Stager) LoadBackdrops(dir string) (int, error) {
	return s.backdrops.LoadDirectory(dir)
}

// Backdrops lists the registered backdrops.
func (s *Stager) Backdrops() []backdrop.Info {
	return s.backdrops.List()
}

// Process runs the full staging pipeline on a cutout.
func (s *Stager) Process(cutoutImg image.Image, opts Options) (*pipeline.Result, error) {
	return s.runner.Run(pipeline.Request{
		Cutout:      cutoutImg,
		BackdropID:  opts.Backdrop,
		Orientation: opts.Orientation,
		Overrides: placement.Overrides{
			Scale:   opts.Scale,
			AnchorX: opts.AnchorX,
			AnchorY: opts.AnchorY,
		},
		Shadow:      opts.Shadow,
		Reflection:  opts.Reflection,
		PlateRegion: opts.PlateRegion,
		MaskMethod:  opts.MaskMethod,
	})
}

// MaskPlate redacts a region of an already finished image.
func (s *Stager) MaskPlate(img image.Image, region image.Rectangle, method masker.Method) (*image.NRGBA, error) {
	return s.masker.Mask(img, region, method)
}

// ProcessFile is a convenience wrapper that loads a cutout from disk, stages
// it and writes the final image plus the trimmed transparent cutout next to
// it in outputDir.
func (s *Stager) ProcessFile(inputPath, outputDir string, opts Options, format string, quality int) (*pipeline.Result, error) {
	img, err := imageio.Load(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load cutout: %w", err)
	}

	result, err := s.Process(img, opts)
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	finalPath := utils.GenerateOutputFilename(inputPath, outputDir, "_final", format)
	if err := imageio.Save(result.Final, finalPath, format, quality, false); err != nil {
		return nil, fmt.Errorf("failed to save final image: %w", err)
	}

	// The trimmed cutout keeps its alpha channel, so always PNG.
	cutoutPath := utils.GenerateOutputFilename(inputPath, outputDir, "_transparent", "png")
	if err := imageio.Save(result.Cutout, cutoutPath, "png", quality, false); err != nil {
		return nil, fmt.Errorf("failed to save transparent cutout: %w", err)
	}

	return result, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
