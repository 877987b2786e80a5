package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/keroxio/carstage"
	"github.com/keroxio/carstage/internal/config"
	"github.com/keroxio/carstage/pkg/client"
	"github.com/keroxio/carstage/pkg/compositor"
	"github.com/keroxio/carstage/pkg/cutout"
	"github.com/keroxio/carstage/pkg/imageio"
	"github.com/keroxio/carstage/pkg/llamacpp"
	"github.com/keroxio/carstage/pkg/masker"
	"github.com/keroxio/carstage/pkg/ollama"
	"github.com/keroxio/carstage/pkg/placement"
	"github.com/keroxio/carstage/pkg/platefinder"
)

func main() {
	var in, bg, bgDir, outDir, ext, cfgPath string
	var quality int
	var shadow, reflection, list bool
	var scale, anchorX, anchorY float64
	var plate, maskMethod string
	var detectPlate bool
	var backend, model, url string

	flag.StringVar(&in, "in", "", "input cutout path (transparent png/webp)")
	flag.StringVar(&bg, "bg", "studio_white", "backdrop id")
	flag.StringVar(&bgDir, "bgdir", "", "directory of extra backdrop images to register")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&cfgPath, "config", "", "JSON config file (defaults used when empty)")

	flag.StringVar(&ext, "ext", "jpg", "output format for the final image: jpg|png|webp")
	flag.IntVar(&quality, "quality", 92, "JPEG/WebP output quality (1-100)")

	flag.BoolVar(&shadow, "shadow", true, "synthesize a contact shadow")
	flag.BoolVar(&reflection, "reflection", false, "synthesize a floor reflection")
	flag.Float64Var(&scale, "scale", 0, "scale override in (0,2]; 0 uses the orientation table")
	flag.Float64Var(&anchorX, "x", -1, "horizontal anchor override in [0,1]; -1 uses the default")
	flag.Float64Var(&anchorY, "y", -1, "vertical anchor override in [0,1]; -1 uses the default")

	flag.StringVar(&plate, "plate", "", "plate region to redact as x0,y0,x1,y1 (final image pixels)")
	flag.StringVar(&maskMethod, "mask", "blur", "plate redaction method: blur|pixelate")
	flag.BoolVar(&detectPlate, "detect-plate", false, "locate the plate with a vision model before compositing")
	flag.StringVar(&backend, "backend", "llamacpp", "vision backend for -detect-plate: ollama or llamacpp")
	flag.StringVar(&model, "model", "openbmb/minicpm-v4.5", "vision model name")
	flag.StringVar(&url, "url", "", "vision server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")

	flag.BoolVar(&list, "list", false, "list registered backdrops and exit")

	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	stager := newStager(cfg)
	if bgDir != "" {
		n, err := stager.LoadBackdrops(bgDir)
		if err != nil {
			log.Fatalf("failed to load backdrops from %s: %v", bgDir, err)
		}
		log.Printf("registered %d backdrops from %s", n, bgDir)
	}

	if list {
		for _, info := range stager.Backdrops() {
			fmt.Printf("%-16s %-10s %dx%d  %s\n", info.ID, info.Category, info.Width, info.Height, info.Name)
		}
		return
	}

	if in == "" {
		log.Fatalf("usage: %s -in cutout.png [-bg studio_white] [-shadow] [-reflection] [-plate x0,y0,x1,y1 | -detect-plate] [-out outdir]", filepath.Base(os.Args[0]))
	}

	method, err := masker.ParseMethod(maskMethod)
	if err != nil {
		log.Fatal(err)
	}

	opts := carstage.Options{
		Backdrop:   bg,
		Shadow:     shadow,
		Reflection: reflection,
		MaskMethod: method,
	}
	if scale > 0 {
		opts.Scale = &scale
	}
	if anchorX >= 0 {
		opts.AnchorX = &anchorX
	}
	if anchorY >= 0 {
		opts.AnchorY = &anchorY
	}
	if plate != "" {
		region, err := parseRegion(plate)
		if err != nil {
			log.Fatal(err)
		}
		opts.PlateRegion = &region
	}

	result, err := stager.ProcessFile(in, outDir, opts, ext, quality)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("orientation=%s scale=%.2f backdrop=%s duration=%s",
		result.Orientation, result.Scale, result.Backdrop, result.Duration)

	// The vision model locates the plate on the finished composite, where the
	// vehicle sits at a known position and scale.
	if detectPlate {
		region, found, err := locatePlate(result.Final, backend, model, url)
		if err != nil {
			log.Fatalf("plate detection failed: %v", err)
		}
		if !found {
			log.Printf("no license plate detected")
			return
		}

		masked, err := stager.MaskPlate(result.Final, region, method)
		if err != nil {
			log.Fatal(err)
		}

		maskedPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))+"_masked."+strings.ToLower(ext))
		if err := imageio.Save(masked, maskedPath, ext, quality, false); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s (plate at %v)", maskedPath, region)
	}
}

func newStager(cfg *config.Config) *carstage.Stager {
	stager := carstage.NewWithConfig(
		cutout.Config{
			AlphaThreshold: cfg.Cutout.AlphaThreshold,
			SideRatio:      cfg.Cutout.SideRatio,
			FrontBackRatio: cfg.Cutout.FrontBackRatio,
		},
		placement.Config{
			SideScale:         cfg.Placement.SideScale,
			FrontBackScale:    cfg.Placement.FrontBackScale,
			ThreeQuarterScale: cfg.Placement.ThreeQuarterScale,
			GroundLine:        cfg.Placement.GroundLine,
		},
		compositor.Config{
			ShadowOpacity:     cfg.Compositor.ShadowOpacity,
			ShadowWidthRatio:  cfg.Compositor.ShadowWidthRatio,
			ShadowHeightRatio: cfg.Compositor.ShadowHeightRatio,
			ReflectionOpacity: cfg.Compositor.ReflectionOpacity,
			ReflectionFade:    cfg.Compositor.ReflectionFade,
		},
		masker.Config{
			PixelBlock:   cfg.Masker.PixelBlock,
			BlurDivisor:  cfg.Masker.BlurDivisor,
			MinBlurBlock: cfg.Masker.MinBlurBlock,
		},
	)

	// NewWithConfig starts with an empty registry; add the stock studios.
	stager.RegisterDefaultStudios()
	return stager
}

func locatePlate(img image.Image, backend, model, url string) (image.Rectangle, bool, error) {
	var vc client.VisionClient
	var err error

	switch backend {
	case "ollama":
		if url == "" {
			url = "http://localhost:11434"
		}
		vc, err = ollama.NewClient(url)
	case "llamacpp":
		if url == "" {
			url = "http://localhost:8080"
		}
		vc, err = llamacpp.NewClient(url)
	default:
		return image.Rectangle{}, false, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", backend)
	}
	if err != nil {
		return image.Rectangle{}, false, err
	}

	cfg := platefinder.DefaultConfig()
	cfg.Model = model
	finder := platefinder.NewWithConfig(vc, cfg)
	return finder.Locate(context.Background(), img)
}

func parseRegion(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid plate region %q: want x0,y0,x1,y1", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid plate region %q: %v", s, err)
		}
		vals[i] = v
	}
	return image.Rect(vals[0], vals[1], vals[2], vals[3]), nil
}
