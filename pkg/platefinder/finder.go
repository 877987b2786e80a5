// Package platefinder locates license plate regions using an external
// vision model. The pipeline core treats plate detection as a black box:
// this package only produces the bounding box the masker consumes.
package platefinder

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/keroxio/carstage/pkg/client"
	"github.com/keroxio/carstage/pkg/imageio"
	"github.com/keroxio/carstage/pkg/types"
)

// DefaultPrompt asks the model for the plate location as strict JSON.
const DefaultPrompt = `You are a license plate locator for vehicle photos.

Return JSON only:
{
  "found": true,
  "plate": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
  "text": "string",
  "confidence": 0.0
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box must tightly enclose the license plate, including its frame.
- "text" is the plate characters if legible, else "".
- If no plate is visible, return:
  {"found": false, "plate": {"x":0,"y":0,"w":0,"h":0}, "text": "", "confidence": 0.0}
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Config holds the vision-model transport parameters.
type Config struct {
	Model string
	// SendFormat, SendMaxDim and SendQuality control how the image is
	// re-encoded before being sent to the model.
	SendFormat  string
	SendMaxDim  int
	SendQuality int
	// MinConfidence rejects detections the model itself is unsure about.
	MinConfidence float64
}

// DefaultConfig returns the stock transport parameters.
func DefaultConfig() Config {
	return Config{
		Model:         "openbmb/minicpm-v4.5",
		SendFormat:    "jpg",
		SendMaxDim:    1536,
		SendQuality:   85,
		MinConfidence: 0.25,
	}
}

// Finder locates plate regions via a vision client backend.
type Finder struct {
	client client.VisionClient
	config Config
}

// New creates a Finder with default configuration.
func New(vc client.VisionClient) *Finder {
	return &Finder{client: vc, config: DefaultConfig()}
}

// NewWithConfig creates a Finder with custom configuration.
func NewWithConfig(vc client.VisionClient, config Config) *Finder {
	return &Finder{client: vc, config: config}
}

// Locate asks the vision model for the plate bounding box on img. It
// returns found=false (with no error) when the model reports no plate or
// is below the confidence floor; a fabricated region would be worse than
// none.
func (f *Finder) Locate(ctx context.Context, img image.Image) (image.Rectangle, bool, error) {
	imgB64, err := imageio.EncodeBase64(img, f.config.SendFormat, f.config.SendMaxDim, f.config.SendQuality)
	if err != nil {
		return image.Rectangle{}, false, fmt.Errorf("platefinder: failed to encode image: %w", err)
	}

	raw, err := f.client.Query(ctx, f.config.Model, DefaultPrompt, imgB64)
	if err != nil {
		return image.Rectangle{}, false, fmt.Errorf("platefinder: vision query failed: %w", err)
	}

	det, err := ParseDetection(raw)
	if err != nil {
		return image.Rectangle{}, false, err
	}

	if !det.Found || det.Plate.Empty() || det.Confidence < f.config.MinConfidence {
		return image.Rectangle{}, false, nil
	}

	b := img.Bounds()
	return det.Plate.Rect(b.Dx(), b.Dy()), true, nil
}

// ParseDetection extracts a PlateDetection from raw model output, stripping
// code fences, comments and trailing commas that smaller models emit.
func ParseDetection(raw string) (*types.PlateDetection, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("platefinder: model returned non-JSON response")
	}

	var det types.PlateDetection
	if err := json.Unmarshal([]byte(raw), &det); err != nil {
		return nil, fmt.Errorf("platefinder: failed to parse model response: %w", err)
	}
	return &det, nil
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	return strings.TrimSpace(raw)
}
