package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Cutout     CutoutConfig     `json:"cutout"`
	Placement  PlacementConfig  `json:"placement"`
	Compositor CompositorConfig `json:"compositor"`
	Masker     MaskerConfig     `json:"masker"`
	Output     OutputConfig     `json:"output"`
}

// CutoutConfig holds tuning for foreground analysis
type CutoutConfig struct {
	AlphaThreshold uint8   `json:"alpha_threshold"`
	SideRatio      float64 `json:"side_ratio"`
	FrontBackRatio float64 `json:"front_back_ratio"`
}

// PlacementConfig holds the per-orientation scale table
type PlacementConfig struct {
	SideScale         float64 `json:"side_scale"`
	FrontBackScale    float64 `json:"front_back_scale"`
	ThreeQuarterScale float64 `json:"three_quarter_scale"`
	GroundLine        float64 `json:"ground_line"`
}

// CompositorConfig holds shadow and reflection parameters
type CompositorConfig struct {
	ShadowOpacity     float64 `json:"shadow_opacity"`
	ShadowWidthRatio  float64 `json:"shadow_width_ratio"`
	ShadowHeightRatio float64 `json:"shadow_height_ratio"`
	ReflectionOpacity float64 `json:"reflection_opacity"`
	ReflectionFade    int     `json:"reflection_fade"`
}

// MaskerConfig holds plate redaction strength
type MaskerConfig struct {
	PixelBlock   int `json:"pixel_block"`
	BlurDivisor  int `json:"blur_divisor"`
	MinBlurBlock int `json:"min_blur_block"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format    string `json:"format"`
	Quality   int    `json:"quality"`
	Lossless  bool   `json:"lossless"`
	OutputDir string `json:"output_dir"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Cutout: CutoutConfig{
			AlphaThreshold: 10,
			SideRatio:      1.3,
			FrontBackRatio: 0.8,
		},
		Placement: PlacementConfig{
			SideScale:         0.45,
			FrontBackScale:    0.30,
			ThreeQuarterScale: 0.38,
			GroundLine:        0.85,
		},
		Compositor: CompositorConfig{
			ShadowOpacity:     0.35,
			ShadowWidthRatio:  0.55,
			ShadowHeightRatio: 0.12,
			ReflectionOpacity: 0.40,
			ReflectionFade:    120,
		},
		Masker: MaskerConfig{
			PixelBlock:   16,
			BlurDivisor:  4,
			MinBlurBlock: 12,
		},
		Output: OutputConfig{
			Format:    "jpg",
			Quality:   92,
			Lossless:  false,
			OutputDir: "./output",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Cutout.SideRatio <= c.Cutout.FrontBackRatio {
		return fmt.Errorf("cutout.side_ratio must be greater than cutout.front_back_ratio")
	}

	if c.Cutout.FrontBackRatio <= 0 {
		return fmt.Errorf("cutout.front_back_ratio must be positive")
	}

	for name, scale := range map[string]float64{
		"placement.side_scale":          c.Placement.SideScale,
		"placement.front_back_scale":    c.Placement.FrontBackScale,
		"placement.three_quarter_scale": c.Placement.ThreeQuarterScale,
	} {
		if scale <= 0 || scale > 2 {
			return fmt.Errorf("%s must be in (0, 2]", name)
		}
	}

	if c.Placement.GroundLine <= 0 || c.Placement.GroundLine > 1 {
		return fmt.Errorf("placement.ground_line must be in (0, 1]")
	}

	if c.Compositor.ShadowOpacity < 0 || c.Compositor.ShadowOpacity > 1 {
		return fmt.Errorf("compositor.shadow_opacity must be between 0 and 1")
	}

	if c.Compositor.ReflectionOpacity < 0 || c.Compositor.ReflectionOpacity > 1 {
		return fmt.Errorf("compositor.reflection_opacity must be between 0 and 1")
	}

	if c.Masker.PixelBlock < 2 {
		return fmt.Errorf("masker.pixel_block must be at least 2")
	}

	if c.Masker.BlurDivisor < 1 {
		return fmt.Errorf("masker.blur_divisor must be at least 1")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "carstage", "config.json")
}
