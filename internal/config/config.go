// Package config loads the TOML job description used by the command line
// digitizer: which image to binarize, how the axes are calibrated, parameter
// overrides for the extractor, and where to write results.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"curve-digitizer/internal/logger"
	"curve-digitizer/internal/models"

	"github.com/BurntSushi/toml"
)

const (
	ModeOtsu  = "otsu"
	ModeFixed = "fixed"
	ModeColor = "color"

	ForegroundDark  = "dark"
	ForegroundLight = "light"

	maxFileSize = 1 * 1024 * 1024 // 1MB
)

// Config is the root of a job file.
type Config struct {
	Image       ImageConfig       `toml:"image"`
	Calibration CalibrationConfig `toml:"calibration"`
	Extraction  ExtractionConfig  `toml:"extraction"`
	Output      OutputConfig      `toml:"output"`
}

// ImageConfig controls how the source image becomes a binary mask.
type ImageConfig struct {
	Path       string  `toml:"path"`
	Mode       string  `toml:"mode"`
	Threshold  float64 `toml:"threshold"`
	Foreground string  `toml:"foreground"`
	Color      []int   `toml:"color"`
	Tolerance  float64 `toml:"tolerance"`
	OpenKernel int     `toml:"open_kernel"`
}

// CalibrationConfig holds the four picked axis points.
type CalibrationConfig struct {
	X1   models.CalibrationPoint `toml:"x1"`
	X2   models.CalibrationPoint `toml:"x2"`
	Y3   models.CalibrationPoint `toml:"y3"`
	Y4   models.CalibrationPoint `toml:"y4"`
	LogX bool                    `toml:"log_x"`
	LogY bool                    `toml:"log_y"`
}

// ExtractionConfig selects the algorithm and overrides parameters by their
// persisted key (for the step window: xmin, delx, xmax, ymin, ymax, lineWidth).
type ExtractionConfig struct {
	Algorithm  string             `toml:"algorithm"`
	Dataset    string             `toml:"dataset"`
	Parameters map[string]float64 `toml:"parameters"`
}

// OutputConfig lists result destinations. Empty paths are skipped.
type OutputConfig struct {
	CSV      string `toml:"csv"`
	Project  string `toml:"project"`
	Plot     string `toml:"plot"`
	LogLevel string `toml:"log_level"`
}

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	return &Config{
		Image: ImageConfig{
			Mode:       ModeOtsu,
			Threshold:  128,
			Foreground: ForegroundDark,
			Tolerance:  40,
		},
		Extraction: ExtractionConfig{
			Dataset:    "Trace 1",
			Parameters: map[string]float64{},
		},
		Output: OutputConfig{
			LogLevel: "info",
		},
	}
}

// Load reads and validates a job file. Keys absent from the file keep their
// defaults; unknown keys are rejected.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".toml" {
		return nil, fmt.Errorf("config file must have .toml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, err
	}

	// Relative image paths are resolved against the config file.
	if cfg.Image.Path != "" && !filepath.IsAbs(cfg.Image.Path) {
		cfg.Image.Path = filepath.Join(filepath.Dir(cleanPath), cfg.Image.Path)
	}
	return cfg, nil
}

// Parse decodes TOML text on top of Default and validates the result.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if cfg.Extraction.Parameters == nil {
		cfg.Extraction.Parameters = map[string]float64{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that do not depend on the image itself.
func (c *Config) Validate() error {
	switch c.Image.Mode {
	case ModeOtsu:
	case ModeFixed:
		if c.Image.Threshold < 0 || c.Image.Threshold > 255 {
			return fmt.Errorf("image.threshold must be within 0-255, got %v", c.Image.Threshold)
		}
	case ModeColor:
		if len(c.Image.Color) != 3 {
			return fmt.Errorf("image.color must hold 3 RGB components, got %d", len(c.Image.Color))
		}
		for _, v := range c.Image.Color {
			if v < 0 || v > 255 {
				return fmt.Errorf("image.color component %d outside 0-255", v)
			}
		}
		if c.Image.Tolerance < 0 {
			return fmt.Errorf("image.tolerance must not be negative")
		}
	default:
		return fmt.Errorf("image.mode must be %q, %q or %q, got %q", ModeOtsu, ModeFixed, ModeColor, c.Image.Mode)
	}

	if c.Image.Foreground != ForegroundDark && c.Image.Foreground != ForegroundLight {
		return fmt.Errorf("image.foreground must be %q or %q, got %q", ForegroundDark, ForegroundLight, c.Image.Foreground)
	}
	if c.Image.OpenKernel < 0 {
		return fmt.Errorf("image.open_kernel must not be negative")
	}

	if _, err := c.Calibration.Axes(); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	if _, err := logger.ParseLevel(c.Output.LogLevel); err != nil {
		return fmt.Errorf("output.log_level: %w", err)
	}

	return nil
}

// Axes builds the calibration described by the config.
func (c CalibrationConfig) Axes() (*models.XYAxes, error) {
	return models.NewXYAxes(c.X1, c.X2, c.Y3, c.Y4, c.LogX, c.LogY)
}
