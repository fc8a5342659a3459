// Package config loads the lane finder's YAML configuration.
//
// Every field has a default, so a file only needs the values it changes:
//
//	lane:
//	  horizon_fraction: 0.6
//	hough:
//	  min_line_length: 120
//	overlay:
//	  color: "#00FF00"
//	runner:
//	  workers: 4
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/lane-finder/internal/detection"
	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/lane"
	"github.com/ironsheep/lane-finder/internal/video"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Engine names for RunnerConfig.Engine.
const (
	EngineGo     = "go"
	EngineOpenCV = "opencv"
)

// Config is the complete configuration.
type Config struct {
	Lane       lane.Params              `yaml:"lane"`
	Preprocess imaging.PreprocessParams `yaml:"preprocess"`
	Edges      imaging.CannyParams      `yaml:"edges"`
	Hough      detection.HoughParams    `yaml:"hough"`
	Overlay    OverlayConfig            `yaml:"overlay"`
	Video      video.Options            `yaml:"video"`
	Runner     RunnerConfig             `yaml:"runner"`
}

// OverlayConfig styles the drawn lanes. Colours are "#RRGGBB" or a name.
type OverlayConfig struct {
	Thickness         int     `yaml:"thickness"`
	Color             string  `yaml:"color"`
	Alpha             float64 `yaml:"alpha"`
	Beta              float64 `yaml:"beta"`
	Gamma             float64 `yaml:"gamma"`
	DrawSegments      bool    `yaml:"draw_segments"`
	SegmentThickness  int     `yaml:"segment_thickness"`
	LeftSegmentColor  string  `yaml:"left_segment_color"`
	RightSegmentColor string  `yaml:"right_segment_color"`
}

// RunnerConfig controls video runs.
type RunnerConfig struct {
	Workers int    `yaml:"workers"` // 0 = one per CPU
	Label   bool   `yaml:"label"`   // stamp frame numbers
	Engine  string `yaml:"engine"`  // go or opencv
}

// Default returns the built-in configuration.
func Default() *Config {
	ov := imaging.DefaultOverlayParams()
	return &Config{
		Lane:       lane.DefaultParams(),
		Preprocess: imaging.DefaultPreprocessParams(),
		Edges:      imaging.DefaultCannyParams(),
		Hough:      detection.DefaultHoughParams(),
		Overlay: OverlayConfig{
			Thickness:         ov.Thickness,
			Color:             imaging.FormatColor(ov.Color),
			Alpha:             ov.Alpha,
			Beta:              ov.Beta,
			Gamma:             ov.Gamma,
			SegmentThickness:  ov.SegmentThickness,
			LeftSegmentColor:  imaging.FormatColor(ov.LeftSegmentColor),
			RightSegmentColor: imaging.FormatColor(ov.RightSegmentColor),
		},
		Video: video.DefaultOptions(),
		Runner: RunnerConfig{
			Workers: runtime.NumCPU(),
			Engine:  EngineGo,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and leaves the defaults in place.
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section; failures wrap ErrInvalid.
func (c *Config) Validate() error {
	if err := c.Lane.Validate(); err != nil {
		return fmt.Errorf("%w: lane: %v", ErrInvalid, err)
	}
	if err := c.Detection().Validate(); err != nil {
		return fmt.Errorf("%w: detector: %v", ErrInvalid, err)
	}
	ov, err := c.OverlayParams()
	if err != nil {
		return fmt.Errorf("%w: overlay: %v", ErrInvalid, err)
	}
	if err := ov.Validate(); err != nil {
		return fmt.Errorf("%w: overlay: %v", ErrInvalid, err)
	}
	if err := c.Video.Validate(); err != nil {
		return fmt.Errorf("%w: video: %v", ErrInvalid, err)
	}
	if c.Runner.Workers < 0 {
		return fmt.Errorf("%w: runner: workers %d must be >= 0", ErrInvalid, c.Runner.Workers)
	}
	switch c.Runner.Engine {
	case "", EngineGo, EngineOpenCV:
	default:
		return fmt.Errorf("%w: runner: unknown engine %q", ErrInvalid, c.Runner.Engine)
	}
	return nil
}

// Detection returns the detector stage parameters.
func (c *Config) Detection() detection.Config {
	return detection.Config{
		Preprocess: c.Preprocess,
		Edges:      c.Edges,
		Hough:      c.Hough,
	}
}

// OverlayParams resolves the overlay colours.
func (c *Config) OverlayParams() (imaging.OverlayParams, error) {
	colors := make([]color.RGBA, 3)
	for i, s := range []string{c.Overlay.Color, c.Overlay.LeftSegmentColor, c.Overlay.RightSegmentColor} {
		col, err := imaging.ParseColor(s)
		if err != nil {
			return imaging.OverlayParams{}, err
		}
		colors[i] = col
	}
	return imaging.OverlayParams{
		Thickness:         c.Overlay.Thickness,
		Color:             colors[0],
		Alpha:             c.Overlay.Alpha,
		Beta:              c.Overlay.Beta,
		Gamma:             c.Overlay.Gamma,
		SegmentThickness:  c.Overlay.SegmentThickness,
		LeftSegmentColor:  colors[1],
		RightSegmentColor: colors[2],
	}, nil
}

// YAML returns the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
