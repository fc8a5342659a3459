package detection

import (
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/lane"
)

// Config groups the parameters of every detector stage.
type Config struct {
	Preprocess imaging.PreprocessParams `yaml:"preprocess" json:"preprocess"`
	Edges      imaging.CannyParams      `yaml:"edges" json:"edges"`
	Hough      HoughParams              `yaml:"hough" json:"hough"`
}

// DefaultConfig returns the tuned defaults of all stages.
func DefaultConfig() Config {
	return Config{
		Preprocess: imaging.DefaultPreprocessParams(),
		Edges:      imaging.DefaultCannyParams(),
		Hough:      DefaultHoughParams(),
	}
}

// Validate checks every stage.
func (c Config) Validate() error {
	if err := c.Preprocess.Validate(); err != nil {
		return err
	}
	if err := c.Edges.Validate(); err != nil {
		return err
	}
	return c.Hough.Validate()
}

// Analysis holds the intermediate images of one detector run.
type Analysis struct {
	Gray     *image.Gray
	Edges    *image.Gray
	Masked   *image.Gray
	Segments []lane.Segment
}

// Detector finds candidate lane segments inside a region of interest.
// It holds no per-frame state and is safe for concurrent use.
type Detector struct {
	cfg Config
	log logrus.FieldLogger
}

// NewDetector returns a detector for cfg. A nil logger discards output.
func NewDetector(cfg Config, log logrus.FieldLogger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Detector{cfg: cfg, log: log}, nil
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect returns the Hough segments of frame that lie inside roi.
func (d *Detector) Detect(frame image.Image, roi lane.Polygon) ([]lane.Segment, error) {
	a, err := d.Analyze(frame, roi)
	if err != nil {
		return nil, err
	}
	return a.Segments, nil
}

// Analyze runs every stage and keeps the intermediate images.
func (d *Detector) Analyze(frame image.Image, roi lane.Polygon) (*Analysis, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	b := frame.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty frame %v", b)
	}

	gray := imaging.Preprocess(frame, d.cfg.Preprocess)
	edges := imaging.Canny(gray, d.cfg.Edges)
	masked := imaging.MaskPolygon(edges, roi)
	segs := HoughSegments(masked, d.cfg.Hough)

	d.log.WithFields(logrus.Fields{
		"width":    b.Dx(),
		"height":   b.Dy(),
		"segments": len(segs),
	}).Debug("segments detected")

	return &Analysis{
		Gray:     gray,
		Edges:    edges,
		Masked:   masked,
		Segments: segs,
	}, nil
}
