// Package engine assembles a pipeline.Annotator from a configuration,
// choosing between the pure Go and the OpenCV stage implementations.
package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/lane-finder/internal/config"
	"github.com/ironsheep/lane-finder/internal/detection"
	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/lane"
	"github.com/ironsheep/lane-finder/internal/pipeline"
)

// ErrOpenCVUnavailable is returned for the opencv engine when the binary
// was built without the gocv tag.
var ErrOpenCVUnavailable = errors.New("opencv engine not compiled in (build with -tags gocv)")

// New builds an annotator for cfg. cfg must already be valid.
func New(cfg *config.Config, log logrus.FieldLogger) (*pipeline.Annotator, error) {
	overlay, err := cfg.OverlayParams()
	if err != nil {
		return nil, err
	}

	var (
		det  pipeline.SegmentDetector
		comp pipeline.Compositor
	)
	switch cfg.Runner.Engine {
	case "", config.EngineGo:
		d, err := detection.NewDetector(cfg.Detection(), log)
		if err != nil {
			return nil, err
		}
		det, comp = d, imaging.NewCompositor(overlay)
	case config.EngineOpenCV:
		det, comp, err = newOpenCV(cfg.Detection(), overlay)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalid, cfg.Runner.Engine)
	}

	if log != nil {
		log.WithField("engine", Name(cfg)).Debug("engine ready")
	}

	return pipeline.NewAnnotator(
		lane.NewEstimator(cfg.Lane),
		det,
		comp,
		pipeline.Options{DrawSegments: cfg.Overlay.DrawSegments},
		log,
	), nil
}

// Name returns the engine cfg selects.
func Name(cfg *config.Config) string {
	if cfg.Runner.Engine == "" {
		return config.EngineGo
	}
	return cfg.Runner.Engine
}
