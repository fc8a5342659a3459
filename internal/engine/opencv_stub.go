//go:build !gocv

package engine

import (
	"github.com/ironsheep/lane-finder/internal/detection"
	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/pipeline"
)

// OpenCVAvailable reports whether the opencv engine can be selected.
const OpenCVAvailable = false

func newOpenCV(detection.Config, imaging.OverlayParams) (pipeline.SegmentDetector, pipeline.Compositor, error) {
	return nil, nil, ErrOpenCVUnavailable
}
