//go:build gocv

package engine

import (
	"github.com/ironsheep/lane-finder/internal/detection"
	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/opencv"
	"github.com/ironsheep/lane-finder/internal/pipeline"
)

// OpenCVAvailable reports whether the opencv engine can be selected.
const OpenCVAvailable = true

func newOpenCV(cfg detection.Config, overlay imaging.OverlayParams) (pipeline.SegmentDetector, pipeline.Compositor, error) {
	det, err := opencv.NewDetector(cfg)
	if err != nil {
		return nil, nil, err
	}
	return det, opencv.NewCompositor(overlay), nil
}
