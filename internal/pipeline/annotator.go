package pipeline

import (
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/lane-finder/internal/lane"
)

// Options toggles debug output of the Annotator.
type Options struct {
	// DrawSegments also draws every Hough segment in its side's colour.
	DrawSegments bool `yaml:"draw_segments" json:"draw_segments"`
}

// Result is one annotated frame.
type Result struct {
	Frame    image.Image
	Lanes    lane.Lanes
	Segments []lane.Segment
	ROI      lane.Polygon
}

// Annotator draws the estimated lane lines onto frames.
//
// It keeps no state between calls: the caller passes the lane.State left by
// the previous frame and keeps the one returned.
type Annotator struct {
	est  *lane.Estimator
	det  SegmentDetector
	comp Compositor
	opts Options
	log  logrus.FieldLogger
}

// NewAnnotator wires an estimator to a detector and a compositor. A nil
// logger discards output.
func NewAnnotator(est *lane.Estimator, det SegmentDetector, comp Compositor, opts Options, log logrus.FieldLogger) *Annotator {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Annotator{est: est, det: det, comp: comp, opts: opts, log: log}
}

// Estimator returns the lane estimator in use.
func (a *Annotator) Estimator() *lane.Estimator {
	return a.est
}

// Annotate processes a single frame and returns the state for the next one.
// On error the input state is returned unchanged.
func (a *Annotator) Annotate(frame image.Image, st lane.State) (*Result, lane.State, error) {
	segs, roi, err := a.Detect(frame)
	if err != nil {
		return nil, st, err
	}
	return a.Finish(frame, segs, roi, st)
}

// Detect builds the frame's region of interest and finds its segments.
// It does not depend on any earlier frame and may run concurrently.
func (a *Annotator) Detect(frame image.Image) ([]lane.Segment, lane.Polygon, error) {
	b := frame.Bounds()
	roi := a.est.ROI(b.Dx(), b.Dy())
	segs, err := a.det.Detect(frame, roi)
	if err != nil {
		return nil, nil, fmt.Errorf("segment detection failed: %w", err)
	}
	return segs, roi, nil
}

// Finish estimates the lanes from already detected segments and composites
// them onto frame.
func (a *Annotator) Finish(frame image.Image, segs []lane.Segment, roi lane.Polygon, st lane.State) (*Result, lane.State, error) {
	height := frame.Bounds().Dy()
	lanes, next := a.est.Estimate(segs, height, st)

	for _, side := range []lane.Side{lane.Left, lane.Right} {
		if lanes.Side(side).Fitted {
			continue
		}
		if st.Side(side) == lane.InitialState.Side(side) {
			a.log.WithField("side", side.String()).Debug("no lane seen yet, drawing the initial line")
		} else {
			a.log.WithField("side", side.String()).Debug("lane not found, keeping previous line")
		}
	}

	var extra []lane.Segment
	if a.opts.DrawSegments {
		extra = segs
	}
	out, err := a.comp.Composite(frame, lanes, extra)
	if err != nil {
		return nil, st, fmt.Errorf("compositing failed: %w", err)
	}

	return &Result{
		Frame:    out,
		Lanes:    lanes,
		Segments: segs,
		ROI:      roi,
	}, next, nil
}
