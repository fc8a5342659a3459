package lane

import (
	"fmt"
	"image"
	"math"
)

// Default tuning, matching the camera mounting the estimator was tuned on.
const (
	DefaultHorizonFraction = 0.62
	DefaultSlopeThreshold  = 0.5
	DefaultROITopLeft      = 0.45
	DefaultROITopRight     = 0.55
)

// Side identifies a lane boundary.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Segment is a detected line piece between two pixel endpoints.
type Segment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Slope returns |dy/dx|. ok is false for a vertical segment.
func (s Segment) Slope() (slope float64, ok bool) {
	if s.X1 == s.X2 {
		return 0, false
	}
	return math.Abs(float64(s.Y2-s.Y1) / float64(s.X2-s.X1)), true
}

// Orientation reports which lane a segment leans towards. A segment whose
// y decreases as x increases (rising to the right on screen) belongs to the
// left boundary; everything else to the right one.
func (s Segment) Orientation() Side {
	if (s.X1 < s.X2 && s.Y1 > s.Y2) || (s.X2 < s.X1 && s.Y2 > s.Y1) {
		return Left
	}
	return Right
}

// Samples are the parallel x/y endpoint coordinates gathered for one side.
type Samples struct {
	X []float64
	Y []float64
}

// Len returns the number of (x, y) samples.
func (s Samples) Len() int {
	return len(s.X)
}

func (s *Samples) add(x, y int) {
	s.X = append(s.X, float64(x))
	s.Y = append(s.Y, float64(y))
}

// Line is the drawable lane boundary for one side of one frame.
type Line struct {
	Bottom image.Point `json:"bottom"`
	Top    image.Point `json:"top"`

	// Slope and Intercept describe y = Slope*x + Intercept. Both are zero
	// when the line came from the fallback.
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`

	// Fitted is false when the previous frame's endpoints were reused.
	Fitted bool `json:"fitted"`
}

// ClassifyStats counts what Classify did with a frame's segments.
type ClassifyStats struct {
	Total      int `json:"total"`
	Horizontal int `json:"horizontal"`
	Vertical   int `json:"vertical"`
	Left       int `json:"left"`
	Right      int `json:"right"`
}

// Lanes is the per-frame output of the estimator.
type Lanes struct {
	Left  Line          `json:"left"`
	Right Line          `json:"right"`
	Stats ClassifyStats `json:"stats"`
}

// Side returns the line of side s.
func (l Lanes) Side(s Side) Line {
	if s == Right {
		return l.Right
	}
	return l.Left
}

// SideState remembers the last fitted endpoints of one side.
type SideState struct {
	BottomX int `json:"bottom_x"`
	TopX    int `json:"top_x"`
}

// State is the estimator memory carried from one frame to the next.
type State struct {
	Left  SideState `json:"left"`
	Right SideState `json:"right"`
}

// InitialState is the state before any frame was fitted. Its zero
// coordinates produce a degenerate line at the left frame edge.
var InitialState = State{}

// Side returns the remembered endpoints for s.
func (st State) Side(s Side) SideState {
	if s == Left {
		return st.Left
	}
	return st.Right
}

// With returns a copy of st with side s replaced.
func (st State) With(s Side, ss SideState) State {
	if s == Left {
		st.Left = ss
	} else {
		st.Right = ss
	}
	return st
}

// Polygon is a closed polygon in pixel coordinates.
type Polygon []image.Point

// Params tunes the estimator.
type Params struct {
	// HorizonFraction is the horizon row as a fraction of frame height,
	// strictly between 0 and 1.
	HorizonFraction float64 `yaml:"horizon_fraction" json:"horizon_fraction"`

	// SlopeThreshold drops segments whose |slope| is at or below it.
	SlopeThreshold float64 `yaml:"slope_threshold" json:"slope_threshold"`

	// ROITopLeft and ROITopRight are the x fractions of the trapezoid's top
	// corners.
	ROITopLeft  float64 `yaml:"roi_top_left" json:"roi_top_left"`
	ROITopRight float64 `yaml:"roi_top_right" json:"roi_top_right"`

	// Mirror swaps the left/right orientation test, for flipped footage.
	Mirror bool `yaml:"mirror" json:"mirror"`
}

// DefaultParams returns the tuning the estimator ships with.
func DefaultParams() Params {
	return Params{
		HorizonFraction: DefaultHorizonFraction,
		SlopeThreshold:  DefaultSlopeThreshold,
		ROITopLeft:      DefaultROITopLeft,
		ROITopRight:     DefaultROITopRight,
	}
}

// Validate checks that p describes a usable geometry.
func (p Params) Validate() error {
	if !(p.HorizonFraction > 0 && p.HorizonFraction < 1) {
		return fmt.Errorf("horizon fraction %v must be in (0, 1)", p.HorizonFraction)
	}
	if p.SlopeThreshold < 0 || math.IsNaN(p.SlopeThreshold) {
		return fmt.Errorf("slope threshold %v must be >= 0", p.SlopeThreshold)
	}
	if !(p.ROITopLeft >= 0 && p.ROITopLeft <= p.ROITopRight && p.ROITopRight <= 1) {
		return fmt.Errorf("roi top fractions %v..%v must satisfy 0 <= left <= right <= 1",
			p.ROITopLeft, p.ROITopRight)
	}
	return nil
}
