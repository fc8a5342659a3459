package pipeline

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/lane-finder/internal/lane"
)

// ErrFrameSize is returned when a frame's size differs from the first frame
// of its stream.
var ErrFrameSize = errors.New("frame size changed mid-stream")

// SegmentDetector finds candidate lane segments inside roi.
type SegmentDetector interface {
	Detect(frame image.Image, roi lane.Polygon) ([]lane.Segment, error)
}

// Compositor renders lanes, and optionally raw segments, onto a frame.
type Compositor interface {
	Composite(frame image.Image, lanes lane.Lanes, extra []lane.Segment) (image.Image, error)
}

// Source yields decoded frames in order and io.EOF after the last one.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
}

// Sink consumes annotated frames in order.
type Sink interface {
	Write(frame image.Image) error
}

// Observer is told about every frame once its lanes are final.
type Observer interface {
	Record(frame int, lanes lane.Lanes)
}
