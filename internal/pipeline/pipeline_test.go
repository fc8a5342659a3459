package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/ironsheep/lane-finder/internal/lane"
)

// createFrame returns a frame whose top-left pixel encodes seq.
func createFrame(seq, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	img.SetRGBA(0, 0, color.RGBA{R: uint8(seq), G: uint8(seq >> 8), A: 255})
	return img
}

func frameSeq(img image.Image) int {
	r, g, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return int(r>>8) | int(g>>8)<<8
}

// sliceSource serves frames from memory.
type sliceSource struct {
	frames []image.Image
	i      int
	err    error // returned instead of io.EOF when set
}

func (s *sliceSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.i >= len(s.frames) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	f := s.frames[s.i]
	s.i++
	return f, nil
}

func newSliceSource(n, width, height int) *sliceSource {
	src := &sliceSource{}
	for i := 0; i < n; i++ {
		src.frames = append(src.frames, createFrame(i, width, height))
	}
	return src
}

// collectSink keeps every written frame.
type collectSink struct {
	frames []image.Image
	failAt int // fail on this write when > 0
}

func (s *collectSink) Write(img image.Image) error {
	if s.failAt > 0 && len(s.frames)+1 == s.failAt {
		return errors.New("disk full")
	}
	s.frames = append(s.frames, img)
	return nil
}

// scriptedDetector returns segments chosen by frame number after a random
// delay, so that concurrent detections finish out of order.
type scriptedDetector struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter time.Duration
	failOn int // frame number that errors, -1 for none
}

func newScriptedDetector(jitter time.Duration) *scriptedDetector {
	return &scriptedDetector{rng: rand.New(rand.NewSource(7)), jitter: jitter, failOn: -1}
}

func (d *scriptedDetector) Detect(frame image.Image, _ lane.Polygon) ([]lane.Segment, error) {
	seq := frameSeq(frame)
	if d.jitter > 0 {
		d.mu.Lock()
		delay := time.Duration(d.rng.Int63n(int64(d.jitter)))
		d.mu.Unlock()
		time.Sleep(delay)
	}
	if seq == d.failOn {
		return nil, errors.New("detector exploded")
	}
	return scriptedSegments(seq), nil
}

// scriptedSegments gives the left lane on even frames and the right lane on
// every third frame, shifted by seq so that each fit is distinct.
func scriptedSegments(seq int) []lane.Segment {
	var segs []lane.Segment
	off := seq % 7
	if seq%2 == 0 {
		segs = append(segs,
			lane.Segment{X1: 4 + off, Y1: 29, X2: 14 + off, Y2: 19},
			lane.Segment{X1: 6 + off, Y1: 28, X2: 15 + off, Y2: 20},
		)
	}
	if seq%3 == 0 {
		segs = append(segs,
			lane.Segment{X1: 25 - off, Y1: 19, X2: 35 - off, Y2: 29},
			lane.Segment{X1: 26 - off, Y1: 20, X2: 34 - off, Y2: 28},
		)
	}
	return segs
}

// passCompositor returns the frame untouched.
type passCompositor struct{}

func (passCompositor) Composite(frame image.Image, _ lane.Lanes, _ []lane.Segment) (image.Image, error) {
	return frame, nil
}

// recordingObserver keeps every recorded frame.
type recordingObserver struct {
	frames []int
	lanes  []lane.Lanes
}

func (o *recordingObserver) Record(frame int, lanes lane.Lanes) {
	o.frames = append(o.frames, frame)
	o.lanes = append(o.lanes, lanes)
}
