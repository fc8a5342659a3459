package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/lane"
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Workers bounds concurrent segment detection. 0 uses one per CPU.
	Workers int

	// Label stamps the frame number and a marker for every side that fell
	// back onto each output frame.
	Label bool

	// Initial is the lane state before the first frame.
	Initial lane.State

	// Observer, when set, receives every frame's lanes in order.
	Observer Observer
}

// RunStats summarises a finished run.
type RunStats struct {
	Frames      int
	LeftFitted  int
	RightFitted int
	Final       lane.State
	Elapsed     time.Duration
}

// Runner annotates a whole video.
type Runner struct {
	ann  *Annotator
	opts RunnerOptions
	log  logrus.FieldLogger
}

// NewRunner returns a runner driving ann.
func NewRunner(ann *Annotator, opts RunnerOptions, log logrus.FieldLogger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if log == nil {
		log = ann.log
	}
	return &Runner{ann: ann, opts: opts, log: log}
}

type job struct {
	seq   int
	frame image.Image
}

type detected struct {
	job
	segs []lane.Segment
	roi  lane.Polygon
}

// Run reads src until io.EOF and writes one annotated frame to sink per
// input frame, in input order.
//
// Frames are read sequentially, their segments are detected on up to
// Workers goroutines, and a single goroutine folds the lane state over the
// detected frames in sequence order before compositing and writing them.
// At most 2*Workers frames are in flight at once. The first error stops
// every stage and is returned; frames already written stay written.
func (r *Runner) Run(ctx context.Context, src Source, sink Sink) (RunStats, error) {
	start := time.Now()
	var stats RunStats
	stats.Final = r.opts.Initial

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	results := make(chan detected, r.opts.Workers)
	window := make(chan struct{}, r.opts.Workers*2)

	// Read frames in order
	g.Go(func() error {
		defer close(jobs)
		var size image.Point
		for seq := 0; ; seq++ {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}

			frame, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read frame %d: %w", seq, err)
			}

			if seq == 0 {
				size = frame.Bounds().Size()
			} else if s := frame.Bounds().Size(); s != size {
				return fmt.Errorf("frame %d is %dx%d, stream is %dx%d: %w", seq, s.X, s.Y, size.X, size.Y, ErrFrameSize)
			}

			select {
			case jobs <- job{seq: seq, frame: frame}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// Detect segments in parallel
	g.Go(func() error {
		defer close(results)
		dg, dctx := errgroup.WithContext(ctx)
		dg.SetLimit(r.opts.Workers)
		for j := range jobs {
			if dctx.Err() != nil {
				break
			}
			j := j
			dg.Go(func() error {
				segs, roi, err := r.ann.Detect(j.frame)
				if err != nil {
					return fmt.Errorf("frame %d: %w", j.seq, err)
				}
				select {
				case results <- detected{job: j, segs: segs, roi: roi}:
					return nil
				case <-dctx.Done():
					return dctx.Err()
				}
			})
		}
		return dg.Wait()
	})

	// Fold lane state in frame order
	g.Go(func() error {
		pending := make(map[int]detected)
		st := r.opts.Initial
		next := 0
		for d := range results {
			pending[d.seq] = d
			for {
				cur, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)

				res, nst, err := r.ann.Finish(cur.frame, cur.segs, cur.roi, st)
				if err != nil {
					return fmt.Errorf("frame %d: %w", cur.seq, err)
				}
				st = nst

				out := res.Frame
				if r.opts.Label {
					out = stampLabel(out, cur.seq, res.Lanes)
				}
				if err := sink.Write(out); err != nil {
					return fmt.Errorf("failed to write frame %d: %w", cur.seq, err)
				}
				if r.opts.Observer != nil {
					r.opts.Observer.Record(cur.seq, res.Lanes)
				}

				if res.Lanes.Left.Fitted {
					stats.LeftFitted++
				}
				if res.Lanes.Right.Fitted {
					stats.RightFitted++
				}
				stats.Frames++
				stats.Final = st
				next++
				<-window

				if next%100 == 0 {
					r.log.WithField("frames", next).Debug("progress")
				}
			}
		}
		return nil
	})

	err := g.Wait()
	stats.Elapsed = time.Since(start)
	if err != nil {
		return stats, err
	}

	r.log.WithFields(logrus.Fields{
		"frames":       stats.Frames,
		"left_fitted":  stats.LeftFitted,
		"right_fitted": stats.RightFitted,
		"workers":      r.opts.Workers,
		"elapsed":      stats.Elapsed.String(),
	}).Info("run complete")
	return stats, nil
}

var (
	labelFG = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelBG = color.RGBA{A: 255}
)

// stampLabel writes "<frame> L R" in the top-left corner, with a '*' after
// each side that reused the previous frame's line.
func stampLabel(img image.Image, seq int, lanes lane.Lanes) image.Image {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = imaging.ToRGBA(img)
	}

	text := strconv.Itoa(seq) + " L"
	if !lanes.Left.Fitted {
		text += "*"
	}
	text += " R"
	if !lanes.Right.Fitted {
		text += "*"
	}

	scale := rgba.Bounds().Dy() / 180
	if scale < 1 {
		scale = 1
	}
	b := rgba.Bounds()
	imaging.DrawLabel(rgba, b.Min.X+2*scale, b.Min.Y+2*scale, scale, text, labelFG, labelBG)
	return rgba
}
