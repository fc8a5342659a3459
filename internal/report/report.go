// Package report records per-frame lane estimates over a run and writes
// them out as JSON and as a chart.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/lane-finder/internal/lane"
)

// FrameRecord is one frame's estimate.
type FrameRecord struct {
	Frame int                `json:"frame"`
	Left  lane.Line          `json:"left"`
	Right lane.Line          `json:"right"`
	Stats lane.ClassifyStats `json:"stats"`
}

// SideSummary counts how often one side was fitted.
type SideSummary struct {
	Fitted       int     `json:"fitted"`
	Fallback     int     `json:"fallback"`
	FallbackRate float64 `json:"fallback_rate"`
}

// Summary aggregates a run.
type Summary struct {
	Frames   int                `json:"frames"`
	Left     SideSummary        `json:"left"`
	Right    SideSummary        `json:"right"`
	Segments lane.ClassifyStats `json:"segments"`
}

// Recorder collects frame records. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	frames []FrameRecord
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record stores frame's lanes and their classification counts.
func (r *Recorder) Record(frame int, lanes lane.Lanes) {
	r.mu.Lock()
	r.frames = append(r.frames, FrameRecord{
		Frame: frame,
		Left:  lanes.Left,
		Right: lanes.Right,
		Stats: lanes.Stats,
	})
	r.mu.Unlock()
}

// Frames returns a copy of the records in recording order.
func (r *Recorder) Frames() []FrameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FrameRecord(nil), r.frames...)
}

// Summary aggregates the recorded frames.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary
	s.Frames = len(r.frames)
	for _, f := range r.frames {
		countSide(&s.Left, f.Left)
		countSide(&s.Right, f.Right)
		s.Segments.Total += f.Stats.Total
		s.Segments.Horizontal += f.Stats.Horizontal
		s.Segments.Vertical += f.Stats.Vertical
		s.Segments.Left += f.Stats.Left
		s.Segments.Right += f.Stats.Right
	}
	if s.Frames > 0 {
		s.Left.FallbackRate = float64(s.Left.Fallback) / float64(s.Frames)
		s.Right.FallbackRate = float64(s.Right.Fallback) / float64(s.Frames)
	}
	return s
}

func countSide(s *SideSummary, l lane.Line) {
	if l.Fitted {
		s.Fitted++
	} else {
		s.Fallback++
	}
}

type jsonReport struct {
	Summary Summary       `json:"summary"`
	Frames  []FrameRecord `json:"frames"`
}

// WriteJSON writes the summary and every frame record to path.
func (r *Recorder) WriteJSON(path string) error {
	data, err := json.MarshalIndent(jsonReport{Summary: r.Summary(), Frames: r.Frames()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

var (
	leftColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	rightColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// WritePlot renders the bottom and top x of both lines against frame
// number. The image format follows the extension of path.
func (r *Recorder) WritePlot(path string) error {
	frames := r.Frames()
	if len(frames) == 0 {
		return errors.New("no frames recorded")
	}

	p := plot.New()
	p.Title.Text = "Lane endpoints"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "x (px)"

	series := []struct {
		label  string
		col    color.RGBA
		dashed bool
		x      func(FrameRecord) int
	}{
		{"left bottom", leftColor, false, func(f FrameRecord) int { return f.Left.Bottom.X }},
		{"left top", leftColor, true, func(f FrameRecord) int { return f.Left.Top.X }},
		{"right bottom", rightColor, false, func(f FrameRecord) int { return f.Right.Bottom.X }},
		{"right top", rightColor, true, func(f FrameRecord) int { return f.Right.Top.X }},
	}

	for _, s := range series {
		pts := make(plotter.XYs, 0, len(frames))
		for _, f := range frames {
			pts = append(pts, plotter.XY{X: float64(f.Frame), Y: float64(s.x(f))})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = s.col
		line.Width = vg.Points(1)
		if s.dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
