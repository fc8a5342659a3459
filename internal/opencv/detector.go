//go:build gocv

package opencv

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ironsheep/lane-finder/internal/detection"
	"github.com/ironsheep/lane-finder/internal/lane"
)

// Detector finds lane segments with OpenCV's Canny and HoughLinesP.
type Detector struct {
	cfg detection.Config
}

// NewDetector returns an OpenCV detector for cfg.
func NewDetector(cfg detection.Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	return &Detector{cfg: cfg}, nil
}

// Detect returns the Hough segments of frame that lie inside roi.
func (d *Detector) Detect(frame image.Image, roi lane.Polygon) ([]lane.Segment, error) {
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	src, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	if k := d.cfg.Preprocess.BlurKernel; k > 1 {
		gocv.GaussianBlur(gray, &gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	}

	// Saturate highlights: max(gray, gray > level ? 255 : 0)
	if level := d.cfg.Preprocess.ClampLevel; level > 0 {
		highlights := gocv.NewMat()
		defer highlights.Close()
		gocv.Threshold(gray, &highlights, float32(level), 255, gocv.ThresholdBinary)
		gocv.Max(gray, highlights, &gray)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(d.cfg.Edges.Low), float32(d.cfg.Edges.High))

	masked := gocv.Zeros(edges.Rows(), edges.Cols(), gocv.MatTypeCV8U)
	defer masked.Close()
	if len(roi) >= 3 {
		mask := gocv.Zeros(edges.Rows(), edges.Cols(), gocv.MatTypeCV8U)
		defer mask.Close()
		pts := gocv.NewPointsVectorFromPoints([][]image.Point{roi})
		defer pts.Close()
		gocv.FillPoly(&mask, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		gocv.BitwiseAnd(edges, mask, &masked)
	}

	lines := gocv.NewMat()
	defer lines.Close()
	h := d.cfg.Hough
	gocv.HoughLinesPWithParams(masked, &lines, float32(h.Rho), float32(h.Theta), h.Threshold,
		float32(h.MinLineLength), float32(h.MaxLineGap))

	segs := make([]lane.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segs = append(segs, lane.Segment{X1: int(v[0]), Y1: int(v[1]), X2: int(v[2]), Y2: int(v[3])})
		if h.MaxLines > 0 && len(segs) >= h.MaxLines {
			break
		}
	}
	return segs, nil
}
