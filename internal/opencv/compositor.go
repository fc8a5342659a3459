//go:build gocv

package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/lane-finder/internal/imaging"
	"github.com/ironsheep/lane-finder/internal/lane"
)

// Compositor draws lanes with cv::line and blends with cv::addWeighted.
type Compositor struct {
	params imaging.OverlayParams
}

// NewCompositor returns an OpenCV compositor using p.
func NewCompositor(p imaging.OverlayParams) *Compositor {
	return &Compositor{params: p}
}

// Composite returns frame with both lane lines blended in.
func (c *Compositor) Composite(frame image.Image, lanes lane.Lanes, extra []lane.Segment) (image.Image, error) {
	src, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer src.Close()

	overlay := gocv.Zeros(src.Rows(), src.Cols(), gocv.MatTypeCV8UC3)
	defer overlay.Close()

	for _, l := range []lane.Line{lanes.Left, lanes.Right} {
		gocv.Line(&overlay, l.Bottom, l.Top, c.params.Color, c.params.Thickness)
	}
	for _, s := range extra {
		col := c.params.RightSegmentColor
		if s.Orientation() == lane.Left {
			col = c.params.LeftSegmentColor
		}
		gocv.Line(&overlay, image.Pt(s.X1, s.Y1), image.Pt(s.X2, s.Y2), col, c.params.SegmentThickness)
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.AddWeighted(src, c.params.Alpha, overlay, c.params.Beta, c.params.Gamma, &out)

	img, err := out.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert result: %w", err)
	}
	return img, nil
}
