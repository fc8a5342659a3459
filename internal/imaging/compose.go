package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/parallel"
	"golang.org/x/image/vector"

	"github.com/ironsheep/lane-finder/internal/lane"
)

// OverlayParams controls how lane lines are drawn and blended.
type OverlayParams struct {
	// Thickness of the lane lines in pixels.
	Thickness int

	// Color of the lane lines.
	Color color.RGBA

	// Alpha, Beta and Gamma weigh the blend:
	// out = frame*Alpha + overlay*Beta + Gamma, saturated to 0..255.
	Alpha float64
	Beta  float64
	Gamma float64

	// SegmentThickness, LeftSegmentColor and RightSegmentColor style the
	// raw segments drawn when a caller passes them to Composite.
	SegmentThickness  int
	LeftSegmentColor  color.RGBA
	RightSegmentColor color.RGBA
}

// DefaultOverlayParams returns 10px red lines over a frame dimmed to 70%.
func DefaultOverlayParams() OverlayParams {
	return OverlayParams{
		Thickness:         10,
		Color:             color.RGBA{R: 255, A: 255},
		Alpha:             0.7,
		Beta:              1.0,
		Gamma:             0,
		SegmentThickness:  2,
		LeftSegmentColor:  color.RGBA{G: 255, B: 255, A: 255},
		RightSegmentColor: color.RGBA{R: 255, G: 255, A: 255},
	}
}

// Validate checks thickness and weights.
func (p OverlayParams) Validate() error {
	if p.Thickness < 1 {
		return fmt.Errorf("line thickness %d must be >= 1", p.Thickness)
	}
	if p.SegmentThickness < 1 {
		return fmt.Errorf("segment thickness %d must be >= 1", p.SegmentThickness)
	}
	if math.IsNaN(p.Alpha) || math.IsNaN(p.Beta) || math.IsNaN(p.Gamma) {
		return fmt.Errorf("blend weights must be numbers")
	}
	return nil
}

// Compositor draws lane lines onto a transparent overlay and blends the
// overlay onto the frame.
type Compositor struct {
	params OverlayParams
}

// NewCompositor returns a compositor using p.
func NewCompositor(p OverlayParams) *Compositor {
	return &Compositor{params: p}
}

// Composite returns frame with both lane lines blended in. Segments in extra
// are drawn thinner in their side's colour, for debugging the detector.
func (c *Compositor) Composite(frame image.Image, lanes lane.Lanes, extra []lane.Segment) (image.Image, error) {
	base := ToRGBA(frame)
	overlay := image.NewRGBA(base.Rect)

	for _, l := range []lane.Line{lanes.Left, lanes.Right} {
		DrawLine(overlay, l.Bottom, l.Top, c.params.Thickness, c.params.Color)
	}
	for _, s := range extra {
		col := c.params.RightSegmentColor
		if s.Orientation() == lane.Left {
			col = c.params.LeftSegmentColor
		}
		DrawLine(overlay, image.Pt(s.X1, s.Y1), image.Pt(s.X2, s.Y2), c.params.SegmentThickness, col)
	}

	return AddWeighted(base, c.params.Alpha, overlay, c.params.Beta, c.params.Gamma)
}

// ToRGBA copies img into a new *image.RGBA whose origin is (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	rgba := clone.AsRGBA(img)
	rgba.Rect = rgba.Rect.Sub(rgba.Rect.Min)
	return rgba
}

// DrawLine draws a straight line of the given thickness from a to b onto
// dst. The line is rasterized as a rectangle centred on the segment; parts
// outside dst are clipped.
func DrawLine(dst *image.RGBA, a, b image.Point, thickness int, col color.RGBA) {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 || thickness < 1 {
		return
	}

	// Half-thickness offset perpendicular to the line
	half := float64(thickness) / 2
	ox := -dy / length * half
	oy := dx / length * half

	// Sample on pixel centres
	ax, ay := float64(a.X)+0.5, float64(a.Y)+0.5
	bx, by := float64(b.X)+0.5, float64(b.Y)+0.5

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	z := vector.NewRasterizer(w, h)
	z.MoveTo(float32(ax+ox), float32(ay+oy))
	z.LineTo(float32(bx+ox), float32(by+oy))
	z.LineTo(float32(bx-ox), float32(by-oy))
	z.LineTo(float32(ax-ox), float32(ay-oy))
	z.ClosePath()
	z.Draw(dst, dst.Rect, image.NewUniform(col), image.Point{})
}

// AddWeighted blends two same-sized images channel by channel:
// dst = a*alpha + b*beta + gamma, rounded and saturated to 0..255. The
// result is fully opaque.
func AddWeighted(a *image.RGBA, alpha float64, b *image.RGBA, beta, gamma float64) (*image.RGBA, error) {
	if a.Rect.Size() != b.Rect.Size() {
		return nil, fmt.Errorf("blend size mismatch: %v vs %v", a.Rect.Size(), b.Rect.Size())
	}

	width, height := a.Rect.Dx(), a.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			arow := a.Pix[y*a.Stride:]
			brow := b.Pix[y*b.Stride:]
			drow := dst.Pix[y*dst.Stride:]
			for x := 0; x < width; x++ {
				i := x * 4
				for c := 0; c < 3; c++ {
					drow[i+c] = saturate(float64(arow[i+c])*alpha + float64(brow[i+c])*beta + gamma)
				}
				drow[i+3] = 255
			}
		}
	})
	return dst, nil
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
