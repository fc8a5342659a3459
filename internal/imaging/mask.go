package imaging

import (
	"image"

	"golang.org/x/image/vector"

	"github.com/ironsheep/lane-finder/internal/lane"
)

// PolygonMask rasterizes poly into an alpha mask of the given size. A pixel
// is inside when the polygon covers any part of it, so boundary pixels are
// kept like a filled polygon would keep them.
func PolygonMask(width, height int, poly lane.Polygon) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	if len(poly) < 3 || width <= 0 || height <= 0 {
		return mask
	}

	z := vector.NewRasterizer(width, height)
	z.MoveTo(float32(poly[0].X), float32(poly[0].Y))
	for _, p := range poly[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// MaskPolygon returns a copy of src with every pixel outside poly set to 0.
func MaskPolygon(src *image.Gray, poly lane.Polygon) *image.Gray {
	g := normalizeGray(src)
	width, height := g.Rect.Dx(), g.Rect.Dy()
	mask := PolygonMask(width, height, poly)

	dst := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		srow := g.Pix[y*g.Stride : y*g.Stride+width]
		mrow := mask.Pix[y*mask.Stride : y*mask.Stride+width]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+width]
		for x := range srow {
			if mrow[x] != 0 {
				drow[x] = srow[x]
			}
		}
	}
	return dst
}
