package lane

import (
	"image"
	"math"
)

// HorizonRow returns the image row at which lane lines stop:
// round(height * yCut).
func HorizonRow(height int, yCut float64) int {
	return int(math.Round(float64(height) * yCut))
}

// BuildROI returns the road trapezoid for a width x height frame with the
// horizon at yCut of the height, using the default top corner fractions.
//
// Vertices are, in order: bottom-left (0, h), top-left (0.45w, horizon),
// top-right (0.55w, horizon), bottom-right (w, h). X coordinates are
// truncated to whole pixels.
func BuildROI(width, height int, yCut float64) Polygon {
	return buildROI(width, height, yCut, DefaultROITopLeft, DefaultROITopRight)
}

// ROI returns the road trapezoid for p.
func (p Params) ROI(width, height int) Polygon {
	return buildROI(width, height, p.HorizonFraction, p.ROITopLeft, p.ROITopRight)
}

func buildROI(width, height int, yCut, topLeft, topRight float64) Polygon {
	horizon := HorizonRow(height, yCut)
	return Polygon{
		image.Pt(0, height),
		image.Pt(int(float64(width)*topLeft), horizon),
		image.Pt(int(float64(width)*topRight), horizon),
		image.Pt(width, height),
	}
}
