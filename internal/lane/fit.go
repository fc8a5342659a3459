package lane

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// maxCoord bounds derived endpoint coordinates. A nearly flat fit can put
// the bottom row crossing millions of pixels away; such a fit is unusable.
const maxCoord = 1 << 24

// FitSide turns one side's samples into a line from the bottom row (y =
// height) to the horizon row.
//
// When the samples admit a least-squares fit the derived endpoints are
// returned together with the SideState to remember. Otherwise (no samples,
// a single distinct x, a flat or non-finite fit) the endpoints stored in
// prev are reused and prev is returned unchanged.
func FitSide(s Samples, height, horizonY int, prev SideState) (Line, SideState) {
	if m, b, ok := fitLine(s); ok {
		bottomX, okBottom := solveX(float64(height), m, b)
		topX, okTop := solveX(float64(horizonY), m, b)
		if okBottom && okTop {
			line := Line{
				Bottom:    image.Pt(bottomX, height),
				Top:       image.Pt(topX, horizonY),
				Slope:     m,
				Intercept: b,
				Fitted:    true,
			}
			return line, SideState{BottomX: bottomX, TopX: topX}
		}
	}
	return fallbackLine(prev, height, horizonY), prev
}

func fallbackLine(prev SideState, height, horizonY int) Line {
	return Line{
		Bottom: image.Pt(prev.BottomX, height),
		Top:    image.Pt(prev.TopX, horizonY),
	}
}

// fitLine fits y = m*x + b by ordinary least squares.
func fitLine(s Samples) (m, b float64, ok bool) {
	if len(s.X) == 0 || len(s.X) != len(s.Y) {
		return 0, 0, false
	}
	if !hasSpread(s.X) {
		return 0, 0, false
	}

	b, m = stat.LinearRegression(s.X, s.Y, nil, false)
	if m == 0 || !finite(m) || !finite(b) {
		return 0, 0, false
	}
	return m, b, true
}

// solveX returns round((y - b) / m).
func solveX(y, m, b float64) (int, bool) {
	x := math.Round((y - b) / m)
	if !finite(x) || math.Abs(x) > maxCoord {
		return 0, false
	}
	return int(x), true
}

func hasSpread(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return true
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
