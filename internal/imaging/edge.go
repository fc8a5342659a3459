package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// CannyParams holds the hysteresis thresholds of Canny.
type CannyParams struct {
	// Low is the weak-edge threshold. Gradients below it are discarded.
	Low float64 `yaml:"low" json:"low"`

	// High is the strong-edge threshold. Gradients at or above it are always
	// kept; gradients between Low and High survive only when connected to a
	// strong edge.
	High float64 `yaml:"high" json:"high"`
}

// DefaultCannyParams returns the thresholds the lane finder is tuned for.
func DefaultCannyParams() CannyParams {
	return CannyParams{Low: 50, High: 150}
}

// Validate checks the threshold ordering.
func (p CannyParams) Validate() error {
	if p.Low < 0 || p.High < p.Low {
		return fmt.Errorf("canny thresholds %v/%v must satisfy 0 <= low <= high", p.Low, p.High)
	}
	return nil
}

// Canny detects edges in an already smoothed grayscale image.
//
// Returns a binary image of the same size in which edge pixels are 255 and
// all other pixels are 0.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators for X and Y,
//     magnitude = |Gx| + |Gy| on the 0-255 intensity scale
//
//  2. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima across the gradient direction
//
//  3. Hysteresis thresholding: pixels with magnitude >= High seed edges,
//     which are grown through 8-connected pixels with magnitude >= Low
//
// The input is not blurred here; Preprocess does that first.
func Canny(src *image.Gray, p CannyParams) *image.Gray {
	g := normalizeGray(src)
	width := g.Rect.Dx()
	height := g.Rect.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					py := clamp(y+ky, 0, height-1)
					for kx := -1; kx <= 1; kx++ {
						px := clamp(x+kx, 0, width-1)
						v := float64(g.Pix[py*g.Stride+px])
						gx += v * sobelX[ky+1][kx+1]
						gy += v * sobelY[ky+1][kx+1]
					}
				}
				i := y*width + x
				magnitude[i] = math.Abs(gx) + math.Abs(gy)
				direction[i] = math.Atan2(gy, gx)
			}
		}
	})

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			if y == 0 || y == height-1 {
				continue
			}
			for x := 1; x < width-1; x++ {
				i := y*width + x
				angle := direction[i]
				mag := magnitude[i]
				if mag == 0 {
					continue
				}

				// Determine neighbors to compare based on gradient direction
				var n1, n2 float64
				if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
					n1 = magnitude[i-1]
					n2 = magnitude[i+1]
				} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
					n1 = magnitude[i-width-1]
					n2 = magnitude[i+width+1]
				} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
					n1 = magnitude[i-width]
					n2 = magnitude[i+width]
				} else {
					n1 = magnitude[i-width+1]
					n2 = magnitude[i+width-1]
				}

				// Ties break towards the first neighbour so that plateaus
				// stay one pixel wide.
				if mag > n1 && mag >= n2 {
					suppressed[i] = mag
				}
			}
		}
	})

	// Edge tracking by hysteresis, iterative to avoid deep recursion.
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v >= p.High && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cx, cy := cur%width, cur/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == 0 && suppressed[n] >= p.Low && suppressed[n] > 0 {
						result.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
