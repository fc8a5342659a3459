package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/parallel"
)

// PreprocessParams controls Preprocess.
type PreprocessParams struct {
	// BlurKernel is the odd Gaussian kernel size in pixels. 1 disables blur.
	BlurKernel int `yaml:"blur_kernel" json:"blur_kernel"`

	// ClampLevel saturates every pixel brighter than it to 255, which makes
	// painted lane markings stand out against bright asphalt. 0 disables it.
	ClampLevel uint8 `yaml:"clamp_level" json:"clamp_level"`
}

// DefaultPreprocessParams returns the preprocessing the lane finder is tuned for.
func DefaultPreprocessParams() PreprocessParams {
	return PreprocessParams{
		BlurKernel: 13,
		ClampLevel: 180,
	}
}

// Validate checks the kernel size.
func (p PreprocessParams) Validate() error {
	if p.BlurKernel < 1 || p.BlurKernel%2 == 0 {
		return fmt.Errorf("blur kernel %d must be a positive odd number", p.BlurKernel)
	}
	return nil
}

// Preprocess converts img to a blurred, highlight-clamped grayscale image.
//
// The blur uses the Gaussian kernel OpenCV builds for a k x k kernel with
// sigma 0 (see GaussianKernel). After blurring, pixels strictly brighter
// than ClampLevel are set to 255 and all others are left untouched.
func Preprocess(img image.Image, p PreprocessParams) *image.Gray {
	gray := effect.Grayscale(img)
	if p.BlurKernel <= 1 {
		return clampHighlights(redToGray(gray), p.ClampLevel)
	}

	k := GaussianKernel(p.BlurKernel)
	opts := &convolution.Options{}
	blurred := convolution.Convolve(gray, k, opts)
	blurred = convolution.Convolve(blurred, k.Transposed(), opts)
	return clampHighlights(redToGray(blurred), p.ClampLevel)
}

// smallGaussians are OpenCV's fixed kernels for sizes up to 7.
var smallGaussians = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianKernel returns the normalised 1-d Gaussian of odd size k, as a
// k x 1 row. Sizes up to 7 use OpenCV's fixed tables; larger ones use
// sigma = 0.3*((k-1)/2 - 1) + 0.8.
func GaussianKernel(k int) convolution.Matrix {
	kern := convolution.NewKernel(k, 1)
	if fixed, ok := smallGaussians[k]; ok {
		copy(kern.Matrix, fixed)
		return kern
	}

	sigma := 0.3*(float64(k-1)/2-1) + 0.8
	c := float64(k-1) / 2
	for i := range kern.Matrix {
		x := float64(i) - c
		kern.Matrix[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	return kern.Normalized()
}

// redToGray copies the R channel of an image whose channels are equal.
func redToGray(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			srow := src.Pix[y*src.Stride:]
			drow := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				drow[x] = srow[x*4]
			}
		}
	})
	return dst
}

// normalizeGray returns g with its origin moved to (0,0).
func normalizeGray(g *image.Gray) *image.Gray {
	if g.Rect.Min == (image.Point{}) {
		return g
	}
	out := *g
	out.Rect = g.Rect.Sub(g.Rect.Min)
	return &out
}

// clampHighlights sets pixels above level to 255, in place.
func clampHighlights(g *image.Gray, level uint8) *image.Gray {
	if level == 0 {
		return g
	}
	w, h := g.Rect.Dx(), g.Rect.Dy()
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			for x, v := range row {
				if v > level {
					row[x] = 255
				}
			}
		}
	})
	return g
}
