package detection

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/ironsheep/lane-finder/internal/lane"
)

// HoughParams configures HoughSegments.
type HoughParams struct {
	// Rho is the distance resolution of the accumulator in pixels.
	Rho float64 `yaml:"rho" json:"rho"`

	// Theta is the angular resolution of the accumulator in radians.
	Theta float64 `yaml:"theta" json:"theta"`

	// Threshold is the minimum number of votes a line needs before it is
	// traced.
	Threshold int `yaml:"threshold" json:"threshold"`

	// MinLineLength is the shortest segment reported, measured along the
	// dominant axis.
	MinLineLength int `yaml:"min_line_length" json:"min_line_length"`

	// MaxLineGap is the longest run of missing pixels bridged while tracing.
	MaxLineGap int `yaml:"max_line_gap" json:"max_line_gap"`

	// MaxLines caps the number of segments returned. 0 means no cap.
	MaxLines int `yaml:"max_lines" json:"max_lines"`

	// Seed fixes the pixel visiting order.
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultHoughParams returns the parameters the lane finder is tuned for.
func DefaultHoughParams() HoughParams {
	return HoughParams{
		Rho:           2,
		Theta:         math.Pi / 90,
		Threshold:     15,
		MinLineLength: 200,
		MaxLineGap:    150,
		Seed:          1,
	}
}

// Validate checks that the accumulator resolution and limits are usable.
func (p HoughParams) Validate() error {
	if !(p.Rho > 0) {
		return fmt.Errorf("hough rho %v must be > 0", p.Rho)
	}
	if !(p.Theta > 0) || p.Theta > math.Pi {
		return fmt.Errorf("hough theta %v must be in (0, pi]", p.Theta)
	}
	if p.Threshold < 1 {
		return fmt.Errorf("hough threshold %d must be >= 1", p.Threshold)
	}
	if p.MinLineLength < 0 || p.MaxLineGap < 0 || p.MaxLines < 0 {
		return fmt.Errorf("hough length, gap and line limits must be >= 0")
	}
	return nil
}

// fixedShift is the fractional precision used while walking along a line.
const fixedShift = 16

// HoughSegments finds line segments in a binary edge map with the
// progressive probabilistic Hough transform.
//
// Non-zero pixels of edges are visited in random order. Each visited pixel
// votes for every line through it; once a line collects Threshold votes it
// is traced from the pixel in both directions, bridging gaps of up to
// MaxLineGap pixels. A walk that misses the line by one pixel across the
// minor axis steps onto the neighbouring pixel and continues from there, so
// a coarse Theta does not carry it off long lines. A traced segment at
// least MinLineLength long along either axis is reported, and its pixels
// withdraw their votes so that they cannot support another line. Pixels of
// a traced segment are consumed whether or not it was long enough.
func HoughSegments(edges *image.Gray, p HoughParams) []lane.Segment {
	width, height := edges.Rect.Dx(), edges.Rect.Dy()
	if width == 0 || height == 0 || p.Rho <= 0 || p.Theta <= 0 {
		return nil
	}

	numAngle := int(math.Round(math.Pi / p.Theta))
	if numAngle < 1 {
		numAngle = 1
	}
	numRho := int(math.Round(float64((width+height)*2+1) / p.Rho))
	rhoOffset := (numRho - 1) / 2

	// Precomputed cos/sin scaled by 1/rho
	trig := make([]float64, numAngle*2)
	for n := 0; n < numAngle; n++ {
		angle := float64(n) * p.Theta
		trig[n*2] = math.Cos(angle) / p.Rho
		trig[n*2+1] = math.Sin(angle) / p.Rho
	}

	accum := make([]int, numAngle*numRho)
	vote := func(x, y, delta int) (best, bestN int) {
		best = p.Threshold - 1
		for n := 0; n < numAngle; n++ {
			r := int(math.Round(float64(x)*trig[n*2]+float64(y)*trig[n*2+1])) + rhoOffset
			if r < 0 || r >= numRho {
				continue
			}
			i := n*numRho + r
			accum[i] += delta
			if accum[i] > best {
				best, bestN = accum[i], n
			}
		}
		return best, bestN
	}

	// mask marks edge pixels not yet claimed by a segment
	mask := make([]bool, width*height)
	points := make([]image.Point, 0, width*height/16)
	for y := 0; y < height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			if v != 0 {
				mask[y*width+x] = true
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}

	rng := rand.New(rand.NewSource(p.Seed))
	var segments []lane.Segment

	for count := len(points); count > 0; count-- {
		// Pick a random unvisited point
		idx := rng.Intn(count)
		pt := points[idx]
		points[idx] = points[count-1]

		if !mask[pt.Y*width+pt.X] {
			continue
		}

		best, bestN := vote(pt.X, pt.Y, 1)
		if best < p.Threshold {
			continue
		}

		// Direction along the winning line, in fixed point on the minor axis
		a := -trig[bestN*2+1]
		b := trig[bestN*2]
		x0, y0 := pt.X, pt.Y
		var dx0, dy0 int
		xMajor := math.Abs(a) > math.Abs(b)
		if xMajor {
			dx0 = sign(a)
			dy0 = int(math.Round(b * (1 << fixedShift) / math.Abs(a)))
			y0 = (y0 << fixedShift) + (1 << (fixedShift - 1))
		} else {
			dy0 = sign(b)
			dx0 = int(math.Round(a * (1 << fixedShift) / math.Abs(b)))
			x0 = (x0 << fixedShift) + (1 << (fixedShift - 1))
		}

		pixel := func(x, y int) (int, int) {
			if xMajor {
				return x, y >> fixedShift
			}
			return x >> fixedShift, y
		}

		// find returns the unclaimed pixel at (px, py), or failing that its
		// nearer then farther neighbour across the minor axis.
		find := func(x, y, px, py int) (int, bool) {
			if mask[py*width+px] {
				return py*width + px, true
			}
			if xMajor {
				near, far := py-1, py+1
				if y&(1<<fixedShift-1) >= 1<<(fixedShift-1) {
					near, far = far, near
				}
				for _, ny := range [2]int{near, far} {
					if ny >= 0 && ny < height && mask[ny*width+px] {
						return ny*width + px, true
					}
				}
				return 0, false
			}
			near, far := px-1, px+1
			if x&(1<<fixedShift-1) >= 1<<(fixedShift-1) {
				near, far = far, near
			}
			for _, nx := range [2]int{near, far} {
				if nx >= 0 && nx < width && mask[py*width+nx] {
					return py*width + nx, true
				}
			}
			return 0, false
		}

		var ends [2]image.Point
		var hits [2][]int
		for k := 0; k < 2; k++ {
			dx, dy := dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			gap := 0
			for x, y := x0, y0; ; x, y = x+dx, y+dy {
				px, py := pixel(x, y)
				if px < 0 || px >= width || py < 0 || py >= height {
					break
				}
				i, ok := find(x, y, px, py)
				if !ok {
					if gap++; gap > p.MaxLineGap {
						break
					}
					continue
				}
				gap = 0
				hits[k] = append(hits[k], i)
				ends[k] = image.Point{X: i % width, Y: i / width}

				// Continue from the pixel found so that the quantised
				// direction does not drift off the line.
				if xMajor {
					y = (ends[k].Y << fixedShift) + (1 << (fixedShift - 1))
				} else {
					x = (ends[k].X << fixedShift) + (1 << (fixedShift - 1))
				}
			}
		}

		good := abs(ends[1].X-ends[0].X) >= p.MinLineLength ||
			abs(ends[1].Y-ends[0].Y) >= p.MinLineLength

		// Claim every pixel the walks passed through
		for _, path := range hits {
			for _, i := range path {
				if !mask[i] {
					continue
				}
				if good {
					vote(i%width, i/width, -1)
				}
				mask[i] = false
			}
		}

		if good {
			segments = append(segments, lane.Segment{
				X1: ends[0].X, Y1: ends[0].Y,
				X2: ends[1].X, Y2: ends[1].Y,
			})
			if p.MaxLines > 0 && len(segments) >= p.MaxLines {
				break
			}
		}
	}

	return segments
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
