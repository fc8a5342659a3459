package lane

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	segs := []Segment{
		{X1: 0, Y1: 100, X2: 100, Y2: 120},   // slope 0.2, dropped
		{X1: 0, Y1: 0, X2: 100, Y2: 50},      // slope exactly 0.5, dropped
		{X1: 50, Y1: 0, X2: 50, Y2: 100},     // vertical, dropped
		{X1: 100, Y1: 500, X2: 200, Y2: 300}, // left
		{X1: 220, Y1: 260, X2: 120, Y2: 460}, // left, reversed endpoints
		{X1: 600, Y1: 300, X2: 700, Y2: 500}, // right
	}

	left, right, stats := Classify(segs, DefaultParams())

	assert.Equal(t, ClassifyStats{Total: 6, Horizontal: 2, Vertical: 1, Left: 2, Right: 1}, stats)
	assert.Equal(t, []float64{100, 200, 220, 120}, left.X)
	assert.Equal(t, []float64{500, 300, 260, 460}, left.Y)
	assert.Equal(t, []float64{600, 700}, right.X)
	assert.Equal(t, []float64{300, 500}, right.Y)
}

func TestClassify_Empty(t *testing.T) {
	left, right, stats := Classify(nil, DefaultParams())
	assert.Zero(t, left.Len())
	assert.Zero(t, right.Len())
	assert.Equal(t, ClassifyStats{}, stats)
}

func TestClassify_Mirror(t *testing.T) {
	p := DefaultParams()
	p.Mirror = true

	segs := []Segment{{X1: 100, Y1: 500, X2: 200, Y2: 300}}
	left, right, stats := Classify(segs, p)

	assert.Zero(t, left.Len())
	assert.Equal(t, 2, right.Len())
	assert.Equal(t, 1, stats.Right)
}

func TestClassify_ConfigurableThreshold(t *testing.T) {
	seg := []Segment{{X1: 0, Y1: 0, X2: 100, Y2: 80}} // slope 0.8

	p := DefaultParams()
	_, right, _ := Classify(seg, p)
	assert.Equal(t, 2, right.Len())

	p.SlopeThreshold = 1.0
	_, right, stats := Classify(seg, p)
	assert.Zero(t, right.Len())
	assert.Equal(t, 1, stats.Horizontal)
}

// Every kept segment lands, with both endpoints, in exactly one side; every
// flat or vertical segment lands in neither.
func TestClassify_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := DefaultParams()

	for iter := 0; iter < 200; iter++ {
		segs := make([]Segment, rng.Intn(40))
		for i := range segs {
			segs[i] = Segment{
				X1: rng.Intn(200), Y1: rng.Intn(200),
				X2: rng.Intn(200), Y2: rng.Intn(200),
			}
		}

		left, right, stats := Classify(segs, p)

		kept := 0
		for _, s := range segs {
			slope, ok := s.Slope()
			if ok && slope > p.SlopeThreshold {
				kept++
			}
		}

		require.Equal(t, len(segs), stats.Total)
		require.Equal(t, kept, stats.Left+stats.Right)
		require.Equal(t, len(segs)-kept, stats.Horizontal+stats.Vertical)
		require.Equal(t, 2*stats.Left, left.Len())
		require.Equal(t, 2*stats.Right, right.Len())
		require.Equal(t, len(left.X), len(left.Y))
		require.Equal(t, len(right.X), len(right.Y))
	}
}

func TestSegmentOrientation(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want Side
	}{
		{"rising to the right", Segment{X1: 0, Y1: 100, X2: 100, Y2: 0}, Left},
		{"rising to the right, reversed", Segment{X1: 100, Y1: 0, X2: 0, Y2: 100}, Left},
		{"falling to the right", Segment{X1: 0, Y1: 0, X2: 100, Y2: 100}, Right},
		{"falling to the right, reversed", Segment{X1: 100, Y1: 100, X2: 0, Y2: 0}, Right},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seg.Orientation())
		})
	}
}
