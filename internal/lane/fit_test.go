package lane

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitSide_Collinear(t *testing.T) {
	s := Samples{
		X: []float64{100, 100, 200, 200},
		Y: []float64{500, 500, 300, 300},
	}

	line, st := FitSide(s, 540, 335, SideState{})

	// y = -2x + 700
	assert.True(t, line.Fitted)
	assert.InDelta(t, -2.0, line.Slope, 1e-9)
	assert.InDelta(t, 700.0, line.Intercept, 1e-6)
	assert.Equal(t, image.Pt(80, 540), line.Bottom)
	assert.Equal(t, 335, line.Top.Y)
	assert.InDelta(t, 183, line.Top.X, 1)
	assert.Equal(t, SideState{BottomX: line.Bottom.X, TopX: line.Top.X}, st)
}

func TestFitSide_FallbackOnEmpty(t *testing.T) {
	prev := SideState{BottomX: 100, TopX: 50}

	line, st := FitSide(Samples{}, 540, 335, prev)

	assert.False(t, line.Fitted)
	assert.Equal(t, image.Pt(100, 540), line.Bottom)
	assert.Equal(t, image.Pt(50, 335), line.Top)
	assert.Equal(t, prev, st)
}

func TestFitSide_DegenerateFallsBack(t *testing.T) {
	prev := SideState{BottomX: 321, TopX: 432}

	tests := []struct {
		name string
		s    Samples
	}{
		{"single distinct x", Samples{X: []float64{100, 100, 100}, Y: []float64{10, 200, 400}}},
		{"flat fit", Samples{X: []float64{10, 20, 30}, Y: []float64{300, 300, 300}}},
		{"mismatched lengths", Samples{X: []float64{10, 20}, Y: []float64{300}}},
		{"nearly flat fit", Samples{X: []float64{0, 1e9}, Y: []float64{300, 300.000001}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, st := FitSide(tt.s, 540, 335, prev)
			assert.False(t, line.Fitted)
			assert.Equal(t, image.Pt(321, 540), line.Bottom)
			assert.Equal(t, image.Pt(432, 335), line.Top)
			assert.Equal(t, prev, st)
		})
	}
}

func TestFitSide_FirstFrameSentinel(t *testing.T) {
	line, st := FitSide(Samples{}, 720, 446, InitialState.Left)

	assert.Equal(t, image.Pt(0, 720), line.Bottom)
	assert.Equal(t, image.Pt(0, 446), line.Top)
	assert.Equal(t, InitialState.Left, st)
}

func TestFitSide_EndpointsSpanBottomToHorizon(t *testing.T) {
	s := Samples{X: []float64{600, 700, 650, 760}, Y: []float64{300, 500, 410, 520}}

	for _, h := range []int{1, 100, 333, 540, 720, 1080} {
		horizon := HorizonRow(h, DefaultHorizonFraction)
		for _, prev := range []SideState{{}, {BottomX: 5, TopX: 9}} {
			line, _ := FitSide(s, h, horizon, prev)
			assert.Equal(t, h, line.Bottom.Y, "bottom row for height %d", h)
			assert.Equal(t, horizon, line.Top.Y, "horizon row for height %d", h)

			fallback, _ := FitSide(Samples{}, h, horizon, prev)
			assert.Equal(t, h, fallback.Bottom.Y)
			assert.Equal(t, horizon, fallback.Top.Y)
		}
	}
}
