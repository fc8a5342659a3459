package lane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	leftSegs = []Segment{
		{X1: 150, Y1: 530, X2: 400, Y2: 350},
		{X1: 180, Y1: 510, X2: 380, Y2: 365},
	}
	rightSegs = []Segment{
		{X1: 560, Y1: 350, X2: 820, Y2: 530},
		{X1: 590, Y1: 370, X2: 800, Y2: 515},
	}
)

func concat(parts ...[]Segment) []Segment {
	var out []Segment
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestEstimate_BothSides(t *testing.T) {
	e := NewEstimator(DefaultParams())

	lanes, st := e.Estimate(concat(leftSegs, rightSegs), 540, InitialState)

	require.True(t, lanes.Left.Fitted)
	require.True(t, lanes.Right.Fitted)
	assert.Less(t, lanes.Left.Bottom.X, lanes.Left.Top.X, "left line leans right towards the horizon")
	assert.Greater(t, lanes.Right.Bottom.X, lanes.Right.Top.X, "right line leans left towards the horizon")
	assert.Equal(t, SideState{BottomX: lanes.Left.Bottom.X, TopX: lanes.Left.Top.X}, st.Left)
	assert.Equal(t, SideState{BottomX: lanes.Right.Bottom.X, TopX: lanes.Right.Top.X}, st.Right)
	assert.Equal(t, 2, lanes.Stats.Left)
	assert.Equal(t, 2, lanes.Stats.Right)
}

func TestEstimate_StatePersistsAcrossFrames(t *testing.T) {
	e := NewEstimator(DefaultParams())

	a, st := e.Estimate(concat(leftSegs, rightSegs), 540, InitialState)
	b, st2 := e.Estimate(leftSegs, 540, st)

	assert.True(t, b.Left.Fitted)
	assert.False(t, b.Right.Fitted)
	assert.Equal(t, a.Right.Bottom, b.Right.Bottom)
	assert.Equal(t, a.Right.Top, b.Right.Top)
	assert.Equal(t, st.Right, st2.Right)
}

func TestEstimate_SidesDoNotCrossContaminate(t *testing.T) {
	e := NewEstimator(DefaultParams())
	start := State{
		Left:  SideState{BottomX: 11, TopX: 22},
		Right: SideState{BottomX: 33, TopX: 44},
	}

	lanes, st := e.Estimate(leftSegs, 540, start)

	assert.True(t, lanes.Left.Fitted)
	assert.NotEqual(t, start.Left, st.Left)
	assert.Equal(t, start.Right, st.Right)

	lanes, st = e.Estimate(rightSegs, 540, start)
	assert.True(t, lanes.Right.Fitted)
	assert.Equal(t, start.Left, st.Left)
	assert.NotEqual(t, start.Right, st.Right)
}

func TestEstimate_DoesNotMutateInputState(t *testing.T) {
	e := NewEstimator(DefaultParams())
	st := InitialState

	_, next := e.Estimate(concat(leftSegs, rightSegs), 540, st)

	assert.Equal(t, State{}, st)
	assert.NotEqual(t, st, next)
}

func TestEstimate_VerticalSegmentsDoNotPanic(t *testing.T) {
	e := NewEstimator(DefaultParams())
	segs := []Segment{{X1: 300, Y1: 500, X2: 300, Y2: 340}}

	assert.NotPanics(t, func() {
		lanes, st := e.Estimate(segs, 540, InitialState)
		assert.False(t, lanes.Left.Fitted)
		assert.False(t, lanes.Right.Fitted)
		assert.Equal(t, InitialState, st)
		assert.Equal(t, 1, lanes.Stats.Vertical)
	})
}

func TestEstimateSequence_MatchesStepwise(t *testing.T) {
	e := NewEstimator(DefaultParams())
	frames := [][]Segment{
		concat(leftSegs, rightSegs),
		leftSegs,
		nil,
		rightSegs,
	}

	got, final := e.EstimateSequence(frames, 540, InitialState)

	st := InitialState
	for i, segs := range frames {
		var want Lanes
		want, st = e.Estimate(segs, 540, st)
		assert.Equal(t, want, got[i], "frame %d", i)
	}
	assert.Equal(t, st, final)

	// Frame 2 has no segments: both sides repeat frame 1.
	assert.Equal(t, got[1].Left.Bottom, got[2].Left.Bottom)
	assert.Equal(t, got[0].Right.Top, got[2].Right.Top)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := []func(*Params){
		func(p *Params) { p.HorizonFraction = 0 },
		func(p *Params) { p.HorizonFraction = 1 },
		func(p *Params) { p.SlopeThreshold = -1 },
		func(p *Params) { p.ROITopLeft = 0.7 },
		func(p *Params) { p.ROITopRight = 1.2 },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		assert.Error(t, p.Validate(), "case %d", i)
	}
}
