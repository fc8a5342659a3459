package lane

// Estimator applies the classification and fit steps with fixed Params.
// It holds no per-video memory and is safe for concurrent use.
type Estimator struct {
	params Params
}

// NewEstimator returns an estimator using p.
func NewEstimator(p Params) *Estimator {
	return &Estimator{params: p}
}

// Params returns the estimator's tuning.
func (e *Estimator) Params() Params {
	return e.params
}

// ROI returns the search trapezoid for a width x height frame.
func (e *Estimator) ROI(width, height int) Polygon {
	return e.params.ROI(width, height)
}

// HorizonRow returns the horizon row for a frame of the given height.
func (e *Estimator) HorizonRow(height int) int {
	return HorizonRow(height, e.params.HorizonFraction)
}

// Estimate computes both lane lines of one frame from its segments and the
// state left by the previous frame, and returns the state for the next one.
// height is the frame height in pixels.
// The two sides are fitted independently; a side that falls back keeps its
// previous entry in the returned state.
func (e *Estimator) Estimate(segs []Segment, height int, st State) (Lanes, State) {
	left, right, stats := Classify(segs, e.params)
	horizon := e.HorizonRow(height)

	leftLine, leftState := FitSide(left, height, horizon, st.Left)
	rightLine, rightState := FitSide(right, height, horizon, st.Right)

	return Lanes{
		Left:  leftLine,
		Right: rightLine,
		Stats: stats,
	}, State{Left: leftState, Right: rightState}
}

// EstimateSequence folds Estimate over the segments of consecutive frames,
// starting from st, and returns every frame's lanes plus the final state.
func (e *Estimator) EstimateSequence(frames [][]Segment, height int, st State) ([]Lanes, State) {
	out := make([]Lanes, 0, len(frames))
	for _, segs := range frames {
		var lanes Lanes
		lanes, st = e.Estimate(segs, height, st)
		out = append(out, lanes)
	}
	return out, st
}
