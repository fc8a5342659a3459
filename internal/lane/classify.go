package lane

// Classify partitions segs into left and right samples.
//
// A segment is dropped when it is vertical (its slope is undefined) or when
// |slope| <= p.SlopeThreshold, which filters crosswalks, shadows and other
// near-horizontal clutter. Every kept segment contributes both endpoints to
// exactly one side.
func Classify(segs []Segment, p Params) (left, right Samples, stats ClassifyStats) {
	for _, s := range segs {
		stats.Total++

		slope, ok := s.Slope()
		if !ok {
			stats.Vertical++
			continue
		}
		if slope <= p.SlopeThreshold {
			stats.Horizontal++
			continue
		}

		side := s.Orientation()
		if p.Mirror {
			side = side.Opposite()
		}

		if side == Left {
			left.add(s.X1, s.Y1)
			left.add(s.X2, s.Y2)
			stats.Left++
		} else {
			right.add(s.X1, s.Y1)
			right.add(s.X2, s.Y2)
			stats.Right++
		}
	}
	return left, right, stats
}
