// Package lane estimates the two lane boundary lines of a dashcam frame from
// the line segments detected inside the road region of interest.
//
// The package holds the only stateful logic of the lane finder. Everything it
// does is a pure function of its inputs:
//
//  1. BuildROI describes the trapezoid in which segments are searched for.
//  2. Classify splits the frame's segments into left and right samples,
//     dropping near-horizontal and vertical pieces.
//  3. FitSide fits y = m*x + b through one side's samples and derives the
//     x coordinates where that line meets the bottom row and the horizon row.
//  4. Estimator.Estimate runs 2 and 3 for both sides of one frame.
//
// # Temporal fallback
//
// A side with no usable samples reuses the endpoints of the last frame in
// which that side was fitted. That memory is the State value: it is passed
// into Estimate and a new State is returned, so a caller processing a video
// folds State over the frames in temporal order. State must not be shared
// between independent videos.
//
// Before the first successful fit a side falls back to InitialState, whose
// coordinates are all zero. The resulting line runs from (0, height) to
// (0, horizon) and is expected first-frame behaviour.
//
// # Coordinate System
//
// Pixel coordinates with the origin at the top-left corner, X increasing to
// the right and Y increasing downward. The bottom row of a frame of height h
// is reported as y = h.
package lane
