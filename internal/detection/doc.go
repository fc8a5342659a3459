// Package detection extracts straight line segments from dashcam frames.
//
// The Detector runs the pure Go front half of the lane finder:
//
//  1. Preprocess: grayscale, Gaussian blur and a highlight clamp
//  2. Edges: Canny with hysteresis thresholds
//  3. Mask: every edge pixel outside the region of interest is dropped
//  4. Segments: the probabilistic Hough transform (HoughSegments)
//
// The resulting segments are handed to the lane package, which classifies
// them by side and fits one line per lane boundary.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Frames with a non-zero origin are treated as if their top-left corner
// were (0, 0); segments are reported in those frame-relative coordinates.
//
// # Determinism
//
// The probabilistic Hough transform visits edge pixels in random order.
// The order comes from a generator seeded with HoughParams.Seed, so the
// same edge map always produces the same segments.
//
// # Performance Considerations
//
// Voting costs one accumulator update per angle for every edge pixel that
// is still unclaimed. Masking to the region of interest before voting
// keeps the pixel count low; the default angular step of 2 degrees keeps
// the per-pixel cost at 90 updates.
package detection
