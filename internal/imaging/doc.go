// Package imaging provides the pixel-level collaborators of the lane finder:
// frame preprocessing, Canny edge detection, polygon masking, overlay
// drawing and weighted compositing, plus frame loading and encoding.
//
// All operations work with standard Go image types. Frames are normalised to
// *image.RGBA with their origin at (0,0); single-channel intermediates are
// *image.Gray of the same size.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Pipeline Order
//
// The lane finder applies these operations per frame:
//
//  1. Preprocess: grayscale, Gaussian blur, highlight clamp
//  2. Canny: gradient edges with hysteresis
//  3. MaskPolygon: zero everything outside the road trapezoid
//  4. (line-segment extraction happens in package detection)
//  5. Compositor.Composite: draw lane lines and blend them onto the frame
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. All other functions are stateless
// and never modify their input images.
package imaging
