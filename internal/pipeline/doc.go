// Package pipeline turns decoded frames into annotated frames.
//
// An Annotator runs one frame through segment detection, lane estimation
// and compositing. A Runner drives an Annotator over a whole video: segment
// detection, which needs no memory of earlier frames, runs on a bounded
// pool of workers, while the lane state is folded over the frames strictly
// in their original order by a single goroutine.
package pipeline
