// Package opencv implements the lane finder's detector and compositor on
// top of OpenCV through gocv.
//
// It is only compiled with the gocv build tag, which requires OpenCV 4 and
// cgo:
//
//	go build -tags gocv ./...
//
// The stages and parameters match the pure Go detection and imaging
// packages, so either implementation can back a pipeline.Annotator.
package opencv
