//go:build !gocv

package video

import "fmt"

// GocvAvailable reports whether the OpenCV backend was compiled in.
const GocvAvailable = false

func openGocvSource(path string, _ Options) (Source, error) {
	return nil, fmt.Errorf("%s: build with -tags gocv for OpenCV: %w", path, ErrUnsupported)
}

func createGocvSink(path string, _, _ int, _ float64, _ Options) (Sink, error) {
	return nil, fmt.Errorf("%s: build with -tags gocv for OpenCV: %w", path, ErrUnsupported)
}
