// Package video reads and writes the frame streams the lane finder works on.
//
// Three backends implement Source and Sink:
//
//   - image sequences: a directory of PNG or JPEG files, read in name order
//     and written as zero-padded frame_000000.png files
//   - ffmpeg: decode and encode any container ffmpeg understands, passing
//     raw rgb24 frames over pipes
//   - OpenCV: gocv VideoCapture and VideoWriter, available when built with
//     the gocv tag
//
// OpenSource and CreateSink pick a backend from the path unless Options
// names one.
package video
