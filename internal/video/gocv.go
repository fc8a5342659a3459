//go:build gocv

package video

import (
	"context"
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"
)

// GocvAvailable reports whether the OpenCV backend was compiled in.
const GocvAvailable = true

// gocvSource reads frames with an OpenCV VideoCapture.
type gocvSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	fps     float64
}

func openGocvSource(path string, opts Options) (Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}
	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = opts.withDefaults().FPS
	}
	return &gocvSource{capture: capture, mat: gocv.NewMat(), fps: fps}, nil
}

func (s *gocvSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

func (s *gocvSource) FPS() float64 {
	return s.fps
}

func (s *gocvSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

// gocvSink writes frames with an OpenCV VideoWriter.
type gocvSink struct {
	writer *gocv.VideoWriter
	width  int
	height int
}

func createGocvSink(path string, width, height int, fps float64, opts Options) (Sink, error) {
	codec := fourCC(opts.withDefaults().Codec)
	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create video %s: %w", path, err)
	}
	return &gocvSink{writer: writer, width: width, height: height}, nil
}

func (s *gocvSink) Write(frame image.Image) error {
	if sz := frame.Bounds().Size(); sz.X != s.width || sz.Y != s.height {
		return fmt.Errorf("frame is %dx%d, sink expects %dx%d", sz.X, sz.Y, s.width, s.height)
	}
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()
	return s.writer.Write(mat)
}

func (s *gocvSink) Close() error {
	return s.writer.Close()
}

// fourCC maps ffmpeg codec names onto OpenCV four-character codes.
func fourCC(codec string) string {
	switch codec {
	case "mpeg4":
		return "mp4v"
	case "h264", "libx264":
		return "avc1"
	case "mjpeg":
		return "MJPG"
	}
	return codec
}
