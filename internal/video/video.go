package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/lane-finder/internal/imaging"
)

// ErrUnsupported is returned when no backend can handle a path.
var ErrUnsupported = errors.New("unsupported video backend")

// Source yields decoded frames in display order. Next returns io.EOF after
// the last frame.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	FPS() float64
	Close() error
}

// Sink encodes frames in the order they are written.
type Sink interface {
	Write(frame image.Image) error
	Close() error
}

// Backend names.
const (
	BackendAuto     = "auto"
	BackendSequence = "sequence"
	BackendFFmpeg   = "ffmpeg"
	BackendGocv     = "gocv"
)

// DefaultFPS is used when the input does not carry a frame rate.
const DefaultFPS = 25

// Options selects and tunes a backend.
type Options struct {
	Backend string  `yaml:"backend" json:"backend"`
	FPS     float64 `yaml:"fps" json:"fps"`
	Codec   string  `yaml:"codec" json:"codec"`

	// Pattern filters the files of a sequence directory, e.g. "*.jpg".
	Pattern string `yaml:"pattern" json:"pattern"`

	// Format is the file extension written by a sequence sink.
	Format string `yaml:"format" json:"format"`

	FFmpegPath  string `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path" json:"ffprobe_path"`
}

// DefaultOptions returns 25 fps mpeg4 output and automatic backend choice.
func DefaultOptions() Options {
	return Options{
		Backend:     BackendAuto,
		FPS:         DefaultFPS,
		Codec:       "mpeg4",
		Pattern:     "*",
		Format:      "png",
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
	}
}

// Validate checks the backend name and frame rate.
func (o Options) Validate() error {
	switch o.Backend {
	case "", BackendAuto, BackendSequence, BackendFFmpeg, BackendGocv:
	default:
		return fmt.Errorf("unknown backend %q", o.Backend)
	}
	if o.FPS < 0 {
		return fmt.Errorf("fps %v must not be negative", o.FPS)
	}
	if o.Format != "" && !imaging.IsImagePath("x."+o.Format) {
		return fmt.Errorf("unknown frame format %q", o.Format)
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Backend == "" {
		o.Backend = d.Backend
	}
	if o.FPS <= 0 {
		o.FPS = d.FPS
	}
	if o.Codec == "" {
		o.Codec = d.Codec
	}
	if o.Pattern == "" {
		o.Pattern = d.Pattern
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	o.Format = strings.TrimPrefix(o.Format, ".")
	if o.FFmpegPath == "" {
		o.FFmpegPath = d.FFmpegPath
	}
	if o.FFprobePath == "" {
		o.FFprobePath = d.FFprobePath
	}
	return o
}

// OpenSource opens path for reading.
//
// With the auto backend a directory is read as an image sequence, a single
// image file as a one-frame sequence, and anything else as a video file
// through OpenCV when available and ffmpeg otherwise.
func OpenSource(ctx context.Context, path string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	backend := opts.Backend
	if backend == BackendAuto {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open video: %w", err)
		}
		switch {
		case info.IsDir(), imaging.IsImagePath(path):
			backend = BackendSequence
		case GocvAvailable:
			backend = BackendGocv
		default:
			backend = BackendFFmpeg
		}
	}

	switch backend {
	case BackendSequence:
		return OpenSequence(path, opts)
	case BackendFFmpeg:
		return OpenFFmpeg(ctx, path, opts)
	case BackendGocv:
		return openGocvSource(path, opts)
	}
	return nil, fmt.Errorf("%s: %w", backend, ErrUnsupported)
}

// CreateSink creates path for writing width x height frames at fps.
//
// With the auto backend a path without an extension, or an existing
// directory, receives an image sequence; a video file is encoded through
// OpenCV when available and ffmpeg otherwise.
func CreateSink(ctx context.Context, path string, width, height int, fps float64, opts Options) (Sink, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if fps <= 0 {
		fps = opts.FPS
	}

	backend := opts.Backend
	if backend == BackendAuto {
		info, err := os.Stat(path)
		switch {
		case err == nil && info.IsDir(), filepath.Ext(path) == "":
			backend = BackendSequence
		case GocvAvailable:
			backend = BackendGocv
		default:
			backend = BackendFFmpeg
		}
	}

	switch backend {
	case BackendSequence:
		return CreateSequence(path, opts)
	case BackendFFmpeg:
		return CreateFFmpeg(ctx, path, width, height, fps, opts)
	case BackendGocv:
		return createGocvSink(path, width, height, fps, opts)
	}
	return nil, fmt.Errorf("%s: %w", backend, ErrUnsupported)
}

// toRGBA returns img as an *image.RGBA with origin (0,0), copying only when
// needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	return imaging.ToRGBA(img)
}
