package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ironsheep/lane-finder/internal/imaging"
)

// Sequence reads frames from image files in name order.
type Sequence struct {
	paths []string
	next  int
	fps   float64
}

// OpenSequence lists the image files of dir matching opts.Pattern. A path
// naming a single image yields a one-frame sequence.
func OpenSequence(dir string, opts Options) (*Sequence, error) {
	opts = opts.withDefaults()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open sequence: %w", err)
	}
	if !info.IsDir() {
		if !imaging.IsImagePath(dir) {
			return nil, fmt.Errorf("%s is not an image: %w", dir, ErrUnsupported)
		}
		return &Sequence{paths: []string{dir}, fps: opts.FPS}, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, opts.Pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid sequence pattern %q: %w", opts.Pattern, err)
	}
	paths := matches[:0]
	for _, p := range matches {
		if imaging.IsImagePath(p) {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s matching %q", dir, opts.Pattern)
	}
	sort.Strings(paths)

	return &Sequence{paths: paths, fps: opts.FPS}, nil
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	return len(s.paths)
}

// Next decodes the next file.
func (s *Sequence) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.paths) {
		return nil, io.EOF
	}
	img, err := imaging.LoadFrame(s.paths[s.next])
	if err != nil {
		return nil, err
	}
	s.next++
	return img, nil
}

// FPS returns the configured frame rate; image files carry none.
func (s *Sequence) FPS() float64 {
	return s.fps
}

// Close is a no-op.
func (s *Sequence) Close() error {
	return nil
}

// SequenceSink writes frames as numbered image files.
type SequenceSink struct {
	dir    string
	format string
	n      int
}

// CreateSequence creates dir if needed and returns a sink writing
// frame_000000.<format>, frame_000001.<format> and so on into it.
func CreateSequence(dir string, opts Options) (*SequenceSink, error) {
	opts = opts.withDefaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &SequenceSink{dir: dir, format: opts.Format}, nil
}

// Write saves frame as the next file.
func (s *SequenceSink) Write(frame image.Image) error {
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.%s", s.n, s.format))
	if err := imaging.SaveFrame(frame, path); err != nil {
		return err
	}
	s.n++
	return nil
}

// Written returns the number of frames written so far.
func (s *SequenceSink) Written() int {
	return s.n
}

// Close is a no-op.
func (s *SequenceSink) Close() error {
	return nil
}
