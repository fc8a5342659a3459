package video

import (
	"context"
	"fmt"
	"image"
)

// PendingSink defers creating its backend until the first frame fixes the
// output size.
type PendingSink struct {
	ctx  context.Context
	path string
	fps  float64
	opts Options

	sink   Sink
	frames int
}

// NewPendingSink returns a sink that will be created at path by CreateSink.
func NewPendingSink(ctx context.Context, path string, fps float64, opts Options) *PendingSink {
	return &PendingSink{ctx: ctx, path: path, fps: fps, opts: opts}
}

// Write creates the backend on the first call and forwards frame to it.
func (p *PendingSink) Write(frame image.Image) error {
	if p.sink == nil {
		b := frame.Bounds()
		s, err := CreateSink(p.ctx, p.path, b.Dx(), b.Dy(), p.fps, p.opts)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		p.sink = s
	}
	if err := p.sink.Write(frame); err != nil {
		return err
	}
	p.frames++
	return nil
}

// Frames returns the number of frames written.
func (p *PendingSink) Frames() int {
	return p.frames
}

// Close closes the backend, if one was created.
func (p *PendingSink) Close() error {
	if p.sink == nil {
		return nil
	}
	return p.sink.Close()
}
