package video

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// StreamInfo describes the first video stream of a file.
type StreamInfo struct {
	Width  int
	Height int
	FPS    float64
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe asks ffprobe for the size and frame rate of path's first video
// stream.
func Probe(ctx context.Context, ffprobe, path string) (StreamInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe %s failed: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (StreamInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return StreamInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(p.Streams) == 0 {
		return StreamInfo{}, errors.New("no video stream found")
	}
	s := p.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return StreamInfo{}, fmt.Errorf("invalid stream size %dx%d", s.Width, s.Height)
	}
	fps, ok := parseFrameRate(s.AvgFrameRate)
	if !ok {
		fps, _ = parseFrameRate(s.RFrameRate)
	}
	return StreamInfo{Width: s.Width, Height: s.Height, FPS: fps}, nil
}

// parseFrameRate parses ffprobe rates such as "25/1" or "30000/1001".
func parseFrameRate(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	if !found {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d <= 0 {
		return 0, false
	}
	return n / d, true
}

// FFmpegSource decodes a video file through an ffmpeg subprocess.
type FFmpegSource struct {
	cmd    *exec.Cmd
	out    *bufio.Reader
	info   StreamInfo
	buf    []byte
	stderr *tailBuffer
	done   bool
}

// OpenFFmpeg probes path and starts decoding it to raw rgb24 frames.
func OpenFFmpeg(ctx context.Context, path string, opts Options) (*FFmpegSource, error) {
	opts = opts.withDefaults()

	info, err := Probe(ctx, opts.FFprobePath, path)
	if err != nil {
		return nil, err
	}
	if info.FPS <= 0 {
		info.FPS = opts.FPS
	}

	cmd := exec.CommandContext(ctx, opts.FFmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	return startSource(cmd, info)
}

// startSource runs a decoder command that writes rgb24 frames of info's
// size to stdout.
func startSource(cmd *exec.Cmd, info StreamInfo) (*FFmpegSource, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("could not get ffmpeg stdout: %w", err)
	}
	tail := newTailBuffer(20)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start ffmpeg: %w", err)
	}

	return &FFmpegSource{
		cmd:    cmd,
		out:    bufio.NewReaderSize(stdout, info.Width*info.Height*3),
		info:   info,
		buf:    make([]byte, info.Width*info.Height*3),
		stderr: tail,
	}, nil
}

// Info returns the probed stream parameters.
func (s *FFmpegSource) Info() StreamInfo {
	return s.info
}

// Next reads one frame from the decoder.
func (s *FFmpegSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, io.EOF
	}
	_, err := io.ReadFull(s.out, s.buf)
	switch {
	case err == io.EOF:
		s.done = true
		if werr := s.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		s.done = true
		if werr := s.wait(); werr != nil {
			return nil, fmt.Errorf("truncated frame: %w", werr)
		}
		return nil, fmt.Errorf("truncated frame from ffmpeg: %s", s.stderr.String())
	case err != nil:
		return nil, fmt.Errorf("failed to read from ffmpeg: %w", err)
	}
	return rgbToRGBA(s.buf, s.info.Width, s.info.Height), nil
}

// FPS returns the stream's average frame rate.
func (s *FFmpegSource) FPS() float64 {
	return s.info.FPS
}

// Close stops the decoder.
func (s *FFmpegSource) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	var errs []error
	if s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("could not stop ffmpeg: %w", err))
		}
	}
	// An exit status is expected once the process has been killed.
	var exitErr *exec.ExitError
	if err := s.cmd.Wait(); err != nil && !errors.As(err, &exitErr) {
		errs = append(errs, fmt.Errorf("ffmpeg did not exit cleanly: %w", err))
	}
	return errors.Join(errs...)
}

func (s *FFmpegSource) wait() error {
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode failed: %w: %s", err, s.stderr.String())
	}
	return nil
}

// FFmpegSink encodes frames through an ffmpeg subprocess.
type FFmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	w      *bufio.Writer
	width  int
	height int
	buf    []byte
	stderr *tailBuffer
	closed bool
}

// CreateFFmpeg starts an encoder writing width x height frames at fps to
// path with opts.Codec. An existing file is overwritten.
func CreateFFmpeg(ctx context.Context, path string, width, height int, fps float64, opts Options) (*FFmpegSink, error) {
	opts = opts.withDefaults()

	cmd := exec.CommandContext(ctx, opts.FFmpegPath,
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-an",
		"-c:v", opts.Codec,
		"-q:v", "2",
		path,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("could not get ffmpeg stdin: %w", err)
	}
	tail := newTailBuffer(20)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start ffmpeg: %w", err)
	}

	return &FFmpegSink{
		cmd:    cmd,
		stdin:  stdin,
		w:      bufio.NewWriterSize(stdin, width*height*3),
		width:  width,
		height: height,
		buf:    make([]byte, width*height*3),
		stderr: tail,
	}, nil
}

// Write encodes one frame. Its size must match the sink's.
func (s *FFmpegSink) Write(frame image.Image) error {
	if s.closed {
		return errors.New("write to closed sink")
	}
	if sz := frame.Bounds().Size(); sz.X != s.width || sz.Y != s.height {
		return fmt.Errorf("frame is %dx%d, sink expects %dx%d", sz.X, sz.Y, s.width, s.height)
	}
	rgbaToRGB(toRGBA(frame), s.buf)
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("failed to write to ffmpeg: %w: %s", err, s.stderr.String())
	}
	return nil
}

// Close flushes the remaining frames and waits for the encoder to finish
// the file.
func (s *FFmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.w.Flush()
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w: %s", err, s.stderr.String())
	}
	if flushErr != nil {
		return fmt.Errorf("failed to flush frames to ffmpeg: %w", flushErr)
	}
	return nil
}

// rgbToRGBA expands packed rgb24 pixels into a new opaque image.
func rgbToRGBA(src []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < width*height*3; i, j = i+3, j+4 {
		img.Pix[j] = src[i]
		img.Pix[j+1] = src[i+1]
		img.Pix[j+2] = src[i+2]
		img.Pix[j+3] = 255
	}
	return img
}

// rgbaToRGB packs img into dst as rgb24, dropping alpha.
func rgbaToRGB(img *image.RGBA, dst []byte) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	j := 0
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			dst[j] = row[i]
			dst[j+1] = row[i+1]
			dst[j+2] = row[i+2]
			j += 3
		}
	}
}

// tailBuffer keeps the last lines written to it, for error reports.
type tailBuffer struct {
	mu       sync.Mutex
	lines    []string
	maxLines int
	partial  []byte
}

func newTailBuffer(maxLines int) *tailBuffer {
	return &tailBuffer{maxLines: maxLines}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial = append(t.partial, p...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		t.add(string(t.partial[:i]))
		t.partial = t.partial[i+1:]
	}
	return len(p), nil
}

func (t *tailBuffer) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.maxLines {
		t.lines = t.lines[len(t.lines)-t.maxLines:]
	}
}

// String returns the kept lines, oldest first, joined by "; ".
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := t.lines
	if len(t.partial) > 0 {
		lines = append(lines[:len(lines):len(lines)], strings.TrimSpace(string(t.partial)))
	}
	return strings.Join(lines, "; ")
}
