package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/lane-finder/internal/imaging"
)

// createRoadImage creates a 400x300 frame with two lane stripes.
func createRoadImage() *image.RGBA {
	const w, h = 400, 300
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 80
		if i%4 == 3 {
			img.Pix[i] = 255
		}
	}
	paint := color.RGBA{250, 250, 250, 255}
	for y := 190; y < h; y++ {
		f := float64(h-y) / 110
		left := int(math.Round(60 + f*125))
		right := int(math.Round(340 - f*125))
		for dx := -4; dx <= 4; dx++ {
			img.SetRGBA(left+dx, y, paint)
			img.SetRGBA(right+dx, y, paint)
		}
	}
	return img
}

// writeTestConfig writes detector settings suited to the small test frames.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lane.yaml")
	doc := `
preprocess:
  blur_kernel: 5
hough:
  rho: 1
  theta: 0.017453292519943295
  min_line_length: 40
  max_line_gap: 10
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: lane-finder")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"fly"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "fly"`)

	assert.Equal(t, 0, run([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Commands:")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "lane-finder dev"))
}

func TestRun_MissingFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"image", "-in", "x.png"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-in and -out are required")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"video", "-bogus"}, &stdout, &stderr))
	assert.Equal(t, 0, run([]string{"video", "-h"}, &stdout, &stderr))
}

func TestRun_Config(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"config", "-config", writeTestConfig(t), "-segments"}, &stdout, &stderr), stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "horizon_fraction: 0.62")
	assert.Contains(t, out, "min_line_length: 40")
	assert.Contains(t, out, "draw_segments: true")
}

func TestRun_ConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lane:\n  horizon_fraction: 2\n"), 0o644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"config", "-config", path}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
}

func TestRun_Image(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "road.png")
	out := filepath.Join(dir, "annotated.jpg")
	require.NoError(t, imaging.SaveFrame(createRoadImage(), in))

	var stdout, stderr bytes.Buffer
	code := run([]string{"image", "-in", in, "-out", out, "-config", writeTestConfig(t)}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	img, err := imaging.LoadFrame(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(400, 300), img.Bounds().Size())
	assert.Contains(t, stderr.String(), "image annotated")
}

func TestRun_ImageMissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"image", "-in", filepath.Join(t.TempDir(), "none.png"), "-out", "x.png"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "image processing failed")
}

func TestRun_VideoSequence(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(in, 0o755))
	for i := 0; i < 4; i++ {
		require.NoError(t, imaging.SaveFrame(createRoadImage(), filepath.Join(in, "f"+string(rune('0'+i))+".png")))
	}
	out := filepath.Join(dir, "annotated")
	trace := filepath.Join(dir, "trace.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"video", "-in", in, "-out", out,
		"-config", writeTestConfig(t),
		"-workers", "2", "-trace", trace, "-label",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	for i := 0; i < 4; i++ {
		assert.FileExists(t, filepath.Join(out, "frame_00000"+string(rune('0'+i))+".png"))
	}
	assert.FileExists(t, filepath.Join(dir, "trace.png"))

	data, err := os.ReadFile(trace)
	require.NoError(t, err)
	var doc struct {
		Summary struct {
			Frames int `json:"frames"`
			Left   struct {
				Fitted int `json:"fitted"`
			} `json:"left"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 4, doc.Summary.Frames)
	assert.Equal(t, 4, doc.Summary.Left.Fitted)
}

func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer

	log := initLogger(true, &buf)
	assert.True(t, log.IsLevelEnabled(logrus.DebugLevel))
	assert.Contains(t, buf.String(), "Debug logging enabled")

	t.Setenv(logLevelEnv, "warn")
	log = initLogger(false, &buf)
	log.Info("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	t.Setenv(logLevelEnv, "shouting")
	buf.Reset()
	log = initLogger(false, &buf)
	assert.Contains(t, buf.String(), "ignoring invalid")
}
