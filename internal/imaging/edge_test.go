package imaging

import (
	"image"
	"testing"
)

// createEdgeTestImage creates a bright rectangle on a dark background
func createEdgeTestImage(width, height int) *image.Gray {
	img := fillGray(width, height, 0)
	for y := height / 4; y < height*3/4; y++ {
		for x := width / 4; x < width*3/4; x++ {
			img.Pix[y*img.Stride+x] = 255
		}
	}
	return img
}

func TestCanny(t *testing.T) {
	img := createEdgeTestImage(100, 100)

	edges := Canny(img, DefaultCannyParams())

	if edges.Bounds() != img.Bounds() {
		t.Fatalf("bounds: got %v, want %v", edges.Bounds(), img.Bounds())
	}

	// Every pixel is either an edge or not
	for i, v := range edges.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d: got %d, want 0 or 255", i, v)
		}
	}

	// The left boundary of the rectangle sits at x=25
	found := false
	for x := 23; x <= 26; x++ {
		if edges.GrayAt(x, 50).Y == 255 {
			found = true
		}
	}
	if !found {
		t.Error("no edge found along the rectangle's left side")
	}

	// Flat regions carry no edges
	if edges.GrayAt(50, 50).Y != 0 {
		t.Error("unexpected edge in the rectangle interior")
	}
	if edges.GrayAt(5, 5).Y != 0 {
		t.Error("unexpected edge in the background")
	}
}

func TestCanny_EdgesAreThin(t *testing.T) {
	img := createEdgeTestImage(100, 100)

	edges := Canny(img, DefaultCannyParams())

	// Along row 50 the left boundary must be a single pixel wide.
	count := 0
	for x := 15; x < 35; x++ {
		if edges.GrayAt(x, 50).Y == 255 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("left boundary width: got %d pixels, want 1", count)
	}
}

func TestCanny_FlatImage(t *testing.T) {
	edges := Canny(fillGray(30, 30, 128), DefaultCannyParams())

	for i, v := range edges.Pix {
		if v != 0 {
			t.Fatalf("pixel %d: got edge on a flat image", i)
		}
	}
}

func TestCanny_DifferentThresholds(t *testing.T) {
	img := createEdgeTestImage(50, 50)

	tests := []struct {
		name      string
		low, high float64
	}{
		{"low thresholds", 10, 50},
		{"medium thresholds", 50, 150},
		{"high thresholds", 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := Canny(img, CannyParams{Low: tt.low, High: tt.high})
			if countNonZero(edges) == 0 {
				t.Error("a full-contrast step produced no edges")
			}
		})
	}
}

func TestCanny_TinyImage(t *testing.T) {
	edges := Canny(fillGray(2, 2, 255), DefaultCannyParams())
	if edges.Bounds().Dx() != 2 || edges.Bounds().Dy() != 2 {
		t.Errorf("bounds: got %v", edges.Bounds())
	}
}

func TestCannyParams_Validate(t *testing.T) {
	if err := DefaultCannyParams().Validate(); err != nil {
		t.Errorf("default params invalid: %v", err)
	}
	if err := (CannyParams{Low: 200, High: 100}).Validate(); err == nil {
		t.Error("expected error for low > high")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

func countNonZero(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}
