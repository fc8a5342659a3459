package imaging

import (
	"image"
	"image/color"
)

// glyphs is a 3x5 pixel font covering frame counters.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'-': {"000", "000", "111", "000", "000"},
	'L': {"100", "100", "100", "100", "111"},
	'R': {"110", "101", "110", "101", "101"},
	'*': {"000", "101", "010", "101", "000"},
	' ': {"000", "000", "000", "000", "000"},
}

// DrawLabel stamps text at (x, y) on img with a solid background box,
// scaling each font pixel to scale x scale pixels. Unknown runes render as
// blanks.
func DrawLabel(img *image.RGBA, x, y, scale int, text string, fg, bg color.RGBA) {
	if scale < 1 {
		scale = 1
	}
	bounds := img.Bounds()
	charWidth := 4 * scale
	labelWidth := len([]rune(text)) * charWidth
	labelHeight := 7 * scale

	set := func(px, py int, c color.RGBA) {
		if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
			img.SetRGBA(px, py, c)
		}
	}

	// Background
	for dy := -scale; dy < labelHeight; dy++ {
		for dx := -scale; dx < labelWidth; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				for sy := 0; sy < scale; sy++ {
					for sx := 0; sx < scale; sx++ {
						set(cx+col*scale+sx, y+row*scale+sy, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
