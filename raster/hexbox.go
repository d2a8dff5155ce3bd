package raster

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// hexDigitSize is the mono face size used for the code point digits inside
// a missing-glyph box.
func hexDigitSize(size float64) float64 {
	return math.Max(size*0.4, 4)
}

func hexDigits(r rune) string {
	return fmt.Sprintf("%04X", r)
}

// hexBoxAdvance is the horizontal space a missing-glyph box takes: the box
// with one pixel of spacing on each side.
func (fs *faceSet) hexBoxAdvance(r rune) int {
	return fs.hexBoxWidth(r) + 2
}

func (fs *faceSet) hexBoxWidth(r rune) int {
	cols := (len(hexDigits(r)) + 1) / 2
	adv, _ := fs.hex.GlyphAdvance('0')
	return cols*adv.Ceil() + 4
}

// drawHexBox draws an outlined box holding the rune's code point in two rows
// of hex digits, the way browsers show characters no font covers. x is the
// left edge of the advance, baseline the alphabetic baseline and height the
// box height above it.
func (fs *faceSet) drawHexBox(dst *image.Alpha, r rune, x, baseline, height int) {
	if height < 4 {
		height = 4
	}
	w := fs.hexBoxWidth(r)
	box := image.Rect(x+1, baseline-height, x+1+w, baseline).Intersect(dst.Bounds())

	for px := box.Min.X; px < box.Max.X; px++ {
		dst.Pix[dst.PixOffset(px, box.Min.Y)] = 0xff
		dst.Pix[dst.PixOffset(px, box.Max.Y-1)] = 0xff
	}
	for py := box.Min.Y; py < box.Max.Y; py++ {
		dst.Pix[dst.PixOffset(box.Min.X, py)] = 0xff
		dst.Pix[dst.PixOffset(box.Max.X-1, py)] = 0xff
	}

	digits := hexDigits(r)
	cols := (len(digits) + 1) / 2
	rows := []string{digits[:cols], digits[cols:]}

	ascent := fs.hex.Metrics().Ascent.Ceil()
	rowH := (height - 4) / 2
	d := font.Drawer{Dst: dst, Src: image.Opaque, Face: fs.hex}
	for i, row := range rows {
		y := baseline - height + 2 + i*rowH + (rowH+ascent)/2
		d.Dot = fixed.P(x+3, y)
		d.DrawString(row)
	}
}
