// Package raster provides a pure-Go drawing surface for watermark tiles.
//
// A Surface behaves like a canvas 2D context restricted to what a tile needs:
// a current transform built from scale and rotate, filled and stroked text
// using the embedded Go fonts, and PNG data-URL export. Runes the Go fonts
// lack fall back to registered or system fonts, and failing those are drawn
// as boxes showing the code point. It lets the overlay
// controller run without a browser, and keeps tile output deterministic so
// tests can compare encoded bytes and sample pixels.
package raster

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

// maskPad keeps antialiased glyph edges away from the mask border so the
// bilinear sampler does not clip them.
const maskPad = 2

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Surface is an RGBA buffer with a current transformation matrix.
// A Surface is not safe for concurrent use.
type Surface struct {
	img   *image.RGBA
	ctm   f64.Aff3
	faces faceCache
}

var _ host.Surface = (*Surface)(nil)

// NewSurface allocates a transparent surface of the given pixel size.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface dimensions %dx%d", width, height)
	}
	return &Surface{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		ctm:   identity,
		faces: make(faceCache),
	}, nil
}

// Image returns the backing buffer.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Transform returns the current user-to-device matrix in row-major order:
// x' = m[0]*x + m[1]*y + m[2], y' = m[3]*x + m[4]*y + m[5].
func (s *Surface) Transform() f64.Aff3 {
	return s.ctm
}

// Scale composes a scale onto the current transform.
func (s *Surface) Scale(sx, sy float64) {
	s.ctm = mul(s.ctm, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// Rotate composes a rotation onto the current transform.
func (s *Surface) Rotate(radians float64) {
	sin, cos := math.Sincos(radians)
	s.ctm = mul(s.ctm, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

// FillText draws text filled with style.Color.
func (s *Surface) FillText(text string, x, y, maxWidth float64, style host.TextStyle) error {
	return s.drawText(text, x, y, maxWidth, style, false)
}

// StrokeText outlines the glyphs with a line roughly one pixel wide on each
// side of the glyph edge.
func (s *Surface) StrokeText(text string, x, y, maxWidth float64, style host.TextStyle) error {
	return s.drawText(text, x, y, maxWidth, style, true)
}

// DataURL encodes the buffer as a PNG data URL.
func (s *Surface) DataURL() (string, error) {
	return EncodePNGDataURL(s.img)
}

type textMetrics struct {
	advance float64
	ascent  int
	descent int
}

func (s *Surface) drawText(text string, x, y, maxWidth float64, style host.TextStyle, stroke bool) error {
	if text == "" {
		return nil
	}

	faces, err := s.faces.face(style.Font)
	if err != nil {
		return err
	}
	c, err := ParseColor(style.Color)
	if err != nil {
		return err
	}

	mask, m := renderMask(faces, text)
	if stroke {
		mask = outline(mask)
	}

	width := m.advance
	hscale := 1.0
	if maxWidth > 0 && width > maxWidth {
		hscale = maxWidth / width
		width = maxWidth
	}
	left := x + alignOffset(style.Align, width)
	baseline := y + baselineShift(style.Baseline, m)

	// Mask pixel space to user space, then through the current transform.
	place := f64.Aff3{
		hscale, 0, left - maskPad*hscale,
		0, 1, baseline - float64(maskPad+m.ascent),
	}

	src := image.NewRGBA(mask.Bounds())
	draw.DrawMask(src, src.Bounds(), image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Src)
	draw.BiLinear.Transform(s.img, mul(s.ctm, place), src, src.Bounds(), draw.Over, nil)

	return nil
}

// segment is a run of consecutive runes drawn with the same face. A nil
// face marks runes drawn as hex boxes.
type segment struct {
	face font.Face
	text []rune
}

func segments(set *faceSet, text string) []segment {
	var out []segment
	for _, r := range text {
		face := set.pick(r)
		if n := len(out); n > 0 && out[n-1].face == face {
			out[n-1].text = append(out[n-1].text, r)
			continue
		}
		out = append(out, segment{face: face, text: []rune{r}})
	}
	return out
}

// renderMask draws text horizontally into an alpha mask whose baseline sits
// at maskPad+ascent. Each rune uses the first face in the set that has a
// glyph for it.
func renderMask(set *faceSet, text string) (*image.Alpha, textMetrics) {
	segs := segments(set, text)

	metrics := set.faces[0].Metrics()
	m := textMetrics{
		ascent:  metrics.Ascent.Ceil(),
		descent: metrics.Descent.Ceil(),
	}
	boxHeight := m.ascent

	var adv fixed.Int26_6
	for _, seg := range segs {
		if seg.face == nil {
			for _, r := range seg.text {
				adv += fixed.I(set.hexBoxAdvance(r))
			}
			continue
		}
		fm := seg.face.Metrics()
		m.ascent = max(m.ascent, fm.Ascent.Ceil())
		m.descent = max(m.descent, fm.Descent.Ceil())
		adv += font.MeasureString(seg.face, string(seg.text))
	}
	m.advance = float64(adv) / 64

	mask := image.NewAlpha(image.Rect(0, 0, adv.Ceil()+2*maskPad, m.ascent+m.descent+2*maskPad))
	baseline := maskPad + m.ascent
	dot := fixed.P(maskPad, baseline)

	for _, seg := range segs {
		if seg.face == nil {
			for _, r := range seg.text {
				set.drawHexBox(mask, r, dot.X.Round(), baseline, boxHeight)
				dot.X += fixed.I(set.hexBoxAdvance(r))
			}
			continue
		}
		d := font.Drawer{Dst: mask, Src: image.Opaque, Face: seg.face, Dot: dot}
		d.DrawString(string(seg.text))
		dot = d.Dot
	}

	return mask, m
}

// outline turns a glyph coverage mask into its morphological gradient: the
// spread between the strongest and weakest coverage in each 3x3 window.
func outline(mask *image.Alpha) *image.Alpha {
	b := mask.Bounds()
	out := image.NewAlpha(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			lo, hi := uint8(255), uint8(0)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					var v uint8
					if p := (image.Point{X: x + dx, Y: y + dy}); p.In(b) {
						v = mask.Pix[mask.PixOffset(p.X, p.Y)]
					}
					lo = min(lo, v)
					hi = max(hi, v)
				}
			}
			out.Pix[out.PixOffset(x, y)] = hi - lo
		}
	}

	return out
}

// alignOffset returns where the left edge of the text lies relative to the
// anchor for a left-to-right run.
func alignOffset(align host.TextAlign, width float64) float64 {
	switch align {
	case host.AlignCenter:
		return -width / 2
	case host.AlignRight, host.AlignEnd:
		return -width
	default:
		return 0
	}
}

// baselineShift returns the distance from the anchor down to the alphabetic
// baseline.
func baselineShift(baseline host.TextBaseline, m textMetrics) float64 {
	ascent, descent := float64(m.ascent), float64(m.descent)
	switch baseline {
	case host.BaselineTop:
		return ascent
	case host.BaselineHanging:
		return ascent * 0.8
	case host.BaselineMiddle:
		return (ascent - descent) / 2
	case host.BaselineBottom, host.BaselineIdeographic:
		return -descent
	default:
		return 0
	}
}

// mul returns the matrix applying b first, then a.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
