package raster

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFontSize is used when a font shorthand carries no usable size.
const DefaultFontSize = 10.0

type variant int

const (
	variantRegular variant = iota
	variantBold
	variantItalic
	variantBoldItalic
	variantMono
	variantMonoBold
	variantCount
)

var variantTTF = [variantCount][]byte{
	variantRegular:    goregular.TTF,
	variantBold:       gobold.TTF,
	variantItalic:     goitalic.TTF,
	variantBoldItalic: gobolditalic.TTF,
	variantMono:       gomono.TTF,
	variantMonoBold:   gomonobold.TTF,
}

// The embedded Go fonts are parsed lazily, once per variant.
var fonts struct {
	once [variantCount]sync.Once
	font [variantCount]*opentype.Font
	err  [variantCount]error
}

func loadFont(v variant) (*opentype.Font, error) {
	fonts.once[v].Do(func() {
		fonts.font[v], fonts.err[v] = opentype.Parse(variantTTF[v])
	})
	if err := fonts.err[v]; err != nil {
		return nil, fmt.Errorf("parse font variant %d: %w", v, err)
	}
	return fonts.font[v], nil
}

// FontSpec is the part of a CSS font shorthand the rasterizer honours.
type FontSpec struct {
	Size     float64
	Bold     bool
	Italic   bool
	Mono     bool
	Families []string
}

// ParseFont reads a CSS font shorthand such as
// `italic bold 14px "Helvetica Neue", monospace`. Only px, pt and em sizes
// are understood; em is taken relative to 16px.
func ParseFont(shorthand string) (FontSpec, error) {
	spec := FontSpec{Size: DefaultFontSize}
	rest := strings.TrimSpace(shorthand)
	if rest == "" {
		return spec, nil
	}

	sized := false
	for rest != "" && !sized {
		token, tail, _ := strings.Cut(rest, " ")
		switch lower := strings.ToLower(token); lower {
		case "italic", "oblique":
			spec.Italic = true
		case "bold", "bolder", "600", "700", "800", "900":
			spec.Bold = true
		case "normal", "lighter", "small-caps", "100", "200", "300", "400", "500":
		default:
			size, err := ParseLength(lower)
			if err != nil {
				return FontSpec{}, err
			}
			spec.Size = size
			sized = true
		}
		rest = strings.TrimSpace(tail)
	}
	if !sized {
		return FontSpec{}, fmt.Errorf("font %q: missing size", shorthand)
	}

	for _, family := range strings.Split(rest, ",") {
		family = strings.Trim(strings.TrimSpace(family), `"'`)
		if family == "" {
			continue
		}
		spec.Families = append(spec.Families, family)
	}
	spec.Mono = isMonospace(spec.Families)

	return spec, nil
}

// ParseLength reads a positive CSS font size in px, pt or em and returns it
// in pixels. A unitless number is taken as pixels.
func ParseLength(token string) (float64, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	// "14px/1.5" carries a line height we do not need.
	token, _, _ = strings.Cut(token, "/")

	unit := 1.0
	switch {
	case strings.HasSuffix(token, "px"):
		token = strings.TrimSuffix(token, "px")
	case strings.HasSuffix(token, "pt"):
		token = strings.TrimSuffix(token, "pt")
		unit = 96.0 / 72.0
	case strings.HasSuffix(token, "em"):
		token = strings.TrimSuffix(token, "em")
		unit = 16
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid font size %q", token)
	}
	return v * unit, nil
}

// isMonospace walks the family list until it meets a generic family; the
// embedded fonts only distinguish proportional from monospace.
func isMonospace(families []string) bool {
	for _, family := range families {
		lower := strings.ToLower(family)
		switch {
		case lower == "monospace", strings.Contains(lower, "mono"), strings.Contains(lower, "courier"):
			return true
		case lower == "sans-serif", lower == "serif", lower == "system-ui", lower == "cursive", lower == "fantasy":
			return false
		}
	}
	return false
}

func (s FontSpec) variant() variant {
	switch {
	case s.Mono && s.Bold:
		return variantMonoBold
	case s.Mono:
		return variantMono
	case s.Bold && s.Italic:
		return variantBoldItalic
	case s.Bold:
		return variantBold
	case s.Italic:
		return variantItalic
	default:
		return variantRegular
	}
}

type faceKey struct {
	v    variant
	size float64
}

// faceSet is the ordered list of faces tried for each rune: the Go font
// variant first, then the fallback fonts. Runes none of them cover are drawn
// as hex boxes with the mono face.
type faceSet struct {
	faces []font.Face
	hex   font.Face
	size  float64
}

// pick returns the first face with a glyph for r, or nil.
func (fs *faceSet) pick(r rune) font.Face {
	for _, f := range fs.faces {
		if _, ok := f.GlyphAdvance(r); ok {
			return f
		}
	}
	return nil
}

// faceCache hands out one face set per variant and size. Faces are not safe
// for concurrent use, so each Surface keeps its own cache.
type faceCache map[faceKey]*faceSet

func (c faceCache) face(shorthand string) (*faceSet, error) {
	spec, err := ParseFont(shorthand)
	if err != nil {
		return nil, err
	}

	key := faceKey{v: spec.variant(), size: spec.Size}
	if set, ok := c[key]; ok {
		return set, nil
	}

	f, err := loadFont(key.v)
	if err != nil {
		return nil, err
	}
	primary, err := newFace(f, spec.Size)
	if err != nil {
		return nil, err
	}
	set := &faceSet{faces: []font.Face{primary}, size: spec.Size}

	for _, fb := range fallbackFonts() {
		face, err := newFace(fb, spec.Size)
		if err != nil {
			continue
		}
		set.faces = append(set.faces, face)
	}

	mono, err := loadFont(variantMono)
	if err != nil {
		return nil, err
	}
	if set.hex, err = newFace(mono, hexDigitSize(spec.Size)); err != nil {
		return nil, err
	}

	c[key] = set
	return set, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	// At 72 DPI one point is one pixel.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}
