package watermark

import (
	"fmt"
	"strconv"
	"strings"
)

// Extent is the full scrollable size of the container in CSS pixels.
type Extent struct {
	Width, Height int
}

// Declaration is one CSS property.
type Declaration struct {
	Property, Value string
}

// Style describes the overlay layer: it covers the container's whole
// scrollable extent, repeats the tile at its CSS size and never intercepts
// pointer input.
type Style struct {
	Position   string
	ZIndex     int
	Width      int
	Height     int
	TileWidth  int
	TileHeight int
	// Image is the tile data URL. Empty when rasterization failed.
	Image string
}

// Declarations returns the full overlay element style in a stable order.
func (s Style) Declarations() []Declaration {
	decls := []Declaration{
		{"position", s.Position},
		{"top", "0"},
		{"left", "0"},
		{"right", "0"},
		{"bottom", "0"},
		{"z-index", strconv.Itoa(s.ZIndex)},
		{"width", px(s.Width)},
		{"height", px(s.Height)},
		{"pointer-events", "none"},
	}
	return append(decls, s.Background()...)
}

// Background returns only the tiling properties, which is all the
// direct-background strategy writes onto the container.
func (s Style) Background() []Declaration {
	decls := []Declaration{
		{"background-repeat", "repeat"},
		{"background-size", px(s.TileWidth) + " " + px(s.TileHeight)},
	}
	if s.Image != "" {
		decls = append(decls, Declaration{"background-image", fmt.Sprintf("url('%s')", s.Image)})
	}
	return decls
}

// String renders the declarations as cssText.
func (s Style) String() string {
	return cssText(s.Declarations())
}

func cssText(decls []Declaration) string {
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteByte(';')
	}
	return b.String()
}

func px(v int) string {
	return strconv.Itoa(v) + "px"
}
