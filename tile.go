package watermark

import (
	"fmt"
	"math"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

// Tile is one rasterized watermark tile. Tiles are never modified after
// they are drawn; a change of parameters produces a new Tile.
type Tile struct {
	// DataURL is the encoded image, usable in a CSS url().
	DataURL string
	// Width and Height are the CSS size of the tile.
	Width, Height int
	// PixelRatio is the device pixel ratio the tile was drawn for.
	PixelRatio float64
}

// pixelRatio returns the host's device pixel ratio, or 1 when unknown.
func pixelRatio(doc host.Document) float64 {
	pd, ok := doc.(host.PixelDensity)
	if !ok {
		return 1
	}
	r := pd.DevicePixelRatio()
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 1
	}
	return r
}

// rasterize draws the text onto a surface sized for the pixel ratio, so the
// tile stays sharp on high-density displays while keeping its CSS size.
// Rotation is applied about the tile origin before the text is drawn at the
// tile centre.
func rasterize(doc host.Document, o Options, ratio float64) (Tile, error) {
	surface, err := doc.NewSurface(
		int(math.Round(float64(o.Width)*ratio)),
		int(math.Round(float64(o.Height)*ratio)),
	)
	if err != nil {
		return Tile{}, fmt.Errorf("new surface: %w", err)
	}

	surface.Scale(ratio, ratio)
	surface.Rotate(*o.Rotate * math.Pi / 180)

	style := host.TextStyle{
		Font:     o.FontSize + " " + o.FontFamily,
		Color:    o.FillColor,
		Align:    o.TextAlign,
		Baseline: o.TextBaseline,
	}
	x, y := float64(o.Width)/2, float64(o.Height)/2
	maxWidth := float64(o.Width)

	if err := surface.FillText(o.Text, x, y, maxWidth, style); err != nil {
		return Tile{}, fmt.Errorf("fill text: %w", err)
	}
	if o.StrokeColor != "" {
		style.Color = o.StrokeColor
		if err := surface.StrokeText(o.Text, x, y, maxWidth, style); err != nil {
			return Tile{}, fmt.Errorf("stroke text: %w", err)
		}
	}

	url, err := surface.DataURL()
	if err != nil {
		return Tile{}, fmt.Errorf("export tile: %w", err)
	}

	return Tile{
		DataURL:    url,
		Width:      o.Width,
		Height:     o.Height,
		PixelRatio: ratio,
	}, nil
}
