package raster

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Preview renders what a page of the given size looks like under a tiled
// overlay: bg is filled, then tile is scaled to tileW x tileH (the CSS
// background-size) and repeated from the top-left corner, blended over.
func Preview(tile image.Image, tileW, tileH, width, height int, bg color.Color) (*image.RGBA, error) {
	if tileW <= 0 || tileH <= 0 {
		return nil, fmt.Errorf("invalid tile size %dx%d", tileW, tileH)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %dx%d", width, height)
	}

	page := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(page, page.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	cell := image.NewRGBA(image.Rect(0, 0, tileW, tileH))
	draw.BiLinear.Scale(cell, cell.Bounds(), tile, tile.Bounds(), draw.Src, nil)

	for y := 0; y < height; y += tileH {
		for x := 0; x < width; x += tileW {
			r := image.Rect(x, y, x+tileW, y+tileH).Intersect(page.Bounds())
			draw.Draw(page, r, cell, image.Point{}, draw.Over)
		}
	}
	return page, nil
}
