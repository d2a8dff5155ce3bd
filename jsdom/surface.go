//go:build js && wasm

package jsdom

import (
	"fmt"

	"syscall/js"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

// Surface draws on a detached canvas through its 2D context.
type Surface struct {
	canvas js.Value
	ctx    js.Value
}

var _ host.Surface = (*Surface)(nil)

// Scale composes a scale onto the context transform.
func (s *Surface) Scale(sx, sy float64) {
	s.ctx.Call("scale", sx, sy)
}

// Rotate composes a rotation onto the context transform.
func (s *Surface) Rotate(radians float64) {
	s.ctx.Call("rotate", radians)
}

// FillText draws filled text with the context's fillText.
func (s *Surface) FillText(text string, x, y, maxWidth float64, style host.TextStyle) error {
	return s.text("fillText", "fillStyle", text, x, y, maxWidth, style)
}

// StrokeText draws outlined text with the context's strokeText.
func (s *Surface) StrokeText(text string, x, y, maxWidth float64, style host.TextStyle) error {
	return s.text("strokeText", "strokeStyle", text, x, y, maxWidth, style)
}

func (s *Surface) text(method, paint, text string, x, y, maxWidth float64, style host.TextStyle) error {
	return catch(func() {
		s.ctx.Set("font", style.Font)
		s.ctx.Set(paint, style.Color)
		s.ctx.Set("textAlign", string(style.Align))
		s.ctx.Set("textBaseline", string(style.Baseline))
		if maxWidth > 0 {
			s.ctx.Call(method, text, x, y, maxWidth)
		} else {
			s.ctx.Call(method, text, x, y)
		}
	})
}

// DataURL exports the canvas as a PNG data URL. Tainted canvases raise a
// SecurityError, which is returned.
func (s *Surface) DataURL() (string, error) {
	var url string
	if err := catch(func() { url = s.canvas.Call("toDataURL", "image/png").String() }); err != nil {
		return "", fmt.Errorf("export canvas: %w", err)
	}
	return url, nil
}
