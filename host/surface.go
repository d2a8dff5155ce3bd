package host

// TextAlign mirrors the canvas textAlign values.
type TextAlign string

const (
	AlignStart  TextAlign = "start"
	AlignEnd    TextAlign = "end"
	AlignLeft   TextAlign = "left"
	AlignRight  TextAlign = "right"
	AlignCenter TextAlign = "center"
)

// TextBaseline mirrors the canvas textBaseline values.
type TextBaseline string

const (
	BaselineTop         TextBaseline = "top"
	BaselineHanging     TextBaseline = "hanging"
	BaselineMiddle      TextBaseline = "middle"
	BaselineAlphabetic  TextBaseline = "alphabetic"
	BaselineIdeographic TextBaseline = "ideographic"
	BaselineBottom      TextBaseline = "bottom"
)

// TextStyle carries the paint parameters for one text draw. Font uses the
// CSS font shorthand, e.g. "14px sans-serif".
type TextStyle struct {
	Font     string
	Color    string
	Align    TextAlign
	Baseline TextBaseline
}

// Surface is a 2D drawing buffer with a current transform, in the manner of
// a canvas 2D context. Transforms compose onto the current matrix.
type Surface interface {
	Scale(sx, sy float64)
	// Rotate rotates the coordinate system clockwise on screen by radians;
	// negative values rotate counter-clockwise.
	Rotate(radians float64)

	// FillText and StrokeText draw text anchored at (x, y) in user space.
	// A positive maxWidth condenses wider text horizontally to fit.
	FillText(text string, x, y, maxWidth float64, style TextStyle) error
	StrokeText(text string, x, y, maxWidth float64, style TextStyle) error

	// DataURL exports the buffer as an embeddable image reference.
	DataURL() (string, error)
}
