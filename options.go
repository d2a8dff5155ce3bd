package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"
	"github.com/go-playground/validator/v10"
	"github.com/mazznoer/csscolorparser"
	"gopkg.in/yaml.v3"

	"github.com/gcslaoli/watermark-overlay-go/host"
	"github.com/gcslaoli/watermark-overlay-go/raster"
)

// DefaultFontFamily is the family list used when Options.FontFamily is empty.
const DefaultFontFamily = `"lucida grande", "lucida sans unicode", lucida, helvetica, "Hiragino Sans GB", "Microsoft YaHei", "WenQuanYi Micro Hei", sans-serif`

const (
	DefaultWidth            = 200
	DefaultHeight           = 120
	DefaultText             = "内部信息，请勿外传"
	DefaultFontSize         = "14px"
	DefaultFillColor        = "rgba(112, 113, 114, 0.1)"
	DefaultPosition         = "absolute"
	DefaultZIndex           = 9999
	DefaultRotate           = -15.0
	DefaultThrottleInterval = 300 * time.Millisecond
)

// Strategy selects how the tile is applied to the container.
type Strategy string

const (
	// StrategyOverlayElement mounts a dedicated element as the container's
	// first child, leaving the container's own background untouched.
	StrategyOverlayElement Strategy = "overlay-element"
	// StrategyDirectBackground paints the tile onto the container's inline
	// background.
	StrategyDirectBackground Strategy = "direct-background"
)

// Options configures a Watermark. Every field is optional; zero values take
// the defaults above. Pointer fields distinguish "unset" from an explicit
// zero.
type Options struct {
	// Container is the element to cover. When nil, Selector is resolved
	// against the document, and failing that the body is used.
	Container host.Element `validate:"-"`
	Selector  string

	// Width and Height are the tile size in CSS pixels.
	Width  int `validate:"gt=0"`
	Height int `validate:"gt=0"`

	Text         string
	FontSize     string            `validate:"csslength"`
	FontFamily   string            `validate:"required"`
	FillColor    string            `validate:"csscolor"`
	StrokeColor  string            `validate:"omitempty,csscolor"`
	TextAlign    host.TextAlign    `validate:"oneof=start end left right center"`
	TextBaseline host.TextBaseline `validate:"oneof=top hanging middle alphabetic ideographic bottom"`

	// Rotate is the tile rotation in degrees; negative is counter-clockwise.
	Rotate *float64
	ZIndex *int
	// Position is the CSS position of the overlay element.
	Position string `validate:"oneof=static relative absolute fixed sticky"`

	// ThrottleInterval is the minimum spacing between automatic remounts.
	ThrottleInterval time.Duration `validate:"gte=0"`
	// Watch enables mutation observation. Defaults to true.
	Watch    *bool
	Strategy Strategy `validate:"oneof=overlay-element direct-background"`

	Logger slog.Logger  `validate:"-"`
	Clock  quartz.Clock `validate:"-"`
}

// Float returns a pointer to v, for Options.Rotate.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for Options.ZIndex.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for Options.Watch.
func Bool(v bool) *bool { return &v }

// withDefaults returns a copy with every unset field filled in.
func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Text == "" {
		o.Text = DefaultText
	}
	if o.FontSize == "" {
		o.FontSize = DefaultFontSize
	}
	if o.FontFamily == "" {
		o.FontFamily = DefaultFontFamily
	}
	if o.FillColor == "" {
		o.FillColor = DefaultFillColor
	}
	if o.TextAlign == "" {
		o.TextAlign = host.AlignCenter
	}
	if o.TextBaseline == "" {
		o.TextBaseline = host.BaselineMiddle
	}
	if o.Rotate == nil {
		o.Rotate = Float(DefaultRotate)
	}
	if o.ZIndex == nil {
		o.ZIndex = Int(DefaultZIndex)
	}
	if o.Position == "" {
		o.Position = DefaultPosition
	}
	if o.ThrottleInterval == 0 {
		o.ThrottleInterval = DefaultThrottleInterval
	}
	if o.Watch == nil {
		o.Watch = Bool(true)
	}
	if o.Strategy == "" {
		o.Strategy = StrategyOverlayElement
	}
	if o.Clock == nil {
		o.Clock = quartz.NewReal()
	}
	return o
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("csscolor", func(fl validator.FieldLevel) bool {
		_, err := csscolorparser.Parse(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("csslength", func(fl validator.FieldLevel) bool {
		_, err := raster.ParseLength(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate applies defaults and checks the result.
func (o Options) Validate() error {
	return validateOptions(o.withDefaults())
}

func validateOptions(o Options) error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: invalid value %v (%s)", fe.Field(), fe.Value(), fe.Tag()))
	}
	return errors.Join(errs...)
}

// pageOptions is the page-facing option object, keyed the way page scripts
// have always passed it.
type pageOptions struct {
	Container    string   `yaml:"container"`
	Width        int      `yaml:"width"`
	Height       int      `yaml:"height"`
	Content      string   `yaml:"content"`
	FontSize     string   `yaml:"fontSize"`
	FontFamily   string   `yaml:"fontFamily"`
	FillStyle    string   `yaml:"fillStyle"`
	StrokeStyle  string   `yaml:"strokeStyle"`
	TextAlign    string   `yaml:"textAlign"`
	TextBaseline string   `yaml:"textBaseline"`
	Position     string   `yaml:"position"`
	ZIndex       *int     `yaml:"zIndex"`
	Rotate       *float64 `yaml:"rotate"`
	ThrottleTime float64  `yaml:"throttleTime"`
	Watch        *bool    `yaml:"watch"`
	Strategy     string   `yaml:"strategy"`
}

// ParseOptions decodes a JSON or YAML option object. The container key, if
// present, is taken as a selector; throttleTime is in milliseconds.
func ParseOptions(data []byte) (Options, error) {
	var doc pageOptions
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Options{}, fmt.Errorf("decode options: %w", err)
		}
	}

	return Options{
		Selector:         doc.Container,
		Width:            doc.Width,
		Height:           doc.Height,
		Text:             doc.Content,
		FontSize:         doc.FontSize,
		FontFamily:       doc.FontFamily,
		FillColor:        doc.FillStyle,
		StrokeColor:      doc.StrokeStyle,
		TextAlign:        host.TextAlign(doc.TextAlign),
		TextBaseline:     host.TextBaseline(doc.TextBaseline),
		Position:         doc.Position,
		ZIndex:           doc.ZIndex,
		Rotate:           doc.Rotate,
		ThrottleInterval: time.Duration(doc.ThrottleTime * float64(time.Millisecond)),
		Watch:            doc.Watch,
		Strategy:         Strategy(doc.Strategy),
	}, nil
}
