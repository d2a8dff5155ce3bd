package watermark

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cdr.dev/slog/v3"

	"github.com/gcslaoli/watermark-overlay-go/host"
	"github.com/gcslaoli/watermark-overlay-go/throttle"
)

// State is the lifecycle position of a Watermark.
type State int

const (
	StateUninitialized State = iota
	StateMounted
	StateRemounting
	StateDisposed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMounted:
		return "mounted"
	case StateRemounting:
		return "remounting"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Trigger names what asked for a remount.
type Trigger string

const (
	TriggerResize   Trigger = "resize"
	TriggerMutation Trigger = "mutation"
	TriggerManual   Trigger = "manual"
)

// backgroundProperties are the container properties owned by the
// direct-background strategy.
var backgroundProperties = []string{"background-repeat", "background-size", "background-image"}

var observeAll = host.ObserveOptions{Attributes: true, ChildList: true, Subtree: true}

// Watermark owns one overlay on one container.
type Watermark struct {
	doc       host.Document
	opts      Options
	logger    slog.Logger
	container host.Element
	throttled *throttle.Throttler[Trigger]

	mu       sync.Mutex
	state    State
	unlisten func()
	tile     *Tile
	extent   Extent
	style    Style
	overlay  host.Element
	observer host.MutationObserver

	// Counters for diagnostics.
	mounts     int
	rasterized int
}

// New validates opts, mounts the overlay and starts watching the container
// and the window size. A container that cannot be resolved falls back to the
// document body.
func New(doc host.Document, opts Options) (*Watermark, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}

	opts = opts.withDefaults()
	if err := validateOptions(opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	w := &Watermark{
		doc:    doc,
		opts:   opts,
		logger: opts.Logger.Named("watermark"),
	}
	w.container = w.resolveContainer()
	if w.container == nil {
		return nil, errors.New("document has no body")
	}
	w.throttled = throttle.New(w.reset, opts.ThrottleInterval, throttle.WithClock(opts.Clock))

	w.mu.Lock()
	defer w.mu.Unlock()

	w.mountLocked()
	if r, ok := doc.(host.Resizable); ok {
		w.unlisten = r.OnResize(func() {
			w.throttled.Call(TriggerResize)
		})
	}

	return w, nil
}

func (w *Watermark) resolveContainer() host.Element {
	if w.opts.Container != nil {
		return w.opts.Container
	}
	if sel := w.opts.Selector; sel != "" {
		if el := w.doc.QuerySelector(sel); el != nil {
			return el
		}
		w.logger.Debug(context.Background(), "container selector matched nothing, using body",
			slog.F("selector", sel),
		)
	}
	return w.doc.Body()
}

// Reset schedules a remount through the throttle, the same path tampering
// and resizes take.
func (w *Watermark) Reset() {
	w.throttled.Call(TriggerManual)
}

// reset tears the overlay down and mounts it again. It is only called by
// the throttle.
func (w *Watermark) reset(trigger Trigger) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateDisposed {
		return
	}

	w.state = StateRemounting
	w.disconnectLocked()
	w.unmountLocked()
	w.mountLocked()

	w.logger.Debug(context.Background(), "watermark remounted",
		slog.F("trigger", trigger),
		slog.F("mounts", w.mounts),
	)
}

// mountLocked draws or reuses the tile, measures the container, applies the
// layer and finally re-arms observation.
func (w *Watermark) mountLocked() {
	ctx := context.Background()

	var image string
	if tile, err := w.tileLocked(); err != nil {
		w.logger.Warn(ctx, "rasterize watermark tile, mounting without image", slog.Error(err))
	} else {
		image = tile.DataURL
	}

	w.extent = Extent{
		Width:  w.container.ScrollWidth(),
		Height: w.container.ScrollHeight(),
	}
	w.style = Style{
		Position:   w.opts.Position,
		ZIndex:     *w.opts.ZIndex,
		Width:      w.extent.Width,
		Height:     w.extent.Height,
		TileWidth:  w.opts.Width,
		TileHeight: w.opts.Height,
		Image:      image,
	}

	switch w.opts.Strategy {
	case StrategyDirectBackground:
		for _, d := range w.style.Background() {
			w.container.SetStyleProperty(d.Property, d.Value)
		}
	default:
		node := w.doc.CreateElement("div")
		node.SetAttribute("style", w.style.String())
		w.container.InsertBefore(node, w.container.FirstChild())
		w.overlay = node
	}
	w.mounts++

	w.observeLocked()
	w.state = StateMounted
}

// tileLocked returns the cached tile, drawing a new one when there is none
// or the display's pixel ratio has changed since it was drawn. Failures are
// not cached.
func (w *Watermark) tileLocked() (Tile, error) {
	ratio := pixelRatio(w.doc)
	if w.tile != nil && w.tile.PixelRatio == ratio {
		return *w.tile, nil
	}

	tile, err := rasterize(w.doc, w.opts, ratio)
	if err != nil {
		return Tile{}, err
	}
	w.tile = &tile
	w.rasterized++
	return tile, nil
}

func (w *Watermark) observeLocked() {
	if !*w.opts.Watch {
		return
	}
	obs, ok := w.doc.(host.MutationObservable)
	if !ok {
		return
	}
	w.observer = obs.NewMutationObserver(w.onMutations)
	w.observer.Observe(w.container, observeAll)
}

func (w *Watermark) onMutations(records []host.MutationRecord) {
	if len(records) == 0 {
		return
	}
	w.logger.Debug(context.Background(), "container mutated",
		slog.F("type", records[0].Type),
		slog.F("attribute", records[0].AttributeName),
		slog.F("records", len(records)),
	)
	w.throttled.Call(TriggerMutation)
}

func (w *Watermark) disconnectLocked() {
	if w.observer == nil {
		return
	}
	w.observer.Disconnect()
	w.observer = nil
}

func (w *Watermark) unmountLocked() {
	switch w.opts.Strategy {
	case StrategyDirectBackground:
		for _, p := range backgroundProperties {
			w.container.RemoveStyleProperty(p)
		}
	default:
		if w.overlay != nil {
			// The node may already have been removed by someone else.
			w.container.RemoveChild(w.overlay)
			w.overlay = nil
		}
	}
}

// InvalidateTile drops the cached tile; the next mount draws a fresh one.
func (w *Watermark) InvalidateTile() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tile = nil
}

// Dispose removes the overlay and releases the resize listener, the
// observer and any pending remount. It is safe to call more than once.
func (w *Watermark) Dispose() {
	w.mu.Lock()
	if w.state == StateDisposed {
		w.mu.Unlock()
		return
	}
	w.state = StateDisposed
	unlisten := w.unlisten
	w.unlisten = nil
	w.disconnectLocked()
	w.unmountLocked()
	w.mu.Unlock()

	w.throttled.Stop()
	if unlisten != nil {
		unlisten()
	}
}

// Close disposes the watermark. It always returns nil.
func (w *Watermark) Close() error {
	w.Dispose()
	return nil
}

// State returns the current lifecycle state.
func (w *Watermark) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Style returns the style of the current mount.
func (w *Watermark) Style() Style {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.style
}

// Tile returns the cached tile, if one has been drawn.
func (w *Watermark) Tile() (Tile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tile == nil {
		return Tile{}, false
	}
	return *w.tile, true
}

// Extent returns the container extent measured at the last mount.
func (w *Watermark) Extent() Extent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.extent
}

// Overlay returns the mounted overlay element, or nil with the
// direct-background strategy or after Dispose.
func (w *Watermark) Overlay() host.Element {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.overlay
}

// Observing reports whether a mutation observer is attached.
func (w *Watermark) Observing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.observer != nil
}

// Container returns the element the overlay covers.
func (w *Watermark) Container() host.Element {
	return w.container
}
