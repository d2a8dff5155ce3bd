// Package memdom is an in-memory document host: an element tree with
// attributes, inline styles and a settable scroll extent, mutation observers,
// a window resize signal and a configurable device pixel ratio. Tiles are
// drawn on raster surfaces.
//
// Unlike a browser, mutation records are delivered synchronously, one batch
// per mutating call, after the document lock is released. Callbacks may
// therefore mutate the tree again.
package memdom

import (
	"strings"
	"sync"

	"github.com/gcslaoli/watermark-overlay-go/host"
	"github.com/gcslaoli/watermark-overlay-go/raster"
)

// SurfaceFactory allocates drawing surfaces for a Document.
type SurfaceFactory func(width, height int) (host.Surface, error)

// Option configures a Document.
type Option func(*Document)

// WithPixelRatio sets the device pixel ratio reported to callers.
func WithPixelRatio(ratio float64) Option {
	return func(d *Document) {
		d.ratio = ratio
	}
}

// WithBodySize sets the body's initial scroll extent.
func WithBodySize(width, height int) Option {
	return func(d *Document) {
		d.body.scrollW, d.body.scrollH = width, height
	}
}

// WithSurfaceFactory replaces the raster surface allocator.
func WithSurfaceFactory(fn SurfaceFactory) Option {
	return func(d *Document) {
		d.newSurface = fn
	}
}

// Document is safe for concurrent use.
type Document struct {
	mu         sync.Mutex
	body       *Element
	ratio      float64
	newSurface SurfaceFactory
	observers  map[*Observer]struct{}

	listenerMu sync.RWMutex
	listeners  map[int]func()
	nextID     int
}

var (
	_ host.Document           = (*Document)(nil)
	_ host.MutationObservable = (*Document)(nil)
	_ host.Resizable          = (*Document)(nil)
	_ host.PixelDensity       = (*Document)(nil)
)

// New returns an empty document with a body element.
func New(opts ...Option) *Document {
	d := &Document{
		ratio:      1,
		newSurface: rasterSurface,
		observers:  make(map[*Observer]struct{}),
		listeners:  make(map[int]func()),
	}
	d.body = d.NewElement("body")
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func rasterSurface(width, height int) (host.Surface, error) {
	s, err := raster.NewSurface(width, height)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Body returns the document's body element.
func (d *Document) Body() host.Element {
	return d.body
}

// Root returns the body as a concrete element.
func (d *Document) Root() *Element {
	return d.body
}

// CreateElement creates a detached element with the given tag.
func (d *Document) CreateElement(tag string) host.Element {
	return d.NewElement(tag)
}

// NewElement creates a detached element.
func (d *Document) NewElement(tag string) *Element {
	return &Element{
		doc:   d,
		tag:   strings.ToLower(tag),
		attrs: make(map[string]string),
	}
}

// QuerySelector supports "#id", ".class" and bare tag names, searched
// depth-first from the body.
func (d *Document) QuerySelector(selector string) host.Element {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if found := d.body.findLocked(selectorMatcher(selector)); found != nil {
		return found
	}
	return nil
}

func selectorMatcher(selector string) func(*Element) bool {
	switch {
	case strings.HasPrefix(selector, "#"):
		id := selector[1:]
		return func(e *Element) bool { return e.attrs["id"] == id }
	case strings.HasPrefix(selector, "."):
		class := selector[1:]
		return func(e *Element) bool {
			for _, c := range strings.Fields(e.attrs["class"]) {
				if c == class {
					return true
				}
			}
			return false
		}
	default:
		tag := strings.ToLower(selector)
		return func(e *Element) bool { return e.tag == tag }
	}
}

// NewSurface allocates a surface through the configured factory.
func (d *Document) NewSurface(width, height int) (host.Surface, error) {
	return d.newSurface(width, height)
}

// DevicePixelRatio returns the current device pixel ratio.
func (d *Document) DevicePixelRatio() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ratio
}

// SetPixelRatio changes the ratio, as when a window moves between displays.
func (d *Document) SetPixelRatio(ratio float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ratio = ratio
}

// OnResize registers fn for Resize. The returned function removes it.
func (d *Document) OnResize(fn func()) (remove func()) {
	d.listenerMu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.listenerMu.Unlock()

	return func() {
		d.listenerMu.Lock()
		delete(d.listeners, id)
		d.listenerMu.Unlock()
	}
}

// Resize fires every resize listener synchronously.
func (d *Document) Resize() {
	d.listenerMu.RLock()
	// Snapshot so listeners may unsubscribe while being called.
	snapshot := make([]func(), 0, len(d.listeners))
	for _, fn := range d.listeners {
		snapshot = append(snapshot, fn)
	}
	d.listenerMu.RUnlock()

	for _, fn := range snapshot {
		fn()
	}
}

// ResizeListeners returns the number of registered resize listeners.
func (d *Document) ResizeListeners() int {
	d.listenerMu.RLock()
	defer d.listenerMu.RUnlock()
	return len(d.listeners)
}

// ActiveObservers returns the number of observers with at least one target.
func (d *Document) ActiveObservers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.observers)
}
