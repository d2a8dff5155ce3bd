//go:build js && wasm

// Package jsdom binds the host contracts to a browser page through
// syscall/js: the page's document and window, canvas surfaces and, where the
// browser has one, MutationObserver.
package jsdom

import (
	"fmt"

	"syscall/js"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

// Document wraps the page's document and window. It does not observe
// mutations; New returns an ObservingDocument when the browser can.
type Document struct {
	window js.Value
	doc    js.Value
}

// ObservingDocument is a Document whose browser provides a mutation
// observer constructor.
type ObservingDocument struct {
	*Document
	ctor js.Value
}

var (
	_ host.Document           = (*Document)(nil)
	_ host.Resizable          = (*Document)(nil)
	_ host.PixelDensity       = (*Document)(nil)
	_ host.MutationObservable = (*ObservingDocument)(nil)
)

// New binds to the global window. The result implements
// host.MutationObservable only when MutationObserver or
// WebKitMutationObserver exists.
func New() host.Document {
	window := js.Global()
	d := &Document{window: window, doc: window.Get("document")}

	for _, name := range []string{"MutationObserver", "WebKitMutationObserver"} {
		if ctor := window.Get(name); ctor.Type() == js.TypeFunction {
			return &ObservingDocument{Document: d, ctor: ctor}
		}
	}
	return d
}

// Body returns document.body.
func (d *Document) Body() host.Element {
	return Wrap(d.doc.Get("body"))
}

// QuerySelector runs document.querySelector; an invalid selector matches nothing.
func (d *Document) QuerySelector(selector string) host.Element {
	var el js.Value
	if err := catch(func() { el = d.doc.Call("querySelector", selector) }); err != nil {
		return nil
	}
	return Wrap(el)
}

// CreateElement runs document.createElement.
func (d *Document) CreateElement(tag string) host.Element {
	return Wrap(d.doc.Call("createElement", tag))
}

// NewSurface creates a detached canvas of the given pixel size.
func (d *Document) NewSurface(width, height int) (host.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	canvas := d.doc.Call("createElement", "canvas")
	canvas.Set("width", width)
	canvas.Set("height", height)

	ctx := canvas.Call("getContext", "2d")
	if !ctx.Truthy() {
		return nil, fmt.Errorf("canvas 2d context unavailable")
	}
	return &Surface{canvas: canvas, ctx: ctx}, nil
}

// DevicePixelRatio returns window.devicePixelRatio, or 1 when the browser
// does not report one.
func (d *Document) DevicePixelRatio() float64 {
	v := d.window.Get("devicePixelRatio")
	if v.Type() != js.TypeNumber {
		return 1
	}
	return v.Float()
}

// OnResize listens for window resize events.
func (d *Document) OnResize(fn func()) (remove func()) {
	cb := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	d.window.Call("addEventListener", "resize", cb)

	var removed bool
	return func() {
		if removed {
			return
		}
		removed = true
		d.window.Call("removeEventListener", "resize", cb)
		cb.Release()
	}
}

// catch converts a JavaScript exception raised by fn into an error.
func catch(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if jsErr, ok := r.(js.Error); ok {
			err = jsErr
			return
		}
		panic(r)
	}()
	fn()
	return nil
}
