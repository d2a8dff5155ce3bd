//go:build js && wasm

package jsdom

import (
	"sync"

	"syscall/js"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

// Observer wraps a browser MutationObserver. The callback is released on
// Disconnect.
type Observer struct {
	obs  js.Value
	cb   js.Func
	once sync.Once
}

var _ host.MutationObserver = (*Observer)(nil)

// NewMutationObserver wraps fn in a browser mutation observer.
func (d *ObservingDocument) NewMutationObserver(fn func([]host.MutationRecord)) host.MutationObserver {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		fn(records(args[0]))
		return nil
	})
	return &Observer{obs: d.ctor.New(cb), cb: cb}
}

func records(list js.Value) []host.MutationRecord {
	n := list.Length()
	out := make([]host.MutationRecord, 0, n)
	for i := 0; i < n; i++ {
		r := list.Index(i)
		rec := host.MutationRecord{
			Type:   host.MutationType(r.Get("type").String()),
			Target: Wrap(r.Get("target")),
		}
		if name := r.Get("attributeName"); name.Type() == js.TypeString {
			rec.AttributeName = name.String()
		}
		out = append(out, rec)
	}
	return out
}

// Observe starts observing target with the given options.
func (o *Observer) Observe(target host.Element, opts host.ObserveOptions) {
	o.obs.Call("observe", unwrap(target), map[string]any{
		"attributes": opts.Attributes,
		"childList":  opts.ChildList,
		"subtree":    opts.Subtree,
	})
}

// Disconnect stops observation and releases the callback. Later calls do nothing.
func (o *Observer) Disconnect() {
	o.once.Do(func() {
		o.obs.Call("disconnect")
		o.cb.Release()
	})
}
