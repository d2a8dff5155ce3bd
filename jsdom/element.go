//go:build js && wasm

package jsdom

import (
	"syscall/js"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

// Element wraps a DOM node.
type Element struct {
	v js.Value
}

var _ host.Element = (*Element)(nil)

// Wrap returns the node as a host.Element, or nil for null and undefined.
func Wrap(v js.Value) host.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	return &Element{v: v}
}

// Value returns the underlying node.
func (e *Element) Value() js.Value {
	return e.v
}

func unwrap(el host.Element) js.Value {
	if e, ok := el.(*Element); ok && e != nil {
		return e.v
	}
	return js.Null()
}

// SetAttribute sets an attribute on the node.
func (e *Element) SetAttribute(name, value string) {
	e.v.Call("setAttribute", name, value)
}

// Attribute returns the attribute value and whether it is present.
func (e *Element) Attribute(name string) (string, bool) {
	v := e.v.Call("getAttribute", name)
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// SetStyleProperty sets one inline style declaration.
func (e *Element) SetStyleProperty(name, value string) {
	e.v.Get("style").Call("setProperty", name, value)
}

// RemoveStyleProperty removes one inline style declaration.
func (e *Element) RemoveStyleProperty(name string) {
	e.v.Get("style").Call("removeProperty", name)
}

// StyleProperty returns an inline style value, or "".
func (e *Element) StyleProperty(name string) string {
	return e.v.Get("style").Call("getPropertyValue", name).String()
}

// InsertBefore inserts child before ref, or appends when ref is nil.
func (e *Element) InsertBefore(child, ref host.Element) {
	e.v.Call("insertBefore", unwrap(child), unwrap(ref))
}

// RemoveChild removes child if it is a direct child of the node.
func (e *Element) RemoveChild(child host.Element) bool {
	c := unwrap(child)
	if c.IsNull() || !c.Get("parentNode").Equal(e.v) {
		return false
	}
	return catch(func() { e.v.Call("removeChild", c) }) == nil
}

// FirstChild returns the first child node, which may be a text node.
func (e *Element) FirstChild() host.Element {
	return Wrap(e.v.Get("firstChild"))
}

// ScrollWidth returns the node's scrollWidth.
func (e *Element) ScrollWidth() int {
	return e.v.Get("scrollWidth").Int()
}

// ScrollHeight returns the node's scrollHeight.
func (e *Element) ScrollHeight() int {
	return e.v.Get("scrollHeight").Int()
}
