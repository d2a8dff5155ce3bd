// Package host declares the collaborators a watermark needs from the
// environment it is mounted in: a DOM-like element tree, a 2D drawing
// surface, and optionally mutation observation, a resize signal and the
// display pixel density.
//
// Optional capabilities are discovered with type assertions on the Document,
// so a host that cannot observe mutations simply does not implement
// MutationObservable.
package host

// Element is a node in the host's document tree.
type Element interface {
	SetAttribute(name, value string)
	Attribute(name string) (string, bool)

	// SetStyleProperty and RemoveStyleProperty edit the inline style of the
	// element one declaration at a time.
	SetStyleProperty(name, value string)
	RemoveStyleProperty(name string)
	StyleProperty(name string) string

	// InsertBefore inserts child before ref. A nil ref appends.
	InsertBefore(child, ref Element)
	// RemoveChild detaches child and reports whether it was a child.
	RemoveChild(child Element) bool
	FirstChild() Element

	// ScrollWidth and ScrollHeight report the full scrollable extent of the
	// element, which may exceed its visible viewport.
	ScrollWidth() int
	ScrollHeight() int
}

// Document is the minimum every host provides.
type Document interface {
	Body() Element
	// QuerySelector returns nil when nothing matches.
	QuerySelector(selector string) Element
	CreateElement(tag string) Element
	// NewSurface allocates an offscreen drawing surface of the given pixel
	// size.
	NewSurface(width, height int) (Surface, error)
}

// MutationType names the kind of change a MutationRecord describes.
type MutationType string

const (
	MutationAttributes MutationType = "attributes"
	MutationChildList  MutationType = "childList"
)

// MutationRecord describes one observed change.
type MutationRecord struct {
	Type          MutationType
	Target        Element
	AttributeName string
}

// ObserveOptions selects which changes an observer receives.
type ObserveOptions struct {
	Attributes bool
	ChildList  bool
	Subtree    bool
}

// MutationObserver is an active or idle subscription to tree changes.
type MutationObserver interface {
	Observe(target Element, opts ObserveOptions)
	Disconnect()
}

// MutationObservable is implemented by documents that can report subtree
// mutations.
type MutationObservable interface {
	NewMutationObserver(fn func([]MutationRecord)) MutationObserver
}

// Resizable is implemented by documents whose window emits resize events.
// OnResize returns a function that removes the listener.
type Resizable interface {
	OnResize(fn func()) (remove func())
}

// PixelDensity is implemented by documents that know the display's device
// pixel ratio.
type PixelDensity interface {
	DevicePixelRatio() float64
}
