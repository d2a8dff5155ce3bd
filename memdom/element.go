package memdom

import (
	"slices"

	"github.com/gcslaoli/watermark-overlay-go/host"
)

// Element is a node of a Document. All methods lock the owning document.
type Element struct {
	doc      *Document
	tag      string
	attrs    map[string]string
	style    declarations
	parent   *Element
	children []*Element
	scrollW  int
	scrollH  int
}

var _ host.Element = (*Element)(nil)

func asElement(e host.Element) *Element {
	el, _ := e.(*Element)
	return el
}

// Tag returns the lower-cased tag name.
func (e *Element) Tag() string {
	return e.tag
}

// SetAttribute sets an attribute. Setting "style" replaces the inline declarations.
func (e *Element) SetAttribute(name, value string) {
	d := e.doc
	d.mu.Lock()
	if name == "style" {
		e.style = parseDeclarations(value)
	} else {
		e.attrs[name] = value
	}
	out := d.queueLocked(host.MutationRecord{Type: host.MutationAttributes, Target: e, AttributeName: name}, e)
	d.mu.Unlock()

	d.deliver(out)
}

// RemoveAttribute deletes an attribute, notifying observers if it existed.
func (e *Element) RemoveAttribute(name string) {
	d := e.doc
	d.mu.Lock()
	var existed bool
	if name == "style" {
		existed = len(e.style) > 0
		e.style = nil
	} else {
		_, existed = e.attrs[name]
		delete(e.attrs, name)
	}
	if !existed {
		d.mu.Unlock()
		return
	}
	out := d.queueLocked(host.MutationRecord{Type: host.MutationAttributes, Target: e, AttributeName: name}, e)
	d.mu.Unlock()

	d.deliver(out)
}

// Attribute returns the attribute value and whether it is present.
func (e *Element) Attribute(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if name == "style" {
		if len(e.style) == 0 {
			return "", false
		}
		return e.style.String(), true
	}
	v, ok := e.attrs[name]
	return v, ok
}

// SetStyleProperty sets one inline style declaration.
func (e *Element) SetStyleProperty(name, value string) {
	d := e.doc
	d.mu.Lock()
	e.style = e.style.set(name, value)
	out := d.queueLocked(host.MutationRecord{Type: host.MutationAttributes, Target: e, AttributeName: "style"}, e)
	d.mu.Unlock()

	d.deliver(out)
}

// RemoveStyleProperty removes one inline style declaration, if present.
func (e *Element) RemoveStyleProperty(name string) {
	d := e.doc
	d.mu.Lock()
	next, removed := e.style.remove(name)
	if !removed {
		d.mu.Unlock()
		return
	}
	e.style = next
	out := d.queueLocked(host.MutationRecord{Type: host.MutationAttributes, Target: e, AttributeName: "style"}, e)
	d.mu.Unlock()

	d.deliver(out)
}

// StyleProperty returns an inline style value, or "".
func (e *Element) StyleProperty(name string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.style.get(name)
}

// InsertBefore moves child under e, before ref. A nil ref or one that is not
// a child of e appends.
func (e *Element) InsertBefore(child, ref host.Element) {
	c := asElement(child)
	if c == nil || c == e {
		return
	}

	d := e.doc
	d.mu.Lock()
	var out []delivery
	if old := c.parent; old != nil {
		old.detachLocked(c)
		out = append(out, d.queueLocked(host.MutationRecord{Type: host.MutationChildList, Target: old}, old)...)
	}

	idx := len(e.children)
	if r := asElement(ref); r != nil {
		if i := slices.Index(e.children, r); i >= 0 {
			idx = i
		}
	}
	e.children = slices.Insert(e.children, idx, c)
	c.parent = e
	out = append(out, d.queueLocked(host.MutationRecord{Type: host.MutationChildList, Target: e}, e)...)
	d.mu.Unlock()

	d.deliver(out)
}

// AppendChild is InsertBefore with a nil reference.
func (e *Element) AppendChild(child *Element) {
	e.InsertBefore(child, nil)
}

// RemoveChild detaches child and reports whether it was a child of e.
func (e *Element) RemoveChild(child host.Element) bool {
	c := asElement(child)
	if c == nil {
		return false
	}

	d := e.doc
	d.mu.Lock()
	if c.parent != e {
		d.mu.Unlock()
		return false
	}
	e.detachLocked(c)
	out := d.queueLocked(host.MutationRecord{Type: host.MutationChildList, Target: e}, e)
	d.mu.Unlock()

	d.deliver(out)
	return true
}

func (e *Element) detachLocked(c *Element) {
	if i := slices.Index(e.children, c); i >= 0 {
		e.children = slices.Delete(e.children, i, i+1)
	}
	c.parent = nil
}

// FirstChild returns the first child, or nil.
func (e *Element) FirstChild() host.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

// Children returns a snapshot of the child list.
func (e *Element) Children() []*Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return slices.Clone(e.children)
}

// Parent returns the parent element or nil.
func (e *Element) Parent() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.parent
}

// ScrollWidth returns the configured scroll width.
func (e *Element) ScrollWidth() int {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.scrollW
}

// ScrollHeight returns the configured scroll height.
func (e *Element) ScrollHeight() int {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.scrollH
}

// SetScrollSize sets the extent reported by ScrollWidth and ScrollHeight.
// Layout changes are not observable mutations.
func (e *Element) SetScrollSize(width, height int) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.scrollW, e.scrollH = width, height
}

// containsLocked reports whether other is e or a descendant of e.
func (e *Element) containsLocked(other *Element) bool {
	for n := other; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

func (e *Element) findLocked(match func(*Element) bool) *Element {
	for _, c := range e.children {
		if match(c) {
			return c
		}
		if found := c.findLocked(match); found != nil {
			return found
		}
	}
	return nil
}
