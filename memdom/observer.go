package memdom

import (
	"github.com/gcslaoli/watermark-overlay-go/host"
)

type registration struct {
	target *Element
	opts   host.ObserveOptions
}

// Observer is the in-memory MutationObserver.
type Observer struct {
	doc     *Document
	fn      func([]host.MutationRecord)
	targets []registration
}

var _ host.MutationObserver = (*Observer)(nil)

// NewMutationObserver returns an idle observer that calls fn with each batch.
func (d *Document) NewMutationObserver(fn func([]host.MutationRecord)) host.MutationObserver {
	return &Observer{doc: d, fn: fn}
}

// Observe adds target to the watched set. Observing the same target again
// replaces its options. Elements from other hosts are ignored.
func (o *Observer) Observe(target host.Element, opts host.ObserveOptions) {
	e, ok := target.(*Element)
	if !ok || e == nil {
		return
	}

	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()

	for i := range o.targets {
		if o.targets[i].target == e {
			o.targets[i].opts = opts
			return
		}
	}
	o.targets = append(o.targets, registration{target: e, opts: opts})
	o.doc.observers[o] = struct{}{}
}

// Disconnect drops every target. Records already queued are not delivered.
func (o *Observer) Disconnect() {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()

	o.targets = nil
	delete(o.doc.observers, o)
}

func (o *Observer) wants(rec host.MutationRecord, target *Element) bool {
	for _, reg := range o.targets {
		switch rec.Type {
		case host.MutationAttributes:
			if !reg.opts.Attributes {
				continue
			}
		case host.MutationChildList:
			if !reg.opts.ChildList {
				continue
			}
		}
		if reg.target == target || (reg.opts.Subtree && reg.target.containsLocked(target)) {
			return true
		}
	}
	return false
}

type delivery struct {
	observer *Observer
	records  []host.MutationRecord
}

// queueLocked returns the deliveries owed for rec. Call run after releasing
// the document lock.
func (d *Document) queueLocked(rec host.MutationRecord, target *Element) []delivery {
	var out []delivery
	for o := range d.observers {
		if o.wants(rec, target) {
			out = append(out, delivery{observer: o, records: []host.MutationRecord{rec}})
		}
	}
	return out
}

func (d *Document) deliver(out []delivery) {
	for _, dl := range out {
		d.mu.Lock()
		_, live := d.observers[dl.observer]
		d.mu.Unlock()
		if live {
			dl.observer.fn(dl.records)
		}
	}
}
