// Package udev ties together the property store, device factory,
// enumeration engine, and monitor into the small reference-counted root
// handle every other constructor in this tree accepts.
package udev

import "sync/atomic"

// Root is the reference-counted context object every device, enumerate
// context, and monitor is constructed against. It carries no behaviorally
// significant state of its own; it exists so a device can report which
// library instance owns it, matching the ABI this package reimplements.
type Root struct {
	refs atomic.Int32
}

// New returns a Root with a reference count of one.
func New() *Root {
	r := &Root{}
	r.refs.Store(1)
	return r
}

// Ref increments the reference count and returns the same Root, mirroring
// the C ABI's udev_ref semantics.
func (r *Root) Ref() *Root {
	if r == nil {
		return nil
	}
	r.refs.Add(1)
	return r
}

// Unref decrements the reference count. It reports whether the Root
// reached zero references and should be considered destroyed; callers
// holding borrowed references must not dereference it afterward.
func (r *Root) Unref() bool {
	if r == nil {
		return false
	}
	return r.refs.Add(-1) == 0
}

// Live reports whether the Root still has outstanding references.
func (r *Root) Live() bool {
	if r == nil {
		return false
	}
	return r.refs.Load() > 0
}
