// Package prop implements the ordered key/value property store used for a
// device's properties and its sysattr cache in the udev package tree.
//
// Two realizations are provided: List, a simple insertion-order linked list,
// and Table, a hash table whose entries also sit on a List that keeps their
// insertion order. Devices use Table for both their properties and their
// sysattr cache; nothing outside this package builds a bare List, and the
// enumerate package keeps its filter sets in plain slices. Both share the Entry type so callers can
// range over either with the same idiom.
package prop

// InsertMode controls duplicate-key behavior on Insert.
type InsertMode int

const (
	// AppendIfAbsent keeps the existing value when the key is already present.
	AppendIfAbsent InsertMode = iota
	// Upsert replaces the existing value when the key is already present.
	Upsert
)

// Entry is one key/value pair. Name and Value are borrowed views valid for
// the lifetime of the store that owns the entry.
type Entry struct {
	Name  string
	Value string
	next  *Entry
}

// List is an O(n)-lookup, insertion-ordered property store. A nil *List is
// valid and behaves as an empty, read-only store.
type List struct {
	head *Entry
	tail *Entry
}

// NewList returns an empty List.
func NewList() *List {
	return &List{}
}

// Insert adds name/value under the given mode and returns the resulting
// entry (existing or newly created). A nil receiver or empty name is a
// safe no-op returning nil.
func (l *List) Insert(name, value string, mode InsertMode) *Entry {
	if l == nil || name == "" {
		return nil
	}
	if e := l.Lookup(name); e != nil {
		if mode == Upsert {
			e.Value = value
		}
		return e
	}
	e := &Entry{Name: name, Value: value}
	if l.head == nil {
		l.head = e
		l.tail = e
	} else {
		l.tail.next = e
		l.tail = e
	}
	return e
}

// Lookup scans the list for name, returning nil when absent or the
// receiver is nil.
func (l *List) Lookup(name string) *Entry {
	if l == nil {
		return nil
	}
	for e := l.head; e != nil; e = e.next {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Value is a convenience wrapper over Lookup returning the empty string
// when the key is absent.
func (l *List) Value(name string) string {
	if e := l.Lookup(name); e != nil {
		return e.Value
	}
	return ""
}

// Head returns the first entry in insertion order, or nil for an empty or
// nil list.
func (l *List) Head() *Entry {
	if l == nil {
		return nil
	}
	return l.head
}

// Next returns the entry following e in insertion order, or nil at the end
// of the chain. Calling Next on a nil entry returns nil.
func Next(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	return e.next
}

// Len returns the number of entries, walking the chain (O(n)); used only
// by tests and diagnostics, never on a hot path.
func (l *List) Len() int {
	n := 0
	for e := l.Head(); e != nil; e = Next(e) {
		n++
	}
	return n
}
