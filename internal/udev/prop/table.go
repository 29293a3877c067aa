package prop

import "github.com/cespare/xxhash/v2"

// Table is an O(1)-lookup property store: an open-addressed hash array
// indexes entries that also live on an insertion-order linked list (via
// List), so iteration order matches insertion order even though the array
// is reshuffled on rehash. Used for the property store hot on the
// device.Get path.
type Table struct {
	list     List
	slots    []*Entry
	size     int
}

const tableMinCapacity = 8

// NewTable returns an empty hash-backed property store.
func NewTable() *Table {
	return &Table{slots: make([]*Entry, tableMinCapacity)}
}

func hashKey(name string) uint64 {
	return xxhash.Sum64String(name)
}

// find returns the slot index holding name, or the first empty slot where
// it would be inserted, via linear probing.
func (t *Table) find(name string) int {
	n := len(t.slots)
	idx := int(hashKey(name) % uint64(n))
	for {
		e := t.slots[idx]
		if e == nil || e.Name == name {
			return idx
		}
		idx = (idx + 1) % n
	}
}

func (t *Table) grow() {
	old := t.slots
	t.slots = make([]*Entry, len(old)*2)
	for _, e := range old {
		if e == nil {
			continue
		}
		idx := t.find(e.Name)
		t.slots[idx] = e
	}
}

// Insert adds name/value under the given mode and returns the resulting
// entry. A nil receiver or empty name is a safe no-op returning nil.
func (t *Table) Insert(name, value string, mode InsertMode) *Entry {
	if t == nil || name == "" {
		return nil
	}
	if t.slots == nil {
		t.slots = make([]*Entry, tableMinCapacity)
	}
	idx := t.find(name)
	if e := t.slots[idx]; e != nil {
		if mode == Upsert {
			e.Value = value
		}
		return e
	}

	e := t.list.Insert(name, value, mode)
	t.slots[idx] = e
	t.size++

	if t.size > len(t.slots)/2 {
		t.grow()
	}
	return e
}

// Lookup returns the entry for name in O(1), or nil when absent or the
// receiver is nil.
func (t *Table) Lookup(name string) *Entry {
	if t == nil || t.slots == nil {
		return nil
	}
	idx := t.find(name)
	return t.slots[idx]
}

// Value is a convenience wrapper over Lookup returning the empty string
// when the key is absent.
func (t *Table) Value(name string) string {
	if e := t.Lookup(name); e != nil {
		return e.Value
	}
	return ""
}

// Head returns the first entry in insertion order, or nil for an empty or
// nil table.
func (t *Table) Head() *Entry {
	if t == nil {
		return nil
	}
	return t.list.Head()
}

// Len reports the number of entries in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}
