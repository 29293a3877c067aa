package prop

import (
	"fmt"
	"testing"
)

func TestTableInsertAndLookup(t *testing.T) {
	tb := NewTable()
	tb.Insert("SYSPATH", "/sys/devices/x", AppendIfAbsent)
	tb.Insert("SUBSYSTEM", "input", AppendIfAbsent)

	if got := tb.Value("SYSPATH"); got != "/sys/devices/x" {
		t.Errorf("Value(SYSPATH) = %q", got)
	}
	if got := tb.Value("SUBSYSTEM"); got != "input" {
		t.Errorf("Value(SUBSYSTEM) = %q", got)
	}
	if e := tb.Lookup("MISSING"); e != nil {
		t.Errorf("Lookup(MISSING) = %v, want nil", e)
	}
}

func TestTableUpsertReplacesValue(t *testing.T) {
	tb := NewTable()
	tb.Insert("ACTION", "add", AppendIfAbsent)
	tb.Insert("ACTION", "remove", Upsert)

	if got := tb.Value("ACTION"); got != "remove" {
		t.Errorf("Value(ACTION) = %q, want remove", got)
	}
}

func TestTableAppendIfAbsentIgnoresDuplicate(t *testing.T) {
	tb := NewTable()
	tb.Insert("ACTION", "add", AppendIfAbsent)
	tb.Insert("ACTION", "remove", AppendIfAbsent)

	if got := tb.Value("ACTION"); got != "add" {
		t.Errorf("Value(ACTION) = %q, want add", got)
	}
}

func TestTableGrowsAndPreservesOrder(t *testing.T) {
	tb := NewTable()
	const n = 200
	for i := 0; i < n; i++ {
		tb.Insert(fmt.Sprintf("KEY%03d", i), fmt.Sprintf("v%d", i), AppendIfAbsent)
	}

	if tb.Len() != n {
		t.Fatalf("Len() = %d, want %d", tb.Len(), n)
	}

	i := 0
	for e := tb.Head(); e != nil; e = Next(e) {
		want := fmt.Sprintf("KEY%03d", i)
		if e.Name != want {
			t.Fatalf("position %d = %q, want %q", i, e.Name, want)
		}
		i++
	}
	if i != n {
		t.Fatalf("iterated %d entries, want %d", i, n)
	}

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("KEY%03d", i)
		if got := tb.Value(key); got != fmt.Sprintf("v%d", i) {
			t.Errorf("Value(%s) = %q", key, got)
		}
	}
}

func TestNilTableIsSafe(t *testing.T) {
	var tb *Table
	if e := tb.Lookup("X"); e != nil {
		t.Errorf("Lookup() on nil table = %v, want nil", e)
	}
	if e := tb.Insert("X", "Y", AppendIfAbsent); e != nil {
		t.Errorf("Insert() on nil table = %v, want nil", e)
	}
	if n := tb.Len(); n != 0 {
		t.Errorf("Len() on nil table = %d, want 0", n)
	}
}
