package prop

import "testing"

func TestListInsertAppendIfAbsent(t *testing.T) {
	l := NewList()
	l.Insert("SUBSYSTEM", "input", AppendIfAbsent)
	l.Insert("SUBSYSTEM", "block", AppendIfAbsent)

	if got := l.Value("SUBSYSTEM"); got != "input" {
		t.Errorf("Value() = %q, want %q", got, "input")
	}
}

func TestListInsertUpsert(t *testing.T) {
	l := NewList()
	l.Insert("SUBSYSTEM", "input", AppendIfAbsent)
	l.Insert("SUBSYSTEM", "block", Upsert)

	if got := l.Value("SUBSYSTEM"); got != "block" {
		t.Errorf("Value() = %q, want %q", got, "block")
	}
}

func TestListIterationOrder(t *testing.T) {
	l := NewList()
	names := []string{"SYSPATH", "DEVPATH", "SUBSYSTEM", "SYSNAME"}
	for _, n := range names {
		l.Insert(n, n, AppendIfAbsent)
	}

	var got []string
	for e := l.Head(); e != nil; e = Next(e) {
		got = append(got, e.Name)
	}

	if len(got) != len(names) {
		t.Fatalf("iterated %d entries, want %d", len(got), len(names))
	}
	for i, n := range names {
		if got[i] != n {
			t.Errorf("position %d = %q, want %q", i, got[i], n)
		}
	}
}

func TestListLookupMissing(t *testing.T) {
	l := NewList()
	if e := l.Lookup("MISSING"); e != nil {
		t.Errorf("Lookup() = %v, want nil", e)
	}
}

func TestNilListIsSafe(t *testing.T) {
	var l *List
	if e := l.Lookup("X"); e != nil {
		t.Errorf("Lookup() on nil list = %v, want nil", e)
	}
	if e := l.Insert("X", "Y", AppendIfAbsent); e != nil {
		t.Errorf("Insert() on nil list = %v, want nil", e)
	}
	if h := l.Head(); h != nil {
		t.Errorf("Head() on nil list = %v, want nil", h)
	}
}
