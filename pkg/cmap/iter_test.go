package cmap

import "testing"

func TestKeys(t *testing.T) {
	m := New[string, *fakeConn]()
	m.Set("staging", &fakeConn{name: "staging"})
	m.Set("prod", &fakeConn{name: "prod"})

	keys := m.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() length = %d, want 2", len(keys))
	}

	found := map[string]bool{}
	for _, k := range keys {
		found[k] = true
	}
	if !found["staging"] || !found["prod"] {
		t.Errorf("Keys() = %v, want staging and prod", keys)
	}
}

func TestKeysEmpty(t *testing.T) {
	m := New[string, *fakeConn]()
	if keys := m.Keys(); len(keys) != 0 {
		t.Errorf("Keys() on empty map = %v, want empty", keys)
	}
}

func TestRangeStopsEarly(t *testing.T) {
	m := New[string, *fakeConn]()
	m.Set("a", &fakeConn{name: "a"})
	m.Set("b", &fakeConn{name: "b"})

	seen := 0
	m.Range(func(string, *fakeConn) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Errorf("Range should stop after the callback returns false, saw %d", seen)
	}
}
