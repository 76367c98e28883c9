package fst

import "testing"

func TestSetEqual(t *testing.T) {
	a := openTestSet(t, []string{"a", "b", "c"})
	b := openTestSet(t, []string{"a", "b", "c"})
	c := openTestSet(t, []string{"a", "b"})
	defer a.Close()
	defer b.Close()
	defer c.Close()

	if !a.Equal(b) {
		t.Error("a should equal b")
	}
	if a.Equal(c) {
		t.Error("a should not equal c")
	}
}

func TestSetSubsetSuperset(t *testing.T) {
	small := openTestSet(t, []string{"b", "c"})
	big := openTestSet(t, []string{"a", "b", "c", "d"})
	same := openTestSet(t, []string{"b", "c"})
	defer small.Close()
	defer big.Close()
	defer same.Close()

	if !small.IsSubsetOf(big) {
		t.Error("small should be a subset of big")
	}
	if !small.IsProperSubsetOf(big) {
		t.Error("small should be a proper subset of big")
	}
	if !big.IsSupersetOf(small) {
		t.Error("big should be a superset of small")
	}
	if !big.IsProperSupersetOf(small) {
		t.Error("big should be a proper superset of small")
	}

	if !small.IsSubsetOf(same) {
		t.Error("small should be a (non-proper) subset of an identical set")
	}
	if small.IsProperSubsetOf(same) {
		t.Error("small should not be a proper subset of an identical set")
	}
	if big.IsSubsetOf(small) {
		t.Error("big should not be a subset of small")
	}
}

func TestSetDisjoint(t *testing.T) {
	a := openTestSet(t, []string{"a", "b"})
	b := openTestSet(t, []string{"c", "d"})
	c := openTestSet(t, []string{"b", "z"})
	defer a.Close()
	defer b.Close()
	defer c.Close()

	if !a.IsDisjointFrom(b) {
		t.Error("a and b should be disjoint")
	}
	if a.IsDisjointFrom(c) {
		t.Error("a and c share 'b', should not be disjoint")
	}
}

func TestMapGetOrDefault(t *testing.T) {
	pairs := []struct {
		key   string
		value uint64
	}{{"k1", 1}, {"k2", 2}}
	data := buildMap(t, pairs)
	m, err := OpenMapBytes(data)
	if err != nil {
		t.Fatalf("OpenMapBytes: %v", err)
	}
	defer m.Close()

	if v := m.GetOrDefault([]byte("k1"), 999); v != 1 {
		t.Errorf("GetOrDefault(k1) = %d, want 1", v)
	}
	if v := m.GetOrDefault([]byte("missing"), 999); v != 999 {
		t.Errorf("GetOrDefault(missing) = %d, want 999", v)
	}
}
