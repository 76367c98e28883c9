package fst

import (
	"context"
	"errors"
	"testing"

	fsterr "github.com/jfolz/fst/errors"
)

func buildSet(t *testing.T, keys []string, opts ...BuildOption) []byte {
	t.Helper()
	sink := NewMemorySink()
	b, err := NewSetBuilder(context.Background(), sink, opts...)
	if err != nil {
		t.Fatalf("NewSetBuilder: %v", err)
	}
	for _, k := range keys {
		if err := b.Insert([]byte(k)); err != nil {
			t.Fatalf("Insert(%q): %v", k, err)
		}
	}
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return sink.Bytes()
}

func buildMap(t *testing.T, pairs []struct {
	key   string
	value uint64
}, opts ...BuildOption) []byte {
	t.Helper()
	sink := NewMemorySink()
	b, err := NewMapBuilder(context.Background(), sink, opts...)
	if err != nil {
		t.Fatalf("NewMapBuilder: %v", err)
	}
	for _, p := range pairs {
		if err := b.Insert([]byte(p.key), p.value); err != nil {
			t.Fatalf("Insert(%q,%d): %v", p.key, p.value, err)
		}
	}
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return sink.Bytes()
}

func TestSetBuilderRoundTrip(t *testing.T) {
	keys := []string{"a", "ab", "abc", "b", "bad", "bat", "cat", "cats", "dog"}
	data := buildSet(t, keys)

	set, err := OpenSetBytes(data)
	if err != nil {
		t.Fatalf("OpenSetBytes: %v", err)
	}
	defer set.Close()

	if set.Len() != len(keys) {
		t.Fatalf("Len() = %d, want %d", set.Len(), len(keys))
	}
	for _, k := range keys {
		if !set.Contains([]byte(k)) {
			t.Errorf("Contains(%q) = false, want true", k)
		}
	}
	for _, k := range []string{"", "c", "ca", "catss", "zzz"} {
		if set.Contains([]byte(k)) {
			t.Errorf("Contains(%q) = true, want false", k)
		}
	}
}

func TestMapBuilderRoundTrip(t *testing.T) {
	pairs := []struct {
		key   string
		value uint64
	}{
		{"a", 1},
		{"ab", 2},
		{"abc", 3},
		{"b", 100},
		{"bad", 200},
		{"bat", 300},
		{"cat", 7},
		{"cats", 8},
		{"dog", 0},
	}
	data := buildMap(t, pairs)

	m, err := OpenMapBytes(data)
	if err != nil {
		t.Fatalf("OpenMapBytes: %v", err)
	}
	defer m.Close()

	if m.Len() != len(pairs) {
		t.Fatalf("Len() = %d, want %d", m.Len(), len(pairs))
	}
	for _, p := range pairs {
		v, ok := m.Get([]byte(p.key))
		if !ok {
			t.Errorf("Get(%q): missing", p.key)
			continue
		}
		if v != p.value {
			t.Errorf("Get(%q) = %d, want %d", p.key, v, p.value)
		}
	}
	if v := m.GetOrDefault([]byte("missing"), 42); v != 42 {
		t.Errorf("GetOrDefault(missing) = %d, want 42", v)
	}
	if _, ok := m.Get([]byte("missing")); ok {
		t.Error("Get(missing) should report absent")
	}
}

// TestMapBuilderSharedPrefixOutputs exercises the common-prefix output
// pushing directly: "cat" and "cats" share a prefix but diverge in value,
// so the excess must land on the right side of the split.
func TestMapBuilderSharedPrefixOutputs(t *testing.T) {
	pairs := []struct {
		key   string
		value uint64
	}{
		{"cat", 10},
		{"cats", 20},
		{"catsup", 30},
	}
	data := buildMap(t, pairs)
	m, err := OpenMapBytes(data)
	if err != nil {
		t.Fatalf("OpenMapBytes: %v", err)
	}
	defer m.Close()
	for _, p := range pairs {
		v, ok := m.Get([]byte(p.key))
		if !ok || v != p.value {
			t.Errorf("Get(%q) = (%d, %v), want (%d, true)", p.key, v, ok, p.value)
		}
	}
}

func TestBuilderOrderEnforced(t *testing.T) {
	sink := NewMemorySink()
	b, err := NewSetBuilder(context.Background(), sink)
	if err != nil {
		t.Fatalf("NewSetBuilder: %v", err)
	}
	if err := b.Insert([]byte("b")); err != nil {
		t.Fatalf("Insert(b): %v", err)
	}
	if err := b.Insert([]byte("a")); !errors.Is(err, fsterr.ErrOrder) {
		t.Fatalf("Insert(a) after b: got %v, want ErrOrder", err)
	}
	if err := b.Insert([]byte("b")); !errors.Is(err, fsterr.ErrOrder) {
		t.Fatalf("Insert(b) duplicate: got %v, want ErrOrder", err)
	}
}

func TestBuilderFinishedRejectsFurtherUse(t *testing.T) {
	sink := NewMemorySink()
	b, err := NewSetBuilder(context.Background(), sink)
	if err != nil {
		t.Fatalf("NewSetBuilder: %v", err)
	}
	if err := b.Insert([]byte("a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := b.Insert([]byte("b")); !errors.Is(err, fsterr.ErrBuilderFinished) {
		t.Fatalf("Insert after Finish: got %v, want ErrBuilderFinished", err)
	}
}

func TestKindMismatch(t *testing.T) {
	data := buildSet(t, []string{"a", "b"})
	if _, err := OpenMapBytes(data); !errors.Is(err, fsterr.ErrKindMismatch) {
		t.Fatalf("OpenMapBytes on a set image: got %v, want ErrKindMismatch", err)
	}
}

func TestVerifyChecksumAlgorithms(t *testing.T) {
	for _, algo := range []ChecksumAlgorithm{ChecksumXXHash64, ChecksumMurmur3} {
		data := buildSet(t, []string{"a", "b", "c"}, WithChecksumAlgorithm(algo))
		r, err := OpenBytes(data)
		if err != nil {
			t.Fatalf("OpenBytes: %v", err)
		}
		if err := r.Verify(); err != nil {
			t.Errorf("Verify() with algo %v: %v", algo, err)
		}
		r.Close()
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	data := buildSet(t, []string{"a", "b", "c", "dog", "elephant"})
	corrupt := append([]byte(nil), data...)
	// Flip every bit of one byte well inside the body, away from header/trailer.
	mid := len(corrupt) / 2
	corrupt[mid] ^= 0xFF

	r, err := OpenBytes(corrupt)
	if err != nil {
		// Corruption of the tag byte can make the image fail to parse at
		// all, which is an acceptable outcome too.
		return
	}
	defer r.Close()
	if err := r.Verify(); err == nil {
		t.Error("Verify() should have detected corruption")
	}
}

func TestEmptyBuild(t *testing.T) {
	data := buildSet(t, nil)
	set, err := OpenSetBytes(data)
	if err != nil {
		t.Fatalf("OpenSetBytes: %v", err)
	}
	defer set.Close()
	if set.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", set.Len())
	}
	if set.Contains([]byte("anything")) {
		t.Error("empty set should contain nothing")
	}
}
