package fst

import (
	"context"
	"os"

	fsterr "github.com/jfolz/fst/errors"
)

// Map is a read-only, disk-friendly map from byte-string keys to uint64
// values, backed by an FST image.
type Map struct{ r *Reader }

// OpenMap opens path as a map image.
func OpenMap(path string) (*Map, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	return newMap(r)
}

// OpenMapBytes wraps data as a map image without copying it.
func OpenMapBytes(data []byte) (*Map, error) {
	r, err := OpenBytes(data)
	if err != nil {
		return nil, err
	}
	return newMap(r)
}

func newMap(r *Reader) (*Map, error) {
	if r.Kind() != KindMap {
		r.Close()
		return nil, fsterr.ErrKindMismatch
	}
	return &Map{r: r}, nil
}

// Close releases the underlying image.
func (m *Map) Close() error { return m.r.Close() }

// Len returns the number of keys in the map.
func (m *Map) Len() int { return m.r.Len() }

// Contains reports whether key is in the map.
func (m *Map) Contains(key []byte) bool { return m.r.Contains(key) }

// Get returns the value for key and whether it was present.
func (m *Map) Get(key []byte) (uint64, bool) { return m.r.Get(key) }

// GetOrDefault returns the value for key, or def if key is absent.
func (m *Map) GetOrDefault(key []byte, def uint64) uint64 {
	if v, ok := m.r.Get(key); ok {
		return v
	}
	return def
}

// Iter returns a Stream over every (key, value) pair, ascending.
func (m *Map) Iter() *Stream { return m.r.Search(erase(Always())) }

// Range returns a Stream over the map bounded by opts (GE/GT/LE/LT).
func (m *Map) Range(opts ...RangeOption) *Stream { return m.r.Search(erase(Always()), opts...) }

// StartsWith returns a Stream over every (key, value) pair whose key has
// prefix prefix.
func (m *Map) StartsWith(prefix []byte) *Stream {
	return m.r.Search(erase(StartsWith(Str(prefix))))
}

// Subsequence returns a Stream over every (key, value) pair whose key
// contains seq as a subsequence.
func (m *Map) Subsequence(seq []byte) *Stream {
	return m.r.Search(erase(Subsequence(seq)))
}

// SearchMap returns a Stream driven by an arbitrary automaton, optionally
// bounded by opts.
func SearchMap[T any](m *Map, a Automaton[T], opts ...RangeOption) *Stream {
	return m.r.Search(erase(a), opts...)
}

// MapBuilderOpen starts a map build writing to a file at path, creating
// or truncating it.
func MapBuilderOpen(ctx context.Context, path string, opts ...BuildOption) (*MapBuilder, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := NewMapBuilder(ctx, NewFileSink(f), opts...)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, nil, err
	}
	return b, f, nil
}
