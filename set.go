package fst

import (
	"bytes"
	"context"
	"os"

	fsterr "github.com/jfolz/fst/errors"
)

// Set is a read-only, disk-friendly set of byte-string keys backed by an
// FST image. It is a thin facade over Reader: everything it does is a
// Kind-checked delegation, since the automaton-driven traversal engine
// (stream.go) already carries all of the real logic.
type Set struct{ r *Reader }

// OpenSet opens path as a set image.
func OpenSet(path string) (*Set, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	return newSet(r)
}

// OpenSetBytes wraps data as a set image without copying it.
func OpenSetBytes(data []byte) (*Set, error) {
	r, err := OpenBytes(data)
	if err != nil {
		return nil, err
	}
	return newSet(r)
}

func newSet(r *Reader) (*Set, error) {
	if r.Kind() != KindSet {
		r.Close()
		return nil, fsterr.ErrKindMismatch
	}
	return &Set{r: r}, nil
}

// Close releases the underlying image.
func (s *Set) Close() error { return s.r.Close() }

// Len returns the number of keys in the set.
func (s *Set) Len() int { return s.r.Len() }

// Contains reports whether key is in the set.
func (s *Set) Contains(key []byte) bool { return s.r.Contains(key) }

// Iter returns a Stream over every key in the set, ascending.
func (s *Set) Iter() *Stream { return s.r.Search(erase(Always())) }

// Range returns a Stream over the set bounded by opts (GE/GT/LE/LT).
func (s *Set) Range(opts ...RangeOption) *Stream { return s.r.Search(erase(Always()), opts...) }

// StartsWith returns a Stream over every key with prefix prefix.
func (s *Set) StartsWith(prefix []byte) *Stream {
	return s.r.Search(erase(StartsWith(Str(prefix))))
}

// Subsequence returns a Stream over every key containing seq as a
// subsequence.
func (s *Set) Subsequence(seq []byte) *Stream {
	return s.r.Search(erase(Subsequence(seq)))
}

// Search returns a Stream driven by an arbitrary automaton, optionally
// bounded by opts.
func Search[T any](s *Set, a Automaton[T], opts ...RangeOption) *Stream {
	return s.r.Search(erase(a), opts...)
}

// Equal reports whether s and other contain exactly the same keys,
// co-traversing both streams in lockstep so it never materializes either
// set in memory.
func (s *Set) Equal(other *Set) bool {
	a, b := s.Iter(), other.Iter()
	for {
		ka, _, oka := a.Next()
		kb, _, okb := b.Next()
		if oka != okb {
			return false
		}
		if !oka {
			return true
		}
		if !bytes.Equal(ka, kb) {
			return false
		}
	}
}

// IsSubsetOf reports whether every key in s is also in other.
func (s *Set) IsSubsetOf(other *Set) bool {
	a, b := s.Iter(), other.Iter()
	ka, oka := nextOrNil(a)
	kb, okb := nextOrNil(b)
	for oka {
		if !okb {
			return false
		}
		c := bytes.Compare(ka, kb)
		switch {
		case c == 0:
			ka, oka = nextOrNil(a)
			kb, okb = nextOrNil(b)
		case c > 0:
			kb, okb = nextOrNil(b)
		default:
			return false
		}
	}
	return true
}

// IsProperSubsetOf reports whether s is a subset of other and other has
// at least one key that s does not.
func (s *Set) IsProperSubsetOf(other *Set) bool {
	return s.Len() < other.Len() && s.IsSubsetOf(other)
}

// IsSupersetOf reports whether every key in other is also in s.
func (s *Set) IsSupersetOf(other *Set) bool { return other.IsSubsetOf(s) }

// IsProperSupersetOf reports whether s is a superset of other and s has
// at least one key that other does not.
func (s *Set) IsProperSupersetOf(other *Set) bool { return other.IsProperSubsetOf(s) }

// IsDisjointFrom reports whether s and other share no keys.
func (s *Set) IsDisjointFrom(other *Set) bool {
	a, b := s.Iter(), other.Iter()
	ka, oka := nextOrNil(a)
	kb, okb := nextOrNil(b)
	for oka && okb {
		c := bytes.Compare(ka, kb)
		switch {
		case c == 0:
			return false
		case c < 0:
			ka, oka = nextOrNil(a)
		default:
			kb, okb = nextOrNil(b)
		}
	}
	return true
}

func nextOrNil(s *Stream) ([]byte, bool) {
	k, _, ok := s.Next()
	return k, ok
}

// SetBuilderOpen starts a set build writing to a file at path, creating
// or truncating it.
func SetBuilderOpen(ctx context.Context, path string, opts ...BuildOption) (*SetBuilder, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := NewSetBuilder(ctx, NewFileSink(f), opts...)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, nil, err
	}
	return b, f, nil
}
