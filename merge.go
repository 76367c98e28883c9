package fst

import (
	"bytes"
	"container/heap"
	"context"
	"sort"

	fsterr "github.com/jfolz/fst/errors"
)

// Op selects the set-algebra operation a Merger performs over its inputs.
type Op int

const (
	// OpUnion keeps a key present in at least one input.
	OpUnion Op = iota
	// OpIntersection keeps a key present in every input.
	OpIntersection
	// OpDifference keeps a key present in the first input and absent
	// from every other input.
	OpDifference
	// OpSymmetricDifference keeps a key present in an odd number of
	// inputs — the natural N-way generalization of XOR.
	OpSymmetricDifference
)

// ConflictStrategy resolves the value to emit for a map merge when more
// than one input contributes a value for the same key. Unused for sets.
type ConflictStrategy int

const (
	// First keeps the value from the lowest-indexed contributing input.
	First ConflictStrategy = iota
	// Last keeps the value from the highest-indexed contributing input.
	Last
	// Min keeps the smallest contributing value.
	Min
	// Max keeps the largest contributing value.
	Max
	// Avg keeps the integer mean of the contributing values.
	Avg
	// Median keeps the sorted middle value; for an even count it keeps
	// the floor of the average of the two central values.
	Median
	// Mid keeps the sorted element at index count/2 (the same element
	// Median would pick for an odd count, a higher-of-pair pick for an
	// even one).
	Mid
)

// Merger drives a k-way streaming merge across a fixed set of readers,
// all of the same Kind, producing a new image via WriteTo. The merge
// itself never buffers more than one key's worth of contributors at a
// time regardless of how large the inputs are.
type Merger struct {
	readers  []*Reader
	op       Op
	strategy ConflictStrategy
	isMap    bool
}

// NewMerger validates inputs and returns a Merger ready to run op over
// them. At least one reader is required; mixing sets and maps is
// rejected once the readers are in hand, since that is the first point a
// kind mismatch can be observed.
func NewMerger(readers []*Reader, op Op, strategy ConflictStrategy) (*Merger, error) {
	if len(readers) == 0 {
		return nil, fsterr.ErrNoInputs
	}
	kind := readers[0].Kind()
	for _, r := range readers[1:] {
		if r.Kind() != kind {
			return nil, fsterr.ErrKindMismatch
		}
	}
	return &Merger{readers: readers, op: op, strategy: strategy, isMap: kind == KindMap}, nil
}

// cursor tracks one input's current position in the merge.
type cursor struct {
	stream *Stream
	key    []byte
	value  uint64
	idx    int
}

// cursorHeap orders cursors by key ascending, then by input index so ties
// resolve deterministically — the same shape as a k-way merge heap over
// per-input iterators, just ordered on raw bytes instead of versioned
// keys.
type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	c := bytes.Compare(h[i].key, h[j].key)
	if c != 0 {
		return c < 0
	}
	return h[i].idx < h[j].idx
}
func (h cursorHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)        { *h = append(*h, x.(*cursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// WriteTo runs the merge to completion, writing a new image to sink.
func (m *Merger) WriteTo(ctx context.Context, sink Sink, opts ...BuildOption) error {
	h := make(cursorHeap, 0, len(m.readers))
	for i, r := range m.readers {
		s := r.Search(erase(Always()))
		if k, v, ok := s.Next(); ok {
			h = append(h, &cursor{stream: s, key: k, value: v, idx: i})
		}
	}
	heap.Init(&h)

	var setBuilder *SetBuilder
	var mapBuilder *MapBuilder
	var err error
	if m.isMap {
		mapBuilder, err = NewMapBuilder(ctx, sink, opts...)
	} else {
		setBuilder, err = NewSetBuilder(ctx, sink, opts...)
	}
	if err != nil {
		return err
	}

	contributors := make([]int, 0, len(m.readers))
	values := make([]uint64, 0, len(m.readers))

	for h.Len() > 0 {
		key := append([]byte(nil), h[0].key...)
		contributors = contributors[:0]
		values = values[:0]

		for h.Len() > 0 && bytes.Equal(h[0].key, key) {
			top := heap.Pop(&h).(*cursor)
			contributors = append(contributors, top.idx)
			values = append(values, top.value)
			if k, v, ok := top.stream.Next(); ok {
				top.key, top.value = k, v
				heap.Push(&h, top)
			}
		}

		if !m.admits(contributors) {
			continue
		}

		if m.isMap {
			v := combine(values, m.strategy)
			if err := mapBuilder.Insert(key, v); err != nil {
				return err
			}
		} else {
			if err := setBuilder.Insert(key); err != nil {
				return err
			}
		}
	}

	if m.isMap {
		return mapBuilder.Finish()
	}
	return setBuilder.Finish()
}

// admits reports whether a key with exactly these contributing input
// indices survives m.op.
func (m *Merger) admits(contributors []int) bool {
	switch m.op {
	case OpUnion:
		return true
	case OpIntersection:
		return len(contributors) == len(m.readers)
	case OpDifference:
		if len(contributors) != 1 {
			return false
		}
		return contributors[0] == 0
	case OpSymmetricDifference:
		return len(contributors)%2 == 1
	default:
		return false
	}
}

// combine resolves the contributing values (in input-index order) to one
// output value per m.strategy.
func combine(values []uint64, strategy ConflictStrategy) uint64 {
	switch strategy {
	case First:
		return values[0]
	case Last:
		return values[len(values)-1]
	case Min:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case Max:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case Avg:
		var sum uint64
		for _, v := range values {
			sum += v
		}
		return sum / uint64(len(values))
	case Median:
		sorted := append([]uint64(nil), values...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	case Mid:
		sorted := append([]uint64(nil), values...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		return sorted[len(sorted)/2]
	default:
		return values[0]
	}
}
