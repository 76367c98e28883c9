package fst

import "bytes"

// anyAutomaton is the automaton interface erased to an `any` state type, so
// Stream (and everything built on it — Range, StartsWith, Subsequence,
// the set-algebra merge) can be a single concrete type instead of being
// generic over every caller's automaton state type. Automaton[T] stays
// generic and type-safe for callers composing automata; erase adapts one
// into the internal engine at the boundary.
type anyAutomaton interface {
	start() any
	accept(state any, b byte) any
	isMatch(state any) bool
	canMatch(state any) bool
}

type erasedAutomaton[T any] struct{ a Automaton[T] }

func (e erasedAutomaton[T]) start() any              { return e.a.Start() }
func (e erasedAutomaton[T]) accept(s any, b byte) any { return e.a.Accept(s.(T), b) }
func (e erasedAutomaton[T]) isMatch(s any) bool       { return e.a.IsMatch(s.(T)) }
func (e erasedAutomaton[T]) canMatch(s any) bool      { return e.a.CanMatch(s.(T)) }

func erase[T any](a Automaton[T]) anyAutomaton { return erasedAutomaton[T]{a: a} }

// RangeOption configures a Stream's bounds, following the functional-option
// pattern used for BuildOption (builder.go).
type RangeOption func(*rangeConfig)

type rangeConfig struct {
	hasLower, lowerIncl bool
	lower               []byte
	hasUpper, upperIncl bool
	upper               []byte
}

// GE bounds the stream to keys greater than or equal to key.
func GE(key []byte) RangeOption {
	return func(c *rangeConfig) { c.hasLower, c.lowerIncl, c.lower = true, true, key }
}

// GT bounds the stream to keys strictly greater than key.
func GT(key []byte) RangeOption {
	return func(c *rangeConfig) { c.hasLower, c.lowerIncl, c.lower = true, false, key }
}

// LE bounds the stream to keys less than or equal to key.
func LE(key []byte) RangeOption {
	return func(c *rangeConfig) { c.hasUpper, c.upperIncl, c.upper = true, true, key }
}

// LT bounds the stream to keys strictly less than key.
func LT(key []byte) RangeOption {
	return func(c *rangeConfig) { c.hasUpper, c.upperIncl, c.upper = true, false, key }
}

// frame is one entry of the stream's explicit depth-first traversal
// stack: the state's decoded transitions, a cursor into them, the
// running output accumulator, and the automaton state on entry to this
// state. keyLen records the stream's shared key buffer length when this
// frame was entered so Next can truncate back to it on pop without a
// second buffer.
type frame struct {
	state    decodedState
	cursor   int // -1: final/IsMatch not yet checked; else next transition index
	acc      uint64
	autoSt   any
	keyLen   int
}

// Stream yields (key, value) pairs from a Reader in strict ascending
// lexicographic order, honoring an automaton and optional bounds. Each
// Next call does bounded work proportional to at most one key's length
// plus automaton steps — pull-driven, never buffering the whole result.
type Stream struct {
	r      *Reader
	auto   anyAutomaton
	cfg    rangeConfig
	stack  []frame
	keyBuf []byte
	done   bool
}

// Search builds a Stream over r driven by automaton a and the given range
// bounds. With no options, it walks every key in the image; a nil a
// defaults to Always().
func (r *Reader) Search(a anyAutomaton, opts ...RangeOption) *Stream {
	if a == nil {
		a = erase(Always())
	}
	var cfg rangeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hasLower && cfg.hasUpper {
		// no-op: GE/GT and LE/LT are independent axes: specifying both
		// ge and gt (or le and lt) is done by the caller passing the
		// stricter one last, since RangeOption application is just
		// config assignment in order — the last call for a given axis
		// wins: if a caller passes both GE and GT (or both LE and LT),
		// whichever option runs last for that axis decides.
	}
	s := &Stream{r: r, auto: a, cfg: cfg}
	s.seek()
	return s
}

// SearchAutomaton is the generic entry point for callers composing
// Automaton[T] values directly (Always/Never/Str/Subsequence and their
// combinators); it erases T at the boundary and delegates to Search.
func SearchAutomaton[T any](r *Reader, a Automaton[T], opts ...RangeOption) *Stream {
	return r.Search(erase(a), opts...)
}

// seek positions the traversal stack at the first key satisfying the
// lower bound: descend from the root choosing, at each depth, the
// smallest transition byte >= the bound's next byte. Equal bytes continue
// the descent; a strictly greater byte
// ends the seek (everything from here on is already > the bound); no
// qualifying byte leaves the parent frame exhausted at that position, so
// ordinary pop-and-advance takes over on the first Next call.
func (s *Stream) seek() {
	if len(s.r.body) == 0 {
		s.done = true
		return
	}
	root := s.r.rootOffset()
	state := s.r.decodeAt(root)
	autoSt := s.auto.start()
	acc := uint64(0)
	depth := 0

	if !s.cfg.hasLower {
		s.stack = append(s.stack, frame{state: state, cursor: -1, acc: acc, autoSt: autoSt, keyLen: 0})
		return
	}
	bound := s.cfg.lower

	for depth < len(bound) {
		b := bound[depth]
		idx := lowerBoundTransition(state.Transitions, b)
		if idx >= len(state.Transitions) {
			// Nothing at this depth reaches >= b: leave this frame
			// exhausted; ordinary traversal will pop and try the
			// parent's next sibling, which is already >= the bound.
			s.stack = append(s.stack, frame{state: state, cursor: len(state.Transitions), acc: acc, autoSt: autoSt, keyLen: depth})
			return
		}
		t := state.Transitions[idx]
		nextAuto := s.auto.accept(autoSt, t.Byte)

		s.keyBuf = append(s.keyBuf[:depth], t.Byte)

		if t.Byte > b {
			// Seek is done: this whole subtree is already > the lower
			// bound. It may still exceed the upper bound, though — that
			// isn't checked here, since Next's cursor == -1 branch applies
			// exceedsUpper to every yield regardless of how the frame was
			// pushed.
			s.stack = append(s.stack, frame{state: state, cursor: idx + 1, acc: acc, autoSt: autoSt, keyLen: depth})
			childState := s.r.decodeAt(t.Target)
			s.stack = append(s.stack, frame{state: childState, cursor: -1, acc: acc + t.Output, autoSt: nextAuto, keyLen: depth + 1})
			return
		}

		// t.Byte == b: continue the equal path.
		s.stack = append(s.stack, frame{state: state, cursor: idx + 1, acc: acc, autoSt: autoSt, keyLen: depth})
		state = s.r.decodeAt(t.Target)
		acc += t.Output
		autoSt = nextAuto
		depth++
	}

	// Exact prefix match through the whole bound. If the bound is
	// exclusive, skip this frame's own final/IsMatch check (cursor 0
	// instead of -1) but still descend into its children, which are all
	// strictly greater than the bound.
	cursor := -1
	if !s.cfg.lowerIncl {
		cursor = 0
	}
	s.stack = append(s.stack, frame{state: state, cursor: cursor, acc: acc, autoSt: autoSt, keyLen: depth})
}

// lowerBoundTransition returns the index of the first transition with
// Byte >= b (transitions are sorted ascending), or len(transitions).
func lowerBoundTransition(transitions []transition, b byte) int {
	lo, hi := 0, len(transitions)
	for lo < hi {
		mid := (lo + hi) / 2
		if transitions[mid].Byte < b {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (s *Stream) exceedsUpper(candidate []byte) bool {
	if !s.cfg.hasUpper {
		return false
	}
	cmp := bytes.Compare(candidate, s.cfg.upper)
	if s.cfg.upperIncl {
		return cmp > 0
	}
	return cmp >= 0
}

// Next advances the stream and returns the next key and its value (0 and
// unused for sets) in ascending order, or ok == false once exhausted.
func (s *Stream) Next() (key []byte, value uint64, ok bool) {
	if s.done {
		return nil, 0, false
	}
	for len(s.stack) > 0 {
		top := &s.stack[len(s.stack)-1]

		if top.cursor == -1 {
			top.cursor = 0
			if top.state.Final && s.auto.isMatch(top.autoSt) && !s.exceedsUpper(s.keyBuf[:top.keyLen]) {
				out := append([]byte(nil), s.keyBuf[:top.keyLen]...)
				val := top.acc
				if s.r.isMap() {
					val += top.state.FinalOutput
				}
				return out, val, true
			}
			continue
		}

		if top.cursor >= len(top.state.Transitions) {
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}

		t := top.state.Transitions[top.cursor]
		top.cursor++

		nextAuto := s.auto.accept(top.autoSt, t.Byte)
		if !s.auto.canMatch(nextAuto) {
			continue
		}

		newLen := top.keyLen + 1
		s.keyBuf = append(s.keyBuf[:top.keyLen], t.Byte)
		if s.exceedsUpper(s.keyBuf[:newLen]) {
			continue
		}

		childState := s.r.decodeAt(t.Target)
		s.stack = append(s.stack, frame{
			state:  childState,
			cursor: -1,
			acc:    top.acc + t.Output,
			autoSt: nextAuto,
			keyLen: newLen,
		})
	}
	s.done = true
	return nil, 0, false
}
