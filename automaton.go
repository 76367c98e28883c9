package fst

// Automaton is an abstract recognizer over byte sequences. States are
// values, not graph nodes — Start/Accept/IsMatch/CanMatch all take and
// return plain state values, so composing automata never builds a shared
// mutable graph (mirroring the Rust fst crate's tagged-variant
// composition).
//
// T is the concrete state type for this automaton. State is cheap to copy
// (an int, a small struct, or a pair of child states); traversal copies it
// as it descends and discards it on backtrack.
type Automaton[T any] interface {
	// Start returns the initial state.
	Start() T
	// Accept returns the state reached by consuming one byte from state.
	Accept(state T, b byte) T
	// IsMatch reports whether state is an accepting state.
	IsMatch(state T) bool
	// CanMatch is a conservative "is any extension still possible?" hint
	// used to prune entire subtrees during traversal. False here must mean
	// no extension of the current path can ever match; true may
	// overapproximate.
	CanMatch(state T) bool
}

// alwaysMatch accepts every byte sequence. Its state type is struct{} since
// there is nothing to track.
type alwaysMatch struct{}

func (alwaysMatch) Start() struct{}                        { return struct{}{} }
func (alwaysMatch) Accept(struct{}, byte) struct{}          { return struct{}{} }
func (alwaysMatch) IsMatch(struct{}) bool                   { return true }
func (alwaysMatch) CanMatch(struct{}) bool                  { return true }

// Always returns an automaton that matches every byte sequence.
func Always() Automaton[struct{}] { return alwaysMatch{} }

// neverMatch rejects every byte sequence and prunes unconditionally.
type neverMatch struct{}

func (neverMatch) Start() struct{}               { return struct{}{} }
func (neverMatch) Accept(struct{}, byte) struct{} { return struct{}{} }
func (neverMatch) IsMatch(struct{}) bool          { return false }
func (neverMatch) CanMatch(struct{}) bool         { return false }

// Never returns an automaton that matches no byte sequence.
func Never() Automaton[struct{}] { return neverMatch{} }

// strState is the state of a Str automaton: -1 means a mismatch already
// occurred (a permanent sink), otherwise the number of bytes of the target
// matched so far.
type strState int

// strAutomaton matches exactly one literal byte string.
type strAutomaton struct {
	target []byte
}

// Str returns an automaton that matches exactly the byte string s.
func Str(s []byte) Automaton[strState] {
	return strAutomaton{target: append([]byte(nil), s...)}
}

func (a strAutomaton) Start() strState { return 0 }

func (a strAutomaton) Accept(state strState, b byte) strState {
	if state < 0 || int(state) >= len(a.target) || a.target[state] != b {
		return -1
	}
	return state + 1
}

func (a strAutomaton) IsMatch(state strState) bool {
	return int(state) == len(a.target)
}

func (a strAutomaton) CanMatch(state strState) bool {
	return state >= 0
}

// subsequenceAutomaton matches any byte string that contains target as a
// (not necessarily contiguous) subsequence: it never rejects a byte, it
// only advances its index when the current byte matches the next needed
// byte of target.
type subsequenceAutomaton struct {
	target []byte
}

// Subsequence returns an automaton that matches any byte string containing
// s as a subsequence.
func Subsequence(s []byte) Automaton[int] {
	return subsequenceAutomaton{target: append([]byte(nil), s...)}
}

func (a subsequenceAutomaton) Start() int { return 0 }

func (a subsequenceAutomaton) Accept(state int, b byte) int {
	if state < len(a.target) && a.target[state] == b {
		return state + 1
	}
	return state
}

func (a subsequenceAutomaton) IsMatch(state int) bool {
	return state == len(a.target)
}

func (subsequenceAutomaton) CanMatch(int) bool { return true }

// startsWithState latches permanently once the wrapped automaton matches.
type startsWithState[T any] struct {
	inner  T
	sticky bool
}

// startsWithAutomaton wraps a, becoming permanently accepting the first
// time a reports a match.
type startsWithAutomaton[T any] struct {
	inner Automaton[T]
}

// StartsWith returns an automaton matching any byte string with a prefix
// that a matches.
func StartsWith[T any](a Automaton[T]) Automaton[startsWithState[T]] {
	return startsWithAutomaton[T]{inner: a}
}

func (c startsWithAutomaton[T]) Start() startsWithState[T] {
	s := c.inner.Start()
	return startsWithState[T]{inner: s, sticky: c.inner.IsMatch(s)}
}

func (c startsWithAutomaton[T]) Accept(state startsWithState[T], b byte) startsWithState[T] {
	if state.sticky {
		return state
	}
	next := c.inner.Accept(state.inner, b)
	return startsWithState[T]{inner: next, sticky: c.inner.IsMatch(next)}
}

func (c startsWithAutomaton[T]) IsMatch(state startsWithState[T]) bool {
	return state.sticky
}

func (c startsWithAutomaton[T]) CanMatch(state startsWithState[T]) bool {
	return state.sticky || c.inner.CanMatch(state.inner)
}

// complementAutomaton negates IsMatch. CanMatch is unconditionally true:
// a path the wrapped automaton currently prunes may still need to be
// walked, since its complement could start matching deeper in.
type complementAutomaton[T any] struct {
	inner Automaton[T]
}

// Complement returns an automaton matching exactly the byte strings a does
// not match.
func Complement[T any](a Automaton[T]) Automaton[T] {
	return complementAutomaton[T]{inner: a}
}

func (c complementAutomaton[T]) Start() T                    { return c.inner.Start() }
func (c complementAutomaton[T]) Accept(state T, b byte) T     { return c.inner.Accept(state, b) }
func (c complementAutomaton[T]) IsMatch(state T) bool         { return !c.inner.IsMatch(state) }
func (c complementAutomaton[T]) CanMatch(T) bool              { return true }

// pairState is the product state used by Union and Intersection.
type pairState[A, B any] struct {
	A A
	B B
}

type unionAutomaton[A, B any] struct {
	a Automaton[A]
	b Automaton[B]
}

// Union returns an automaton matching a byte string if either a or b
// matches it.
func Union[A, B any](a Automaton[A], b Automaton[B]) Automaton[pairState[A, B]] {
	return unionAutomaton[A, B]{a: a, b: b}
}

func (u unionAutomaton[A, B]) Start() pairState[A, B] {
	return pairState[A, B]{A: u.a.Start(), B: u.b.Start()}
}

func (u unionAutomaton[A, B]) Accept(state pairState[A, B], byt byte) pairState[A, B] {
	return pairState[A, B]{A: u.a.Accept(state.A, byt), B: u.b.Accept(state.B, byt)}
}

func (u unionAutomaton[A, B]) IsMatch(state pairState[A, B]) bool {
	return u.a.IsMatch(state.A) || u.b.IsMatch(state.B)
}

func (u unionAutomaton[A, B]) CanMatch(state pairState[A, B]) bool {
	return u.a.CanMatch(state.A) || u.b.CanMatch(state.B)
}

type intersectionAutomaton[A, B any] struct {
	a Automaton[A]
	b Automaton[B]
}

// Intersection returns an automaton matching a byte string only if both a
// and b match it.
func Intersection[A, B any](a Automaton[A], b Automaton[B]) Automaton[pairState[A, B]] {
	return intersectionAutomaton[A, B]{a: a, b: b}
}

func (i intersectionAutomaton[A, B]) Start() pairState[A, B] {
	return pairState[A, B]{A: i.a.Start(), B: i.b.Start()}
}

func (i intersectionAutomaton[A, B]) Accept(state pairState[A, B], byt byte) pairState[A, B] {
	return pairState[A, B]{A: i.a.Accept(state.A, byt), B: i.b.Accept(state.B, byt)}
}

func (i intersectionAutomaton[A, B]) IsMatch(state pairState[A, B]) bool {
	return i.a.IsMatch(state.A) && i.b.IsMatch(state.B)
}

func (i intersectionAutomaton[A, B]) CanMatch(state pairState[A, B]) bool {
	return i.a.CanMatch(state.A) && i.b.CanMatch(state.B)
}
