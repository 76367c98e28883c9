package fst

import "testing"

func runAutomaton[T any](a Automaton[T], s []byte) bool {
	st := a.Start()
	for _, b := range s {
		if !a.CanMatch(st) {
			return false
		}
		st = a.Accept(st, b)
	}
	return a.IsMatch(st)
}

func TestAlwaysNever(t *testing.T) {
	if !runAutomaton[struct{}](Always(), []byte("anything")) {
		t.Fatal("Always should match anything")
	}
	if !runAutomaton[struct{}](Always(), nil) {
		t.Fatal("Always should match empty")
	}
	if runAutomaton[struct{}](Never(), []byte("anything")) {
		t.Fatal("Never should match nothing")
	}
}

func TestStr(t *testing.T) {
	a := Str([]byte("cat"))
	cases := []struct {
		in   string
		want bool
	}{
		{"cat", true},
		{"ca", false},
		{"cats", false},
		{"dog", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := runAutomaton(a, []byte(tc.in)); got != tc.want {
			t.Errorf("Str(cat).match(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSubsequence(t *testing.T) {
	a := Subsequence([]byte("ace"))
	cases := []struct {
		in   string
		want bool
	}{
		{"abcde", true},
		{"ace", true},
		{"aabbccddee", true},
		{"abd", false},
		{"ec", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := runAutomaton(a, []byte(tc.in)); got != tc.want {
			t.Errorf("Subsequence(ace).match(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStartsWith(t *testing.T) {
	a := StartsWith(Str([]byte("foo")))
	cases := []struct {
		in   string
		want bool
	}{
		{"foo", true},
		{"foobar", true},
		{"foobarbaz", true},
		{"fo", false},
		{"bar", false},
	}
	for _, tc := range cases {
		if got := runAutomaton(a, []byte(tc.in)); got != tc.want {
			t.Errorf("StartsWith(foo).match(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestComplement(t *testing.T) {
	a := Complement(Str([]byte("cat")))
	if runAutomaton(a, []byte("cat")) {
		t.Fatal("complement of Str(cat) should reject cat")
	}
	if !runAutomaton(a, []byte("dog")) {
		t.Fatal("complement of Str(cat) should accept dog")
	}
}

func TestUnionIntersection(t *testing.T) {
	u := Union(Str([]byte("cat")), Str([]byte("dog")))
	for _, s := range []string{"cat", "dog"} {
		if !runAutomaton(u, []byte(s)) {
			t.Errorf("Union(cat,dog) should match %q", s)
		}
	}
	if runAutomaton(u, []byte("bird")) {
		t.Error("Union(cat,dog) should not match bird")
	}

	i := Intersection(StartsWith(Str([]byte("ca"))), Str([]byte("cat")))
	if !runAutomaton(i, []byte("cat")) {
		t.Error("Intersection should match cat")
	}
	if runAutomaton(i, []byte("car")) {
		t.Error("Intersection should not match car (Str(cat) fails)")
	}
}

func TestStartsWithCanMatchPruning(t *testing.T) {
	a := StartsWith(Str([]byte("ab")))
	st := a.Start()
	if !a.CanMatch(st) {
		t.Fatal("initial state must allow matching")
	}
	st = a.Accept(st, 'x')
	if a.CanMatch(st) {
		t.Fatal("after a mismatching byte, Str's CanMatch should be false and not sticky yet")
	}
}
