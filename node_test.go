package fst

import "testing"

func TestEncodeDecodeStateRoundTrip(t *testing.T) {
	cases := []struct {
		name        string
		final       bool
		finalOutput uint64
		transitions []transition
		isMap       bool
	}{
		{"empty-final-set", true, 0, nil, false},
		{"empty-final-map", true, 42, nil, true},
		{"chain-set", false, 0, []transition{{Byte: 'a', Target: 0}}, false},
		{"chain-map", false, 0, []transition{{Byte: 'a', Output: 7, Target: 0}}, true},
		{"small-set", true, 0, []transition{
			{Byte: 'a', Target: 5},
			{Byte: 'b', Target: 3},
			{Byte: 'z', Target: 1},
		}, false},
		{"small-map", false, 0, []transition{
			{Byte: 'a', Output: 1, Target: 5},
			{Byte: 'b', Output: 2, Target: 3},
			{Byte: 'z', Output: 100, Target: 1},
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			selfOffset := uint64(200)
			buf := encodeState(selfOffset, tc.final, tc.finalOutput, tc.transitions, tc.isMap)
			got, n := decodeState(buf, selfOffset, tc.isMap)
			if n != len(buf) {
				t.Fatalf("decode consumed %d bytes, encode produced %d", n, len(buf))
			}
			if got.Final != tc.final {
				t.Fatalf("Final = %v, want %v", got.Final, tc.final)
			}
			if tc.isMap && got.FinalOutput != tc.finalOutput {
				t.Fatalf("FinalOutput = %d, want %d", got.FinalOutput, tc.finalOutput)
			}
			if len(got.Transitions) != len(tc.transitions) {
				t.Fatalf("got %d transitions, want %d", len(got.Transitions), len(tc.transitions))
			}
			for i, tr := range tc.transitions {
				if got.Transitions[i].Byte != tr.Byte || got.Transitions[i].Target != tr.Target {
					t.Fatalf("transition %d = %+v, want %+v", i, got.Transitions[i], tr)
				}
				if tc.isMap && got.Transitions[i].Output != tr.Output {
					t.Fatalf("transition %d output = %d, want %d", i, got.Transitions[i].Output, tr.Output)
				}
			}
		})
	}
}

func TestEncodeDecodeStateDense(t *testing.T) {
	selfOffset := uint64(1000)
	var transitions []transition
	for b := 0; b < 32; b++ {
		transitions = append(transitions, transition{Byte: byte(b * 7), Output: uint64(b), Target: uint64(b)})
	}
	buf := encodeState(selfOffset, false, 0, transitions, true)
	got, n := decodeState(buf, selfOffset, true)
	if n != len(buf) {
		t.Fatalf("decode consumed %d, want %d", n, len(buf))
	}
	if len(got.Transitions) != len(transitions) {
		t.Fatalf("got %d transitions, want %d", len(got.Transitions), len(transitions))
	}
	for i, tr := range transitions {
		if got.Transitions[i] != tr {
			t.Fatalf("transition %d = %+v, want %+v", i, got.Transitions[i], tr)
		}
	}

	for _, tr := range transitions {
		got, ok := denseLookup(buf, selfOffset, true, false, tr.Byte)
		if !ok {
			t.Fatalf("denseLookup missed byte %d", tr.Byte)
		}
		if got != tr {
			t.Fatalf("denseLookup(%d) = %+v, want %+v", tr.Byte, got, tr)
		}
	}
	if _, ok := denseLookup(buf, selfOffset, true, false, 1); ok {
		t.Fatalf("denseLookup found byte 1, which was never set")
	}
}

func TestPackKindFor(t *testing.T) {
	cases := []struct {
		n    int
		want packKind
	}{
		{0, packEmptyFinal},
		{1, packChain},
		{2, packSmall},
		{15, packSmall},
		{16, packDense},
		{256, packDense},
	}
	for _, tc := range cases {
		if got := packKindFor(tc.n); got != tc.want {
			t.Errorf("packKindFor(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}
