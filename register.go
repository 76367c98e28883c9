package fst

import "github.com/zeebo/xxh3"

// registerEntry is one already-compiled state kept alive in the register
// so later insertions can detect an identical state and reuse its offset
// instead of writing a duplicate copy (incremental minimization).
type registerEntry struct {
	offset      uint64
	final       bool
	finalOutput uint64
	transitions []transition
}

// register is the builder's content-addressed dedup table. Two compiled
// states are the same state, and can share one on-disk copy, exactly when
// their final flag, final output, and transitions (byte, output,
// absolute target offset) all match — target offsets, not deltas, are
// the identity here, since a child's compiled offset is fixed the moment
// it is written and never moves.
//
// Sized as a hash-bucket-with-collision-list, the same shape as the
// teacher's RAM index lookup, but keyed by a content fingerprint instead
// of a fixed hash-range slot: states are unboundedly many and variously
// shaped, unlike the teacher's fixed-stride blocks.
type register struct {
	buckets map[uint64][]registerEntry
}

func newRegister() *register {
	return &register{buckets: make(map[uint64][]registerEntry)}
}

// find returns the offset of an already-compiled state equal to the one
// described by final/finalOutput/transitions, if the register holds one.
func (r *register) find(final bool, finalOutput uint64, transitions []transition) (uint64, bool) {
	fp := fingerprint(final, finalOutput, transitions)
	for _, e := range r.buckets[fp] {
		if e.final == final && e.finalOutput == finalOutput && transitionsEqual(e.transitions, transitions) {
			return e.offset, true
		}
	}
	return 0, false
}

// insert records a newly compiled state at offset.
func (r *register) insert(offset uint64, final bool, finalOutput uint64, transitions []transition) {
	fp := fingerprint(final, finalOutput, transitions)
	r.buckets[fp] = append(r.buckets[fp], registerEntry{
		offset:      offset,
		final:       final,
		finalOutput: finalOutput,
		transitions: transitions,
	})
}

func transitionsEqual(a, b []transition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fingerprint hashes a state's logical content with xxh3, distinct from
// the xxhash64 used for the body/trailer checksum: this is a build-time
// in-memory dedup key, not a durable integrity check, so it uses whatever
// hash is fastest for many small inputs rather than the one written to
// disk.
func fingerprint(final bool, finalOutput uint64, transitions []transition) uint64 {
	var buf [9]byte
	if final {
		buf[0] = 1
	}
	putUint64(buf[1:9], finalOutput)
	h := xxh3.New()
	h.Write(buf[:])
	for _, t := range transitions {
		var tb [17]byte
		tb[0] = t.Byte
		putUint64(tb[1:9], t.Output)
		putUint64(tb[9:17], t.Target)
		h.Write(tb[:])
	}
	return h.Sum64()
}

func putUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}
