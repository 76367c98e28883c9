package fst

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	"github.com/spaolacci/murmur3"

	fsterr "github.com/jfolz/fst/errors"
)

// Reader parses an FST image and answers queries against it without ever
// decompressing the structure into RAM. It borrows its backing byte
// region for its entire lifetime; the caller guarantees that region
// outlives the Reader and every Stream derived from it.
//
// Thread safety follows the teacher's Index type (index.go): concurrent
// queries are safe, Close is not safe to call concurrently with queries,
// and Close must only be called once all queries have completed.
type Reader struct {
	mm   mmap.MMap // nil when opened via OpenBytes
	data []byte

	header  *header
	body    []byte // data[headerSize : len(data)-trailerSize]
	trailer *trailer

	closed atomic.Bool
}

// Open opens path, memory-maps it read-only, and parses the image.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fst: open image: %w", err)
	}
	defer f.Close()
	return OpenFile(f)
}

// OpenFile memory-maps an already-open file. Per POSIX mmap(2), f may be
// closed immediately after OpenFile returns; the mapping remains valid.
func OpenFile(f *os.File) (*Reader, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("fst: stat image: %w", err)
	}
	if stat.Size() < headerSize+trailerSize {
		return nil, fsterr.ErrTruncated
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("fst: mmap image: %w", err)
	}

	r := &Reader{mm: mm, data: []byte(mm)}
	if err := r.init(); err != nil {
		return nil, errors.Join(err, r.Close())
	}
	return r, nil
}

// OpenBytes wraps a caller-owned, contiguous, read-only byte region (a
// heap buffer, a caller-provided slice, or an already-mapped region the
// caller manages itself) without mapping anything new. Close is a no-op.
// The caller must not mutate data while the Reader or any Stream derived
// from it is in use.
func OpenBytes(data []byte) (*Reader, error) {
	if len(data) < headerSize+trailerSize {
		return nil, fsterr.ErrTruncated
	}
	r := &Reader{data: data}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) init() error {
	h, err := decodeHeader(r.data[:headerSize])
	if err != nil {
		return err
	}
	r.header = h

	tr, err := decodeTrailer(r.data[len(r.data)-trailerSize:])
	if err != nil {
		return err
	}
	r.trailer = tr

	r.body = r.data[headerSize : len(r.data)-trailerSize]

	if len(r.body) == 0 {
		return fsterr.ErrRootOutOfBounds
	}
	if tr.RootOffset >= uint64(len(r.body)) {
		return fsterr.ErrRootOutOfBounds
	}

	return nil
}

// Close releases the underlying mapping, if any. Safe to call once; a
// second call is a no-op.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.mm != nil {
		return r.mm.Unmap()
	}
	return nil
}

// Kind reports whether this image is a set or a map.
func (r *Reader) Kind() Kind { return r.header.Kind }

// Len returns the number of keys stored in the image.
func (r *Reader) Len() int { return int(r.trailer.KeyCount) }

// isMap reports whether this reader decodes output-deltas.
func (r *Reader) isMap() bool { return r.header.Kind == KindMap }

// rootOffset returns the body-relative offset of the root state.
func (r *Reader) rootOffset() uint64 { return r.trailer.RootOffset }

// decodeAt decodes the state at the given body-relative offset.
func (r *Reader) decodeAt(offset uint64) decodedState {
	s, _ := decodeState(r.body[offset:], offset, r.isMap())
	return s
}

// lookupTransition finds the transition on byte b out of the state at
// offset, without fully materializing states packed as packDense: binary
// search for small states, direct bitmap+offset lookup for dense ones.
func (r *Reader) lookupTransition(offset uint64, b byte) (transition, bool) {
	data := r.body[offset:]
	tag := data[0]
	kind := packKind(tag & tagPackMask)
	final := tag&tagFinalBit != 0

	if kind == packDense {
		return denseLookup(data, offset, r.isMap(), final, b)
	}

	s, _ := decodeState(data, offset, r.isMap())
	return s.transitionFor(b)
}

// finalAt reports whether the state at offset is an accepting state,
// and if so its final output contribution.
func (r *Reader) finalAt(offset uint64) (bool, uint64) {
	data := r.body[offset:]
	tag := data[0]
	final := tag&tagFinalBit != 0
	if !final || !r.isMap() {
		return final, 0
	}
	v, _ := binary.Uvarint(data[1:])
	return true, v
}

// Contains reports whether key is present in the image. Set and Map keep
// this on distinct public types; Reader exposes it directly since
// presence alone never depends on Kind.
func (r *Reader) Contains(key []byte) bool {
	_, ok := r.lookup(key)
	return ok
}

// Get walks from the root consuming one key byte per transition,
// accumulating output-deltas; a miss at any byte, or a non-final state
// after the last byte, is a miss.
func (r *Reader) Get(key []byte) (uint64, bool) {
	return r.lookup(key)
}

func (r *Reader) lookup(key []byte) (uint64, bool) {
	if len(r.body) == 0 {
		return 0, false
	}
	offset := r.rootOffset()
	var acc uint64
	for _, b := range key {
		t, ok := r.lookupTransition(offset, b)
		if !ok {
			return 0, false
		}
		acc += t.Output
		offset = t.Target
	}
	final, finalOutput := r.finalAt(offset)
	if !final {
		return 0, false
	}
	return acc + finalOutput, true
}

// Verify recomputes the body checksum and compares it against the
// trailer, following the teacher's Verify() pattern (index.go): Open only
// validates the header/trailer/root bounds; Verify is a separate,
// optional, full-body pass for callers that want end-to-end corruption
// detection without paying for it on every Open.
func (r *Reader) Verify() error {
	if r.closed.Load() {
		return fsterr.ErrReaderClosed
	}
	var got uint64
	switch r.header.Checksum {
	case ChecksumXXHash64:
		got = xxhash.Sum64(r.body)
	case ChecksumMurmur3:
		got = murmur3.Sum64(r.body)
	default:
		return fsterr.ErrUnknownAlgorithm
	}
	if got != r.trailer.Checksum {
		return fsterr.ErrChecksumFailed
	}
	return nil
}
