package fst

import (
	"encoding/binary"

	fsterr "github.com/jfolz/fst/errors"
)

// Kind identifies whether an image stores a set of keys or a map from keys
// to uint64 values.
type Kind uint8

const (
	// KindSet is a set of byte-string keys; transitions carry no output.
	KindSet Kind = 0
	// KindMap is a map from byte-string keys to uint64 values; transitions
	// carry an output-delta that accumulates along the accepting path.
	KindMap Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// ChecksumAlgorithm selects the hash used for the trailer's body checksum.
// The default, xxhash64, is what the builder writes unless overridden with
// WithChecksumAlgorithm; murmur3 is carried for reading images produced by
// tooling that standardized on it before xxhash64.
type ChecksumAlgorithm uint8

const (
	ChecksumXXHash64 ChecksumAlgorithm = 0
	ChecksumMurmur3  ChecksumAlgorithm = 1
)

const (
	// magic identifies an fst image. "FSTX" in little-endian.
	magic = uint32(0x58545346)

	// version is the only format version this package produces or reads.
	version = uint8(1)

	// headerSize is the exact size of the serialized header.
	headerSize = 8

	// trailerSize is the exact size of the serialized trailer.
	trailerSize = 29
)

// header is the 8-byte file header. It carries only what must be known
// before the first byte of the body is written, since the builder streams
// the body to its sink as states compile and never seeks backward.
//
// Layout:
//
//	Offset  Size  Field      Type
//	0       4     Magic      0x58545346 ("FSTX"), little-endian
//	4       1     Version    uint8
//	5       1     Kind       uint8 (0 = set, 1 = map)
//	6       1     Checksum   uint8 (0 = xxhash64, 1 = murmur3)
//	7       1     Reserved   byte (zero)
type header struct {
	Magic    uint32
	Version  uint8
	Kind     Kind
	Checksum ChecksumAlgorithm
}

func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = byte(h.Kind)
	buf[6] = byte(h.Checksum)
	buf[7] = 0
}

func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, fsterr.ErrTruncated
	}
	h := &header{
		Magic:    binary.LittleEndian.Uint32(buf[0:4]),
		Version:  buf[4],
		Kind:     Kind(buf[5]),
		Checksum: ChecksumAlgorithm(buf[6]),
	}
	if h.Magic != magic {
		return nil, fsterr.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, fsterr.ErrInvalidVersion
	}
	if h.Kind != KindSet && h.Kind != KindMap {
		return nil, fsterr.ErrCorrupt
	}
	if h.Checksum != ChecksumXXHash64 && h.Checksum != ChecksumMurmur3 {
		return nil, fsterr.ErrCorrupt
	}
	return h, nil
}

// trailer is the 29-byte file trailer, written last once the body is
// complete so the builder never needs to seek backward while streaming to
// a file-like sink. KeyCount lives here rather than in the header because
// a streaming builder only knows the final count once Finish runs.
//
// Layout:
//
//	Offset  Size  Field       Type
//	0       8     RootOffset  uint64, little-endian, offset from the start of the body (not of the image)
//	8       8     Checksum    uint64, little-endian, body hash per header.Checksum
//	16      8     KeyCount    uint64, little-endian
//	24      4     Magic       repeat of the header magic
//	28      1     Version     repeat of the header version
type trailer struct {
	RootOffset uint64
	Checksum   uint64
	KeyCount   uint64
}

func (t *trailer) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], t.RootOffset)
	binary.LittleEndian.PutUint64(buf[8:16], t.Checksum)
	binary.LittleEndian.PutUint64(buf[16:24], t.KeyCount)
	binary.LittleEndian.PutUint32(buf[24:28], magic)
	buf[28] = version
}

func decodeTrailer(buf []byte) (*trailer, error) {
	if len(buf) < trailerSize {
		return nil, fsterr.ErrTruncated
	}
	t := &trailer{
		RootOffset: binary.LittleEndian.Uint64(buf[0:8]),
		Checksum:   binary.LittleEndian.Uint64(buf[8:16]),
		KeyCount:   binary.LittleEndian.Uint64(buf[16:24]),
	}
	if binary.LittleEndian.Uint32(buf[24:28]) != magic {
		return nil, fsterr.ErrInvalidMagic
	}
	if buf[28] != version {
		return nil, fsterr.ErrInvalidVersion
	}
	return t, nil
}
