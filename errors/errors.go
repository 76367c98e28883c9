// Package errors defines all exported error sentinels for the fst library.
//
// This is the single source of truth for error values. The top-level fst
// package returns these sentinels (possibly wrapped), so errors.Is checks
// against them work from any importing package.
package errors

import "errors"

// Order and value errors: the builder received input that violates the
// strictly-increasing-key or in-range-value contract.
var (
	ErrOrder = errors.New("fst: key is not strictly greater than the previous key")
	ErrValue = errors.New("fst: value is out of range for a map")
)

// Format errors: the reader rejected an image.
var (
	ErrInvalidMagic    = errors.New("fst: invalid magic number")
	ErrInvalidVersion  = errors.New("fst: unsupported format version")
	ErrInvalidKind     = errors.New("fst: image kind does not match the requested container")
	ErrTruncated       = errors.New("fst: image is truncated")
	ErrCorrupt         = errors.New("fst: image data is corrupted")
	ErrChecksumFailed  = errors.New("fst: body checksum verification failed")
	ErrRootOutOfBounds = errors.New("fst: root offset does not point inside the body")
)

// Query errors.
var (
	ErrKeyMissing = errors.New("fst: key not found")
)

// Usage errors: the caller invoked an operation against the builder's or
// container's contract rather than against bad data.
var (
	ErrBuilderFinished  = errors.New("fst: builder is already finished")
	ErrReaderClosed     = errors.New("fst: reader is closed")
	ErrKindMismatch     = errors.New("fst: operand has the wrong container kind (set vs. map)")
	ErrNoInputs         = errors.New("fst: set-algebra builder requires at least one input")
	ErrUnknownAlgorithm = errors.New("fst: unknown checksum algorithm")
)
