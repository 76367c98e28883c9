package fst

import (
	"bytes"
	"context"
	"fmt"
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"

	fsterr "github.com/jfolz/fst/errors"
)

// contextCheckInterval mirrors the teacher's AddKey cadence for polling
// context cancellation: checking on every insert would dominate the cost
// of the insert itself for small keys.
const contextCheckInterval = 10000

// BuildOption configures a builder, following the teacher's
// builder_options.go functional-option pattern.
type BuildOption func(*buildConfig)

type buildConfig struct {
	checksum ChecksumAlgorithm
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{checksum: ChecksumXXHash64}
}

// WithChecksumAlgorithm selects the hash written to the trailer. The
// default is xxhash64; murmur3 is available for tooling that standardized
// on it.
func WithChecksumAlgorithm(a ChecksumAlgorithm) BuildOption {
	return func(c *buildConfig) { c.checksum = a }
}

// unfinishedNode is one frame of the builder's suffix stack: the state's
// already-compiled transitions, plus at most one still-open ("last")
// transition continuing down toward the key currently being inserted.
// Everything here is mutable in place until the node is compiled, which
// is what makes output-pushing to already-placed transitions possible.
type unfinishedNode struct {
	final       bool
	finalOutput uint64
	trans       []transition

	hasLast    bool
	lastByte   byte
	lastOutput uint64
}

// builderCore implements the streaming minimization algorithm shared by
// SetBuilder and MapBuilder: an unfinished-suffix stack, common-prefix
// output pushing, and compile-on-pop through a content-addressed register
// (register.go). isMap gates whether outputs are tracked and encoded at
// all; a SetBuilder always inserts with output zero.
type builderCore struct {
	ctx   context.Context
	sink  Sink
	isMap bool
	cfg   *buildConfig

	reg        *register
	unfinished []unfinishedNode
	bodyLen    uint64

	lastKey    []byte
	hasLastKey bool
	keyCount   uint64

	digest hash.Hash64 // streams the body for whichever checksum algorithm cfg.checksum selects

	insertCounter int
	finished      bool
	closed        bool
}

func newBuilderCore(ctx context.Context, sink Sink, isMap bool, opts []BuildOption) *builderCore {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	var digest hash.Hash64
	if cfg.checksum == ChecksumMurmur3 {
		digest = murmur3.New64()
	} else {
		digest = xxhash.New()
	}
	return &builderCore{
		ctx:        ctx,
		sink:       sink,
		isMap:      isMap,
		cfg:        cfg,
		reg:        newRegister(),
		unfinished: []unfinishedNode{{}},
		digest:     digest,
	}
}

func (b *builderCore) write(p []byte) error {
	if _, err := b.sink.Write(p); err != nil {
		return fmt.Errorf("fst: write image body: %w", err)
	}
	b.digest.Write(p)
	b.bodyLen += uint64(len(p))
	return nil
}

// insert runs one key/value through the algorithm. value is always zero
// for a set.
func (b *builderCore) insert(key []byte, value uint64) error {
	if b.finished {
		return fsterr.ErrBuilderFinished
	}
	if b.closed {
		return fsterr.ErrBuilderFinished
	}
	if b.hasLastKey && bytes.Compare(key, b.lastKey) <= 0 {
		return fsterr.ErrOrder
	}

	b.insertCounter++
	if b.insertCounter >= contextCheckInterval {
		b.insertCounter = 0
		select {
		case <-b.ctx.Done():
			return b.ctx.Err()
		default:
		}
	}

	prefixLen, remaining := b.commonPrefixAndSetOutput(key, value)
	if err := b.compileFrom(prefixLen); err != nil {
		return err
	}
	b.addSuffix(key[prefixLen:], remaining)

	b.lastKey = append(b.lastKey[:0], key...)
	b.hasLastKey = true
	b.keyCount++
	return nil
}

// commonPrefixAndSetOutput walks the shared prefix between key and the
// unfinished stack's current path (which mirrors the previous key),
// commoning each shared transition's output against the remaining value
// via min, and pushing any excess down onto the child node — which is
// safe because that child is still an uncompiled, mutable builder node.
// It returns how many bytes of key were already present in the stack and
// how much of value is left to place along the new suffix.
func (b *builderCore) commonPrefixAndSetOutput(key []byte, value uint64) (int, uint64) {
	remaining := value
	i := 0
	for i < len(key) {
		n := &b.unfinished[i]
		if !n.hasLast || n.lastByte != key[i] {
			break
		}
		common := n.lastOutput
		if remaining < common {
			common = remaining
		}
		if common < n.lastOutput {
			b.pushOutputPrefix(i+1, n.lastOutput-common)
		}
		n.lastOutput = common
		remaining -= common
		i++
	}
	return i, remaining
}

// pushOutputPrefix adds delta to every output the node at idx currently
// carries: its still-open last transition, all already-compiled sibling
// transitions, and its final output if it is itself a key's end. The node
// is still on the stack, so none of this has been written out yet.
func (b *builderCore) pushOutputPrefix(idx int, delta uint64) {
	if delta == 0 {
		return
	}
	n := &b.unfinished[idx]
	if n.final {
		n.finalOutput += delta
	}
	if n.hasLast {
		n.lastOutput += delta
	}
	for i := range n.trans {
		n.trans[i].Output += delta
	}
}

// compileFrom freezes every unfinished node deeper than prefixLen: each
// is compiled (deduplicated through the register or written fresh) and
// its resulting offset becomes the target of its parent's still-open
// last transition, which is then closed into the parent's transitions.
func (b *builderCore) compileFrom(prefixLen int) error {
	for len(b.unfinished) > prefixLen+1 {
		top := len(b.unfinished) - 1
		n := b.unfinished[top]
		offset, err := b.compile(n)
		if err != nil {
			return err
		}
		b.unfinished = b.unfinished[:top]
		parent := &b.unfinished[top-1]
		parent.trans = append(parent.trans, transition{
			Byte:   parent.lastByte,
			Output: parent.lastOutput,
			Target: offset,
		})
		parent.hasLast = false
	}
	return nil
}

// compile deduplicates n against the register or writes it to the sink,
// returning its absolute body offset either way.
func (b *builderCore) compile(n unfinishedNode) (uint64, error) {
	if offset, ok := b.reg.find(n.final, n.finalOutput, n.trans); ok {
		return offset, nil
	}
	selfOffset := b.bodyLen
	buf := encodeState(selfOffset, n.final, n.finalOutput, n.trans, b.isMap)
	if err := b.write(buf); err != nil {
		return 0, err
	}
	b.reg.insert(selfOffset, n.final, n.finalOutput, n.trans)
	return selfOffset, nil
}

// addSuffix extends the stack with a fresh node per remaining byte of
// key, placing all of the still-unaccounted output on the first new
// transition, then marks the new frontier final. Everything pushed here
// stays mutable until a later insert's compileFrom freezes it.
func (b *builderCore) addSuffix(suffix []byte, out uint64) {
	if len(suffix) == 0 {
		top := &b.unfinished[len(b.unfinished)-1]
		top.final = true
		top.finalOutput += out
		return
	}

	frontier := &b.unfinished[len(b.unfinished)-1]
	frontier.hasLast = true
	frontier.lastByte = suffix[0]
	frontier.lastOutput = out

	for _, byt := range suffix[1:] {
		b.unfinished = append(b.unfinished, unfinishedNode{hasLast: true, lastByte: byt})
	}
	b.unfinished = append(b.unfinished, unfinishedNode{final: true})
}

// finish freezes the entire stack down to and including the root,
// computes the checksum, and writes the trailer. It returns only an
// error; callers using a MemorySink read the image from the sink itself.
func (b *builderCore) finish() error {
	if b.finished {
		return fsterr.ErrBuilderFinished
	}
	b.finished = true

	for len(b.unfinished) > 1 {
		top := len(b.unfinished) - 1
		n := b.unfinished[top]
		offset, err := b.compile(n)
		if err != nil {
			return err
		}
		b.unfinished = b.unfinished[:top]
		parent := &b.unfinished[top-1]
		parent.trans = append(parent.trans, transition{
			Byte:   parent.lastByte,
			Output: parent.lastOutput,
			Target: offset,
		})
		parent.hasLast = false
	}
	rootOffset, err := b.compile(b.unfinished[0])
	if err != nil {
		return err
	}

	tr := trailer{RootOffset: rootOffset, Checksum: b.digest.Sum64(), KeyCount: b.keyCount}
	buf := make([]byte, trailerSize)
	tr.encodeTo(buf)
	if _, err := b.sink.Write(buf); err != nil {
		return fmt.Errorf("fst: write trailer: %w", err)
	}
	return nil
}

func (b *builderCore) writeHeader(kind Kind) error {
	h := header{Magic: magic, Version: version, Kind: kind, Checksum: b.cfg.checksum}
	buf := make([]byte, headerSize)
	h.encodeTo(buf)
	if _, err := b.sink.Write(buf); err != nil {
		return fmt.Errorf("fst: write header: %w", err)
	}
	return nil
}

// close marks the builder unusable without writing a trailer, for
// callers that abandon a build after an error.
func (b *builderCore) close() error {
	b.closed = true
	return nil
}

// SetBuilder streams a sorted sequence of unique keys into a set image.
type SetBuilder struct{ core *builderCore }

// NewSetBuilder starts a set build, writing to sink as states compile.
func NewSetBuilder(ctx context.Context, sink Sink, opts ...BuildOption) (*SetBuilder, error) {
	core := newBuilderCore(ctx, sink, false, opts)
	if err := core.writeHeader(KindSet); err != nil {
		return nil, err
	}
	return &SetBuilder{core: core}, nil
}

// Insert adds key to the set. Keys must arrive in strictly ascending
// order; anything else returns ErrOrder.
func (b *SetBuilder) Insert(key []byte) error { return b.core.insert(key, 0) }

// Finish completes the image and writes the trailer. The builder cannot
// be used again afterward.
func (b *SetBuilder) Finish() error { return b.core.finish() }

// Close abandons the build. Safe to call after Finish as a no-op.
func (b *SetBuilder) Close() error { return b.core.close() }

// MapBuilder streams a sorted sequence of unique keys, each with a
// uint64 value, into a map image.
type MapBuilder struct{ core *builderCore }

// NewMapBuilder starts a map build, writing to sink as states compile.
func NewMapBuilder(ctx context.Context, sink Sink, opts ...BuildOption) (*MapBuilder, error) {
	core := newBuilderCore(ctx, sink, true, opts)
	if err := core.writeHeader(KindMap); err != nil {
		return nil, err
	}
	return &MapBuilder{core: core}, nil
}

// Insert adds key with value to the map. Keys must arrive in strictly
// ascending order; anything else returns ErrOrder.
func (b *MapBuilder) Insert(key []byte, value uint64) error {
	return b.core.insert(key, value)
}

// Finish completes the image and writes the trailer. The builder cannot
// be used again afterward.
func (b *MapBuilder) Finish() error { return b.core.finish() }

// Close abandons the build. Safe to call after Finish as a no-op.
func (b *MapBuilder) Close() error { return b.core.close() }
