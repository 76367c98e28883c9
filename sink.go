package fst

import (
	"bytes"
	"os"
)

// Sink is where a builder streams the image. Write is called for the
// header, once for each newly written state (states reused through the
// register write nothing), and for the trailer, in that order and never
// twice for the same bytes — the builder never seeks backward, so any
// io.Writer-shaped destination (a file, a pipe, a growing buffer) works.
type Sink interface {
	Write(p []byte) (int, error)
}

// MemorySink accumulates the image in memory, mirroring the teacher's
// ":memory:" output-path sentinel (index_writer.go) but as an explicit
// type instead of a magic string. The path-based entry points
// (SetBuilderOpen, MapBuilderOpen) recognize no sentinel path: they always
// create a file.
type MemorySink struct {
	buf bytes.Buffer
}

// NewMemorySink returns a Sink that keeps the entire image in memory.
// Bytes returns the accumulated image once the builder has finished.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Write(p []byte) (int, error) { return s.buf.Write(p) }

// Bytes returns the accumulated image. Only meaningful after Finish has
// been called on the builder writing to this sink.
func (s *MemorySink) Bytes() []byte { return s.buf.Bytes() }

// FileSink writes the image directly to an *os.File, so large builds
// never hold the whole body in memory.
type FileSink struct {
	f *os.File
}

// NewFileSink wraps f as a Sink. The caller owns f and must close it.
func NewFileSink(f *os.File) *FileSink { return &FileSink{f: f} }

func (s *FileSink) Write(p []byte) (int, error) { return s.f.Write(p) }
