// Package testutil provides in-memory sinks and fixtures shared by tests.
package testutil

import (
	"errors"
	"io"
	"testing/fstest"
)

// ErrNoSeek is returned by NoSeekSink.Seek.
var ErrNoSeek = errors.New("testutil: seek not supported")

// SeekBuffer is an in-memory io.WriteSeeker. Writes past the end grow the
// buffer; writes inside it overwrite existing bytes.
type SeekBuffer struct {
	data []byte
	pos  int64
}

// Write implements io.Writer.
func (b *SeekBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (b *SeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("testutil: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("testutil: negative position")
	}
	b.pos = abs
	return abs, nil
}

// Truncate discards everything past size.
func (b *SeekBuffer) Truncate(size int64) error {
	if size < 0 {
		return errors.New("testutil: negative size")
	}
	if size < int64(len(b.data)) {
		b.data = b.data[:size]
	}
	return nil
}

// Bytes returns the written contents.
func (b *SeekBuffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes written.
func (b *SeekBuffer) Len() int {
	return len(b.data)
}

// NoSeekSink accepts writes but refuses every seek, like a pipe.
type NoSeekSink struct {
	N int
}

// Write implements io.Writer.
func (s *NoSeekSink) Write(p []byte) (int, error) {
	s.N += len(p)
	return len(p), nil
}

// Seek implements io.Seeker and always fails.
func (s *NoSeekSink) Seek(int64, int) (int64, error) {
	return 0, ErrNoSeek
}

// FillFS returns a MapFS holding one file per path, each filled with size
// copies of a byte derived from the path so payloads are distinguishable.
func FillFS(sizes map[string]int) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, size := range sizes {
		fsys[name] = &fstest.MapFile{Data: Pattern(name, size), Mode: 0o644}
	}
	return fsys
}

// Pattern returns size bytes derived from name.
func Pattern(name string, size int) []byte {
	var seed byte
	for i := 0; i < len(name); i++ {
		seed += name[i]
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = seed + byte(i)
	}
	return data
}
