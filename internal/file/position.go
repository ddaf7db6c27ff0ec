package file

import (
	"bufio"
	"errors"
	"io"
)

// ErrNotSeekable indicates the destination cannot reposition its write cursor.
var ErrNotSeekable = errors.New("destination is not seekable")

// PositionWriter buffers writes to an io.WriteSeeker and tracks the absolute
// write position without querying the destination after every write.
type PositionWriter struct {
	dst io.WriteSeeker
	buf *bufio.Writer
	pos int64
}

// NewPositionWriter rewinds dst to its start and returns a writer positioned at 0.
// It returns ErrNotSeekable if dst refuses the rewind.
func NewPositionWriter(dst io.WriteSeeker, bufSize int) (*PositionWriter, error) {
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Join(ErrNotSeekable, err)
	}
	return &PositionWriter{dst: dst, buf: bufio.NewWriterSize(dst, bufSize)}, nil
}

// Write implements io.Writer.
func (w *PositionWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.pos += int64(n)
	return n, err
}

// WriteByte writes a single byte.
func (w *PositionWriter) WriteByte(c byte) error {
	if err := w.buf.WriteByte(c); err != nil {
		return err
	}
	w.pos++
	return nil
}

// Pos returns the absolute offset of the next byte to be written.
func (w *PositionWriter) Pos() int64 {
	return w.pos
}

// SeekTo flushes pending bytes and moves the write cursor to the absolute offset.
func (w *PositionWriter) SeekTo(offset int64) error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	got, err := w.dst.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	w.pos = got
	return nil
}

// Flush writes any buffered bytes to the destination.
func (w *PositionWriter) Flush() error {
	return w.buf.Flush()
}
