package bsa

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/meigma/bsa/internal/file"
	"github.com/meigma/bsa/internal/pathutil"
	"github.com/meigma/bsa/internal/sizing"
)

const (
	// compressThreshold is the size above which a file is eligible for compression.
	compressThreshold = 32

	// invertCompression marks a file whose stored compression state is the
	// inverse of the archive default.
	invertCompression = 0x40000000

	// fileRecordSize is the size of one file record in the file-records section.
	fileRecordSize = 16

	// maxNameLen is the longest folder name a one-byte length prefix can
	// describe once the terminator is counted.
	maxNameLen = 0xff - 1
)

var errFileChanged = errors.New("file changed during archive creation")

// fileRecord is one payload file. Its size is read once and cached; offset is
// patched after the payload has been written.
type fileRecord struct {
	fsys      fs.FS
	rel       string
	sourceRel string
	name      string
	hash      uint64
	offset    uint32

	size  int64
	sized bool
}

func newFileRecord(fsys fs.FS, e pathEntry) *fileRecord {
	return &fileRecord{
		fsys:      fsys,
		rel:       e.rel,
		sourceRel: e.sourceRel,
		name:      e.name,
		hash:      e.fileHash,
	}
}

// Size returns the source file's length in bytes, reading it on first use.
func (f *fileRecord) Size() (int64, error) {
	if f.sized {
		return f.size, nil
	}
	info, err := fs.Stat(f.fsys, pathutil.ToSlash(f.sourceRel))
	if err != nil {
		return 0, &FileError{Op: "stat", Path: f.rel, Err: err}
	}
	if !info.Mode().IsRegular() {
		return 0, &FileError{Op: "stat", Path: f.rel, Err: fmt.Errorf("not a regular file (mode %s)", info.Mode())}
	}
	f.size = info.Size()
	f.sized = true
	return f.size, nil
}

// shouldCompress reports whether the file is individually eligible for compression.
func (f *fileRecord) shouldCompress() (bool, error) {
	size, err := f.Size()
	if err != nil {
		return false, err
	}
	return size > compressThreshold, nil
}

// sizeField returns the size as stored in the file record. The inversion bit
// is set when the file's eligibility disagrees with the archive default.
func (f *fileRecord) sizeField(flags ArchiveFlags) (uint32, error) {
	size, err := f.Size()
	if err != nil {
		return 0, err
	}
	if size >= invertCompression {
		return 0, fmt.Errorf("%w: %s is %d bytes", ErrSizeOverflow, f.rel, size)
	}
	field := uint32(size) //nolint:gosec // bounded above
	if (size > compressThreshold) != flags.Has(CompressedArchive) {
		field |= invertCompression
	}
	return field, nil
}

// appendIndex appends the 16-byte file record: hash, size field, offset.
func (f *fileRecord) appendIndex(dst []byte, flags ArchiveFlags) ([]byte, error) {
	field, err := f.sizeField(flags)
	if err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint64(dst, f.hash)
	dst = binary.LittleEndian.AppendUint32(dst, field)
	dst = binary.LittleEndian.AppendUint32(dst, f.offset)
	return dst, nil
}

// writePayload writes the optional embedded name followed by the file
// contents, and returns the number of bytes written.
func (f *fileRecord) writePayload(w io.Writer, flags ArchiveFlags, buf []byte) (int64, error) {
	var written int64
	if flags.Has(EmbedFileNames) {
		n, err := io.WriteString(w, f.rel)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write embedded name %s: %w", f.rel, err)
		}
	}

	compress, err := f.shouldCompress()
	if err != nil {
		return written, err
	}
	if compress && flags.Has(CompressedArchive) {
		return written, fmt.Errorf("%w: %s", ErrNotSupported, f.rel)
	}

	src, err := f.fsys.Open(pathutil.ToSlash(f.sourceRel))
	if err != nil {
		return written, &FileError{Op: "open", Path: f.rel, Err: err}
	}
	defer src.Close()

	n, err := file.Copy(w, src, buf)
	written += n
	if err != nil {
		return written, &FileError{Op: "read", Path: f.rel, Err: err}
	}
	if n != f.size {
		return written, &FileError{Op: "read", Path: f.rel, Err: errFileChanged}
	}
	return written, nil
}

// folderRecord is one directory's files plus its own hash and offset.
type folderRecord struct {
	name   string
	hash   uint64
	files  []*fileRecord
	offset int64
}

// blockSize returns the number of bytes this folder occupies in the
// file-records section: length prefix, name, terminator and file records.
func (f *folderRecord) blockSize() int64 {
	return int64(len(f.name)) + 2 + fileRecordSize*int64(len(f.files))
}

// appendIndex appends the folder record in the layout of the given generation.
func (f *folderRecord) appendIndex(dst []byte, game Game) ([]byte, error) {
	count, err := sizing.ToUint32(int64(len(f.files)), ErrSizeOverflow)
	if err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint64(dst, f.hash)
	dst = binary.LittleEndian.AppendUint32(dst, count)
	if game == SkyrimSE {
		dst = binary.LittleEndian.AppendUint32(dst, 0)
		return binary.LittleEndian.AppendUint64(dst, uint64(f.offset)), nil //nolint:gosec // offsets are non-negative
	}
	offset, err := sizing.ToUint32(f.offset, ErrSizeOverflow)
	if err != nil {
		return dst, fmt.Errorf("folder %s offset: %w", f.name, err)
	}
	return binary.LittleEndian.AppendUint32(dst, offset), nil
}

// appendName appends the folder name as a length-prefixed, zero-terminated
// string. The prefix counts the terminator.
func (f *folderRecord) appendName(dst []byte) []byte {
	dst = append(dst, byte(len(f.name)+1))
	dst = append(dst, f.name...)
	return append(dst, 0)
}
