package bsa

import (
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/bsa/internal/file"
	"github.com/meigma/bsa/internal/sizing"
)

const (
	magic      = "BSA\x00"
	headerSize = 36

	// writeBufferSize buffers the record tables; payload chunks bypass it.
	writeBufferSize = 64 << 10
)

// Header holds the values written to the archive header.
type Header struct {
	Game              Game
	ArchiveFlags      ArchiveFlags
	FileFlags         FileFlags
	FolderCount       int
	FileCount         int
	FolderNamesLength int
	FileNamesLength   int
}

// truncater is implemented by sinks such as *os.File that can drop bytes
// left over from earlier content.
type truncater interface {
	Truncate(size int64) error
}

// WriteResult describes a completed write.
type WriteResult struct {
	Header Header

	// Size is the total archive size in bytes.
	Size int64

	// DataSize is the sum of all file sizes.
	DataSize int64
}

// Write serializes the archive to out.
//
// out must support seeking: file records are written with zero offsets first
// and rewritten once every payload position is known. Write starts at offset 0
// and leaves the cursor at the end of the archive. If out has a
// Truncate(int64) error method, it is truncated to the archive size;
// otherwise out must not hold longer earlier content.
//
// If Write fails after bytes were written, out holds an incomplete archive
// that must be discarded.
func (a *Archive) Write(out io.WriteSeeker) (*WriteResult, error) {
	if len(a.paths) == 0 {
		return nil, ErrEmptyArchive
	}

	folders, hdr, err := a.plan()
	if err != nil {
		return nil, err
	}

	a.log().Info("writing archive",
		"base_dir", a.baseDir,
		"game", hdr.Game.String(),
		"folders", hdr.FolderCount,
		"files", hdr.FileCount,
		"file_flags", hdr.FileFlags.String())

	dataSize, err := a.statSizes(folders, hdr.FileCount)
	if err != nil {
		return nil, err
	}

	w, err := file.NewPositionWriter(out, writeBufferSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedSink, err)
	}

	s := &archiveWriter{
		archive:  a,
		w:        w,
		hdr:      hdr,
		folders:  folders,
		dataSize: dataSize,
	}
	size, err := s.run()
	if err != nil {
		return nil, err
	}
	if t, ok := out.(truncater); ok {
		if err := t.Truncate(size); err != nil {
			return nil, fmt.Errorf("truncate output: %w", err)
		}
	}

	a.log().Info("archive written", "size", size, "data_size", dataSize)
	return &WriteResult{Header: hdr, Size: size, DataSize: dataSize}, nil
}

// plan builds the sorted folder and file records and the header values for
// the current path set.
func (a *Archive) plan() ([]*folderRecord, Header, error) {
	entries := make([]pathEntry, 0, len(a.paths))
	for _, key := range a.Paths() {
		e, err := newPathEntry(a.baseDir, a.paths[key])
		if err != nil {
			return nil, Header{}, err
		}
		entries = append(entries, e)
	}
	// Paths are pre-sorted by name so hash ties resolve the same way every time.
	slices.SortStableFunc(entries, compareEntries)

	hdr := Header{Game: a.cfg.game}
	var folders []*folderRecord
	for _, e := range entries {
		if len(folders) == 0 || folders[len(folders)-1].hash != e.folderHash {
			folders = append(folders, &folderRecord{name: e.folder, hash: e.folderHash})
			hdr.FolderCount++
			hdr.FolderNamesLength += len(e.folder) + 1
		}
		cur := folders[len(folders)-1]
		cur.files = append(cur.files, newFileRecord(a.cfg.fsys, e))
		hdr.FileCount++
		hdr.FileNamesLength += len(e.name) + 1
	}

	hdr.ArchiveFlags, hdr.FileFlags = deriveFlags(a.cfg.archiveFlags, a.fileFlags)
	return folders, hdr, nil
}

// statSizes reads every source file's size, in parallel when configured, and
// returns their sum.
func (a *Archive) statSizes(folders []*folderRecord, fileCount int) (int64, error) {
	a.reportProgress(ProgressEvent{Stage: StageSizing, FilesTotal: fileCount})

	limit := a.cfg.concurrency
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, folder := range folders {
		for _, f := range folder.files {
			f := f
			g.Go(func() error {
				_, err := f.Size()
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, folder := range folders {
		for _, f := range folder.files {
			var ok bool
			if total, ok = sizing.AddInt64(total, f.size); !ok {
				return 0, ErrSizeOverflow
			}
		}
	}
	return total, nil
}

// reportProgress sends a progress event if a callback is configured.
func (a *Archive) reportProgress(ev ProgressEvent) {
	if a.cfg.progress != nil {
		a.cfg.progress(ev)
	}
}

// archiveWriter holds the state of a single Write call.
type archiveWriter struct {
	archive  *Archive
	w        *file.PositionWriter
	hdr      Header
	folders  []*folderRecord
	dataSize int64
	scratch  []byte
}

func (s *archiveWriter) run() (int64, error) {
	s.archive.reportProgress(ProgressEvent{Stage: StageWritingRecords, FilesTotal: s.hdr.FileCount})

	if err := s.writeHeader(); err != nil {
		return 0, err
	}
	if err := s.writeFolderRecords(); err != nil {
		return 0, err
	}

	recordsBase := s.w.Pos()
	if err := s.writeFileRecords(); err != nil {
		return 0, err
	}
	last := s.folders[len(s.folders)-1]
	if want := last.offset + last.blockSize() - int64(s.hdr.FileNamesLength); s.w.Pos() != want {
		return 0, fmt.Errorf("bsa: file records end at %d, folder offsets assume %d", s.w.Pos(), want)
	}

	if s.hdr.ArchiveFlags.Has(IncludeFileNames) {
		if err := s.writeFileNames(); err != nil {
			return 0, err
		}
	}

	if err := s.writePayloads(); err != nil {
		return 0, err
	}
	end := s.w.Pos()

	s.archive.reportProgress(ProgressEvent{
		Stage:      StagePatching,
		BytesDone:  uint64(s.dataSize), //nolint:gosec // sizes are non-negative
		BytesTotal: uint64(s.dataSize), //nolint:gosec // sizes are non-negative
		FilesDone:  s.hdr.FileCount,
		FilesTotal: s.hdr.FileCount,
	})
	if err := s.w.SeekTo(recordsBase); err != nil {
		return 0, fmt.Errorf("seek to file records: %w", err)
	}
	if err := s.writeFileRecords(); err != nil {
		return 0, err
	}
	if err := s.w.SeekTo(end); err != nil {
		return 0, fmt.Errorf("seek to end: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return 0, fmt.Errorf("flush archive: %w", err)
	}
	return end, nil
}

func (s *archiveWriter) writeHeader() error {
	fields := []int{s.hdr.FolderCount, s.hdr.FileCount, s.hdr.FolderNamesLength, s.hdr.FileNamesLength}
	counts := make([]uint32, len(fields))
	for i, v := range fields {
		n, err := sizing.ToUint32(int64(v), ErrSizeOverflow)
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		counts[i] = n
	}

	buf := append(s.scratch[:0], magic...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.hdr.Game))
	buf = binary.LittleEndian.AppendUint32(buf, headerSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.hdr.ArchiveFlags))
	for _, n := range counts {
		buf = binary.LittleEndian.AppendUint32(buf, n)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.hdr.FileFlags))
	s.scratch = buf

	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// writeFolderRecords assigns each folder the offset of its block in the
// file-records section and writes the folder records. The offsets are derived
// from name lengths and file counts alone; the format adds the file-name
// table length to every folder offset.
func (s *archiveWriter) writeFolderRecords() error {
	offset := headerSize + s.hdr.Game.folderRecordSize()*int64(len(s.folders)) + int64(s.hdr.FileNamesLength)

	buf := s.scratch[:0]
	for _, folder := range s.folders {
		folder.offset = offset
		offset += folder.blockSize()

		var err error
		if buf, err = folder.appendIndex(buf, s.hdr.Game); err != nil {
			return err
		}
	}
	s.scratch = buf

	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("write folder records: %w", err)
	}
	return nil
}

// writeFileRecords writes every folder's name and file records using the
// offsets currently held by the file records.
func (s *archiveWriter) writeFileRecords() error {
	for _, folder := range s.folders {
		buf := folder.appendName(s.scratch[:0])
		for _, f := range folder.files {
			var err error
			if buf, err = f.appendIndex(buf, s.hdr.ArchiveFlags); err != nil {
				return err
			}
		}
		s.scratch = buf

		if _, err := s.w.Write(buf); err != nil {
			return fmt.Errorf("write file records for %q: %w", folder.name, err)
		}
	}
	return nil
}

func (s *archiveWriter) writeFileNames() error {
	for _, folder := range s.folders {
		for _, f := range folder.files {
			if _, err := io.WriteString(s.w, f.name); err != nil {
				return fmt.Errorf("write file name table: %w", err)
			}
			if err := s.w.WriteByte(0); err != nil {
				return fmt.Errorf("write file name table: %w", err)
			}
		}
	}
	return nil
}

// writePayloads writes each file's payload in record order and records the
// offset it starts at.
func (s *archiveWriter) writePayloads() error {
	chunk := make([]byte, file.ChunkSize)
	var bytesDone uint64
	filesDone := 0

	for _, folder := range s.folders {
		s.archive.log().Debug("writing folder", "folder", folder.name, "files", len(folder.files))
		for _, f := range folder.files {
			offset, err := sizing.ToUint32(s.w.Pos(), ErrSizeOverflow)
			if err != nil {
				return fmt.Errorf("payload offset for %s: %w", f.rel, err)
			}
			f.offset = offset

			if _, err := f.writePayload(s.w, s.hdr.ArchiveFlags, chunk); err != nil {
				return err
			}

			bytesDone += uint64(f.size) //nolint:gosec // sizes are non-negative
			filesDone++
			s.archive.reportProgress(ProgressEvent{
				Stage:      StageWritingData,
				Path:       f.rel,
				BytesDone:  bytesDone,
				BytesTotal: uint64(s.dataSize), //nolint:gosec // sizes are non-negative
				FilesDone:  filesDone,
				FilesTotal: s.hdr.FileCount,
			})
		}
	}
	return nil
}
