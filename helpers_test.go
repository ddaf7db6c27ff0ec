package bsa

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type parsedFile struct {
	hash      uint64
	sizeField uint32
	offset    uint32
}

type parsedFolder struct {
	hash   uint64
	count  uint32
	offset uint64
	name   string
	// namePos is where the folder's name block starts in the archive.
	namePos int
	files   []parsedFile
}

type parsedArchive struct {
	magic        string
	version      uint32
	headerSize   uint32
	archiveFlags ArchiveFlags
	folderCount  uint32
	fileCount    uint32
	folderNames  uint32
	fileNames    uint32
	fileFlags    FileFlags
	folders      []parsedFolder
	names        []string
	// dataStart is the position right after the record tables.
	dataStart int
}

// parseArchive decodes the record tables of a written archive.
func parseArchive(t *testing.T, data []byte) parsedArchive {
	t.Helper()
	require.GreaterOrEqual(t, len(data), headerSize)

	le := binary.LittleEndian
	var p parsedArchive
	p.magic = string(data[:4])
	p.version = le.Uint32(data[4:])
	p.headerSize = le.Uint32(data[8:])
	p.archiveFlags = ArchiveFlags(le.Uint32(data[12:]))
	p.folderCount = le.Uint32(data[16:])
	p.fileCount = le.Uint32(data[20:])
	p.folderNames = le.Uint32(data[24:])
	p.fileNames = le.Uint32(data[28:])
	p.fileFlags = FileFlags(le.Uint32(data[32:]))

	pos := headerSize
	for i := uint32(0); i < p.folderCount; i++ {
		var f parsedFolder
		f.hash = le.Uint64(data[pos:])
		f.count = le.Uint32(data[pos+8:])
		if Game(p.version) == SkyrimSE {
			require.Zero(t, le.Uint32(data[pos+12:]), "reserved folder field")
			f.offset = le.Uint64(data[pos+16:])
			pos += 24
		} else {
			f.offset = uint64(le.Uint32(data[pos+12:]))
			pos += 16
		}
		p.folders = append(p.folders, f)
	}

	for i := range p.folders {
		f := &p.folders[i]
		f.namePos = pos
		n := int(data[pos])
		require.Positive(t, n, "folder name length prefix")
		f.name = string(data[pos+1 : pos+n])
		require.Zero(t, data[pos+n], "folder name terminator")
		pos += 1 + n
		for i := uint32(0); i < f.count; i++ {
			f.files = append(f.files, parsedFile{
				hash:      le.Uint64(data[pos:]),
				sizeField: le.Uint32(data[pos+8:]),
				offset:    le.Uint32(data[pos+12:]),
			})
			pos += 16
		}
	}

	if p.archiveFlags.Has(IncludeFileNames) {
		for i := uint32(0); i < p.fileCount; i++ {
			end := bytes.IndexByte(data[pos:], 0)
			require.GreaterOrEqual(t, end, 0, "unterminated file name")
			p.names = append(p.names, string(data[pos:pos+end]))
			pos += end + 1
		}
	}
	p.dataStart = pos
	return p
}

// allFiles returns the file records of every folder in order.
func (p parsedArchive) allFiles() []parsedFile {
	var files []parsedFile
	for _, f := range p.folders {
		files = append(files, f.files...)
	}
	return files
}
