package bsa

import (
	"cmp"
	"strings"

	"github.com/meigma/bsa/internal/pathutil"
	"github.com/meigma/bsa/internal/tes"
)

// pathEntry is one added path resolved against the archive base directory.
// Entries are rebuilt on every Write.
type pathEntry struct {
	rel        string // lower-cased, relative to the base directory
	sourceRel  string // rel in its original case, for case-sensitive sources
	folder     string
	name       string
	folderHash uint64
	fileHash   uint64
}

// newPathEntry resolves path against baseDir. baseDir must already be
// normalized (lower-cased, trailing separator).
func newPathEntry(baseDir, path string) (pathEntry, error) {
	source := strings.TrimSpace(path)
	normalized := strings.ToLower(source)
	if !strings.HasPrefix(normalized, baseDir) {
		return pathEntry{}, &ValidationError{Path: path, Reason: "not inside base directory " + baseDir}
	}

	rel := strings.TrimSpace(strings.TrimLeft(normalized[len(baseDir):], pathutil.Separator))
	sourceRel := rel
	if len(source) == len(normalized) {
		sourceRel = source[len(source)-len(rel):]
	}

	folder, name := pathutil.Split(rel)
	return pathEntry{
		sourceRel:  sourceRel,
		rel:        rel,
		folder:     folder,
		name:       name,
		folderHash: tes.Hash(folder, ""),
		fileHash:   tes.HashName(name),
	}, nil
}

// compareEntries orders entries by folder hash, then file hash. Entries with
// equal hashes compare equal even if their names differ.
func compareEntries(a, b pathEntry) int {
	if c := cmp.Compare(a.folderHash, b.folderHash); c != 0 {
		return c
	}
	return cmp.Compare(a.fileHash, b.fileHash)
}
