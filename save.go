package bsa

import (
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the archive to path.
//
// The archive is written to a temp file in the target directory and renamed
// over path once complete, so a failed write never leaves a partial archive
// behind. Parent directories are created as needed.
func (a *Archive) Save(path string) (*WriteResult, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bsa-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	res, err := a.Write(tmp)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename to %s: %w", path, err)
	}
	return res, nil
}
