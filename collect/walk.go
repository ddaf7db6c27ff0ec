package collect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/meigma/bsa/internal/pathutil"
)

// ErrFolderNotFound is returned when a requested subfolder does not exist.
var ErrFolderNotFound = errors.New("collect: folder not found")

// File is one loose file found under the data directory.
type File struct {
	// Path is relative to the data directory, slash-separated, in its original case.
	Path string

	// Size is the file length in bytes.
	Size int64
}

// ArchivePath returns Path with the archive separator.
func (f File) ArchivePath() string {
	return strings.ReplaceAll(f.Path, "/", pathutil.Separator)
}

// Walk returns the regular files under the requested subfolders of fsys in
// lexical order. Dot-files, symlinks and other non-regular entries are
// skipped, as is every folder excluded with WithExcludedFolders. A file
// reachable from two requested folders is reported once.
func Walk(ctx context.Context, fsys fs.FS, opts ...Option) ([]File, error) {
	var cfg walkConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	roots := []string{"."}
	if len(cfg.folders) > 0 {
		roots = roots[:0]
		for _, name := range cfg.folders {
			root, err := resolveFolder(fsys, name)
			if err != nil {
				return nil, err
			}
			roots = append(roots, root)
		}
	}

	excluded := make([]string, 0, len(cfg.excluded))
	for _, name := range cfg.excluded {
		excluded = append(excluded, strings.ToLower(cleanFolder(name)))
	}

	var files []File
	seen := make(map[string]struct{})
	for _, root := range roots {
		err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			if d.IsDir() {
				if p != "." && isExcluded(p, excluded) {
					cfg.log().Info("skipped folder", "path", p)
					return fs.SkipDir
				}
				return nil
			}

			if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
				cfg.log().Debug("skipped entry", "path", p, "mode", d.Type().String())
				return nil
			}
			if _, ok := seen[p]; ok {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			if !pathutil.IsASCII(p) {
				cfg.log().Warn("non-ASCII file name", "path", p)
			}

			seen[p] = struct{}{}
			files = append(files, File{Path: p, Size: info.Size()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// cleanFolder converts a user-supplied folder name to a clean slash path.
func cleanFolder(name string) string {
	name = pathutil.ToSlash(strings.TrimSpace(name))
	return path.Clean(strings.Trim(name, "/"))
}

// isExcluded reports whether dir equals or lies below an excluded folder.
func isExcluded(dir string, excluded []string) bool {
	dir = strings.ToLower(dir)
	for _, ex := range excluded {
		if dir == ex || strings.HasPrefix(dir, ex+"/") {
			return true
		}
	}
	return false
}

// resolveFolder finds the directory named by name, matching each component
// case-insensitively so "meshes" finds "Meshes" on case-sensitive filesystems.
func resolveFolder(fsys fs.FS, name string) (string, error) {
	cleaned := cleanFolder(name)
	if cleaned == "." {
		return ".", nil
	}

	cur := "."
	for _, part := range strings.Split(cleaned, "/") {
		entries, err := fs.ReadDir(fsys, cur)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFolderNotFound, name, err)
		}
		found := ""
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if e.Name() == part {
				found = e.Name()
				break
			}
			if found == "" && strings.EqualFold(e.Name(), part) {
				found = e.Name()
			}
		}
		if found == "" {
			return "", fmt.Errorf("%w: %s", ErrFolderNotFound, name)
		}
		cur = path.Join(cur, found)
	}
	return cur, nil
}
