package bsa

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/meigma/bsa/internal/pathutil"
)

// Archive collects files under a base directory and writes them as a BSA archive.
//
// An Archive is not safe for concurrent use. Paths are added with AddFile and
// serialized by Write; the same Archive may be written any number of times.
type Archive struct {
	baseDir   string
	cfg       config
	fileFlags FileFlags

	// paths maps the normalized path to the path as added (trimmed, original case).
	paths map[string]string
}

// New returns an empty Archive rooted at baseDir.
//
// baseDir uses backslash separators, like every path added to the archive
// (for example `c:\games\skyrim\data`). Unless WithFS is given, payloads are
// read from the host filesystem under baseDir.
func New(baseDir string, opts ...Option) *Archive {
	cfg := config{
		game:         SkyrimSE,
		archiveFlags: DefaultArchiveFlags,
		autoFlags:    true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	trimmed := strings.TrimSpace(baseDir)
	if cfg.fsys == nil {
		cfg.fsys = os.DirFS(filepath.FromSlash(pathutil.ToSlash(trimmed)))
	}

	return &Archive{
		baseDir:   pathutil.WithTrailingSeparator(strings.ToLower(trimmed)),
		cfg:       cfg,
		fileFlags: cfg.fileFlags,
		paths:     make(map[string]string),
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.cfg.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.cfg.logger
}

// BaseDir returns the normalized base directory, lower-cased with a trailing separator.
func (a *Archive) BaseDir() string {
	return a.baseDir
}

// Game returns the format generation the archive is written for.
func (a *Archive) Game() Game {
	return a.cfg.game
}

// FileFlags returns the content flags collected so far, before the
// per-generation rules applied at write time.
func (a *Archive) FileFlags() FileFlags {
	return a.fileFlags
}

// AddFile adds one file to the archive.
//
// The path must use backslash separators and live under the base directory;
// otherwise a *ValidationError matching ErrInvalidPath is returned. Paths are
// compared case-insensitively, and adding a path twice is a no-op. A path that
// differs from an added one only by case is dropped with a warning.
func (a *Archive) AddFile(path string) error {
	if strings.Contains(path, "/") {
		return &ValidationError{Path: path, Reason: `use \ as the path separator`}
	}

	e, err := newPathEntry(a.baseDir, path)
	if err != nil {
		return err
	}
	if e.name == "" {
		return &ValidationError{Path: path, Reason: "no file name"}
	}
	if len(e.folder) > maxNameLen {
		return &ValidationError{Path: path, Reason: "folder name longer than 254 bytes"}
	}

	trimmed := strings.TrimSpace(path)
	key := strings.ToLower(trimmed)
	if existing, ok := a.paths[key]; ok {
		if existing != trimmed {
			a.log().Warn("path differs only by case from an added path; keeping the first",
				"path", trimmed, "kept", existing)
		}
		return nil
	}
	if !pathutil.IsASCII(key) {
		a.log().Warn("non-ASCII path may not resolve in game", "path", path)
	}

	if a.cfg.autoFlags {
		a.fileFlags |= FlagsForPath(key)
	}
	a.paths[key] = trimmed
	return nil
}

// AddFiles adds each path in order and stops at the first rejected path.
func (a *Archive) AddFiles(paths ...string) error {
	for _, p := range paths {
		if err := a.AddFile(p); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFile removes a previously added path and reports whether it was present.
// Content flags already derived from it are kept.
func (a *Archive) RemoveFile(path string) bool {
	key := strings.ToLower(strings.TrimSpace(path))
	if _, ok := a.paths[key]; !ok {
		return false
	}
	delete(a.paths, key)
	return true
}

// Len returns the number of distinct files added.
func (a *Archive) Len() int {
	return len(a.paths)
}

// Paths returns the normalized paths of all added files in sorted order.
func (a *Archive) Paths() []string {
	keys := make([]string, 0, len(a.paths))
	for k := range a.paths {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
