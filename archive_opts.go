package bsa

import (
	"io/fs"
	"log/slog"
)

// config holds Archive settings collected from options.
type config struct {
	game         Game
	archiveFlags ArchiveFlags
	fileFlags    FileFlags
	autoFlags    bool
	fsys         fs.FS
	logger       *slog.Logger
	progress     ProgressFunc
	concurrency  int
}

// Option configures an Archive.
type Option func(*config)

// WithGame sets the format generation written to the header (default SkyrimSE).
func WithGame(g Game) Option {
	return func(c *config) {
		c.game = g
	}
}

// WithArchiveFlags replaces the initial archive flags (default DefaultArchiveFlags).
// Flags implied by the archive's content are added on top at write time.
func WithArchiveFlags(f ArchiveFlags) Option {
	return func(c *config) {
		c.archiveFlags = f
	}
}

// WithFileFlags sets the content flags explicitly and disables deriving them
// from file extensions.
func WithFileFlags(f FileFlags) Option {
	return func(c *config) {
		c.fileFlags = f
		c.autoFlags = false
	}
}

// WithAutoFileFlags controls whether AddFile unions content flags derived from
// each file's extension (default true).
func WithAutoFileFlags(enabled bool) Option {
	return func(c *config) {
		c.autoFlags = enabled
	}
}

// WithFS sets the filesystem payloads are read from. Names passed to fsys are
// paths relative to the base directory in slash form, with their original case.
//
// By default files are read from the host filesystem under the base directory.
func WithFS(fsys fs.FS) Option {
	return func(c *config) {
		c.fsys = fsys
	}
}

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithProgress sets a callback to receive progress updates during Write.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithConcurrency sets how many source files are stat'ed in parallel before
// writing. Zero uses GOMAXPROCS; negative values stat serially. The output is
// always written sequentially.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}
