package collect

import (
	"io"
	"log/slog"
)

// walkConfig holds Walk settings collected from options.
type walkConfig struct {
	folders  []string
	excluded []string
	logger   *slog.Logger
}

// Option configures Walk.
type Option func(*walkConfig)

// WithFolders limits the walk to the named subfolders of the data directory.
// Names may use either separator and are matched case-insensitively.
// Without this option the whole directory is walked.
func WithFolders(names ...string) Option {
	return func(c *walkConfig) {
		c.folders = append(c.folders, names...)
	}
}

// WithExcludedFolders skips the named subfolders and everything below them.
func WithExcludedFolders(names ...string) Option {
	return func(c *walkConfig) {
		c.excluded = append(c.excluded, names...)
	}
}

// WithLogger sets the logger for skipped entries and warnings.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *walkConfig) {
		c.logger = logger
	}
}

func (c *walkConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}
