package bsa

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Archive operations.
var (
	// ErrInvalidPath is returned when a path is rejected by AddFile.
	// The concrete error is a *ValidationError.
	ErrInvalidPath = errors.New("bsa: invalid path")

	// ErrEmptyArchive is returned when Write is called before any file was added.
	ErrEmptyArchive = errors.New("bsa: no files added to archive")

	// ErrNotSupported is returned when a payload would have to be compressed.
	ErrNotSupported = errors.New("bsa: compressed payloads are not supported")

	// ErrUnsupportedSink is returned when the output cannot seek back to patch records.
	ErrUnsupportedSink = errors.New("bsa: output does not support seeking")

	// ErrSizeOverflow is returned when a size or offset does not fit its record field.
	ErrSizeOverflow = errors.New("bsa: size overflow")
)

// ValidationError describes a path rejected by AddFile.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bsa: invalid path %q: %s", e.Path, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidPath.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidPath
}

// FileError records a source file that could not be read while writing.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return "bsa: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}
