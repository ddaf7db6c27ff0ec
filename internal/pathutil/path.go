// Package pathutil provides path manipulation for backslash-separated archive paths.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Separator is the only path separator accepted inside an archive.
const Separator = `\`

// Split divides a relative archive path into its folder and file components.
// The folder is empty for files at the archive root.
func Split(rel string) (folder, name string) {
	if i := strings.LastIndex(rel, Separator); i >= 0 {
		return rel[:i], rel[i+1:]
	}
	return "", rel
}

// Join joins a folder and file name with the archive separator.
// An empty folder yields the bare name.
func Join(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + Separator + name
}

// WithTrailingSeparator returns dir ending in exactly one separator.
func WithTrailingSeparator(dir string) string {
	if strings.HasSuffix(dir, Separator) {
		return dir
	}
	return dir + Separator
}

// FromHost converts a host filesystem path to archive separator form.
func FromHost(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "/", Separator)
}

// ToSlash converts an archive-relative path to the slash form used by fs.FS.
func ToSlash(rel string) string {
	return strings.ReplaceAll(rel, Separator, "/")
}

// IsASCII reports whether s contains only 7-bit characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
