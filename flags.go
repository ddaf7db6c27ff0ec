package bsa

import (
	"strconv"
	"strings"
)

// Game is the format version tag written to the header.
type Game uint32

const (
	// SkyrimLE is the original Skyrim archive generation.
	SkyrimLE Game = 0x68
	// SkyrimSE is the Special Edition archive generation.
	SkyrimSE Game = 0x69
)

// String returns the short name of the game version.
func (g Game) String() string {
	switch g {
	case SkyrimLE:
		return "le"
	case SkyrimSE:
		return "se"
	default:
		return "0x" + strconv.FormatUint(uint64(g), 16)
	}
}

// folderRecordSize returns the size of one folder record for this generation.
func (g Game) folderRecordSize() int64 {
	if g == SkyrimSE {
		return 24
	}
	return 16
}

// ParseGame parses "le" or "se" (case-insensitive).
func ParseGame(s string) (Game, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "le", "skyrim", "skyrimle":
		return SkyrimLE, true
	case "se", "sse", "skyrimse":
		return SkyrimSE, true
	default:
		return 0, false
	}
}

// ArchiveFlags control the structure of an archive.
type ArchiveFlags uint32

const (
	IncludeDirectoryNames      ArchiveFlags = 0x1
	IncludeFileNames           ArchiveFlags = 0x2
	CompressedArchive          ArchiveFlags = 0x4
	RetainFileNames            ArchiveFlags = 0x10
	Xbox360Archive             ArchiveFlags = 0x40
	RetainStringsDuringStartup ArchiveFlags = 0x80
	EmbedFileNames             ArchiveFlags = 0x100
	XMemCodec                  ArchiveFlags = 0x200

	// DefaultArchiveFlags matches the flags the official packer starts from.
	DefaultArchiveFlags = IncludeDirectoryNames | IncludeFileNames
)

// Has reports whether all bits of flag are set.
func (f ArchiveFlags) Has(flag ArchiveFlags) bool {
	return f&flag == flag
}

// FileFlags describe the content categories stored in an archive.
type FileFlags uint32

const (
	Meshes FileFlags = 1 << iota
	Textures
	Menus
	Sounds
	Voices
	Shaders
	Trees
	Fonts
	Miscellaneous
)

// Has reports whether all bits of flag are set.
func (f FileFlags) Has(flag FileFlags) bool {
	return f&flag == flag
}

var fileFlagNames = []struct {
	flag FileFlags
	name string
}{
	{Meshes, "meshes"},
	{Textures, "textures"},
	{Menus, "menus"},
	{Sounds, "sounds"},
	{Voices, "voices"},
	{Shaders, "shaders"},
	{Trees, "trees"},
	{Fonts, "fonts"},
	{Miscellaneous, "misc"},
}

// String returns the set flag names joined by "|", or "none".
func (f FileFlags) String() string {
	var names []string
	for _, n := range fileFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// extensionFlags maps file suffixes to content flags. Order matters: the
// first matching suffix wins.
var extensionFlags = []struct {
	suffix string
	flags  FileFlags
}{
	{".nif", Meshes},
	{".dds", Textures},
	{".xml", Meshes | Miscellaneous},
	{".wav", Voices},
	{".fuz", Voices},
	{".mp3", Sounds},
	{".ogg", Sounds},
	{".txt", Shaders},
	{".htm", Shaders},
	{".bat", Shaders},
	{".scc", Shaders},
	{".spt", Trees},
	{".fnt", Fonts},
	{".tex", Fonts},
}

// FlagsForPath returns the content flags implied by a lower-cased path's extension.
func FlagsForPath(path string) FileFlags {
	for _, e := range extensionFlags {
		if strings.HasSuffix(path, e.suffix) {
			return e.flags
		}
	}
	return 0
}

// deriveFlags applies the per-generation flag rules and returns the flags to
// write to the header. The inputs are not modified.
func deriveFlags(archive ArchiveFlags, content FileFlags) (ArchiveFlags, FileFlags) {
	content &^= Miscellaneous

	if content.Has(Textures) {
		archive |= EmbedFileNames
	}
	if content.Has(Meshes) {
		archive |= RetainStringsDuringStartup
	}
	if content.Has(Voices) {
		archive |= RetainFileNames
	}

	// Meshes, fonts and shaders are only meaningful to older generations.
	content &^= Meshes | Fonts | Shaders
	return archive, content
}
