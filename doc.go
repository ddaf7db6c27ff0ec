// Package bsa writes Bethesda Softworks Archive (BSA) files, the container
// format Skyrim uses to bundle loose game data.
//
// An archive is built from files under a common base directory:
//
//	a := bsa.New(`c:\games\skyrim\data`)
//	if err := a.AddFile(`c:\games\skyrim\data\meshes\armor\cuirass.nif`); err != nil {
//	    return err
//	}
//	f, err := os.Create("armor.bsa")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	_, err = a.Write(f)
//
// Archive paths always use backslash separators. Payloads are read through
// an fs.FS rooted at the base directory; see WithFS.
//
// The written layout is:
//   - Header: magic, version, flags, counts and name-table lengths
//   - Folder records: hash, file count and offset per folder
//   - File records: per folder, its name followed by hash, size and offset per file
//   - File name table (when IncludeFileNames is set)
//   - File data, in record order
//
// Folders and files are ordered by their TES hashes so the game can binary
// search the record tables. File offsets are only known once the data has
// been written, so Write requires a seekable output and rewrites the file
// records in a second pass.
//
// Compressed payloads are not supported.
package bsa
