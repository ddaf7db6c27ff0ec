// Package collect enumerates the loose files of a game data directory and
// groups them into blocks that are each written as one archive.
//
// A typical pipeline walks the requested subfolders, splits the result by a
// maximum archive size, and optionally moves files with identical content into
// the same block:
//
//	files, err := collect.Walk(ctx, os.DirFS(dataDir), collect.WithFolders("meshes", "textures"))
//	blocks := collect.Split(files, 1<<30)
//	agg, err := collect.Aggregate(ctx, os.DirFS(dataDir), blocks, 0)
package collect
