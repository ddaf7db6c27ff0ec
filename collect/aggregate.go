package collect

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/bsa/internal/file"
)

// Aggregation is the result of Aggregate.
type Aggregation struct {
	// Blocks holds the regrouped blocks. Blocks emptied by the regrouping are dropped.
	Blocks [][]File

	// Duplicates counts files whose content matches a file placed before them.
	Duplicates int

	// SavedBytes is the size of all duplicates.
	SavedBytes int64
}

// Aggregate moves every file whose content is identical to an earlier file
// into that file's block, so duplicates end up in the same archive. Files are
// compared by size first and by their xxhash64 content hash second; only
// files sharing a size with another file are read.
//
// concurrency bounds how many files are hashed at once. Zero uses GOMAXPROCS.
func Aggregate(ctx context.Context, fsys fs.FS, blocks [][]File, concurrency int) (*Aggregation, error) {
	bySize := make(map[int64]int)
	for _, block := range blocks {
		for _, f := range block {
			bySize[f.Size]++
		}
	}

	hashes, err := hashCandidates(ctx, fsys, blocks, bySize, concurrency)
	if err != nil {
		return nil, err
	}

	type key struct {
		size int64
		hash uint64
	}
	groups := make(map[key][]File)
	for _, block := range blocks {
		for _, f := range block {
			if h, ok := hashes[f.Path]; ok {
				k := key{f.Size, h}
				groups[k] = append(groups[k], f)
			}
		}
	}

	agg := &Aggregation{}
	placed := make(map[string]struct{})
	for _, block := range blocks {
		var out []File
		for _, f := range block {
			if _, ok := placed[f.Path]; ok {
				continue
			}
			placed[f.Path] = struct{}{}
			out = append(out, f)

			h, ok := hashes[f.Path]
			if !ok {
				continue
			}
			for _, dup := range groups[key{f.Size, h}] {
				if _, ok := placed[dup.Path]; ok {
					continue
				}
				placed[dup.Path] = struct{}{}
				out = append(out, dup)
				agg.Duplicates++
				agg.SavedBytes += dup.Size
			}
		}
		if len(out) > 0 {
			agg.Blocks = append(agg.Blocks, out)
		}
	}
	return agg, nil
}

// hashCandidates returns the content hash of every file whose size is shared
// with at least one other file.
func hashCandidates(ctx context.Context, fsys fs.FS, blocks [][]File, bySize map[int64]int, concurrency int) (map[string]uint64, error) {
	var candidates []File
	for _, block := range blocks {
		for _, f := range block {
			if bySize[f.Size] > 1 {
				candidates = append(candidates, f)
			}
		}
	}

	sums := make([]uint64, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(concurrency)
	for i, f := range candidates {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := hashFile(fsys, f.Path)
			if err != nil {
				return err
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hashes := make(map[string]uint64, len(candidates))
	for i, f := range candidates {
		hashes[f.Path] = sums[i]
	}
	return hashes, nil
}

func hashFile(fsys fs.FS, name string) (uint64, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, fmt.Errorf("hash %s: %w", name, err)
	}
	defer f.Close()

	d := xxhash.New()
	if _, err := file.Copy(d, f, make([]byte, 64<<10)); err != nil {
		return 0, fmt.Errorf("hash %s: %w", name, err)
	}
	return d.Sum64(), nil
}
