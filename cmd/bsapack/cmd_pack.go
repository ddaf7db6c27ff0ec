package main

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/docker/go-units"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/bsa"
	"github.com/meigma/bsa/collect"
	"github.com/meigma/bsa/internal/pathutil"
)

func newPackCmd() *cobra.Command {
	var (
		configPath string
		flagValues = defaultPreset()
	)

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Split a data directory into size-limited archives",
		Long: "Collects the files under the requested subfolders of a data directory, splits\n" +
			"them into blocks of at most --max-block-size bytes (the last archive may be up\n" +
			"to 25% larger) and writes each block as NAME.bsa, NAME1.bsa, NAME2.bsa...",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := defaultPreset()
			if configPath != "" {
				loaded, err := loadPreset(configPath)
				if err != nil {
					return err
				}
				p = loaded
			}
			p.override(cmd.Flags(), flagValues)

			s, err := p.validate()
			if err != nil {
				return err
			}
			return runPack(cmd.Context(), cmd.OutOrStdout(), loggerFor(cmd), s)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "TOML preset; flags override its values")
	flags.StringVarP(&flagValues.Data, "data", "i", "", "game data directory")
	flags.StringSliceVarP(&flagValues.Folders, "folder", "f", nil, "subfolder to pack (repeatable; default all)")
	flags.StringSliceVar(&flagValues.NotFolders, "not-folder", nil, "subfolder to skip (repeatable)")
	flags.StringVarP(&flagValues.OutputFolder, "output-folder", "o", "", "directory the archives are written to")
	flags.StringVarP(&flagValues.OutputName, "output-name", "n", "", "base name of the archives")
	flags.StringVarP(&flagValues.MaxBlockSize, "max-block-size", "s", defaultMaxBlockSize, "size at which a new archive is started (e.g. 1G, 800M)")
	flags.IntVarP(&flagValues.Parallel, "parallel", "p", 1, "number of archives written at once")
	flags.BoolVar(&flagValues.AggregateDuplicates, "aggregate-duplicates", false, "keep files with identical content in the same archive")
	flags.StringVar(&flagValues.Game, "game", "se", "archive generation: se or le")
	return cmd
}

// packedArchive describes one archive written by runPack.
type packedArchive struct {
	path   string
	files  int
	size   int64
	digest digest.Digest
}

func runPack(ctx context.Context, out io.Writer, logger *slog.Logger, s settings) error {
	if ctx == nil {
		ctx = context.Background()
	}

	dataDir, err := filepath.Abs(s.Data)
	if err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}
	fsys := os.DirFS(dataDir)

	files, err := collect.Walk(ctx, fsys,
		collect.WithFolders(s.Folders...),
		collect.WithExcludedFolders(s.NotFolders...),
		collect.WithLogger(logger))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found under %s", dataDir)
	}

	blocks := collect.Split(files, s.maxBlock)
	fmt.Fprintf(out, "collected %d file(s) into %d block(s) of up to %s\n",
		len(files), len(blocks), units.BytesSize(float64(s.maxBlock)))

	if s.AggregateDuplicates {
		agg, err := collect.Aggregate(ctx, fsys, blocks, s.Parallel)
		if err != nil {
			return err
		}
		blocks = agg.Blocks
		fmt.Fprintf(out, "aggregated %d duplicate(s), %s\n", agg.Duplicates, units.BytesSize(float64(agg.SavedBytes)))
	}

	results := make([]packedArchive, len(blocks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Parallel)
	for i, block := range blocks {
		i, block := i, block
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target := filepath.Join(s.OutputFolder, archiveName(s.OutputName, i))
			res, err := packBlock(target, dataDir, fsys, block, s.game, logger)
			if err != nil {
				return fmt.Errorf("pack %s: %w", filepath.Base(target), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintf(out, "%s\t%d file(s)\t%s\t%s\n", r.path, r.files, units.BytesSize(float64(r.size)), r.digest)
	}
	return nil
}

// archiveName returns NAME.bsa for the first block and NAMEi.bsa after that.
func archiveName(base string, i int) string {
	if i == 0 {
		return base + ".bsa"
	}
	return base + strconv.Itoa(i) + ".bsa"
}

func packBlock(target, dataDir string, fsys fs.FS, block []collect.File, game bsa.Game, logger *slog.Logger) (packedArchive, error) {
	base := pathutil.FromHost(dataDir)
	a := bsa.New(base, bsa.WithFS(fsys), bsa.WithGame(game), bsa.WithLogger(logger.With("archive", filepath.Base(target))))
	for _, f := range block {
		if err := a.AddFile(pathutil.Join(base, f.ArchivePath())); err != nil {
			return packedArchive{}, err
		}
	}

	res, err := a.Save(target)
	if err != nil {
		return packedArchive{}, err
	}

	dgst, err := fileDigest(target)
	if err != nil {
		return packedArchive{}, err
	}
	return packedArchive{path: target, files: a.Len(), size: res.Size, digest: dgst}, nil
}

func fileDigest(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dgst, err := digest.Canonical.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return dgst, nil
}
