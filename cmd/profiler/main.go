package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/felixge/fgprof"
	"github.com/meigma/bsa"
	"github.com/meigma/bsa/collect"
	"github.com/meigma/bsa/internal/pathutil"
)

// extensions cycles generated files through the content categories so every
// flag rule is exercised.
var extensions = []string{".nif", ".dds", ".wav", ".xml", ".pex", ".kf"}

type config struct {
	mode        string
	files       int
	fileSize    int
	dirCount    int
	pattern     string
	game        string
	concurrency int
	fgProfile   string
	duration    time.Duration
	iterations  int
	pprofAddr   string
	cpuProfile  string
	memProfile  string
	traceFile   string
	tempDir     string
	keepTemp    bool
	randomSeed  int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkHash  uint64
	sinkCount int
)

//nolint:gocognit,gocyclo // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	dataDir := filepath.Join(dir, "data")
	paths, err := makeFiles(dataDir, cfg.files, cfg.fileSize, cfg.dirCount, cfg.pattern, cfg.randomSeed)
	if err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
	}

	if cfg.fgProfile != "" {
		stopFG, fgErr := startFGProfile(cfg.fgProfile)
		if fgErr != nil {
			log.Fatal(fgErr)
		}
		defer stopFG()
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, dataDir, paths, dir)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit // complexity is inherent to multi-mode profiler dispatch
func runProfile(cfg config, dataDir string, paths []string, rootDir string) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	game, ok := bsa.ParseGame(cfg.game)
	if !ok {
		return profileStats{}, fmt.Errorf("unknown game: %s", cfg.game)
	}

	switch cfg.mode {
	case "write":
		a, err := buildArchive(dataDir, paths, game, cfg.concurrency)
		if err != nil {
			return profileStats{}, err
		}
		out, err := os.Create(filepath.Join(rootDir, "profile.bsa"))
		if err != nil {
			return profileStats{}, err
		}
		defer out.Close()

		for shouldContinue() {
			res, err := a.Write(out)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += res.Size
			ops++
		}

	case "build":
		for shouldContinue() {
			a, err := buildArchive(dataDir, paths, game, cfg.concurrency)
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = a.Len()
			ops++
		}

	case "hash":
		for shouldContinue() {
			for _, p := range paths {
				sinkHash = bsa.HashFile(filepath.Base(p))
				byteCount += int64(len(p))
			}
			ops++
		}

	case "collect":
		fsys := os.DirFS(dataDir)
		for shouldContinue() {
			files, err := collect.Walk(context.Background(), fsys)
			if err != nil {
				return profileStats{}, err
			}
			blocks := collect.Split(files, int64(cfg.fileSize)*int64(cfg.files)/4)
			agg, err := collect.Aggregate(context.Background(), fsys, blocks, cfg.concurrency)
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = len(agg.Blocks)
			for _, f := range files {
				byteCount += f.Size
			}
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "write", "mode: write, build, hash, collect")
	flag.IntVar(&cfg.files, "files", 512, "number of files")
	flag.IntVar(&cfg.fileSize, "file-size", 16<<10, "file size in bytes")
	flag.IntVar(&cfg.dirCount, "dir-count", 16, "number of directories")
	flag.StringVar(&cfg.pattern, "pattern", "compressible", "pattern: compressible or random")
	flag.StringVar(&cfg.game, "game", "se", "archive generation: se or le")
	flag.IntVar(&cfg.concurrency, "concurrency", 0, "stat/hash workers: <0 serial, 0 auto, >0 fixed")
	flag.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for dataset")
	flag.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.Parse()
	return cfg
}

// startFGProfile starts a wall-clock profile written to path. The returned
// function stops the profile and closes the file.
func startFGProfile(path string) (func(), error) {
	fgFile, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	stopFG := fgprof.Start(fgFile, fgprof.FormatPprof)
	return func() {
		if err := stopFG(); err != nil {
			log.Printf("fgprof stop error: %v", err)
		}
		_ = fgFile.Close()
	}, nil
}

func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		if err := os.MkdirAll(cfg.tempDir, 0o750); err != nil {
			return "", nil, err
		}
		return cfg.tempDir, nil, nil
	}
	dir, err := os.MkdirTemp("", "bsa-profiler-*")
	if err != nil {
		return "", nil, err
	}
	if cfg.keepTemp {
		log.Printf("keeping temp dir %s", dir)
		return dir, nil, nil
	}
	return dir, func() error { return os.RemoveAll(dir) }, nil
}

// makeFiles writes fileCount files spread over dirCount folders and returns
// their slash paths relative to dir.
func makeFiles(dir string, fileCount, fileSize, dirCount int, pattern string, seed int64) ([]string, error) {
	if dirCount <= 0 {
		dirCount = 1
	}
	paths := make([]string, 0, fileCount)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // intentional use for reproducible benchmarks
	for i := 0; i < fileCount; i++ {
		relPath := fmt.Sprintf("dir%02d/file%05d%s", i%dirCount, i, extensions[i%len(extensions)])
		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil { //nolint:gosec // 0o755 is intentional for profiler
			return nil, err
		}

		content := make([]byte, fileSize)
		switch pattern {
		case "random":
			if _, err := rng.Read(content); err != nil {
				return nil, err
			}
		default:
			fillByte := byte('a' + (i % 26))
			for j := range content {
				content[j] = fillByte
			}
		}

		if err := os.WriteFile(fullPath, content, 0o644); err != nil { //nolint:gosec // 0o644 is intentional for profiler test files
			return nil, err
		}
		paths = append(paths, relPath)
	}
	return paths, nil
}

func buildArchive(dataDir string, paths []string, game bsa.Game, concurrency int) (*bsa.Archive, error) {
	base := pathutil.FromHost(dataDir)
	a := bsa.New(base, bsa.WithGame(game), bsa.WithConcurrency(concurrency))
	for _, p := range paths {
		if err := a.AddFile(pathutil.Join(base, pathutil.FromHost(p))); err != nil {
			return nil, err
		}
	}
	return a, nil
}
