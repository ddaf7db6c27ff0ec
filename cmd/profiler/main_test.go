package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartFGProfileWritesProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.pprof")
	stop, err := startFGProfile(path)
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := makeFiles(filepath.Join(dir, "data"), 8, 64, 2, "compressible", 1)
	require.NoError(t, err)
	_, err = runProfile(config{mode: "write", game: "se", iterations: 2}, filepath.Join(dir, "data"), paths, dir)
	require.NoError(t, err)
	stop()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestStartFGProfileBadPath(t *testing.T) {
	_, err := startFGProfile(filepath.Join(t.TempDir(), "missing", "wall.pprof"))
	require.Error(t, err)
}

func TestRunProfileModes(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	paths, err := makeFiles(data, 12, 32, 3, "random", 7)
	require.NoError(t, err)

	for _, mode := range []string{"write", "build", "hash", "collect"} {
		t.Run(mode, func(t *testing.T) {
			stats, err := runProfile(config{mode: mode, game: "le", iterations: 1, files: 12, fileSize: 32}, data, paths, dir)
			require.NoError(t, err)
			assert.Equal(t, 1, stats.ops)
		})
	}

	_, err = runProfile(config{mode: "nope", game: "se", iterations: 1}, data, paths, dir)
	require.Error(t, err)
}
