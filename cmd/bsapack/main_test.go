package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeDataFile(t *testing.T, dir, rel string, size int) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{'x'}, size), 0o644))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bsapack "+version+"\n", out)
}

func TestHashCmd(t *testing.T) {
	out, err := execute(t, "hash", "a.nif", "Test.DDS")
	require.NoError(t, err)
	assert.Equal(t, "92cd45fd61018061  a.nif\n8ddbaa2a7404f3f4  Test.DDS\n", out)

	out, err = execute(t, "hash", "--folder", "meshes")
	require.NoError(t, err)
	assert.Equal(t, "322f3a9a6d066573  meshes\n", out)

	_, err = execute(t, "hash")
	require.Error(t, err)
}

func TestPackCmdSplitsBlocks(t *testing.T) {
	data := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeDataFile(t, data, "Meshes/a.nif", 600)
	writeDataFile(t, data, "Meshes/b.nif", 500)
	writeDataFile(t, data, "textures/c.dds", 700)
	writeDataFile(t, data, "textures/d.dds", 100)
	writeDataFile(t, data, "scripts/skip.pex", 100)

	out, err := execute(t, "pack",
		"--data", data,
		"--folder", "meshes", "--folder", "textures",
		"--output-folder", outDir,
		"--output-name", "Mod",
		"--max-block-size", "1k",
		"--parallel", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "collected 4 file(s) into 2 block(s)")

	for _, name := range []string{"Mod.bsa", "Mod1.bsa"} {
		path := filepath.Join(outDir, name)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "BSA\x00", string(raw[:4]))
		assert.Equal(t, uint32(0x69), binary.LittleEndian.Uint32(raw[4:]))
		assert.Contains(t, out, digest.FromBytes(raw).String())
	}

	first, err := os.ReadFile(filepath.Join(outDir, "Mod.bsa"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(first[20:]), "a.nif and b.nif fill the first block")

	second, err := os.ReadFile(filepath.Join(outDir, "Mod1.bsa"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(second[20:]))

	_, err = os.Stat(filepath.Join(outDir, "Mod2.bsa"))
	assert.True(t, os.IsNotExist(err))
}

func TestPackCmdPreset(t *testing.T) {
	data := t.TempDir()
	outDir := t.TempDir()
	writeDataFile(t, data, "meshes/a.nif", 10)
	writeDataFile(t, data, "sound/b.wav", 10)

	preset := filepath.Join(t.TempDir(), "preset.toml")
	content := strings.Join([]string{
		`data = "` + filepath.ToSlash(data) + `"`,
		`folders = ["meshes", "sound"]`,
		`output_folder = "` + filepath.ToSlash(outDir) + `"`,
		`output_name = "FromPreset"`,
		`game = "le"`,
	}, "\n")
	require.NoError(t, os.WriteFile(preset, []byte(content), 0o644))

	out, err := execute(t, "pack", "--config", preset, "--output-name", "FromFlag")
	require.NoError(t, err, out)

	raw, err := os.ReadFile(filepath.Join(outDir, "FromFlag.bsa"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x68), binary.LittleEndian.Uint32(raw[4:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(raw[20:]))

	_, err = os.Stat(filepath.Join(outDir, "FromPreset.bsa"))
	assert.True(t, os.IsNotExist(err))
}

func TestPackCmdAggregate(t *testing.T) {
	data := t.TempDir()
	outDir := t.TempDir()
	writeDataFile(t, data, "textures/a.dds", 600)
	writeDataFile(t, data, "textures/b.dds", 500)
	writeDataFile(t, data, "textures/c.dds", 600)

	out, err := execute(t, "pack",
		"--data", data,
		"--output-folder", outDir,
		"--output-name", "Dup",
		"--max-block-size", "1000",
		"--aggregate-duplicates")
	require.NoError(t, err, out)
	assert.Contains(t, out, "aggregated 1 duplicate(s)")

	raw, err := os.ReadFile(filepath.Join(outDir, "Dup.bsa"))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(raw[20:]))
}

func TestPackCmdErrors(t *testing.T) {
	data := t.TempDir()
	writeDataFile(t, data, "meshes/a.nif", 1)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing data", []string{"pack", "--output-folder", "x", "--output-name", "y"}, "--data is required"},
		{"bad size", []string{"pack", "--data", data, "--output-folder", "x", "--output-name", "y", "--max-block-size", "lots"}, "invalid max block size"},
		{"bad game", []string{"pack", "--data", data, "--output-folder", "x", "--output-name", "y", "--game", "morrowind"}, "unknown game"},
		{"bad parallel", []string{"pack", "--data", data, "--output-folder", "x", "--output-name", "y", "--parallel", "0"}, "--parallel must be > 0"},
		{"missing folder", []string{"pack", "--data", data, "--folder", "sound", "--output-folder", t.TempDir(), "--output-name", "y"}, "folder not found"},
		{"missing preset", []string{"pack", "--config", filepath.Join(data, "nope.toml")}, "load preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "Mod.bsa", archiveName("Mod", 0))
	assert.Equal(t, "Mod3.bsa", archiveName("Mod", 3))
}
