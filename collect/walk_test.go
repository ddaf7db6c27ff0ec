package collect

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataFS() fstest.MapFS {
	return fstest.MapFS{
		"Meshes/Armor/iron.nif":      {Data: make([]byte, 10)},
		"Meshes/Armor/.hidden.nif":   {Data: make([]byte, 3)},
		"Meshes/Clutter/cup.nif":     {Data: make([]byte, 20)},
		"Meshes/link.nif":            {Data: []byte("Armor/iron.nif"), Mode: fs.ModeSymlink},
		"textures/sky.dds":           {Data: make([]byte, 30)},
		"textures/actors/dog.dds":    {Data: make([]byte, 5)},
		"scripts/quest.pex":          {Data: make([]byte, 7)},
		"readme.txt":                 {Data: make([]byte, 1)},
		"Meshes/Armor/Steel/cui.nif": {Data: make([]byte, 4)},
	}
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestWalkAll(t *testing.T) {
	files, err := Walk(context.Background(), dataFS())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Meshes/Armor/Steel/cui.nif",
		"Meshes/Armor/iron.nif",
		"Meshes/Clutter/cup.nif",
		"readme.txt",
		"scripts/quest.pex",
		"textures/actors/dog.dds",
		"textures/sky.dds",
	}, paths(files))
	assert.Equal(t, int64(10), files[1].Size)
}

func TestWalkFolders(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{
			name: "case-insensitive folder",
			opts: []Option{WithFolders("meshes")},
			want: []string{"Meshes/Armor/Steel/cui.nif", "Meshes/Armor/iron.nif", "Meshes/Clutter/cup.nif"},
		},
		{
			name: "backslash subfolder",
			opts: []Option{WithFolders(`meshes\armor`)},
			want: []string{"Meshes/Armor/Steel/cui.nif", "Meshes/Armor/iron.nif"},
		},
		{
			name: "excluded folder",
			opts: []Option{WithFolders("meshes", "textures"), WithExcludedFolders(`Meshes\Armor`, "textures/actors")},
			want: []string{"Meshes/Clutter/cup.nif", "textures/sky.dds"},
		},
		{
			name: "overlapping folders",
			opts: []Option{WithFolders("textures", "textures/actors")},
			want: []string{"textures/actors/dog.dds", "textures/sky.dds"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := Walk(context.Background(), dataFS(), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(files))
		})
	}
}

func TestWalkMissingFolder(t *testing.T) {
	_, err := Walk(context.Background(), dataFS(), WithFolders("sound"))
	require.ErrorIs(t, err, ErrFolderNotFound)
}

func TestWalkCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walk(ctx, dataFS())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWalkWarnsOnNonASCII(t *testing.T) {
	var logs bytes.Buffer
	fsys := fstest.MapFS{"textures/café.dds": {Data: []byte("x")}}
	files, err := Walk(context.Background(), fsys, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, logs.String(), "non-ASCII")
	assert.Equal(t, `textures\café.dds`, files[0].ArchivePath())
}
