package collect

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	fsys := fstest.MapFS{
		"a.dds": {Data: []byte("same-content")},
		"b.dds": {Data: []byte("other-conten")},
		"c.dds": {Data: []byte("unique")},
		"d.dds": {Data: []byte("same-content")},
		"e.dds": {Data: []byte("same-content")},
	}
	files := func(names ...string) []File {
		var out []File
		for _, n := range names {
			out = append(out, File{Path: n, Size: int64(len(fsys[n].Data))})
		}
		return out
	}
	blocks := [][]File{files("a.dds", "b.dds"), files("c.dds", "d.dds"), files("e.dds")}

	agg, err := Aggregate(context.Background(), fsys, blocks, 2)
	require.NoError(t, err)

	require.Len(t, agg.Blocks, 2, "the emptied last block is dropped")
	assert.Equal(t, []string{"a.dds", "d.dds", "e.dds", "b.dds"}, paths(agg.Blocks[0]))
	assert.Equal(t, []string{"c.dds"}, paths(agg.Blocks[1]))
	assert.Equal(t, 2, agg.Duplicates)
	assert.Equal(t, int64(24), agg.SavedBytes)
}

func TestAggregateNoDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"a": {Data: []byte("1")},
		"b": {Data: []byte("22")},
	}
	blocks := [][]File{{{Path: "a", Size: 1}}, {{Path: "b", Size: 2}}}
	agg, err := Aggregate(context.Background(), fsys, blocks, 0)
	require.NoError(t, err)
	assert.Equal(t, blocks, agg.Blocks)
	assert.Zero(t, agg.Duplicates)
}

func TestAggregateMissingFile(t *testing.T) {
	blocks := [][]File{{{Path: "a", Size: 1}, {Path: "b", Size: 1}}}
	_, err := Aggregate(context.Background(), fstest.MapFS{"a": {Data: []byte("x")}}, blocks, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash b")
}
