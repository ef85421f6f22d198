package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterCreatesNestedArtifact(t *testing.T) {
	w := &Writer{Root: t.TempDir()}

	changed, err := w.Write("collections/collection_v2.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	require.True(t, changed)

	data, err := os.ReadFile(filepath.Join(w.Root, "collections", "collection_v2.json"))
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(data))
}

func TestWriterSkipsIdenticalContent(t *testing.T) {
	w := &Writer{Root: t.TempDir()}

	changed, err := w.Write("mapping.json", []byte("same"))
	require.NoError(t, err)
	require.True(t, changed)

	target := filepath.Join(w.Root, "mapping.json")
	before, err := os.Stat(target)
	require.NoError(t, err)

	changed, err = w.Write("mapping.json", []byte("same"))
	require.NoError(t, err)
	require.False(t, changed)

	after, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
}

func TestWriterReplacesChangedContent(t *testing.T) {
	w := &Writer{Root: t.TempDir()}

	_, err := w.Write("mapping.json", []byte("old"))
	require.NoError(t, err)

	changed, err := w.Write("mapping.json", []byte("new"))
	require.NoError(t, err)
	require.True(t, changed)

	data, err := os.ReadFile(filepath.Join(w.Root, "mapping.json"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestWriterLeavesNoTempFiles(t *testing.T) {
	w := &Writer{Root: t.TempDir()}
	_, err := w.Write("out.json", []byte("data"))
	require.NoError(t, err)

	entries, err := os.ReadDir(w.Root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "out.json", entries[0].Name())
}
