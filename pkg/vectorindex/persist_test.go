package vectorindex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wine_docs_index")
	builtAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ix, err := New("build-1", "ollama:nomic-embed-text", builtAt, []Chunk{
		{ID: "menu.txt#0", Source: "menu.txt", Position: 0, Text: "Cabernet <2019> & Merlot", Vector: []float32{0.6, 0.8}},
		{ID: "menu.txt#1", Source: "menu.txt", Position: 1, Text: "Rosé flights", Vector: []float32{1, 0}},
	})
	require.NoError(t, err)
	require.NoError(t, Save(dir, ix))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "build-1", loaded.BuildID)
	assert.Equal(t, "ollama:nomic-embed-text", loaded.Embedder)
	assert.Equal(t, 2, loaded.Dimension)
	assert.True(t, builtAt.Equal(loaded.BuiltAt))
	assert.Equal(t, ix.Chunks(), loaded.Chunks())

	q := []float32{1, 0}
	want, _ := ix.Search(q, 2)
	got, _ := loaded.Search(q, 2)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, FileName, entries[0].Name())
}

func TestSave_ReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	a, _ := New("a", "hash:1", time.Now(), []Chunk{{ID: "x#0", Source: "x", Vector: []float32{1}}})
	b, _ := New("b", "hash:1", time.Now(), []Chunk{{ID: "y#0", Source: "y", Vector: []float32{1}}})

	require.NoError(t, Save(dir, a))
	require.NoError(t, Save(dir, b))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "b", loaded.BuildID)
	assert.Equal(t, []string{"y"}, loaded.Sources())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nothing-here"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	ix, _ := New("a", "hash:1", time.Now(), []Chunk{{ID: "x#0", Source: "x", Text: "syrah", Vector: []float32{1}}})
	require.NoError(t, Save(dir, ix))

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(Path(dir), data[:len(data)-1], 0o644))
	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrCorrupt)

	edited := []byte(strings.Replace(string(data), "syrah", "shiraz", 1))
	require.NoError(t, os.WriteFile(Path(dir), edited, 0o644))
	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte(`{"version":99,"chunks":[]}`), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrUnsupported)
}
