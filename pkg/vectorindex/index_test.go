package vectorindex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(source string, pos int, vec ...float32) Chunk {
	return Chunk{ID: ChunkID(source, pos), Source: source, Position: pos, Text: source, Vector: vec}
}

func TestNew_Validation(t *testing.T) {
	_, err := New("b", "hash:2", time.Now(), nil)
	assert.ErrorIs(t, err, ErrEmptyIndex)

	_, err = New("b", "hash:2", time.Now(), []Chunk{chunk("a.txt", 0)})
	assert.Error(t, err)

	_, err = New("b", "hash:2", time.Now(), []Chunk{chunk("a.txt", 0, 1, 0), chunk("a.txt", 1, 1, 0, 0)})
	assert.Error(t, err)
}

func TestSearch_OrderAndLimit(t *testing.T) {
	ix, err := New("b1", "hash:2", time.Now(), []Chunk{
		chunk("far.txt", 0, 0, 1),
		chunk("near.txt", 0, 1, 0),
		chunk("mid.txt", 0, 1, 1),
		chunk("tie.txt", 0, 2, 0),
		chunk("opposite.txt", 0, -1, 0),
	})
	require.NoError(t, err)

	matches, err := ix.Search([]float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	// equal scores keep insertion order
	assert.Equal(t, "near.txt", matches[0].Chunk.Source)
	assert.Equal(t, "tie.txt", matches[1].Chunk.Source)
	assert.Equal(t, "mid.txt", matches[2].Chunk.Source)
	assert.Equal(t, "far.txt", matches[3].Chunk.Source)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)

	all, err := ix.Search([]float32{1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "opposite.txt", all[4].Chunk.Source)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	ix, err := New("b1", "hash:2", time.Now(), []Chunk{chunk("a.txt", 0, 1, 0)})
	require.NoError(t, err)

	_, err = ix.Search([]float32{1, 0, 0}, 4)
	assert.Error(t, err)
}

func TestSources(t *testing.T) {
	ix, err := New("b1", "hash:1", time.Now(), []Chunk{
		chunk("a.txt", 0, 1), chunk("a.txt", 1, 1), chunk("b.pdf", 0, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.pdf"}, ix.Sources())
	assert.Equal(t, 3, ix.Len())
}

func TestHandle_PublishIsAtomicForReaders(t *testing.T) {
	h := NewHandle()
	assert.Nil(t, h.Load())

	first, _ := New("first", "hash:1", time.Now(), []Chunk{chunk("a.txt", 0, 1)})
	second, _ := New("second", "hash:1", time.Now(), []Chunk{chunk("a.txt", 0, 1), chunk("b.txt", 0, 1)})
	h.Publish(first)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				ix := h.Load()
				// a snapshot is always internally consistent
				switch ix.BuildID {
				case "first":
					assert.Equal(t, 1, ix.Len())
				case "second":
					assert.Equal(t, 2, ix.Len())
				default:
					t.Errorf("unexpected build %q", ix.BuildID)
				}
			}
		}()
	}

	prev := h.Publish(second)
	wg.Wait()

	assert.Same(t, first, prev)
	assert.Same(t, second, h.Load())
}
