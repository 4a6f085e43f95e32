// Package vectorindex holds the immutable document index: chunks, their
// vectors and a brute-force cosine search over them. An Index is never
// modified after New returns; a rebuild produces a new one.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

type Chunk struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Position int       `json:"position"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"vector"`
}

type Match struct {
	Chunk Chunk
	Score float64
}

type Index struct {
	BuildID   string
	Embedder  string
	Dimension int
	BuiltAt   time.Time
	chunks    []Chunk
	norms     []float64
}

var ErrEmptyIndex = errors.New("index has no chunks")

// ChunkID is the stable identifier of the position-th window of source.
func ChunkID(source string, position int) string {
	return fmt.Sprintf("%s#%d", source, position)
}

// New validates chunks and takes ownership of them. Every vector must have
// the same, non-zero dimension.
func New(buildID, embedder string, builtAt time.Time, chunks []Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}

	dim := len(chunks[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("chunk %s has an empty vector", chunks[0].ID)
	}

	norms := make([]float64, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) != dim {
			return nil, fmt.Errorf("chunk %s has dimension %d, expected %d", c.ID, len(c.Vector), dim)
		}
		norms[i] = norm(c.Vector)
	}

	return &Index{
		BuildID:   buildID,
		Embedder:  embedder,
		Dimension: dim,
		BuiltAt:   builtAt,
		chunks:    chunks,
		norms:     norms,
	}, nil
}

func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Chunks returns the chunks in index order. Callers must not modify them.
func (ix *Index) Chunks() []Chunk {
	return ix.chunks
}

// Sources lists the distinct document names in index order.
func (ix *Index) Sources() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range ix.chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		out = append(out, c.Source)
	}
	return out
}

// Search returns at most k chunks by descending cosine similarity to query.
// Equal scores keep index order.
func (ix *Index) Search(query []float32, k int) ([]Match, error) {
	if len(query) != ix.Dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.Dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	qn := norm(query)
	matches := make([]Match, len(ix.chunks))
	for i, c := range ix.chunks {
		score := 0.0
		if qn > 0 && ix.norms[i] > 0 {
			score = dot(c.Vector, query) / (qn * ix.norms[i])
		}
		matches[i] = Match{Chunk: c, Score: score}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
