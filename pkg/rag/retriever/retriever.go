package retriever

import (
	"context"

	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/embedding"
	"wine-concierge-be/pkg/vectorindex"
)

const DefaultK = 4

// Retriever finds the chunks nearest to a query in the active index.
type Retriever struct {
	handle   *vectorindex.Handle
	embedder embedding.EmbeddingProvider
	k        int
}

func New(handle *vectorindex.Handle, embedder embedding.EmbeddingProvider, k int) *Retriever {
	if k <= 0 {
		k = DefaultK
	}
	return &Retriever{handle: handle, embedder: embedder, k: k}
}

// Ready reports whether an index is currently published.
func (r *Retriever) Ready() bool {
	return r.handle.Load() != nil
}

// Retrieve returns up to k matches, best first. The index snapshot is taken
// once, so a concurrent publish never mixes two indexes in one answer.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vectorindex.Match, error) {
	ix := r.handle.Load()
	if ix == nil {
		return nil, apperr.ErrNoIndex
	}
	if ix.Embedder != r.embedder.Fingerprint() {
		return nil, apperr.Newf(apperr.ErrEmbedderMismatch, 409,
			"active index uses %s but queries are embedded with %s", ix.Embedder, r.embedder.Fingerprint())
	}

	res, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrEmbedding, err)
	}

	matches, err := ix.Search(res.Embedding.Values, r.k)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrEmbedderMismatch, err)
	}
	return matches, nil
}
