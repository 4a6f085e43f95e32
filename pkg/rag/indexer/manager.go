// Package indexer owns the document index lifecycle: rebuilding it from the
// docs directory, persisting it, loading it back and publishing it as the
// active index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/document"
	"wine-concierge-be/pkg/embedding"
	"wine-concierge-be/pkg/metrics"
	"wine-concierge-be/pkg/utils"
	"wine-concierge-be/pkg/vectorindex"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const module = "INDEXER"

type Config struct {
	IndexPath    string
	ChunkSize    int
	ChunkOverlap int
	Concurrency  int
}

// Source yields the documents an index is built from.
type Source interface {
	Load(ctx context.Context) ([]document.Document, []document.Skip, error)
}

type BuildResult struct {
	Index     *vectorindex.Index
	Documents int
	Skipped   []document.Skip
	Duration  time.Duration
}

type Status struct {
	Ready     bool      `json:"ready"`
	BuildID   string    `json:"build_id,omitempty"`
	Embedder  string    `json:"embedder,omitempty"`
	Dimension int       `json:"dimension,omitempty"`
	Chunks    int       `json:"chunks"`
	Sources   []string  `json:"sources"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
}

type Manager struct {
	cfg      Config
	source   Source
	embedder embedding.EmbeddingProvider
	handle   *vectorindex.Handle
	logger   logger.ILogger
	metrics  *metrics.Metrics

	mu  sync.Mutex // serializes rebuilds and reloads
	now func() time.Time
}

func NewManager(
	cfg Config,
	source Source,
	embedder embedding.EmbeddingProvider,
	handle *vectorindex.Handle,
	log logger.ILogger,
	m *metrics.Metrics,
) *Manager {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Manager{
		cfg:      cfg,
		source:   source,
		embedder: embedder,
		handle:   handle,
		logger:   log,
		metrics:  m,
		now:      time.Now,
	}
}

func (m *Manager) Handle() *vectorindex.Handle {
	return m.handle
}

// Rebuild builds a fresh index from every stored document and persists it.
// The active index is not touched. apperr.ErrNoDocuments means there was
// nothing to index.
func (m *Manager) Rebuild(ctx context.Context) (*BuildResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuild(ctx)
}

func (m *Manager) rebuild(ctx context.Context) (*BuildResult, error) {
	started := m.now()

	docs, skips, err := m.source.Load(ctx)
	if err != nil {
		m.observeRebuild("error", started)
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	for _, s := range skips {
		m.logger.Warn(module, "Document skipped", map[string]interface{}{"source": s.Source, "reason": s.Reason})
	}

	// 1. Split
	var chunks []vectorindex.Chunk
	for _, doc := range docs {
		for i, text := range utils.SplitText(doc.Text, m.cfg.ChunkSize, m.cfg.ChunkOverlap) {
			chunks = append(chunks, vectorindex.Chunk{
				ID:       vectorindex.ChunkID(doc.Source, i),
				Source:   doc.Source,
				Position: i,
				Text:     text,
			})
		}
	}
	if len(chunks) == 0 {
		m.observeRebuild("no_documents", started)
		m.logger.Info(module, "No documents to index", map[string]interface{}{"skipped": len(skips)})
		return nil, apperr.ErrNoDocuments
	}

	m.logger.Info(module, "Embedding chunks", map[string]interface{}{
		"documents": len(docs),
		"chunks":    len(chunks),
		"embedder":  m.embedder.Fingerprint(),
	})

	// 2. Embed, bounded fan-out; each goroutine owns one slot
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for i := range chunks {
		g.Go(func() error {
			res, err := m.embedder.Generate(gctx, chunks[i].Text, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", chunks[i].ID, err)
			}
			chunks[i].Vector = res.Embedding.Values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.observeRebuild("error", started)
		return nil, apperr.Wrap(apperr.ErrEmbedding, err)
	}

	// 3. Build and persist before anyone can see it
	ix, err := vectorindex.New(uuid.NewString(), m.embedder.Fingerprint(), m.now().UTC(), chunks)
	if err != nil {
		m.observeRebuild("error", started)
		return nil, fmt.Errorf("building index: %w", err)
	}
	if err := vectorindex.Save(m.cfg.IndexPath, ix); err != nil {
		m.observeRebuild("error", started)
		return nil, fmt.Errorf("persisting index: %w", err)
	}

	duration := m.observeRebuild("success", started)
	m.logger.Info(module, "Index rebuilt", map[string]interface{}{
		"build_id":    ix.BuildID,
		"chunks":      ix.Len(),
		"duration_ms": duration.Milliseconds(),
	})

	return &BuildResult{Index: ix, Documents: len(docs), Skipped: skips, Duration: duration}, nil
}

// Load reads the persisted index. vectorindex.ErrNotFound means none exists;
// apperr.ErrEmbedderMismatch means it was built in another embedding space.
func (m *Manager) Load(ctx context.Context) (*vectorindex.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix, err := vectorindex.Load(m.cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	if ix.Embedder != m.embedder.Fingerprint() {
		return nil, apperr.Newf(apperr.ErrEmbedderMismatch, 409,
			"index %s was built with %s, configured embedder is %s", ix.BuildID, ix.Embedder, m.embedder.Fingerprint())
	}
	return ix, nil
}

// Reload loads the persisted index and publishes it. A missing artifact
// publishes "no index" and returns (nil, nil). Any other failure keeps the
// current active index.
// It holds the rebuild lock so a reload racing a Refresh cannot publish the
// artifact Refresh is about to replace.
func (m *Manager) Reload(ctx context.Context) (*vectorindex.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reload(ctx)
}

func (m *Manager) reload(ctx context.Context) (*vectorindex.Index, error) {
	ix, err := m.Load(ctx)
	if errors.Is(err, vectorindex.ErrNotFound) {
		m.publish(nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.publish(ix)
	return ix, nil
}

// Refresh is the document-uploaded hook: rebuild, persist, then reload from
// disk so the published index is exactly what a restart would see. With no
// indexable documents the persisted and active index stay as they were.
func (m *Manager) Refresh(ctx context.Context) (*BuildResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) (*BuildResult, error) {
	res, err := m.rebuild(ctx)
	if err != nil {
		return nil, err
	}

	ix, err := m.reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading rebuilt index: %w", err)
	}
	res.Index = ix
	return res, nil
}

// Ensure brings the active index up at startup: load what is on disk and
// rebuild when it is missing, corrupt or from another embedder.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ix, err := m.reload(ctx)
	switch {
	case err == nil && ix != nil:
		return nil
	case err == nil, errors.Is(err, apperr.ErrEmbedderMismatch), errors.Is(err, vectorindex.ErrCorrupt), errors.Is(err, vectorindex.ErrUnsupported):
		if err != nil {
			m.logger.Warn(module, "Persisted index unusable, rebuilding", map[string]interface{}{"error": err.Error()})
		}
		if _, err := m.refresh(ctx); err != nil && !errors.Is(err, apperr.ErrNoDocuments) {
			return err
		}
		return nil
	default:
		return err
	}
}

func (m *Manager) Status() Status {
	ix := m.handle.Load()
	if ix == nil {
		return Status{Sources: []string{}}
	}
	return Status{
		Ready:     true,
		BuildID:   ix.BuildID,
		Embedder:  ix.Embedder,
		Dimension: ix.Dimension,
		Chunks:    ix.Len(),
		Sources:   ix.Sources(),
		BuiltAt:   ix.BuiltAt,
	}
}

func (m *Manager) publish(ix *vectorindex.Index) {
	prev := m.handle.Publish(ix)

	details := map[string]interface{}{}
	if prev != nil {
		details["previous_build_id"] = prev.BuildID
	}
	if ix == nil {
		m.logger.Info(module, "No index available", details)
	} else {
		details["build_id"] = ix.BuildID
		details["chunks"] = ix.Len()
		m.logger.Info(module, "Index published", details)
	}

	if m.metrics == nil {
		return
	}
	if ix == nil {
		m.metrics.IndexChunks.Set(0)
		m.metrics.IndexDocuments.Set(0)
		return
	}
	m.metrics.IndexChunks.Set(float64(ix.Len()))
	m.metrics.IndexDocuments.Set(float64(len(ix.Sources())))
}

func (m *Manager) observeRebuild(status string, started time.Time) time.Duration {
	d := m.now().Sub(started)
	if m.metrics != nil {
		m.metrics.IndexRebuildsTotal.WithLabelValues(status).Inc()
		if status == "success" {
			m.metrics.IndexRebuildDuration.Observe(d.Seconds())
		}
	}
	return d
}
