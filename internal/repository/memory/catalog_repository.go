// Package memory keeps the catalog in process when no database is
// configured. Contents are lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wine-concierge-be/internal/entity"
	"wine-concierge-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type DocumentRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewDocumentRepository() contract.DocumentRepository {
	return &DocumentRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *DocumentRepository) Upsert(_ context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := *doc
	if x, found := r.cache.Get(doc.Name); found {
		prev := x.(entity.Document)
		stored.Id = prev.Id
		stored.CreatedAt = prev.CreatedAt
		stored.UpdatedAt = &now
	} else {
		if stored.Id == uuid.Nil {
			stored.Id = uuid.New()
		}
		stored.CreatedAt = now
		stored.UpdatedAt = nil
	}

	r.cache.Set(doc.Name, stored, cache.NoExpiration)
	*doc = stored
	return nil
}

func (r *DocumentRepository) FindByName(_ context.Context, name string) (*entity.Document, error) {
	if x, found := r.cache.Get(name); found {
		d := x.(entity.Document)
		return &d, nil
	}
	return nil, nil
}

func (r *DocumentRepository) FindAll(_ context.Context) ([]*entity.Document, error) {
	items := r.cache.Items()
	docs := make([]*entity.Document, 0, len(items))
	for _, item := range items {
		d := item.Object.(entity.Document)
		docs = append(docs, &d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (r *DocumentRepository) Count(_ context.Context) (int64, error) {
	return int64(r.cache.ItemCount()), nil
}

// IndexBuildRepository keeps the most recent builds in a bounded ring.
type IndexBuildRepository struct {
	mu     sync.RWMutex
	builds []entity.IndexBuild
	max    int
}

func NewIndexBuildRepository(max int) contract.IndexBuildRepository {
	if max <= 0 {
		max = 50
	}
	return &IndexBuildRepository{max: max}
}

func (r *IndexBuildRepository) Create(_ context.Context, build *entity.IndexBuild) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if build.Id == uuid.Nil {
		build.Id = uuid.New()
	}
	if build.CreatedAt.IsZero() {
		build.CreatedAt = time.Now().UTC()
	}

	r.builds = append(r.builds, *build)
	if len(r.builds) > r.max {
		r.builds = r.builds[len(r.builds)-r.max:]
	}
	return nil
}

func (r *IndexBuildRepository) Latest(_ context.Context) (*entity.IndexBuild, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.builds) == 0 {
		return nil, nil
	}
	b := r.builds[len(r.builds)-1]
	return &b, nil
}

func (r *IndexBuildRepository) FindRecent(_ context.Context, limit int) ([]*entity.IndexBuild, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	out := make([]*entity.IndexBuild, 0, limit)
	for i := len(r.builds) - 1; i >= 0 && len(out) < limit; i-- {
		b := r.builds[i]
		out = append(out, &b)
	}
	return out, nil
}
