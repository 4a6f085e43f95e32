package contract

import (
	"context"

	"wine-concierge-be/internal/entity"
)

// DocumentRepository is the catalog of uploaded files. Names are unique;
// re-uploading a name replaces its record.
type DocumentRepository interface {
	Upsert(ctx context.Context, doc *entity.Document) error
	FindByName(ctx context.Context, name string) (*entity.Document, error)
	FindAll(ctx context.Context) ([]*entity.Document, error)
	Count(ctx context.Context) (int64, error)
}

type IndexBuildRepository interface {
	Create(ctx context.Context, build *entity.IndexBuild) error
	Latest(ctx context.Context) (*entity.IndexBuild, error)
	FindRecent(ctx context.Context, limit int) ([]*entity.IndexBuild, error)
}
