package implementation

import (
	"context"
	"errors"

	"wine-concierge-be/internal/entity"
	"wine-concierge-be/internal/mapper"
	"wine-concierge-be/internal/model"
	"wine-concierge-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) Upsert(ctx context.Context, doc *entity.Document) error {
	m := r.mapper.ToModel(doc)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"extension", "size_bytes", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	// on conflict the returned id is the new row's default, so reload
	stored, err := r.FindByName(ctx, doc.Name)
	if err != nil {
		return err
	}
	if stored != nil {
		*doc = *stored
	}
	return nil
}

func (r *DocumentRepositoryImpl) FindByName(ctx context.Context, name string) (*entity.Document, error) {
	var m model.Document
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context) ([]*entity.Document, error) {
	var models []*model.Document
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	docs := make([]*entity.Document, 0, len(models))
	for _, m := range models {
		docs = append(docs, r.mapper.ToEntity(m))
	}
	return docs, nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&count).Error
	return count, err
}

type IndexBuildRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IndexBuildMapper
}

func NewIndexBuildRepository(db *gorm.DB) contract.IndexBuildRepository {
	return &IndexBuildRepositoryImpl{
		db:     db,
		mapper: mapper.NewIndexBuildMapper(),
	}
}

func (r *IndexBuildRepositoryImpl) Create(ctx context.Context, build *entity.IndexBuild) error {
	m := r.mapper.ToModel(build)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*build = *r.mapper.ToEntity(m)
	return nil
}

func (r *IndexBuildRepositoryImpl) Latest(ctx context.Context) (*entity.IndexBuild, error) {
	var m model.IndexBuild
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *IndexBuildRepositoryImpl) FindRecent(ctx context.Context, limit int) ([]*entity.IndexBuild, error) {
	if limit <= 0 {
		limit = 10
	}
	var models []*model.IndexBuild
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	builds := make([]*entity.IndexBuild, 0, len(models))
	for _, m := range models {
		builds = append(builds, r.mapper.ToEntity(m))
	}
	return builds, nil
}
