package mapper

import (
	"strings"
	"time"

	"wine-concierge-be/internal/entity"
	"wine-concierge-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() && !d.UpdatedAt.Equal(d.CreatedAt) {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:        d.Id,
		Name:      d.Name,
		Extension: d.Extension,
		SizeBytes: d.SizeBytes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:        d.Id,
		Name:      d.Name,
		Extension: d.Extension,
		SizeBytes: d.SizeBytes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

type IndexBuildMapper struct{}

func NewIndexBuildMapper() *IndexBuildMapper {
	return &IndexBuildMapper{}
}

// skipped sources are stored newline separated; file names cannot contain newlines
func (m *IndexBuildMapper) ToEntity(b *model.IndexBuild) *entity.IndexBuild {
	if b == nil {
		return nil
	}

	var skipped []string
	if b.Skipped != "" {
		skipped = strings.Split(b.Skipped, "\n")
	}

	return &entity.IndexBuild{
		Id:         b.Id,
		BuildId:    b.BuildId,
		Embedder:   b.Embedder,
		Reason:     b.Reason,
		Status:     entity.IndexBuildStatus(b.Status),
		Chunks:     b.Chunks,
		Documents:  b.Documents,
		Skipped:    skipped,
		DurationMs: b.DurationMs,
		Error:      b.Error,
		CreatedAt:  b.CreatedAt,
	}
}

func (m *IndexBuildMapper) ToModel(b *entity.IndexBuild) *model.IndexBuild {
	if b == nil {
		return nil
	}
	return &model.IndexBuild{
		Id:         b.Id,
		BuildId:    b.BuildId,
		Embedder:   b.Embedder,
		Reason:     b.Reason,
		Status:     string(b.Status),
		Chunks:     b.Chunks,
		Documents:  b.Documents,
		Skipped:    strings.Join(b.Skipped, "\n"),
		DurationMs: b.DurationMs,
		Error:      b.Error,
		CreatedAt:  b.CreatedAt,
	}
}
