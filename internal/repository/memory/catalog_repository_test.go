package memory

import (
	"context"
	"testing"

	"wine-concierge-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepository_UpsertReplacesByName(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	first := &entity.Document{Name: "menu.pdf", Extension: ".pdf", SizeBytes: 10}
	require.NoError(t, repo.Upsert(ctx, first))
	assert.NotEmpty(t, first.Id)
	assert.Nil(t, first.UpdatedAt)

	second := &entity.Document{Name: "menu.pdf", Extension: ".pdf", SizeBytes: 20}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.NotNil(t, second.UpdatedAt)

	require.NoError(t, repo.Upsert(ctx, &entity.Document{Name: "hours.txt", Extension: ".txt", SizeBytes: 3}))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "hours.txt", all[0].Name)
	assert.Equal(t, int64(20), all[1].SizeBytes)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	missing, err := repo.FindByName(ctx, "nope.txt")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIndexBuildRepository_KeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewIndexBuildRepository(3)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		require.NoError(t, repo.Create(ctx, &entity.IndexBuild{BuildId: id, Status: entity.IndexBuildSucceeded}))
	}

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b4", latest.BuildId)

	recent, err := repo.FindRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "b4", recent[0].BuildId)
	assert.Equal(t, "b2", recent[2].BuildId)
}
