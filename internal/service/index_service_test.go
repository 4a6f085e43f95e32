package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wine-concierge-be/internal/entity"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/internal/repository/memory"
	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/document"
	"wine-concierge-be/pkg/events"
	"wine-concierge-be/pkg/rag/indexer"
	"wine-concierge-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeManager struct {
	refreshRes  *indexer.BuildResult
	refreshErr  error
	reloadCalls int
	status      indexer.Status
}

func (f *fakeManager) Ensure(ctx context.Context) error { return nil }

func (f *fakeManager) Refresh(ctx context.Context) (*indexer.BuildResult, error) {
	return f.refreshRes, f.refreshErr
}

func (f *fakeManager) Reload(ctx context.Context) (*vectorindex.Index, error) {
	f.reloadCalls++
	return nil, nil
}

func (f *fakeManager) Status() indexer.Status { return f.status }

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func testIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	ix, err := vectorindex.New("build-1", "hash:2", time.Now(), []vectorindex.Chunk{
		{ID: vectorindex.ChunkID("a.txt", 0), Source: "a.txt", Vector: []float32{1, 0}},
		{ID: vectorindex.ChunkID("b.txt", 0), Source: "b.txt", Vector: []float32{0, 1}},
	})
	require.NoError(t, err)
	return ix
}

func TestIndexService_RefreshRecordsAndAnnounces(t *testing.T) {
	ctx := context.Background()
	mgr := &fakeManager{refreshRes: &indexer.BuildResult{
		Index:     testIndex(t),
		Documents: 2,
		Skipped:   []document.Skip{{Source: "scan.pdf", Reason: "no extractable text"}},
	}}
	builds := memory.NewIndexBuildRepository(10)
	bus := &recordingBus{}

	svc := NewIndexService(mgr, builds, bus, "me", "hash:2", logger.NewNopLogger())
	res, err := svc.Refresh(ctx, "upload:a.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)

	last, err := builds.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.IndexBuildSucceeded, last.Status)
	assert.Equal(t, "build-1", last.BuildId)
	assert.Equal(t, 2, last.Chunks)
	assert.Equal(t, []string{"scan.pdf"}, last.Skipped)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TypeIndexRebuilt, bus.published[0].EventType())
	assert.Equal(t, "me", bus.published[0].Payload()["origin"])
}

func TestIndexService_RefreshFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status entity.IndexBuildStatus
	}{
		{name: "no documents", err: apperr.ErrNoDocuments, status: entity.IndexBuildNoDocuments},
		{name: "embedding down", err: apperr.Wrap(apperr.ErrEmbedding, errors.New("refused")), status: entity.IndexBuildFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			builds := memory.NewIndexBuildRepository(10)
			bus := &recordingBus{}
			svc := NewIndexService(&fakeManager{refreshErr: tt.err}, builds, bus, "me", "hash:2", logger.NewNopLogger())

			_, err := svc.Refresh(ctx, "manual")
			assert.ErrorIs(t, err, tt.err)

			last, err := builds.Latest(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.status, last.Status)
			assert.Empty(t, bus.published)
		})
	}
}

func TestIndexService_HandleIndexRebuilt(t *testing.T) {
	mgr := &fakeManager{}
	svc := NewIndexService(mgr, memory.NewIndexBuildRepository(10), nil, "me", "hash:2", logger.NewNopLogger())

	require.NoError(t, svc.HandleIndexRebuilt(context.Background(), events.IndexRebuilt("me", "b", "upload", 1, 1)))
	assert.Zero(t, mgr.reloadCalls)

	require.NoError(t, svc.HandleIndexRebuilt(context.Background(), events.IndexRebuilt("peer", "b", "upload", 1, 1)))
	assert.Equal(t, 1, mgr.reloadCalls)
}

func TestIndexService_Status(t *testing.T) {
	ctx := context.Background()
	builtAt := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	mgr := &fakeManager{status: indexer.Status{Ready: true, BuildID: "b1", Chunks: 4, Sources: []string{"a.txt"}, BuiltAt: builtAt}}
	builds := memory.NewIndexBuildRepository(10)
	require.NoError(t, builds.Create(ctx, &entity.IndexBuild{BuildId: "b1", Reason: "startup", Status: entity.IndexBuildSucceeded}))

	svc := NewIndexService(mgr, builds, nil, "me", "hash:2", logger.NewNopLogger())
	st, err := svc.Status(ctx)
	require.NoError(t, err)

	assert.True(t, st.Ready)
	assert.Equal(t, builtAt, *st.BuiltAt)
	require.NotNil(t, st.LastBuild)
	assert.Equal(t, "startup", st.LastBuild.Reason)
}
