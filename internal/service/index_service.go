package service

import (
	"context"
	"errors"
	"time"

	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/entity"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/internal/repository/contract"
	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/events"
	"wine-concierge-be/pkg/rag/indexer"
	"wine-concierge-be/pkg/vectorindex"
)

type IIndexService interface {
	Ensure(ctx context.Context) error
	Refresh(ctx context.Context, reason string) (*indexer.BuildResult, error)
	Status(ctx context.Context) (*dto.IndexStatusResponse, error)
	HandleIndexRebuilt(ctx context.Context, event events.BaseEvent) error
}

// IndexManager is the subset of *indexer.Manager the service drives.
type IndexManager interface {
	Ensure(ctx context.Context) error
	Refresh(ctx context.Context) (*indexer.BuildResult, error)
	Reload(ctx context.Context) (*vectorindex.Index, error)
	Status() indexer.Status
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type indexService struct {
	manager    IndexManager
	builds     contract.IndexBuildRepository
	bus        EventPublisher
	instanceID string
	embedder   string
	logger     logger.ILogger
}

// NewIndexService wires the index lifecycle. bus may be nil when NATS is
// not configured.
func NewIndexService(
	manager IndexManager,
	builds contract.IndexBuildRepository,
	bus EventPublisher,
	instanceID string,
	embedder string,
	log logger.ILogger,
) IIndexService {
	return &indexService{
		manager:    manager,
		builds:     builds,
		bus:        bus,
		instanceID: instanceID,
		embedder:   embedder,
		logger:     log,
	}
}

func (s *indexService) Ensure(ctx context.Context) error {
	if err := s.manager.Ensure(ctx); err != nil {
		return err
	}
	st := s.manager.Status()
	s.logger.Info("INDEX", "startup index ready", map[string]interface{}{
		"ready":    st.Ready,
		"build_id": st.BuildID,
		"chunks":   st.Chunks,
	})
	return nil
}

// Refresh rebuilds, records the attempt in the catalog and tells peers to
// reload when a new index was published.
func (s *indexService) Refresh(ctx context.Context, reason string) (*indexer.BuildResult, error) {
	started := time.Now()
	res, err := s.manager.Refresh(ctx)

	build := &entity.IndexBuild{
		Embedder:   s.embedder,
		Reason:     reason,
		DurationMs: time.Since(started).Milliseconds(),
	}
	switch {
	case err == nil:
		build.Status = entity.IndexBuildSucceeded
		build.Documents = res.Documents
		for _, sk := range res.Skipped {
			build.Skipped = append(build.Skipped, sk.Source)
		}
		if res.Index != nil {
			build.BuildId = res.Index.BuildID
			build.Chunks = res.Index.Len()
		}
	case errors.Is(err, apperr.ErrNoDocuments):
		build.Status = entity.IndexBuildNoDocuments
	default:
		build.Status = entity.IndexBuildFailed
		build.Error = err.Error()
	}

	if recErr := s.builds.Create(ctx, build); recErr != nil {
		s.logger.Warn("INDEX", "failed to record index build", map[string]interface{}{"error": recErr.Error()})
	}

	if err != nil {
		return nil, err
	}

	if s.bus != nil && res.Index != nil {
		event := events.IndexRebuilt(s.instanceID, res.Index.BuildID, reason, res.Index.Len(), res.Documents)
		if pubErr := s.bus.Publish(ctx, event); pubErr != nil {
			s.logger.Warn("INDEX", "failed to announce rebuilt index", map[string]interface{}{"error": pubErr.Error()})
		}
	}

	return res, nil
}

func (s *indexService) Status(ctx context.Context) (*dto.IndexStatusResponse, error) {
	st := s.manager.Status()
	res := &dto.IndexStatusResponse{
		Ready:     st.Ready,
		BuildId:   st.BuildID,
		Embedder:  st.Embedder,
		Dimension: st.Dimension,
		Chunks:    st.Chunks,
		Sources:   st.Sources,
	}
	if !st.BuiltAt.IsZero() {
		t := st.BuiltAt
		res.BuiltAt = &t
	}

	last, err := s.builds.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if last != nil {
		res.LastBuild = &dto.IndexBuildDTO{
			BuildId:    last.BuildId,
			Reason:     last.Reason,
			Status:     string(last.Status),
			Chunks:     last.Chunks,
			Documents:  last.Documents,
			Skipped:    last.Skipped,
			DurationMs: last.DurationMs,
			Error:      last.Error,
			CreatedAt:  last.CreatedAt,
		}
	}
	return res, nil
}

// HandleIndexRebuilt reloads the artifact another instance just persisted.
func (s *indexService) HandleIndexRebuilt(ctx context.Context, event events.BaseEvent) error {
	if event.String("origin") == s.instanceID {
		return nil
	}

	ix, err := s.manager.Reload(ctx)
	if err != nil {
		return err
	}

	details := map[string]interface{}{"origin": event.String("origin"), "announced": event.String("build_id")}
	if ix != nil {
		details["build_id"] = ix.BuildID
	}
	s.logger.Info("INDEX", "reloaded index rebuilt by peer", details)
	return nil
}
