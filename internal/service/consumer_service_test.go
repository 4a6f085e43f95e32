package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/pkg/events"
	"wine-concierge-be/pkg/rag/indexer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingIndexService struct {
	mu      sync.Mutex
	reasons []string
}

func (c *countingIndexService) Ensure(ctx context.Context) error { return nil }

func (c *countingIndexService) Refresh(ctx context.Context, reason string) (*indexer.BuildResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
	return &indexer.BuildResult{Documents: 1}, nil
}

func (c *countingIndexService) Status(ctx context.Context) (*dto.IndexStatusResponse, error) {
	return &dto.IndexStatusResponse{}, nil
}

func (c *countingIndexService) HandleIndexRebuilt(ctx context.Context, event events.BaseEvent) error {
	return nil
}

func (c *countingIndexService) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.reasons...)
}

func TestPublishAndConsumeRebuild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	idx := &countingIndexService{}
	consumer := NewConsumerService(pubSub, "rebuild", idx, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("rebuild", pubSub)
	require.NoError(t, publisher.PublishRebuild(ctx, "manual"))
	require.NoError(t, publisher.PublishRebuild(ctx, "watch:hours.txt"))

	// malformed payloads are acked and skipped
	require.NoError(t, pubSub.Publish("rebuild", message.NewMessage(watermill.NewUUID(), []byte("{"))))
	require.NoError(t, publisher.PublishRebuild(ctx, "after-bad"))

	assert.Eventually(t, func() bool { return len(idx.seen()) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"manual", "watch:hours.txt", "after-bad"}, idx.seen())
}
