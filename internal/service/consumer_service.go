package service

import (
	"context"
	"encoding/json"
	"errors"

	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/pkg/apperr"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService runs queued rebuilds one at a time. Failed rebuilds are
// acked, not retried; the next upload or request starts a fresh one.
type consumerService struct {
	pubSub       message.Subscriber
	topicName    string
	indexService IIndexService
	logger       logger.ILogger
}

func NewConsumerService(
	pubSub message.Subscriber,
	topicName string,
	indexService IIndexService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		indexService: indexService,
		logger:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishIndexRebuildMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Warn("REBUILD", "dropping malformed rebuild request", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Info("REBUILD", "processing queued rebuild", map[string]interface{}{
		"message_id":   msg.UUID,
		"reason":       payload.Reason,
		"requested_at": payload.RequestedAt,
	})

	res, err := cs.indexService.Refresh(ctx, payload.Reason)
	switch {
	case errors.Is(err, apperr.ErrNoDocuments):
		cs.logger.Info("REBUILD", "nothing to index, active index kept", map[string]interface{}{"reason": payload.Reason})
	case err != nil:
		cs.logger.Error("REBUILD", "queued rebuild failed", map[string]interface{}{
			"reason": payload.Reason,
			"error":  err,
		})
	default:
		cs.logger.Info("REBUILD", "queued rebuild done", map[string]interface{}{
			"reason":    payload.Reason,
			"documents": res.Documents,
		})
	}
}
