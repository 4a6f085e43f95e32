// Package nats fans events out to every running instance over core NATS
// subjects. Delivery is at-most-once; each subscriber gets every message.
package nats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/pkg/events"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "concierge.events."

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.BaseEvent) error

type Bus struct {
	nc  *nats.Conn
	log logger.ILogger
}

func Connect(url, clientName string, log logger.ILogger) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS", "disconnected", map[string]interface{}{"error": err.Error()})
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Bus{nc: nc, log: log}, nil
}

// Subject maps an event type to its NATS subject.
func Subject(eventType string) string {
	return subjectPrefix + strings.ToLower(eventType)
}

func (b *Bus) Publish(ctx context.Context, event events.Event) error {
	data, err := events.Marshal(event)
	if err != nil {
		return err
	}

	subject := Subject(event.EventType())
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return b.nc.FlushWithContext(ctx)
}

// Subscribe delivers every event of eventType to handler. Handler errors
// are logged; core NATS has no redelivery.
func (b *Bus) Subscribe(eventType string, handler EventHandler) (*nats.Subscription, error) {
	subject := Subject(eventType)
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		event, err := events.Unmarshal(msg.Data)
		if err != nil {
			b.log.Warn("NATS", "dropping malformed event", map[string]interface{}{
				"subject": msg.Subject,
				"error":   err.Error(),
			})
			return
		}
		if err := handler(context.Background(), event); err != nil {
			b.log.Error("NATS", "event handler failed", map[string]interface{}{
				"subject": msg.Subject,
				"error":   err,
			})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.log.Info("NATS", "subscribed", map[string]interface{}{"subject": subject})
	return sub, nil
}

func (b *Bus) Close() {
	if b.nc != nil {
		_ = b.nc.Drain()
	}
}
