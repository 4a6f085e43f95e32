package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeIndexRebuilt     = "INDEX_REBUILT"
	TypeRebuildRequested = "INDEX_REBUILD_REQUESTED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INDEX_REBUILT").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// String reads a string field from the payload.
func (e BaseEvent) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// IndexRebuilt announces that an instance persisted a new index artifact.
// Origin lets the publishing instance skip its own event.
func IndexRebuilt(origin, buildID, reason string, chunks, documents int) BaseEvent {
	return BaseEvent{
		Type: TypeIndexRebuilt,
		Data: map[string]interface{}{
			"origin":    origin,
			"build_id":  buildID,
			"reason":    reason,
			"chunks":    chunks,
			"documents": documents,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// RebuildRequested asks the rebuild worker to refresh the index.
func RebuildRequested(reason string) BaseEvent {
	return BaseEvent{
		Type:       TypeRebuildRequested,
		Data:       map[string]interface{}{"reason": reason},
		OccurredAt: time.Now().UTC(),
	}
}

type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// Marshal encodes an event with its type and timestamp so receivers can
// rebuild it without guessing from the transport subject.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(envelope{
		Type:       e.EventType(),
		OccurredAt: e.Timestamp(),
		Data:       e.Payload(),
	})
}

func Unmarshal(data []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("decoding event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("decoding event: missing type")
	}
	if env.Data == nil {
		env.Data = map[string]interface{}{}
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}
