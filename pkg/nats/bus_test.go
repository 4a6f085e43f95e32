package nats

import (
	"testing"

	"wine-concierge-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "concierge.events.index_rebuilt", Subject(events.TypeIndexRebuilt))
	assert.Equal(t, "concierge.events.index_rebuild_requested", Subject(events.TypeRebuildRequested))
}
