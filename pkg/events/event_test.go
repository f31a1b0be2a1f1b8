package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewBaseEvent("claimrisk.claim.scored", "agg-123", "ClaimAssessment")
	after := time.Now().UTC()

	assert.NotEmpty(t, event.EventID())
	assert.Equal(t, "claimrisk.claim.scored", event.EventType())
	assert.Equal(t, "agg-123", event.AggregateID())
	assert.Equal(t, "ClaimAssessment", event.AggregateType())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
}

func TestEventCollectorRecord(t *testing.T) {
	collector := &EventCollector{}

	collector.Record(NewBaseEvent("Event1", "agg", "Aggregate"))
	collector.Record(NewBaseEvent("Event2", "agg", "Aggregate"))

	events := collector.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Event1", events[0].EventType())
	assert.Equal(t, "Event2", events[1].EventType())
}

func TestEventCollectorEventsDoesNotClear(t *testing.T) {
	collector := &EventCollector{}
	collector.Record(NewBaseEvent("Event1", "agg", "Aggregate"))

	_ = collector.Events()

	assert.Len(t, collector.Events(), 1)
}

func TestEventCollectorClearEvents(t *testing.T) {
	collector := &EventCollector{}
	collector.Record(NewBaseEvent("Event1", "agg", "Aggregate"))
	collector.Record(NewBaseEvent("Event2", "agg", "Aggregate"))

	cleared := collector.ClearEvents()

	assert.Len(t, cleared, 2)
	assert.Empty(t, collector.Events())
	assert.Nil(t, collector.ClearEvents())
}
