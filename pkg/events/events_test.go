package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetType(t *testing.T) {
	assert.Equal(t, NodeCookedEvent, NodeCooked{}.GetType())
	assert.Equal(t, NodeFailedEvent, NodeFailed{}.GetType())
	assert.Equal(t, FlowstateLoadedEvent, FlowstateLoaded{}.GetType())
	assert.Equal(t, FlowstateSavedEvent, FlowstateSaved{}.GetType())
}

func TestNewBaseEvent(t *testing.T) {
	base := NewBaseEvent(NodeCookedEvent, "session-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, NodeCookedEvent, base.Type)
	assert.Equal(t, "session-1", base.SessionID)
	assert.False(t, base.Timestamp.IsZero())
	assert.NotEqual(t, base.ID, NewBaseEvent(NodeCookedEvent, "session-1").ID)
}

func TestNodeCooked_JSONSerialization(t *testing.T) {
	original := &NodeCooked{
		BaseEvent:    NewBaseEvent(NodeCookedEvent, "session-1"),
		NodePath:     "/summary",
		NodeType:     "llm_query",
		CookCount:    3,
		DurationMs:   120,
		OutputCounts: []int{2},
		Warnings:     []string{"item 1 is empty, skipped"},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"node.cooked"`)
	assert.Contains(t, string(data), `"session_id":"session-1"`)
	assert.Contains(t, string(data), `"node_path":"/summary"`)

	var decoded NodeCooked
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.NodePath, decoded.NodePath)
	assert.Equal(t, original.OutputCounts, decoded.OutputCounts)
	assert.Equal(t, original.Warnings, decoded.Warnings)
	assert.True(t, original.Timestamp.Equal(decoded.Timestamp))
}

func TestNodeFailed_OmitsEmptyErrors(t *testing.T) {
	data, err := json.Marshal(NodeFailed{
		BaseEvent: NewBaseEvent(NodeFailedEvent, "s"),
		NodePath:  "/fetch",
		Error:     "connection refused",
	})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"error":"connection refused"`)
	assert.NotContains(t, string(data), `"errors"`)
}

func TestNew(t *testing.T) {
	for _, eventType := range []EventType{NodeCookedEvent, NodeFailedEvent, FlowstateLoadedEvent, FlowstateSavedEvent} {
		event, ok := New(eventType)
		require.True(t, ok, eventType)

		typed, ok := event.(interface{ GetType() EventType })
		require.True(t, ok)
		assert.Equal(t, eventType, typed.GetType())
	}

	_, ok := New("graph.exploded")
	assert.False(t, ok)
}
