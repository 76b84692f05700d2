// Package events defines the notifications published while sessions cook and persist graphs.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the watermill topic every flowcook event is published on.
const Topic = "flowcook.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	NodeCookedEvent      EventType = "node.cooked"
	NodeFailedEvent      EventType = "node.failed"
	FlowstateLoadedEvent EventType = "flowstate.loaded"
	FlowstateSavedEvent  EventType = "flowstate.saved"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// NodeCooked is published after a node's transform ran without errors.
type NodeCooked struct {
	BaseEvent

	NodePath     string   `json:"node_path"`
	NodeType     string   `json:"node_type"`
	CookCount    int      `json:"cook_count"`
	DurationMs   int64    `json:"duration_ms"`
	OutputCounts []int    `json:"output_counts"`
	Warnings     []string `json:"warnings,omitempty"`
}

func (e NodeCooked) GetType() EventType {
	return NodeCookedEvent
}

// NodeFailed is published when a node's transform reported errors.
type NodeFailed struct {
	BaseEvent

	NodePath string   `json:"node_path"`
	NodeType string   `json:"node_type"`
	Error    string   `json:"error"`
	Errors   []string `json:"errors,omitempty"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

type FlowstateLoaded struct {
	BaseEvent

	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
}

func (e FlowstateLoaded) GetType() EventType {
	return FlowstateLoadedEvent
}

type FlowstateSaved struct {
	BaseEvent

	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
}

func (e FlowstateSaved) GetType() EventType {
	return FlowstateSavedEvent
}

// NewBaseEvent stamps a new event of eventType for sessionID.
func NewBaseEvent(eventType EventType, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}

// New returns an empty event value for eventType, ready to be unmarshalled into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case NodeCookedEvent:
		return &NodeCooked{}, true
	case NodeFailedEvent:
		return &NodeFailed{}, true
	case FlowstateLoadedEvent:
		return &FlowstateLoaded{}, true
	case FlowstateSavedEvent:
		return &FlowstateSaved{}, true
	default:
		return nil, false
	}
}
