// Package events defines event types and structures for version and
// step-design lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/leanworks/futurestate/pkg/models"
)

type EventType string

// Kafka topics.
const VersionsTopic = "futurestate.versions" // Topic for version lifecycle events
const DesignsTopic = "futurestate.designs"   // Topic for design and status events

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Version lifecycle events.
	VersionCreatedEvent EventType = "version.created"
	VersionUpdatedEvent EventType = "version.updated"
	VersionDeletedEvent EventType = "version.deleted"

	// Step design lifecycle events.
	DesignGeneratedEvent      EventType = "design.generated"
	DesignOptionSelectedEvent EventType = "design.option_selected"

	// Status rollup events.
	NodeStatusChangedEvent     EventType = "node.status_changed"
	SolutionStatusChangedEvent EventType = "solution.status_changed"
)

// Topic returns the kafka topic the event type is published on.
func (t EventType) Topic() string {
	switch t {
	case VersionCreatedEvent, VersionUpdatedEvent, VersionDeletedEvent:
		return VersionsTopic
	default:
		return DesignsTopic
	}
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Metadata:  make(map[string]any),
	}
}

type VersionCreated struct {
	BaseEvent

	VersionID       string  `json:"version_id"`
	ParentVersionID *string `json:"parent_version_id,omitempty"`
	Version         int     `json:"version"`
	Name            string  `json:"name"`
}

func (v VersionCreated) GetType() EventType {
	return VersionCreatedEvent
}

type VersionUpdated struct {
	BaseEvent

	VersionID string               `json:"version_id"`
	Status    models.VersionStatus `json:"status"`
	IsLocked  bool                 `json:"is_locked"`
}

func (v VersionUpdated) GetType() EventType {
	return VersionUpdatedEvent
}

type VersionDeleted struct {
	BaseEvent

	VersionID string `json:"version_id"`
	Version   int    `json:"version"`
}

func (v VersionDeleted) GetType() EventType {
	return VersionDeletedEvent
}

type DesignGenerated struct {
	BaseEvent

	NodeID           string `json:"node_id"`
	DesignVersionID  string `json:"design_version_id"`
	Version          int    `json:"version"`
	OptionCount      int    `json:"option_count"`
	QuestionsAdded   int    `json:"questions_added"`
	ResearchModeUsed bool   `json:"research_mode_used"`
}

func (d DesignGenerated) GetType() EventType {
	return DesignGeneratedEvent
}

type DesignOptionSelected struct {
	BaseEvent

	NodeID          string `json:"node_id"`
	DesignVersionID string `json:"design_version_id"`
	OptionID        string `json:"option_id"`
}

func (d DesignOptionSelected) GetType() EventType {
	return DesignOptionSelectedEvent
}

type NodeStatusChanged struct {
	BaseEvent

	NodeID    string                  `json:"node_id"`
	OldStatus models.StepDesignStatus `json:"old_status"`
	NewStatus models.StepDesignStatus `json:"new_status"`
}

func (n NodeStatusChanged) GetType() EventType {
	return NodeStatusChangedEvent
}

type SolutionStatusChanged struct {
	BaseEvent

	SolutionID string                  `json:"solution_id"`
	OldStatus  models.StepDesignStatus `json:"old_status"`
	NewStatus  models.StepDesignStatus `json:"new_status"`
}

func (s SolutionStatusChanged) GetType() EventType {
	return SolutionStatusChangedEvent
}
