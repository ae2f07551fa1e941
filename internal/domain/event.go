package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of learning occurrence an event records.
// The set is closed: the recorder rejects anything else as a programmer error.
type EventType string

const (
	EventQuizCompleted   EventType = "quiz_completed"
	EventQuizScore       EventType = "quiz_score"
	EventStudyTime       EventType = "study_time"
	EventDailyStudy      EventType = "daily_study"
	EventModuleCompleted EventType = "module_completed"
)

// EventTypes lists every valid event type, in a stable order.
var EventTypes = []EventType{
	EventQuizCompleted,
	EventQuizScore,
	EventStudyTime,
	EventDailyStudy,
	EventModuleCompleted,
}

// Valid reports whether t is a member of the closed event-type set.
func (t EventType) Valid() bool {
	switch t {
	case EventQuizCompleted, EventQuizScore, EventStudyTime, EventDailyStudy, EventModuleCompleted:
		return true
	}
	return false
}

// Metadata is an open mapping of contextual fields attached to an event.
// The engine never interprets it, only forwards it.
type Metadata map[string]any

// AchievementEvent is an immutable record of a learning occurrence.
// The ID is generated client-side and doubles as the idempotency key the
// remote service dedupes on when a replay redelivers an already-applied event.
type AchievementEvent struct {
	ID         string    `json:"eventId"`
	Type       EventType `json:"eventType"`
	Value      int       `json:"eventValue"`
	Metadata   Metadata  `json:"eventMetadata,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
	Synced     bool      `json:"synced"`
}

// NewEvent builds an achievement event for the given occurrence.
// A non-positive value falls back to 1, the documented default magnitude.
func NewEvent(t EventType, value int, md Metadata) AchievementEvent {
	if value <= 0 {
		value = 1
	}
	return AchievementEvent{
		ID:         uuid.NewString(),
		Type:       t,
		Value:      value,
		Metadata:   md,
		RecordedAt: time.Now().UTC(),
	}
}
