// Package event defines the in-process notifications raised when a case,
// parameter or detection job changes.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is one notification. Payload values are plain Go values; handlers
// read them with PayloadValue.
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	SubjectID     string                 `json:"subject_id"`
	ActorUserID   string                 `json:"actor_user_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent starts a new correlation chain
func NewEvent(eventType Type, subjectID, actorUserID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, subjectID, actorUserID, payload, uuid.NewString())
}

// NewEventWithCorrelation joins an existing chain, e.g. every case moved by
// one bulk submission shares the submission's correlation ID.
func NewEventWithCorrelation(eventType Type, subjectID, actorUserID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		SubjectID:     subjectID,
		ActorUserID:   actorUserID,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// PayloadValue returns the payload entry under key when it holds a T
func PayloadValue[T any](e *Event, key string) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	v, ok := e.Payload[key].(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// PayloadString is PayloadValue for strings, returning "" when absent
func (e *Event) PayloadString(key string) string {
	s, _ := PayloadValue[string](e, key)
	return s
}
