package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"case transitioned", TypeCaseTransitioned, true},
		{"parameter saved", TypeParameterSaved, true},
		{"parameter authorized", TypeParameterAuthorized, true},
		{"job triggered", TypeJobTriggered, true},
		{"job progress", TypeJobProgress, true},
		{"unknown type", Type("unknown.type"), false},
		{"empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	evt := NewEvent(TypeCaseTransitioned, "CASE-001", "u123", map[string]interface{}{
		"to_status": "3",
		"action":    "APPROVE",
	})

	if evt.ID == "" || evt.CorrelationID == "" {
		t.Fatal("NewEvent() should assign an ID and a correlation ID")
	}
	if evt.ID == evt.CorrelationID {
		t.Error("a new chain should not reuse the event ID")
	}
	if evt.SubjectID != "CASE-001" || evt.ActorUserID != "u123" {
		t.Errorf("NewEvent() subject/actor = %q/%q", evt.SubjectID, evt.ActorUserID)
	}
	if evt.Timestamp.Before(before) || evt.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v, want UTC at or after %v", evt.Timestamp, before)
	}
	if evt.PayloadString("to_status") != "3" {
		t.Errorf("PayloadString(to_status) = %q", evt.PayloadString("to_status"))
	}
}

func TestNewEvent_NilPayload(t *testing.T) {
	evt := NewEvent(TypeJobTriggered, "PASSBY", "u1", nil)
	if evt.Payload == nil {
		t.Fatal("Payload should never be nil")
	}
	evt.Payload["accepted"] = true
}

func TestPayloadValue(t *testing.T) {
	evt := NewEvent(TypeJobProgress, "s-1", "", map[string]interface{}{
		"percent": 42.5,
		"total":   7,
		"name":    "MTM",
	})

	if v, ok := PayloadValue[float64](evt, "percent"); !ok || v != 42.5 {
		t.Errorf("PayloadValue[float64](percent) = %v, %v", v, ok)
	}
	if v, ok := PayloadValue[int](evt, "total"); !ok || v != 7 {
		t.Errorf("PayloadValue[int](total) = %v, %v", v, ok)
	}
	if _, ok := PayloadValue[int](evt, "percent"); ok {
		t.Error("PayloadValue should not convert between numeric types")
	}
	if _, ok := PayloadValue[string](evt, "missing"); ok {
		t.Error("PayloadValue should report missing keys")
	}
	if _, ok := PayloadValue[string](nil, "name"); ok {
		t.Error("PayloadValue on nil event should report false")
	}
	if evt.PayloadString("percent") != "" {
		t.Error("PayloadString should be empty for non-string values")
	}
}

func TestEvent_CorrelationChain(t *testing.T) {
	first := NewEvent(TypeCaseTransitioned, "C1", "u1", nil)
	second := NewEventWithCorrelation(TypeCaseTransitioned, "C2", "u1", nil, first.CorrelationID)

	if second.CorrelationID != first.CorrelationID {
		t.Error("second event should share the correlation ID")
	}
	if first.ID == second.ID {
		t.Error("events should have unique IDs")
	}
}
