package entity

import (
	"strconv"
	"time"
)

// JournalEntry is the local audit trail of an action submitted through this service
type JournalEntry struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	SubjectID      string    `json:"subject_id"`
	Action         string    `json:"action"`
	ActorUserID    string    `json:"actor_user_id"`
	ActorRole      string    `json:"actor_role"`
	BranchCode     string    `json:"branch_code,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	Payload        string    `json:"payload,omitempty"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// JournalFilter narrows journal listings; empty fields match everything
type JournalFilter struct {
	Subject     string
	SubjectID   string
	ActorUserID string
	Outcome     string
	Since       *time.Time
	Until       *time.Time
}

// Field returns a list-display value for the entry
func (j *JournalEntry) Field(name string) string {
	switch name {
	case "id":
		return strconv.FormatInt(j.ID, 10)
	case "subject":
		return j.Subject
	case "subject_id":
		return j.SubjectID
	case "action":
		return j.Action
	case "actor_user_id":
		return j.ActorUserID
	case "actor_role":
		return j.ActorRole
	case "outcome":
		return j.Outcome
	case "created_at":
		return j.CreatedAt.Format("2006-01-02 15:04:05")
	}
	return ""
}
