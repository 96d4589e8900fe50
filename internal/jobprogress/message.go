// Package jobprogress follows detection job progress pushed by the core over
// WebSocket and relays snapshots to signed-in browsers.
package jobprogress

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// MessageType is the type field of an upstream message
type MessageType string

const (
	TypeJobUpdate     MessageType = "job_update"
	TypeBatchStart    MessageType = "batch_start"
	TypeBatchComplete MessageType = "batch_complete"
	TypeHeartbeat     MessageType = "heartbeat"
)

// Status of one job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Message is one frame from the upstream progress stream
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	TotalJobs int             `json:"total_jobs,omitempty"`
}

// JobState is the last known state of one job
type JobState struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Skipped   bool      `json:"skipped"`
	UpdatedAt time.Time `json:"updated_at"`
}

// jobDTO accepts both "name" and "job_name" for the job key
type jobDTO struct {
	Name     string  `json:"name"`
	JobName  string  `json:"job_name"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	Skipped  bool    `json:"skipped"`
}

// DecodeMessage parses one upstream frame
func DecodeMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode progress message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("progress message has no type")
	}
	return &msg, nil
}

// Job decodes the job carried by a job_update message
func (m *Message) Job() (*JobState, error) {
	if len(m.Data) == 0 {
		return nil, fmt.Errorf("job_update without data")
	}
	var dto jobDTO
	if err := json.Unmarshal(m.Data, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode job data: %w", err)
	}

	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = strings.TrimSpace(dto.JobName)
	}
	if name == "" {
		return nil, fmt.Errorf("job_update without job name")
	}

	progress := dto.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	job := &JobState{
		Name:     name,
		Status:   Status(strings.ToLower(dto.Status)),
		Progress: progress,
		Message:  dto.Message,
		Skipped:  dto.Skipped,
	}
	switch {
	case job.Skipped:
		job.Status = StatusSkipped
	case job.Status == StatusCompleted:
		job.Progress = 100
	case job.Status == "":
		job.Status = StatusRunning
	}
	return job, nil
}
