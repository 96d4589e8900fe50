package entity

import (
	"strconv"
	"time"
)

// JobLog describes a log file written by a detection job run
type JobLog struct {
	FileName   string    `json:"filename"`
	JobName    string    `json:"job_name"`
	ModifiedAt time.Time `json:"modified_at"`
	SizeBytes  int64     `json:"size"`
}

// Field returns a list-display value for the log record
func (l *JobLog) Field(name string) string {
	switch name {
	case "filename":
		return l.FileName
	case "job_name":
		return l.JobName
	case "modified_at":
		return l.ModifiedAt.Format("2006-01-02 15:04:05")
	case "size":
		return strconv.FormatInt(l.SizeBytes, 10)
	}
	return ""
}

// JobTrigger records a request to run a detection job
type JobTrigger struct {
	RunID       string            `json:"run_id"`
	JobName     string            `json:"job_name"`
	RequestedBy string            `json:"requested_by"`
	RequestedAt time.Time         `json:"requested_at"`
	Params      map[string]string `json:"params,omitempty"`
	Accepted    bool              `json:"accepted"`
	Message     string            `json:"message,omitempty"`
}
