package jobprogress

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Snapshot is the aggregated view of a batch sent to browsers
type Snapshot struct {
	SessionID      string     `json:"session_id,omitempty"`
	TotalJobs      int        `json:"total_jobs"`
	Jobs           []JobState `json:"jobs"`
	RunningCount   int        `json:"running_count"`
	CompletedCount int        `json:"completed_count"`
	SkippedCount   int        `json:"skipped_count"`
	FailedCount    int        `json:"failed_count"`
	// PendingCount includes announced jobs that have not reported yet
	PendingCount  int       `json:"pending_count"`
	Percent       float64   `json:"percent"`
	BatchComplete bool      `json:"batch_complete"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Tracker reduces upstream messages into per-job state. The last update for
// a job name wins.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*JobState
	order     []string
	totalJobs int
	sessionID string
	complete  bool
	updatedAt time.Time
	now       func() time.Time
}

// NewTracker creates an empty Tracker
func NewTracker() *Tracker {
	return &Tracker{
		jobs: make(map[string]*JobState),
		now:  time.Now,
	}
}

// Apply reduces one message and reports whether the snapshot changed
func (t *Tracker) Apply(msg *Message) (bool, error) {
	switch msg.Type {
	case TypeHeartbeat:
		return false, nil

	case TypeBatchStart:
		t.mu.Lock()
		defer t.mu.Unlock()
		t.resetLocked()
		t.totalJobs = msg.TotalJobs
		t.sessionID = msg.SessionID
		t.updatedAt = t.now()
		return true, nil

	case TypeJobUpdate:
		job, err := msg.Job()
		if err != nil {
			return false, err
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		job.UpdatedAt = t.now()
		if _, seen := t.jobs[job.Name]; !seen {
			t.order = append(t.order, job.Name)
		}
		t.jobs[job.Name] = job
		if msg.TotalJobs > t.totalJobs {
			t.totalJobs = msg.TotalJobs
		}
		t.updatedAt = job.UpdatedAt
		return true, nil

	case TypeBatchComplete:
		t.mu.Lock()
		defer t.mu.Unlock()
		t.complete = true
		if msg.TotalJobs > 0 {
			t.totalJobs = msg.TotalJobs
		}
		t.updatedAt = t.now()
		return true, nil
	}
	return false, fmt.Errorf("unknown progress message type %q", msg.Type)
}

// Reset forgets every job
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *Tracker) resetLocked() {
	t.jobs = make(map[string]*JobState)
	t.order = nil
	t.totalJobs = 0
	t.sessionID = ""
	t.complete = false
}

// Snapshot returns the current buckets and aggregate percent. Completed and
// skipped jobs count as 100 percent; unseen announced jobs count as 0.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		SessionID:     t.sessionID,
		TotalJobs:     t.totalJobs,
		Jobs:          make([]JobState, 0, len(t.order)),
		BatchComplete: t.complete,
		UpdatedAt:     t.updatedAt,
	}

	var sum float64
	for _, name := range t.order {
		job := *t.jobs[name]
		snap.Jobs = append(snap.Jobs, job)

		switch job.Status {
		case StatusSkipped:
			snap.SkippedCount++
			sum += 100
		case StatusCompleted:
			snap.CompletedCount++
			sum += 100
		case StatusFailed:
			snap.FailedCount++
			sum += job.Progress
		case StatusPending:
			snap.PendingCount++
			sum += job.Progress
		default:
			snap.RunningCount++
			sum += job.Progress
		}
	}

	seen := len(t.order)
	if unseen := t.totalJobs - seen; unseen > 0 {
		snap.PendingCount += unseen
	}

	denom := seen
	if t.totalJobs > denom {
		denom = t.totalJobs
	}
	if denom > 0 {
		snap.Percent = math.Round(sum/float64(denom)*10) / 10
	}
	return snap
}
