package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/event"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/pkg/utils"
)

// JobActionTrigger is the journal action of a job trigger
const JobActionTrigger = "TRIGGER"

// JobLogSearchFields are matched by the job log search box
var JobLogSearchFields = []string{"filename", "job_name"}

// JobService triggers detection jobs and lists their logs
type JobService interface {
	Trigger(ctx context.Context, user *entity.Profile, jobName string, params map[string]string) (*entity.JobTrigger, error)
	Logs(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.JobLog], error)
	KnownJobs() []string
}

type jobServiceImpl struct {
	api   port.JobAPI
	known map[string]bool
	recorder
}

// NewJobService creates a new JobService accepting the given job names
func NewJobService(
	api port.JobAPI,
	knownJobs []string,
	journal port.JournalRepository,
	publisher Publisher,
	observer ActionObserver,
	logger Logger,
) JobService {
	known := make(map[string]bool, len(knownJobs))
	for _, name := range knownJobs {
		known[strings.ToUpper(name)] = true
	}
	return &jobServiceImpl{
		api:   api,
		known: known,
		recorder: recorder{
			journal:   journal,
			publisher: publisher,
			observer:  observer,
			logger:    logger,
		},
	}
}

// KnownJobs returns the accepted job names, sorted
func (s *jobServiceImpl) KnownJobs() []string {
	out := make([]string, 0, len(s.known))
	for name := range s.known {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Trigger asks the core API to run a job under a fresh run id
func (s *jobServiceImpl) Trigger(ctx context.Context, user *entity.Profile, jobName string, params map[string]string) (*entity.JobTrigger, error) {
	if !workflow.Role(user.Role).CanTriggerJobs() {
		return nil, ErrForbidden
	}

	name := strings.ToUpper(strings.TrimSpace(jobName))
	if !s.known[name] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, jobName)
	}

	clean := make(map[string]string, len(params))
	for k, v := range params {
		clean[k] = utils.SanitizeString(v)
	}

	trigger := &entity.JobTrigger{
		RunID:       uuid.NewString(),
		JobName:     name,
		RequestedBy: user.UserID,
		RequestedAt: time.Now(),
		Params:      clean,
	}

	req := port.JobTriggerRequest{
		RunID:       trigger.RunID,
		JobName:     name,
		RequestedBy: user.UserID,
		Params:      clean,
	}

	entry := s.newEntry(entity.SubjectJob, trigger.RunID, JobActionTrigger, user, req)

	res, err := s.api.TriggerJob(ctx, req)
	if err == nil && res == nil {
		err = errors.New("empty response from core API")
	}
	if err == nil && !res.Accepted {
		err = fmt.Errorf("job %s was not accepted: %s", name, res.Message)
	}
	s.finish(entry, err)
	s.record(ctx, entry)
	if err != nil {
		s.logger.Error("Job trigger failed", "job", name, "run_id", trigger.RunID, "user_id", user.UserID, "error", err)
		return nil, fmt.Errorf("failed to trigger job %s: %w", name, err)
	}

	trigger.Accepted = true
	trigger.Message = res.Message

	s.publish(ctx, event.NewEventWithCorrelation(event.TypeJobTriggered, name, user.UserID, map[string]interface{}{
		"run_id": trigger.RunID,
	}, trigger.RunID))

	s.logger.Info("Job triggered", "job", name, "run_id", trigger.RunID, "user_id", user.UserID)
	return trigger, nil
}

// Logs lists job log files, newest first unless another sort is requested
func (s *jobServiceImpl) Logs(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.JobLog], error) {
	if !workflow.Role(user.Role).CanTriggerJobs() {
		return nil, ErrForbidden
	}
	logs, err := s.api.ListJobLogs(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job logs: %w", err)
	}

	if q.SortBy == "" {
		q.SortBy = "modified_at"
		q.SortDesc = true
	}
	page := datatable.Apply(logs, q, func(l *entity.JobLog, field string) string { return l.Field(field) })
	return &page, nil
}
